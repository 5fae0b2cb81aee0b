package postgres

import (
	"context"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

// WithTracer installs a statement tracer on the pool. Compose several via
// pgxtrace.CompositeQueryTracer.
func WithTracer(tracer pgx.QueryTracer) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = tracer
	}
}

// NewLogTracer logs every statement on the given logger/level.
func NewLogTracer(logger *log.Logger, level log.Level) pgx.QueryTracer {
	return &queryTracer{log: logger, level: level}
}

// NewOtlpTracer emits a span per statement.
func NewOtlpTracer() pgx.QueryTracer {
	return otelpgx.NewTracer()
}

func InitWithURL(url string, opts ...PoolConfigOption) *pgxpool.Pool {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Fatal("unable to parse database config", log.ErrorField(err))
	}

	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatal("unable to create the database pool", log.ErrorField(err))
	}
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("unable to get a valid database connection", log.ErrorField(err))
	}
	return pool
}

type queryTracer struct {
	log   *log.Logger
	level log.Level
}

func (tracer *queryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	if tracer.level <= log.DebugLevel {
		tracer.log.Debug("executing",
			log.String("sql", data.SQL), log.Any("args", data.Args))
	}
	return ctx
}

func (tracer *queryTracer) TraceQueryEnd(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
}
