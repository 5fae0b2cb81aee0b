package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // profiling is bound to localhost
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/auth"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/config"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/db/postgres"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/fetch"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/live"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/server"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/upstream"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/utils"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/warmup"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the sync service HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"server-addr",
		"a",
		"localhost:8090",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.SupabaseJWTSecret,
		"supabase-jwt-secret",
		"",
		"shared secret to verify Supabase access tokens")
	cmd.Flags().StringVar(&config.EventsTTL,
		"events-ttl",
		"48h",
		"lifetime of offline event snapshots")
	cmd.Flags().StringVar(&config.UpstreamTimeout,
		"upstream-timeout",
		"10s",
		"per-request timeout for upstream API calls")
	cmd.Flags().StringVar(&config.WarmupInterval,
		"warmup-interval",
		"10m",
		"interval between snapshot refresh passes")
	cmd.Flags().StringVar(&config.SweepInterval,
		"sweep-interval",
		"1h",
		"interval between snapshot expiry sweeps (0 sweeps on reads only)")

	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"file containing zapfilter rules for named loggers")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("invalid duration value, using default",
			log.String("value", s), log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

func setupLoggers() (logger, sqlLogger *log.Logger) {
	newLogger := log.New
	if config.LogFormat != "json" {
		newLogger = log.DevLogger
	}
	if config.LogConfig != "" {
		rules, err := os.ReadFile(config.LogConfig)
		if err == nil {
			filtered, fErr := log.NewFiltered(os.Stderr, string(rules),
				parseLogLevel(config.LogLevel, log.InfoLevel),
				log.WithCaller(true), log.AddCallerSkip(1))
			if fErr == nil {
				return filtered, filtered.Named("sql")
			}
			err = fErr
		}
		fmt.Fprintf(os.Stderr, "could not use log config %s: %v\n",
			config.LogConfig, err)
	}
	logger = newLogger(
		os.Stderr,
		parseLogLevel(config.LogLevel, log.InfoLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	sqlLogger = newLogger(
		os.Stderr,
		parseLogLevel(config.SQLLogLevel, log.InfoLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	return logger, sqlLogger
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	logger, sqlLogger := setupLoggers()
	log.ResetDefault(logger)

	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("apiUrl", config.APIURL),
		log.String("natsUrl", config.NatsURL),
		log.String("serverAddr", config.ServerAddr),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // localhost only
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort), nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices()

	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewLogTracer(sqlLogger, log.DebugLevel),
	}
	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err == nil {
			pgTracer = append(pgTracer, postgres.NewOtlpTracer())
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	pool := postgres.InitWithURL(
		config.DB,
		postgres.WithTracer(pgTracer),
	)
	defer pool.Close()

	upstreamClient := upstream.NewClient(config.APIURL,
		upstream.WithTimeout(parseDuration(config.UpstreamTimeout, 10*time.Second)))
	fetcher := fetch.New(fetch.NewPGStore(pool))
	manager := offline.NewManager(pool,
		offline.WithTTL(parseDuration(config.EventsTTL, offline.DefaultTTL)))

	var scoring *live.ScoringProxy
	limiter := auth.NewLimiter()
	if config.NatsURL != "" {
		nc, err := nats.Connect(config.NatsURL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second))
		if err != nil {
			log.Warn("could not connect NATS, live scoring disabled",
				log.ErrorField(err))
		} else {
			defer nc.Close()
			if scoring, err = live.NewScoringProxy(nc); err != nil {
				log.Warn("could not start scoring proxy", log.ErrorField(err))
			} else {
				defer scoring.Close()
			}
			if kvLimiter, err := auth.NewKVLimiter(nc); err == nil {
				limiter = kvLimiter
			} else {
				log.Warn("could not create KV lockout store, using memory",
					log.ErrorField(err))
			}
		}
	}

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	startBackgroundJobs(serverCtx, manager, upstreamClient, pool)

	srv := server.New(pool, upstreamClient, fetcher, manager,
		server.WithScoringProxy(scoring),
		server.WithLimiter(limiter),
		server.WithJWTSecret(config.SupabaseJWTSecret),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Listen(config.ServerAddr)
	}()
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errChan:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	case v := <-sigChan:
		log.Debug("Got signal", log.Any("signal", v))
	}
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Warn("error on shutdown", log.ErrorField(err))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

// startBackgroundJobs wires the snapshot refresher behind the warmup
// registrar and an optional periodic expiry sweep.
//
//nolint:whitespace // can't make both editor and linter happy
func startBackgroundJobs(ctx context.Context, manager *offline.Manager,
	client *upstream.Client, pool *pgxpool.Pool,
) {
	refresher := warmup.NewRefresher(manager, client,
		warmup.WithRefreshInterval(parseDuration(config.WarmupInterval, 10*time.Minute)),
		warmup.WithDBConn(pool))
	registrar := warmup.NewRegistrar(
		refresher.Running,
		refresher.Start,
		warmup.WithInterval(time.Minute))
	registrar.Start(ctx)

	sweep := parseDuration(config.SweepInterval, time.Hour)
	if sweep <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				manager.SweepExpired(ctx)
			}
		}
	}()
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		if err := utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
		wg.Done()
	}

	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		wg.Add(1)
		go checkTCP(postgresAddr)
	}
	if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
		wg.Add(1)
		go checkTCP(natsAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}
