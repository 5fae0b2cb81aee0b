package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/auth"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/cache"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/fetch"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/live"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/upstream"
)

// Server is the dashboard facing HTTP API.
type Server struct {
	app       *fiber.App
	pool      *pgxpool.Pool
	upstream  *upstream.Client
	fetcher   *fetch.Fetcher
	offline   *offline.Manager
	scoring   *live.ScoringProxy
	limiter   *auth.Limiter
	jwtSecret string
	// commentator info read cache, invalidated on writes
	commentatorCache cache.Cache[string, model.CommentatorInfo]
	l                *log.Logger
}

type Option func(*Server)

func WithScoringProxy(p *live.ScoringProxy) Option {
	return func(s *Server) { s.scoring = p }
}

func WithLimiter(limiter *auth.Limiter) Option {
	return func(s *Server) { s.limiter = limiter }
}

func WithJWTSecret(secret string) Option {
	return func(s *Server) { s.jwtSecret = secret }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.l = l }
}

//nolint:whitespace // can't make both editor and linter happy
func New(pool *pgxpool.Pool, upstreamClient *upstream.Client,
	fetcher *fetch.Fetcher, offlineManager *offline.Manager,
	opts ...Option,
) *Server {
	ret := &Server{
		pool:     pool,
		upstream: upstreamClient,
		fetcher:  fetcher,
		offline:  offlineManager,
		l:        log.Default().Named("server"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.commentatorCache = ret.newCommentatorCache()
	ret.app = fiber.New(fiber.Config{
		AppName:               "fwt-dashboard-sync",
		DisableStartupMessage: true,
	})
	ret.app.Use(recover.New())
	ret.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	ret.setupRoutes()
	return ret
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/events", s.handleEvents)
	api.Get("/events/:id/athletes", s.handleEventAthletes)
	api.Get("/series/rankings/:eventId", s.handleSeriesRankings)
	api.Get("/athlete/:id/event-history/:eventId", s.handleEventHistory)
	api.Get("/translations/:locale", s.handleTranslations)

	api.Post("/athletes/filter", s.handleAthleteFilter)

	api.Get("/commentator-info/:athleteId", s.handleCommentatorInfo)
	api.Post("/commentator-info/:athleteId",
		auth.Middleware(s.jwtSecret, s.limiter), s.handleSaveCommentatorInfo)

	api.Post("/offline/events", s.handleSaveOffline)
	api.Get("/offline/events", s.handleOfflineStatuses)
	api.Get("/offline/events/:id", s.handleGetOffline)
	api.Delete("/offline/events/:id", s.handleDeleteOffline)

	api.Get("/live/:eventId", s.handleLiveScoring)
}

// Listen blocks serving requests until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.l.Info("http server listening", log.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
