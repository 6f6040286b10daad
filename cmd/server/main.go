package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/mutual-help-web/internal/backend"
	"github.com/iliyamo/mutual-help-web/internal/config"
	"github.com/iliyamo/mutual-help-web/internal/database"
	"github.com/iliyamo/mutual-help-web/internal/handler"
	"github.com/iliyamo/mutual-help-web/internal/middleware"
	"github.com/iliyamo/mutual-help-web/internal/queue"
	"github.com/iliyamo/mutual-help-web/internal/router"
	"github.com/iliyamo/mutual-help-web/internal/session"
	"github.com/iliyamo/mutual-help-web/internal/telemetry"
	"github.com/iliyamo/mutual-help-web/internal/validation"
	"github.com/iliyamo/mutual-help-web/internal/view"
)

func main() {
	cfg, err := config.Load(config.APIEnvFile)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional unless it backs the sessions.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = config.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.SessionStore == "redis" {
				log.Error("redis unavailable", "error", err)
				os.Exit(1)
			}
			log.Warn("redis unavailable; cache and shared rate limits disabled", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	checks := map[string]handler.Checker{}

	store, db, err := openSessionStore(ctx, cfg, rdb)
	if err != nil {
		log.Error("open session store", "store", cfg.SessionStore, "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}
	if p, ok := store.(session.Pinger); ok {
		checks["sessions"] = p
	}
	if sqlStore, ok := store.(*session.SQLStore); ok {
		go sweepSessions(ctx, sqlStore, log)
	}
	sessions := session.NewManager(store, session.Options{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	})

	tel, err := telemetry.New(ctx, cfg.Otel, cfg.Env)
	if err != nil {
		log.Error("init telemetry", "error", err)
		os.Exit(1)
	}

	opts := []backend.Option{
		backend.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		backend.WithTracer(tel.Tracer),
		backend.WithLogger(log),
	}
	cacheCfg := config.LoadCacheConfig()
	if cache := backend.NewRedisCache(cacheCfg, rdb); cache != nil {
		opts = append(opts, backend.WithCache(cache, cacheCfg.TTL))
	}
	api := backend.New(cfg.APIBaseURL(), opts...)
	checks["backend"] = api
	if rdb != nil {
		checks["redis"] = handler.CheckerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub := queue.NewAMQPPublisher(cfg.AMQPURL)
		pub.Log = log
		events = pub
	}

	renderer, err := view.New()
	if err != nil {
		log.Error("parse templates", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(sessions.Middleware())
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb).Middleware())

	health := handler.NewHealthHandler(checks)
	router.RegisterRoutes(e, health)
	router.RegisterPublic(e, handler.NewPublicHandler(api))
	router.RegisterAccount(e, handler.NewAccountHandler(api, log))
	router.RegisterStandard(e, handler.NewStandardHandler(api, events, log))
	router.RegisterAdmin(e, handler.NewAdminHandler(api, log), api.Users)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "api", api.BaseURL(), "sessions", cfg.SessionStore)
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	health.SetShuttingDown()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown", "error", err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", cfg.Otel.ServiceName, "env", cfg.Env)
}

// openSessionStore returns the store selected by SESSION_STORE.  The
// returned *sql.DB is non-nil only for the mysql store.
func openSessionStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (session.Store, *sql.DB, error) {
	switch cfg.SessionStore {
	case "redis":
		return session.NewRedisStore(rdb, "mh:sess"), nil, nil
	case "mysql":
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := session.NewSQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db, nil
	}
	return session.NewMemoryStore(), nil, nil
}

func sweepSessions(ctx context.Context, store *session.SQLStore, log *slog.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				log.Warn("sweep expired sessions", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
