package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/auth"
	"github.com/octobees/portal/internal/config"
	"github.com/octobees/portal/internal/database"
	"github.com/octobees/portal/internal/handler"
	"github.com/octobees/portal/internal/logger"
	"github.com/octobees/portal/internal/repository"
	"github.com/octobees/portal/internal/router"
	"github.com/octobees/portal/internal/server"
	"github.com/octobees/portal/internal/service"
	"github.com/octobees/portal/internal/session"
	"github.com/octobees/portal/internal/view"
	"github.com/octobees/portal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("portal stopped", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		Logger:   zl,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, pool, zl); err != nil {
			return err
		}
	}

	deps := session.StoreDeps{Sessions: repository.NewPGXSessionsRepository(pool)}
	if cfg.Session.Store == config.SessionStoreRedis {
		opts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(connectCtx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		deps.Redis = client
	}

	store, purger, err := session.NewStore(cfg.Session, deps)
	if err != nil {
		return err
	}
	if purger != nil {
		go session.NewReaper(purger, cfg.Session.ReapInterval, zl).Run(ctx)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	renderer, err := view.New(web.Views(cfg.ViewsDir), view.WithReload(cfg.TemplateReload))
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	usersRepo := repository.NewPGXUsersRepository(pool)
	normalizer := service.NewNormalizer(cfg.PhoneRegion, service.WithMXCheck(cfg.EmailCheckMX))
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(usersRepo, jwtManager, normalizer)
	userService := service.NewUserService(usersRepo, normalizer)

	srv := server.New(server.Deps{
		Config: cfg,
		Logger: zl,
		Sessions: session.NewManager(store, session.Options{
			Name:              cfg.Session.Name,
			SaveUninitialized: cfg.Session.SaveUninitialized,
			Resave:            cfg.Session.Resave,
		}, zl),
		Auth: router.NewAuthenticator(authService, router.AuthConfig{
			GoogleClientID: cfg.GoogleClientID,
			Registerer:     reg,
			Logger:         zl,
		}),
		Renderer: renderer,
		Public:   web.Public(cfg.StaticDir),
		Registry: reg,
		Handlers: router.Handlers{
			Pages:   handler.NewPageHandler(),
			Account: handler.NewAccountHandler(userService, cfg.GoogleClientID),
			Auth:    handler.NewAuthHandler(authService, zl),
			Users:   handler.NewUserAdminHandler(userService, zl),
			Health:  handler.NewHealthHandler(pool),
		},
	})

	zl.Info("starting portal", zap.String("addr", cfg.Addr()), zap.String("session_store", cfg.Session.Store))
	return srv.Run(ctx)
}
