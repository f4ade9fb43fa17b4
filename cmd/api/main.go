// Command api serves the CRM accounts REST API.
//
// @title                       CRM Accounts API
// @version                     1.0
// @description                 User and admin accounts for the CRM: registration, login, profile management and soft deletion.
// @host                        localhost:3001
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/crmhub/accounts-api/internal/api"
	"github.com/crmhub/accounts-api/internal/api/handler"
	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/service"
	mongostore "github.com/crmhub/accounts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/crmhub/accounts-api/internal/infrastructure/db/redis"
	"github.com/crmhub/accounts-api/internal/infrastructure/queue"
	"github.com/crmhub/accounts-api/internal/pkg/config"
	"github.com/crmhub/accounts-api/internal/pkg/token"
	"github.com/crmhub/accounts-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "accounts-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongostore.NewAccountRepository(db, domain.KindUser)
	admins := mongostore.NewAccountRepository(db, domain.KindAdmin)
	activityRepo := mongostore.NewActivityRepository(db)
	if err := mongostore.EnsureIndexes(ctx, users, admins, activityRepo); err != nil {
		return err
	}

	tokens, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	checks := map[string]handler.HealthCheck{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}

	activity := service.NewActivityService(activityRepo, logger.Component("activity"))
	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, activity, logger.Component("dispatcher"))
	// Workers outlive ctx so queued entries can still be written while draining.
	dispatcher.Start(context.Background())

	opts := []service.AccountServiceOption{service.WithActivityRecorder(dispatcher)}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, failed-login limiting disabled")
	} else {
		defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
		opts = append(opts, service.WithLoginLimiter(
			redisstore.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockoutWindow),
		))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	accounts := service.NewAccountService(users, admins, tokens, logger.Component("accounts"), opts...)

	e := api.NewRouter(api.Dependencies{
		Accounts:     accounts,
		Activity:     activity,
		Tokens:       tokens,
		Logger:       logger.Component("http"),
		HealthChecks: checks,
		CORSOrigins:  cfg.CORSOrigins,
		BodyLimit:    cfg.BodyLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("server shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(sctx); err != nil {
			errs = append(errs, err)
		}
		if err := dispatcher.Stop(sctx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
