package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/db"
	"github.com/arzan03/devcamper/internal/geocoder"
	"github.com/arzan03/devcamper/internal/handlers"
	"github.com/arzan03/devcamper/internal/mailer"
	"github.com/arzan03/devcamper/internal/repository"
	"github.com/arzan03/devcamper/internal/router"
	"github.com/arzan03/devcamper/internal/services"
	"github.com/arzan03/devcamper/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongo, err := db.Connect(ctx, cfg.Mongo, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongo.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	bootcampRepo, err := repository.NewBootcampMongoRepository(ctx, mongo.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create bootcamp repository")
	}
	courseRepo, err := repository.NewCourseMongoRepository(ctx, mongo.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create course repository")
	}
	reviewRepo, err := repository.NewReviewMongoRepository(ctx, mongo.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create review repository")
	}
	userRepo, err := repository.NewUserMongoRepository(ctx, mongo.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user repository")
	}

	photos, err := storage.NewMinioStore(ctx, &logger, cfg.Minio, cfg.Upload.Bucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise photo storage")
	}

	authenticator := auth.NewJWTAuthenticator(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
	aggregates := services.NewAggregator(bootcampRepo, courseRepo, reviewRepo, &logger)

	app := router.New(router.Deps{
		Config:        cfg,
		Logger:        &logger,
		Authenticator: authenticator,
		Auth: services.NewAuthService(
			userRepo, authenticator, mailer.NewMailer(cfg.SMTP), cfg.Reset, &logger,
		),
		Bootcamps: services.NewBootcampService(
			bootcampRepo, courseRepo, reviewRepo,
			geocoder.NewMapQuest(cfg.Geocoder), photos, cfg.Upload, &logger,
		),
		Courses: services.NewCourseService(courseRepo, bootcampRepo, aggregates),
		Reviews: services.NewReviewService(reviewRepo, bootcampRepo, aggregates),
		Users:   services.NewUserService(userRepo),
		Health: map[string]handlers.Pinger{
			"mongo":   mongo,
			"storage": photos,
		},
		AggregateFailures: aggregates.Failures,
		PhotoURL:          photos.URL,
	})

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("port", cfg.HTTP.Port).Str("env", cfg.Env).Msg("server listening")
	if err := app.Listen(":" + cfg.HTTP.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().
		Level(zerolog.DebugLevel)
}
