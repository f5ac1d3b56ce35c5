package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"routineboard/internal/app"
	"routineboard/internal/config"
	"routineboard/internal/handlers"
	"routineboard/internal/security"
)

func main() {
	// Load configuration
	cfg := config.Load()
	app.SetupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := a.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Sessions for today and the upcoming days exist before the first request
	if _, err := a.Scheduler.MaterializeHorizon(ctx, time.Now()); err != nil {
		log.Warn().Err(err).Msg("Initial materialization failed")
	}
	go a.Scheduler.Run(ctx, cfg.MaterializeInterval)

	secret := cfg.SessionSecret
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET is empty, using an insecure development secret")
		secret = "routineboard-development-secret-do-not-use"
	}
	tokens := security.NewKidTokens(secret, cfg.KidSessionDuration)
	csrf := security.NewCSRFGenerator(secret)
	limiter := security.NewRateLimiter(5, time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	middleware := handlers.NewMiddleware(tokens, csrf, limiter)
	kidHandler := handlers.NewKidHandler(a.Children, tokens, csrf)
	routineHandler := handlers.NewRoutineHandler(a.Board, a.Completion, csrf)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.NewRouter(middleware, kidHandler, routineHandler, a.DB),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Bool("email", a.Notifier.IsEnabled()).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		os.Exit(1)
	}
}
