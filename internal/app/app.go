// Package app wires the repositories and services shared by the server and
// the routinectl command.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"routineboard/internal/config"
	"routineboard/internal/database"
	"routineboard/internal/repository"
	"routineboard/internal/routine"
	"routineboard/internal/service"
)

// App holds the opened database and the services built on it
type App struct {
	Config     *config.Config
	DB         *database.DB
	Children   *repository.ChildRepository
	Board      *service.BoardService
	Completion *service.CompletionService
	Scheduler  *service.SchedulerService
	Notifier   *service.NotificationService
}

// SetupLogging configures the global zerolog logger. Debug mode switches to
// the console writer.
func SetupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// New opens the configured database and builds the services. Migrations are
// not run here.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	children := repository.NewChildRepository(db)
	sessions := repository.NewSessionRepository(db)
	resolver := routine.NewResolver(
		repository.NewPerformanceRepository(db),
		repository.NewAchievementRepository(db),
		sessions,
	)

	board := service.NewBoardService(children, sessions, resolver, service.BoardOptions{
		Locale:          routine.ParseLocale(cfg.Locale),
		UpcomingDays:    cfg.UpcomingDays,
		DefaultTimezone: cfg.DefaultTimezone,
	})

	notifier, err := service.NewNotificationService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	return &App{
		Config:     cfg,
		DB:         db,
		Children:   children,
		Board:      board,
		Completion: service.NewCompletionService(db, board, notifier),
		Scheduler:  service.NewSchedulerService(db, cfg.UpcomingDays, cfg.DefaultTimezone),
		Notifier:   notifier,
	}, nil
}

// Migrate applies pending migrations from the configured path
func (a *App) Migrate(ctx context.Context) error {
	applied, err := a.DB.RunMigrations(ctx, a.Config.MigrationsPath)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Int("applied", applied).Str("path", a.Config.MigrationsPath).Msg("Migrations completed")
	return nil
}

// Close releases the database
func (a *App) Close() error {
	return a.DB.Close()
}
