// Package app wires the patienthub backend together: config, logging,
// database and migrations, object storage, the services, and the orphan
// sweep loop, with signal-driven shutdown.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dkravchenko/patienthub/internal/accounts"
	"github.com/dkravchenko/patienthub/internal/config"
	"github.com/dkravchenko/patienthub/internal/documents"
	"github.com/dkravchenko/patienthub/internal/logging"
	"github.com/dkravchenko/patienthub/internal/profile"
	"github.com/dkravchenko/patienthub/internal/repositories/repomanager"
	"github.com/dkravchenko/patienthub/internal/storage"
	"github.com/dkravchenko/patienthub/internal/sweep"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	Accounts  *accounts.Service
	Documents *documents.Service
	Profiles  *profile.Service

	sweeper *sweep.Sweeper
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		URLValidity:  cfg.SignedURLValidityDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	return &App{
		config:    cfg,
		logger:    logger,
		db:        db,
		Accounts:  accounts.NewService(db, m, cfg),
		Documents: documents.NewService(db, m, store, cfg, logger),
		Profiles:  profile.NewService(db, m, logger),
		sweeper:   sweep.NewSweeper(db, m, store, cfg, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
}
