package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bryan-cox/taskquest/internal/config"
	"github.com/bryan-cox/taskquest/internal/model"
	"github.com/bryan-cox/taskquest/internal/notify"
	"github.com/bryan-cox/taskquest/internal/player"
	"github.com/bryan-cox/taskquest/internal/queue"
	"github.com/bryan-cox/taskquest/internal/reconcile"
	"github.com/bryan-cox/taskquest/internal/scorer"
	"github.com/bryan-cox/taskquest/internal/store"
	"github.com/bryan-cox/taskquest/internal/vault"
)

// app holds the components shared by the commands.
type app struct {
	cfg    *config.Config
	vault  *vault.Vault
	store  *store.Store
	player *player.State
	scorer scorer.Scorer
	queue  *queue.Queue
	rec    *reconcile.Reconciler
}

// loadConfig reads the config file and applies the --vault override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if vaultPath != "" {
		cfg.Vault = vaultPath
	}
	return cfg, nil
}

// openState opens the vault with its task store and player.
func openState(cfg *config.Config) (*app, error) {
	v, err := vault.New(cfg.Vault)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		vault:  v,
		store:  store.Open(v, cfg.StorageFolder),
		player: player.Open(v, cfg.StorageFolder),
	}, nil
}

// newApp wires every component from the config.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := openState(cfg)
	if err != nil {
		return nil, err
	}

	a.scorer, err = scorer.New(ctx, cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("could not create scorer: %w", err)
	}

	logger := slog.Default()
	notifier := notify.Log{Logger: logger}

	rpm := 0
	if cfg.RateLimit.Enabled {
		rpm = cfg.RateLimit.RequestsPerMinute
	}
	a.queue = queue.New(a.scorer, scorer.NewHeuristic(cfg.Scoring), a.store, a.player, queue.Options{
		RequestsPerMinute: rpm,
		ScoreTimeout:      cfg.Scoring.Timeout,
		Achievements:      cfg.Achievements,
		Notifier:          notifier,
		Logger:            logger,
		OnJobDone: func(r model.JobResult) {
			logger.Debug("assessment finished", "job_id", r.Job.ID, "status", r.Status, "points", r.Points, "fallback", r.Fallback)
		},
	})
	a.rec = reconcile.New(a.store, a.queue, a.player, a.vault, reconcile.Options{
		DeductOnUncheck: cfg.DeductOnUncheck,
		TrackedFolders:  cfg.TrackedFolders,
		StorageFolder:   cfg.StorageFolder,
		Achievements:    cfg.Achievements,
		Notifier:        notifier,
		Logger:          logger,
	})
	return a, nil
}
