package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lab-inventory-backend/config"
	"lab-inventory-backend/internal/audit"
	"lab-inventory-backend/internal/booking"
	"lab-inventory-backend/internal/local"
	"lab-inventory-backend/internal/logger"
	"lab-inventory-backend/internal/remote"
	"lab-inventory-backend/internal/reservations"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	local    *local.Store
	recorder *audit.Recorder
	svc      *booking.Service
	cancel   context.CancelFunc
}

var current *app

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.Client.APIBaseURL = apiURL
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(level, "console", "labtrack")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := local.Open(local.Config{Path: cfg.Client.DataDir, Logger: log})
	if err != nil {
		return err
	}

	client := remote.NewClient(cfg.Client.APIBaseURL, cfg.Client.Timeout, cfg.Client.SessionCookie, log)
	recorder := audit.NewRecorder(cfg.Client.AuditWorkers, client, store, log)
	ctx, cancel := context.WithCancel(context.Background())
	recorder.Start(ctx)

	facade := reservations.NewFacade(reservations.RemoteStore{Client: client}, store, log,
		reservations.WithRejection(remote.IsConflict))

	svc := booking.NewService(facade, recorder, client, client, booking.Config{
		User:         cfg.Client.User,
		StrictRanges: cfg.Client.StrictRanges,
		HistoryLimit: cfg.Client.HistoryLimit,
	}, log)

	current = &app{cfg: cfg, log: log, local: store, recorder: recorder, svc: svc, cancel: cancel}

	// Every invocation is a chance to flush what earlier ones could not deliver.
	if cmd.Name() != "replay" {
		replayCtx, done := context.WithTimeout(ctx, cfg.Client.Timeout)
		defer done()
		if res, err := recorder.Replay(replayCtx); err != nil {
			log.Warn("audit replay failed", zap.Error(err))
		} else if res.Delivered > 0 {
			log.Info("replayed queued audit events", zap.Int("delivered", res.Delivered), zap.Int("remaining", res.Remaining))
		}
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if current == nil {
		return nil
	}
	return current.close()
}

func (a *app) close() error {
	a.recorder.Close()
	a.cancel()
	err := a.local.Close()
	a.log.Sync()
	current = nil
	return err
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*a.cfg.Client.Timeout)
}

// settle waits for an audit task and reports anything other than delivery.
func (a *app) settle(task *audit.Task) {
	if task == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Client.Timeout+5*time.Second)
	defer cancel()

	res, err := task.Wait(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: audit event still pending")
		return
	}
	switch res.Outcome {
	case audit.Queued:
		fmt.Fprintln(os.Stderr, "note: audit event queued locally, it will be sent on the next run")
	case audit.Dropped:
		fmt.Fprintf(os.Stderr, "warning: audit event lost: %v\n", res.Err)
	}
}
