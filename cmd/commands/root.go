// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/absmach/topictree/bootstrap"
	"github.com/absmach/topictree/config"
	"github.com/absmach/topictree/router"
	"github.com/absmach/topictree/storage"
	"github.com/absmach/topictree/storage/badger"
	"github.com/absmach/topictree/storage/memory"
	"github.com/absmach/topictree/telemetry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "topictree",
	Short: "MQTT subscription index tooling",
	Long: `topictree - manage persisted MQTT subscriptions and query the topic tree.

Subscriptions are kept in the configured storage (memory or badger). Query
commands replay them into an in-memory topic tree before answering.

Examples:
  # Persist subscriptions
  topictree subscribe client-1 'sensor/+/temperature' --qos 1
  topictree subscribe client-2 '$share/workers/jobs/#'

  # Who receives a publication?
  topictree match sensor/kitchen/temperature

  # Tree shape
  topictree stats --json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// env holds what a command needs, built from the configuration.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	metrics  *telemetry.Metrics
	shutdown func(context.Context) error
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	logLevel := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "badger":
		return badger.New(badger.Config{
			Dir:        cfg.BadgerDir,
			SyncWrites: cfg.SyncWrites,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitProvider(cfg.Telemetry, uuid.NewString())
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	logger.Debug("Storage opened", slog.String("type", cfg.Storage.Type))

	return &env{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  metrics,
		shutdown: shutdown,
	}, nil
}

func (e *env) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return errors.Join(e.store.Close(), e.shutdown(ctx))
}

// closeInto closes the environment and joins any failure into *err.
func (e *env) closeInto(err *error) {
	if cerr := e.close(); cerr != nil {
		e.logger.Error("Failed to close environment", slog.String("error", cerr.Error()))
		*err = errors.Join(*err, cerr)
	}
}

func (e *env) treeConfig() router.Config {
	return router.Config{
		ChildIndexThreshold:      e.cfg.Tree.ChildIndexThreshold,
		SubscriberIndexThreshold: e.cfg.Tree.SubscriberIndexThreshold,
		LockStripes:              e.cfg.Tree.LockStripes,
		MaxSegments:              e.cfg.Tree.MaxSegments,
	}
}

// loadTree replays the stored subscriptions into a new tree.
func (e *env) loadTree(ctx context.Context) (*router.TopicTree, error) {
	tree := router.New(e.treeConfig(), e.metrics, e.logger)
	_, err := bootstrap.Populate(ctx, e.store.Subscriptions(), tree, bootstrap.Options{
		Workers:  e.cfg.Bootstrap.Workers,
		Logger:   e.logger,
		Recorder: e.metrics,
	})
	if err != nil {
		e.metrics.RecordError("bootstrap")
		return nil, err
	}
	return tree, nil
}
