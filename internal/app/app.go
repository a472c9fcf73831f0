// Package app assembles the updater from the gcu configuration file.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rzbill/gcu/internal/config"
	"github.com/rzbill/gcu/pkg/checkpoint"
	"github.com/rzbill/gcu/pkg/cli/cmd"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/metrics"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/store"
	"github.com/rzbill/gcu/pkg/updater"
)

// App is an opened updater together with the resources it holds.
type App struct {
	Config  *config.Config
	Updater *updater.Updater
	Metrics *metrics.Metrics

	store  *store.BadgerStore
	logger log.Logger
}

// Open loads the configuration at configFile (or the default locations),
// the YANG models and the live store. Verbose forces debug logging.
func Open(ctx context.Context, configFile string, verbose bool) (*App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logCfg := &log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := log.ApplyConfig(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	log.SetDefaultLogger(logger)

	s, err := schema.LoadDir(cfg.YangDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load YANG models: %w", err)
	}

	st := store.NewBadgerStore(logger)
	if err := st.Open(cfg.StorePath()); err != nil {
		return nil, err
	}

	var opts []store.Option
	if cfg.Store.EnforceReferences {
		opts = append(opts, store.WithGuard(schema.NewGuard(s)))
	}
	ids := cfg.NamespaceIDs()
	dbs := make([]store.ConfigDB, 0, len(ids))
	for _, ns := range ids {
		dbs = append(dbs, st.ConfigDB(ns, opts...))
	}

	stored, err := st.Namespaces(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to list stored namespaces: %w", err)
	}
	for _, ns := range stored {
		if !slices.Contains(ids, ns) {
			logger.Warn("Store holds config for a namespace that is not configured", log.Namespace(ns))
		}
	}

	m := metrics.New()
	u, err := updater.New(dbs, s, checkpoint.NewManager(cfg.CheckpointDir, logger),
		updater.WithLogger(logger),
		updater.WithMetrics(m))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	logger.Debug("Updater ready",
		log.Strs("namespaces", cfg.Namespaces),
		log.Str("yang_dir", cfg.YangDir),
		log.Str("store", cfg.StorePath()),
		log.Str("checkpoint_dir", cfg.CheckpointDir))

	return &App{Config: cfg, Updater: u, Metrics: m, store: st, logger: logger}, nil
}

// Close writes the metrics textfile, when configured, and closes the store.
func (a *App) Close() error {
	var errs []error
	if path := a.Config.Metrics.Textfile; path != "" {
		if err := a.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Debug("Metrics written", log.Str("path", path))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}

// Factory is the cmd.Factory the gcu binary runs with.
func Factory(ctx context.Context, configFile string, verbose bool) (cmd.Updater, func() error, error) {
	a, err := Open(ctx, configFile, verbose)
	if err != nil {
		return nil, nil, err
	}
	return a.Updater, a.Close, nil
}
