package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/habitlens/internal/analyzer"
	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/platform"
	"github.com/blackwell-systems/habitlens/internal/settings"
	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/blackwell-systems/habitlens/internal/usage"
)

// env is the wired runtime shared by the commands: one store, one
// permission controller and the usage pipeline reading through it.
type env struct {
	store    *store.Store
	settings *settings.Store
	ops      *platform.AppOps
	stats    *platform.StatsService
	perms    *permission.Controller
	resolver *platform.MetadataResolver
	usage    *usage.Aggregator
	analyzer *analyzer.Analyzer
}

// openEnv opens the database (creating the schema if needed) and wires
// the pipeline. out receives the grant instructions when no settings
// command is configured.
func openEnv(out io.Writer) (*env, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	caps := usage.Capabilities{
		LaunchCountSupported: cfg.LaunchCountSupported,
		CategoriesSupported:  cfg.CategoriesSupported,
	}

	prefs := settings.New(st)
	ops := platform.NewAppOps(st)
	gate := permission.NewAppOpsGate(ops, platform.NewCommandLauncher(cfg.SettingsCommand, out), logger)
	perms := permission.NewController(gate,
		permission.WithRecorder(prefs),
		permission.WithLogger(logger),
		permission.WithCheckTimeout(cfg.QueryTimeout),
	)

	resolver := platform.NewMetadataResolver(st, caps)
	stats := platform.NewStatsService(st, caps, time.Local, logger)
	adapter := usage.NewQueryAdapter(
		stats,
		perms,
		cfg.QueryTimeout,
		logger,
	)
	agg := usage.NewAggregator(
		usage.NewWindows(nil, time.Local),
		adapter,
		usage.NewNormalizer(resolver, logger),
	)

	return &env{
		store:    st,
		settings: prefs,
		ops:      ops,
		stats:    stats,
		perms:    perms,
		resolver: resolver,
		usage:    agg,
		analyzer: analyzer.New(agg, resolver, logger),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// dataFile returns a path inside the data directory, creating the
// directory if needed.
func dataFile(name string) (string, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(cfg.DataDir, name), nil
}

func defaultPIDFile() (string, error) { return dataFile("watch.pid") }

func defaultLogFile() (string, error) { return dataFile("watch.log") }
