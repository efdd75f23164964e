package main

import (
	"context"
	"fmt"
	"path/filepath"

	"codearh/internal/app"
	"codearh/internal/client"
	"codearh/internal/config"
	"codearh/internal/logging"
	"codearh/internal/store"
	"codearh/internal/watcher"
)

// instance is a wired application and the resources it owns.
type instance struct {
	cfg     *config.Config
	store   store.Store
	app     *app.App
	watcher *watcher.Watcher
}

// loadConfig reads --config or the default config file.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// configPath is where setup writes the configuration.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetConfigPath()
}

// bootstrap loads configuration and wires the store, the model router, the
// application and the instruction watcher.
func bootstrap(ctx context.Context) (*instance, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Version = version
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if dir := config.DataDir(); dir != "" {
		if err := logging.EnableFileLogging(dir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
			return nil, fmt.Errorf("failed to enable logging: %w", err)
		}
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	router, err := client.NewRouter(cfg.API)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create model clients: %w", err)
	}

	a := app.New(cfg, st, router)
	if err := a.Init(ctx); err != nil {
		st.Close()
		return nil, err
	}

	rt := &instance{cfg: cfg, store: st, app: a}
	if err := rt.startWatcher(); err != nil {
		logging.Warn("instruction watcher disabled", "error", err)
	}
	logging.Info("codearh started", "version", version, "store", cfg.Storage.Path)
	return rt, nil
}

func (rt *instance) startWatcher() error {
	wc := rt.cfg.Watcher
	if !wc.Enabled {
		return nil
	}
	dir := wc.InstructionsDir
	if dir == "" {
		dir = filepath.Join(config.DataDir(), "instructions")
	}

	w, err := watcher.New(dir, watcher.Config{Enabled: true, DebounceMs: wc.DebounceMs})
	if err != nil {
		return err
	}
	w.SetOnChange(rt.app.InstructionChanged)
	if err := w.Start(); err != nil {
		return err
	}
	rt.watcher = w

	n, err := rt.app.LoadInstructions(dir)
	if err != nil {
		return err
	}
	logging.Info("instructions loaded", "dir", dir, "count", n)
	return nil
}

// Close stops the watcher and closes the store.
func (rt *instance) Close() {
	if rt.watcher != nil {
		if err := rt.watcher.Stop(); err != nil {
			logging.Warn("failed to stop watcher", "error", err)
		}
	}
	if err := rt.store.Close(); err != nil {
		logging.Warn("failed to close store", "error", err)
	}
	logging.Close()
}
