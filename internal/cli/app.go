// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/rigrun-shell/internal/approval"
	"github.com/jeranaias/rigrun-shell/internal/commands"
	"github.com/jeranaias/rigrun-shell/internal/config"
	"github.com/jeranaias/rigrun-shell/internal/customcmd"
	"github.com/jeranaias/rigrun-shell/internal/logging"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	logFile    string
	verbose    bool
	plain      bool
}

// App is everything a session needs, wired once per invocation.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Store      *config.Store
	Approval   *approval.Controller
	Registry   *commands.Registry
	Loader     *customcmd.Loader
	Dispatcher *commands.Dispatcher

	closer io.Closer
}

// newApp loads configuration, opens the log and wires the command layer.
// The registry starts with built-ins only; callers run discovery.
func newApp(flags *rootFlags) (*App, error) {
	cfg, cfgErr := loadConfig(flags.configPath)
	if cfg == nil {
		return nil, exitWith(ExitConfigError, cfgErr)
	}

	opts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   config.ExpandPath(cfg.Log.File),
	}
	if flags.verbose {
		opts.Level = "debug"
	}
	if flags.logFile != "" {
		opts.File = flags.logFile
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", "err", cfgErr)
	}

	approvalLog := logging.Component(logger, "approval")
	store := config.NewStore(cfg)
	ctrl := approval.NewController(store, approval.WithOnChange(func(from, to approval.Mode) {
		approvalLog.Info("approval mode changed", "from", from, "to", to)
	}))

	reg := commands.NewRegistry(commands.WithLogger(logging.Component(logger, "registry")))

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Approval:   ctrl,
		Registry:   reg,
		Loader:     customcmd.NewLoader(logging.Component(logger, "customcmd"), cfg.CommandDirs()...),
		Dispatcher: commands.NewDispatcher(reg, logging.Component(logger, "dispatch")),
		closer:     closer,
	}, nil
}

// loadConfig reads an explicit path strictly. Without one it uses the
// default locations, where a broken file only costs the user their settings.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromPath(config.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// CommandContext is what built-in actions see.
func (a *App) CommandContext() *commands.Context {
	return &commands.Context{
		Approval: a.Approval,
		Registry: a.Registry,
		Logger:   a.Logger,
		Version:  Version,
	}
}

// Discover runs one synchronous discovery pass.
func (a *App) Discover(ctx context.Context) {
	a.Registry.Refresh(ctx, a.Loader)
}

// Dispatch runs input once against the registry.
func (a *App) Dispatch(ctx context.Context, input string) commands.Outcome {
	return a.Dispatcher.Dispatch(ctx, input, a.CommandContext())
}

// newWatcher builds the command directory watcher, or returns nil when
// watching is disabled.
func (a *App) newWatcher(onChange func(ctx context.Context, paths []string)) (*customcmd.Watcher, error) {
	if !a.Config.Commands.Watch {
		return nil, nil
	}
	w, err := customcmd.NewWatcher(customcmd.WatchConfig{
		Dirs:     a.Loader.Dirs,
		Debounce: time.Duration(a.Config.Commands.WatchDebounceMs) * time.Millisecond,
		OnChange: onChange,
		Logger:   logging.Component(a.Logger, "watch"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start command watcher: %w", err)
	}
	return w, nil
}

// watch runs the command watcher in the background. The returned stop
// function cancels it and waits for it to exit; it is safe to call when
// watching is disabled.
func (a *App) watch(ctx context.Context, onChange func(ctx context.Context, paths []string)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	w, err := a.newWatcher(onChange)
	if err != nil {
		a.Logger.Warn("custom command watcher disabled", "err", err)
	}
	if w == nil {
		return cancel
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			a.Logger.Warn("custom command watcher stopped", "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Close releases the log file.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
