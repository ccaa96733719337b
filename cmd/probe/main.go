package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tw93/probe/internal/app"
	"github.com/tw93/probe/internal/config"
	"github.com/tw93/probe/internal/dircache"
	"github.com/tw93/probe/internal/logging"
	"github.com/tw93/probe/internal/navigation"
	"github.com/tw93/probe/internal/sizecalc"
	"github.com/tw93/probe/internal/sizestore"
	"github.com/tw93/probe/internal/watch"
)

func main() {
	target := os.Getenv(pathEnv)
	if target == "" && len(os.Args) > 1 {
		target = os.Args[1]
	}

	configPath := os.Getenv(configEnv)
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, cfgErr := config.Load(configPath)

	dataDir, dirErr := cfg.DataDir()

	// The alternate screen owns the terminal, so logs only go to a file.
	cfg.Logging.NoTerminal = true
	if cfg.Logging.File == "" && dirErr == nil {
		cfg.Logging.File = filepath.Join(dataDir, "probe.log")
	}
	log := logging.New(cfg.Logging)
	defer func() { _ = log.Sync() }()

	if cfgErr != nil {
		log.Warn("config unreadable, using defaults", zap.String("path", configPath), zap.Error(cfgErr))
	}

	var store *sizestore.Store
	switch {
	case !cfg.Store.Enabled:
	case dirErr != nil:
		log.Warn("persistent cache unavailable, running without persistence", zap.Error(dirErr))
	default:
		s, err := sizestore.Open(sizestore.Options{
			Dir:     dataDir,
			Driver:  cfg.Store.Driver,
			SizeTTL: cfg.Store.SizeTTL,
			Queue:   cfg.Store.Queue,
			Prune:   cfg.Store.Prune,
		}, log)
		if err != nil {
			log.Warn("persistent cache unavailable, running without persistence", zap.Error(err))
		} else {
			store = s
		}
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing persistent cache", zap.Error(err))
		}
	}()

	var watcher *watch.Watcher
	if cfg.Watch.Enabled {
		w, err := watch.New(cfg.Watch.Debounce, log)
		if err != nil {
			log.Warn("directory watching disabled", zap.Error(err))
		} else {
			watcher = w
		}
	}
	defer watcher.Close()

	strategy := sizecalc.Select(cfg.SizeCalc.Strategy, cfg.SizeCalc.Timeout, cfg.SizeCalc.Workers)
	dispatcher := sizecalc.NewDispatcher(strategy, cfg.SizeCalc.Results, log)
	defer dispatcher.Close()
	log.Info("size strategy selected", zap.String("strategy", strategy.Name()))

	ctrl := app.New(app.Options{
		Config:     cfg,
		Cache:      dircache.New(cfg.Cache.Capacity, cfg.Cache.TTL),
		Store:      store,
		Dispatcher: dispatcher,
		History:    navigation.NewHistory(cfg.History.Max),
		Watcher:    watcher,
		Log:        log,
	})
	ctrl.RestoreHistory()

	m := newModel(ctrl)
	if target != "" {
		if err := ctrl.ChooseFolder(target); err != nil {
			fmt.Fprintf(os.Stderr, "cannot open %q: %v\n", target, err)
			os.Exit(1)
		}
		m.sync()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "probe error: %v\n", err)
		os.Exit(1)
	}
}
