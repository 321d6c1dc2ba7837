package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/mission-engine/internal/config"
	"github.com/jwebster45206/mission-engine/internal/engine"
	"github.com/jwebster45206/mission-engine/internal/logger"
	"github.com/jwebster45206/mission-engine/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	store, err := storage.NewManager(storage.Options{
		DataDir:        cfg.DataDir,
		SQLitePath:     cfg.SQLitePath,
		PostgresDSN:    cfg.PostgresDSN,
		ExpectedVolume: cfg.ExpectedVolume,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open mission storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	mgr := engine.NewManager(engine.Options{
		Store:     store,
		Templates: storage.NewTemplateStore(cfg.DataDir, log),
		Logger:    log,
	})
	if err := mgr.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load missions: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewBoardUI(mgr, store),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
