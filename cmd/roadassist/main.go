package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roadassist/client/internal/api"
	"github.com/roadassist/client/internal/app"
	"github.com/roadassist/client/internal/logx"
	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/session"
	"github.com/roadassist/client/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "roadassist:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config.yaml")
	logLevel := flag.String("log-level", os.Getenv("ROADASSIST_LOG_LEVEL"), "debug, info, warn, or error")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	dataDir := filepath.Dir(*configPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	logger, closeLog, err := logx.Open(dataDir, *logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cache, err := store.NewSQLiteStore(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		return err
	}
	defer cache.Close()

	sess := session.New()
	if _, err := sess.Resume(); err != nil {
		logger.Debug("no stored session", "error", err)
	}

	client := api.NewClient(cfg.Server.APIBaseURL, sess.Token)

	program := tea.NewProgram(
		app.New(cfg, sess, client, cache, logger),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
