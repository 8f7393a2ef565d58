package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"categorydesk/internal/config"
	"categorydesk/internal/repositories"
	"categorydesk/internal/services"
	"categorydesk/internal/tui"
)

func main() {
	os.Exit(run())
}

// run returns the exit code, so deferred cleanup happens before the process exits.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.TUILogFile != "" {
		f, err := os.OpenFile(cfg.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot open log file:", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	svc := services.NewCategoryService(
		repositories.NewRemoteCategoryRepository(cfg.APIURL, nil),
		services.WithLoadTimeout(cfg.ProbeTimeout),
	)

	log.Info().Str("api_url", cfg.APIURL).Msg("Starting terminal category manager")
	if err := tui.Run(ctx, svc, tea.WithAltScreen(), tea.WithContext(ctx)); err != nil {
		log.Error().Err(err).Msg("Terminal UI exited with error")
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
