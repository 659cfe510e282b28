package main

import (
	"context"
	"fmt"

	"howhite/cmd/howhite/ui"
	"howhite/internal/config"
	"howhite/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runInteractive starts the TUI on the article list.
func runInteractive(cmd *cobra.Command, args []string) error {
	return runProgram(cmd, ui.PageList, "")
}

func runProgram(cmd *cobra.Command, page ui.Page, slug string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Boot("Starting interactive reader (page %d)", page)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, closeSource := openSource(ctx, cfg)
	defer closeSource()

	sched := ui.NewProgramScheduler()
	opts := ui.Options{
		Source:    src,
		Scheduler: sched,
		Config:    cfg,
		StartPage: page,
		Timeout:   cfg.GetAPITimeout(),
	}
	switch page {
	case ui.PageTag:
		opts.TagSlug = slug
	case ui.PageReader:
		opts.Slug = slug
	}
	app, err := ui.NewApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Config edits apply live; the watcher goroutine hands them to Update.
	path := resolvedConfigPath()
	watcher, err := config.NewWatcher(path, cfg.GetReloadDebounce(), func(next *config.Config) {
		p.Send(ui.ConfigReloadedMsg{Config: next})
	})
	if err != nil {
		logger.Warn("Config hot reload disabled", zap.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		logger.Debug("Config hot reload disabled", zap.String("path", path), zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("reader: %w", err)
	}
	return nil
}
