package main

import (
	"context"
	"errors"
	"os"

	"konsilium/cmd/konsilium/form"
	"konsilium/cmd/konsilium/ui"
	"konsilium/internal/config"
	"konsilium/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	gen := newGenerator(cfg)
	defer gen.CloseIdleConnections()

	model := form.New(form.Options{
		Generator:      gen,
		Styles:         ui.NewStyles(ui.ThemeByName(cfg.UI.Theme)),
		RenderMarkdown: cfg.UI.RenderMarkdown,
		Context:        ctx,
	})

	g, gctx := errgroup.WithContext(ctx)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	watchCtx, stopWatch := context.WithCancel(gctx)
	defer stopWatch()

	if _, err := os.Stat(configPath); err == nil {
		w, err := config.NewWatcher(configPath,
			func(c *config.Config) {
				applyFlagOverrides(c)
				p.Send(form.ConfigChangedMsg{Generator: newGenerator(c), Endpoint: c.Endpoint.URL})
			},
			func(err error) {
				p.Send(form.ConfigErrorMsg{Err: err})
			},
		)
		if err != nil {
			logging.Get(logging.CategoryConfig).Warn("live reload disabled: %v", err)
		} else {
			g.Go(func() error {
				// Losing live reload must not take the form down.
				if err := w.Run(watchCtx); err != nil {
					logging.Get(logging.CategoryConfig).Warn("live reload stopped: %v", err)
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		defer stopWatch()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	return g.Wait()
}
