package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kellenGary/MF/internal/shared"
	"github.com/kellenGary/MF/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for library syncing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	token, err := r.requireToken()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mf-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, user.ID(), token)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
