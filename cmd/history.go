package main

import (
	"context"
	"fmt"

	"github.com/kellenGary/MF/internal/formatter"
	"github.com/kellenGary/MF/internal/repositories"
	"github.com/urfave/cli/v3"
)

// HistoryPull fetches recent listens from Spotify and stores the new ones.
func (r *Runner) HistoryPull(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	token, err := r.requireToken()
	if err != nil {
		return err
	}

	engine, err := r.newEngine()
	if err != nil {
		return err
	}

	progress := r.progressPrinter()
	inserted, err := engine.IngestHistory(ctx, progress, user.ID(), token, int(cmd.Int("limit")))
	close(progress)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Recorded %d new listens\n", inserted)
}

// HistoryList shows stored listening history, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	db, err := r.ensureDatabase()
	if err != nil {
		return err
	}

	listens, err := repositories.NewListenRepository(db).ListByUser(ctx, user.ID(), int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(listens, true)
	}
	return r.writePlain("%s", formatter.FormatListens(listens))
}
