package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kellenGary/MF/internal/formatter"
	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/repositories"
	"github.com/kellenGary/MF/internal/shared"
	"github.com/kellenGary/MF/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun reconciles one resource kind for a user.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseResourceKind(cmd.StringArg("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

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
	result, err := engine.Sync(ctx, progress, tasks.SyncRequest{
		UserID: user.ID(),
		Kind:   kind,
		Token:  token,
		Force:  cmd.Bool("force"),
	})
	close(progress)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s\n", formatter.FormatSyncResult(result))
}

// SyncAll reconciles every resource kind for a user.
func (r *Runner) SyncAll(ctx context.Context, cmd *cli.Command) error {
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
	result, err := engine.SyncAll(ctx, progress, user.ID(), token, cmd.Bool("force"))
	close(progress)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s", formatter.FormatSyncAllResult(result))
}

// SyncStatus shows when each kind was last synced.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	db, err := r.ensureDatabase()
	if err != nil {
		return err
	}

	states, err := repositories.NewSyncStateRepository(db).List(ctx, user.ID())
	if err != nil {
		return fmt.Errorf("failed to list sync states: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(states, true)
	}
	return r.writePlain("%s", formatter.FormatSyncStates(states, time.Now()))
}

// progressPrinter drains engine progress updates to the debug log so plain
// command output stays a single result line. The caller closes the channel
// once the engine call returns, which ends the drain goroutine.
func (r *Runner) progressPrinter() chan tasks.ProgressUpdate {
	progress := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progress {
			r.logger.Debug("progress", "phase", update.Phase, "message", update.Message)
		}
	}()
	return progress
}
