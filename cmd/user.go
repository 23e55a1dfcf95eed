package main

import (
	"context"
	"fmt"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/repositories"
	"github.com/kellenGary/MF/internal/shared"
	"github.com/urfave/cli/v3"
)

// UserCreate registers a local user account.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	displayName := cmd.String("display-name")
	if displayName == "" {
		displayName = username
	}

	db, err := r.ensureDatabase()
	if err != nil {
		return err
	}

	user := models.NewUser(0, username, displayName)
	if err := repositories.NewUserRepository(db).Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("user created", "username", username, "id", user.ID())
	r.writePlain("✓ Created user %s (%s)\n", username, user.ID())
	return nil
}

// UserList prints all local users.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.ensureDatabase()
	if err != nil {
		return err
	}

	users, err := repositories.NewUserRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		r.writePlain("no users yet; run 'mf user create <username>'\n")
		return nil
	}

	for _, user := range users {
		r.writePlain("%s  %s (%s)\n", user.ID(), user.Username(), user.DisplayName())
	}
	return nil
}
