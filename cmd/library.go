package main

import (
	"context"
	"fmt"

	"github.com/kellenGary/MF/internal/formatter"
	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/repositories"
	"github.com/kellenGary/MF/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList prints the mirrored entities of one kind for a user.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseResourceKind(cmd.StringArg("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	db, err := r.ensureDatabase()
	if err != nil {
		return err
	}

	entities, err := repositories.NewRelationshipRepository(db).ListEntities(ctx, user.ID(), kind)
	if err != nil {
		return fmt.Errorf("failed to list library: %w", err)
	}

	export := &formatter.LibraryExport{
		Username: user.Username(),
		Kind:     kind,
		Entities: entities,
	}

	if base := cmd.String("csv"); base != "" {
		outFile, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Library exported to %s\n", outFile)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entities, true)
	}

	if cmd.Bool("markdown") {
		md, err := formatter.ExportToMarkdown(export)
		if err != nil {
			return err
		}
		return r.writePlain("%s", md)
	}

	text, err := formatter.ExportToText(export)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}
