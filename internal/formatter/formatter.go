// package formatter renders library listings, sync reports, and listening
// history to the formats the CLI exposes (CSV, Markdown, plain text, JSON).
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/tasks"
)

// LibraryExport is one kind's worth of a user's mirrored library, ready for
// rendering.
type LibraryExport struct {
	Username string
	Kind     models.ResourceKind
	Entities []*models.CanonicalEntity
}

// ExportToCSV renders a library export with columns: ID, ExternalID, Name, Items, UpdatedAt.
func ExportToCSV(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "ExternalID", "Name", "Items", "UpdatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entity := range export.Entities {
		record := []string{
			entity.ID,
			entity.ExternalID,
			entity.Name,
			strconv.Itoa(entity.ItemCount),
			entity.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a library export as a Markdown document.
func ExportToMarkdown(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s library: %ss\n\n", export.Username, export.Kind))
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(export.Entities)))

	for i, entity := range export.Entities {
		itemsPart := ""
		if entity.ItemCount > 0 {
			itemsPart = fmt.Sprintf(" (%d items)", entity.ItemCount)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, entity.Name, itemsPart))
	}

	return buf.Bytes(), nil
}

// ExportToText renders a library export as plain text, one entity per line.
func ExportToText(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%ss for %s (%d)\n\n", export.Kind, export.Username, len(export.Entities)))
	for i, entity := range export.Entities {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, entity.Name, entity.ExternalID))
	}

	return buf.Bytes(), nil
}

// WriteCSVExport writes a library export to {base}_{kind}.csv. The base
// filename defaults to the username.
func WriteCSVExport(export *LibraryExport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = export.Username
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	outFile := fmt.Sprintf("%s_%ss.csv", baseFilepath, export.Kind)
	if err := os.WriteFile(outFile, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return outFile, nil
}

// FormatSyncResult renders one pass's counters for terminal display.
func FormatSyncResult(result *models.SyncResult) string {
	return fmt.Sprintf("%-9s  +%d added  ~%d updated  -%d removed  (at %s)",
		result.Kind, result.Added, result.Updated, result.Removed,
		result.SyncedAt.Format(time.RFC3339))
}

// FormatSyncAllResult renders a full-library pass, one line per kind in
// stable kind order, plus a totals line.
func FormatSyncAllResult(result *tasks.SyncAllResult) string {
	var buf bytes.Buffer

	skipped := make(map[models.ResourceKind]bool, len(result.Skipped))
	for _, kind := range result.Skipped {
		skipped[kind] = true
	}

	for _, kind := range models.ResourceKinds() {
		if skipped[kind] {
			buf.WriteString(fmt.Sprintf("%-9s  skipped (cooldown)\n", kind))
			continue
		}
		if res, ok := result.Results[kind]; ok {
			buf.WriteString(FormatSyncResult(res))
			buf.WriteString("\n")
		}
	}

	added, updated, removed := result.Totals()
	buf.WriteString(fmt.Sprintf("total      +%d added  ~%d updated  -%d removed\n", added, updated, removed))
	return buf.String()
}

// FormatSyncStates renders the last-synced table for `sync status`.
func FormatSyncStates(states []models.SyncState, now time.Time) string {
	if len(states) == 0 {
		return "no syncs recorded\n"
	}

	var buf bytes.Buffer
	for _, state := range states {
		buf.WriteString(fmt.Sprintf("%-9s  last synced %s ago\n",
			state.Kind, now.Sub(state.LastSyncedAt).Round(time.Second)))
	}
	return buf.String()
}

// FormatListens renders listening history newest first.
func FormatListens(listens []models.Listen) string {
	if len(listens) == 0 {
		return "no listens recorded\n"
	}

	var buf bytes.Buffer
	for _, listen := range listens {
		buf.WriteString(fmt.Sprintf("%s  %s - %s\n",
			listen.PlayedAt.Format("2006-01-02 15:04"), listen.ArtistName, listen.TrackName))
	}
	return buf.String()
}
