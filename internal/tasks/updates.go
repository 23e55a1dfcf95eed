package tasks

import (
	"fmt"

	"github.com/kellenGary/MF/internal/models"
)

// ProgressUpdate represents a progress event during a reconciliation pass.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pass phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase (0 when unknown)
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the stages of a reconciliation pass.
type Phase int

const (
	FetchRemote Phase = iota
	DiffSets
	ApplyAdds
	ApplyUpdates
	PruneRemoved
	PullHistory
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchRemote:
		return "fetch_remote"
	case DiffSets:
		return "diff"
	case ApplyAdds:
		return "apply_adds"
	case ApplyUpdates:
		return "apply_updates"
	case PruneRemoved:
		return "prune"
	case PullHistory:
		return "pull_history"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchPageUpdate(kind models.ResourceKind, page, collected int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    page,
		Message: fmt.Sprintf("Fetching %s page %d (%d items so far)...", kind, page, collected),
	}
}

func diffUpdate(kind models.ResourceKind, remote, local int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DiffSets,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Diffing %d remote against %d local %ss...", remote, local, kind),
	}
}

func applyAddUpdate(step, total int, item models.RemoteItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyAdds,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Linking %s", step, total, item.Name),
		Data:    item,
	}
}

func applyChangeUpdate(step, total int, item models.RemoteItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyUpdates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Updating %s", step, total, item.Name),
		Data:    item,
	}
}

func pruneUpdate(step, total int, stale models.LinkedEntity) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneRemoved,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Unlinking %s", step, total, stale.ExternalID),
	}
}

func historyUpdate(step, total int, listen models.Listen) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PullHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Recording %s", step, total, listen.TrackName),
		Data:    listen,
	}
}

func doneUpdate(result *models.SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete: %d added, %d updated, %d removed", result.Added, result.Updated, result.Removed),
		Data:    result,
	}
}
