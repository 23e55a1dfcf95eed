package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
	"golang.org/x/sync/errgroup"
)

// SyncAllResult collects the per-kind outcomes of a full-library pass.
type SyncAllResult struct {
	Results map[models.ResourceKind]*models.SyncResult `json:"results"`
	Skipped []models.ResourceKind                      `json:"skipped,omitempty"`
}

// Totals sums added/updated/removed across all completed kinds.
func (r *SyncAllResult) Totals() (added, updated, removed int) {
	for _, res := range r.Results {
		added += res.Added
		updated += res.Updated
		removed += res.Removed
	}
	return added, updated, removed
}

// SyncAll reconciles every resource kind for one user concurrently. The
// engine's shared rate limiter bounds total page traffic across goroutines,
// and each kind commits independently, so one kind failing never rolls back
// another. A kind still inside its cooldown window is reported as skipped
// rather than failing the pass.
func (e *ReconciliationEngine) SyncAll(ctx context.Context, progress chan<- ProgressUpdate, userID, token string, force bool) (*SyncAllResult, error) {
	var mu sync.Mutex
	out := &SyncAllResult{Results: make(map[models.ResourceKind]*models.SyncResult)}

	group, ctx := errgroup.WithContext(ctx)
	for _, kind := range models.ResourceKinds() {
		group.Go(func() error {
			result, err := e.Sync(ctx, progress, SyncRequest{
				UserID: userID,
				Kind:   kind,
				Token:  token,
				Force:  force,
			})
			if errors.Is(err, shared.ErrCooldown) {
				mu.Lock()
				out.Skipped = append(out.Skipped, kind)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}

			mu.Lock()
			out.Results[kind] = result
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
