package tasks

import (
	"context"
	"fmt"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
)

// IngestHistory pulls the user's recent listens from the catalog and appends
// the ones not yet recorded. The listen store is append-only and
// duplicate-tolerant, so overlapping pulls are safe; the returned count is
// the number of listens genuinely inserted by this call.
func (e *ReconciliationEngine) IngestHistory(ctx context.Context, progress chan<- ProgressUpdate, userID, token string, limit int) (int, error) {
	if e.catalog == nil {
		return 0, fmt.Errorf("%w: catalog not initialized", shared.ErrInvalidConfig)
	}
	if e.listens == nil {
		return 0, fmt.Errorf("%w: listen store not initialized", shared.ErrInvalidConfig)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	listens, err := e.catalog.RecentlyPlayed(ctx, token, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch recently played: %w", err)
	}

	inserted := 0
	for i, listen := range listens {
		listen.UserID = userID
		e.sendProgress(progress, historyUpdate(i+1, len(listens), listen))

		outcome, err := e.listens.Create(ctx, listen)
		if err != nil {
			return inserted, fmt.Errorf("%w: record listen %s: %v", shared.ErrStorage, listen.TrackExternalID, err)
		}
		if outcome == models.OutcomeCreated {
			inserted++
		}
	}

	e.logger.Info("history ingested", "user", userID, "fetched", len(listens), "inserted", inserted)
	return inserted, nil
}
