// package tasks implements the catalog reconciliation engine.
//
// The core abstraction is ReconciliationEngine, which converges the local
// relational mirror of a user's streaming library to a freshly fetched
// complete remote set: fetch → diff → upsert → prune → state update.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/TUI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/services"
	"github.com/kellenGary/MF/internal/shared"
	"golang.org/x/time/rate"
)

// EntityStore is the canonical-entity contract the engine consumes.
// Create must report uniqueness races as [models.OutcomeAlreadyExists], not
// as an error.
type EntityStore interface {
	FindByExternalID(ctx context.Context, kind models.ResourceKind, externalID string) (*models.CanonicalEntity, error)
	Create(ctx context.Context, draft models.EntityDraft) (*models.CanonicalEntity, models.CreateOutcome, error)
	Update(ctx context.Context, id string, draft models.EntityDraft) error
}

// RelationshipStore is the per-user association contract the engine consumes.
type RelationshipStore interface {
	Create(ctx context.Context, draft models.RelationshipDraft) (*models.Relationship, models.CreateOutcome, error)
	Delete(ctx context.Context, userID, entityID string) (bool, error)
	ListByUser(ctx context.Context, userID string, kind models.ResourceKind) ([]models.LinkedEntity, error)
}

// SyncStateTracker records the last completed sync per (user, kind).
type SyncStateTracker interface {
	Get(ctx context.Context, userID string, kind models.ResourceKind) (*models.SyncState, error)
	Touch(ctx context.Context, userID string, kind models.ResourceKind, at time.Time) error
}

// ListenStore ingests append-only listening history rows.
type ListenStore interface {
	Create(ctx context.Context, listen models.Listen) (models.CreateOutcome, error)
}

// SyncRequest identifies one reconciliation pass.
type SyncRequest struct {
	UserID string
	Kind   models.ResourceKind
	Token  string // opaque bearer token; passed to the catalog, never inspected
	Force  bool   // bypass the cooldown gate
}

// ReconciliationEngine orchestrates catalog reconciliation for one user and
// resource kind at a time. It takes no locks: conflict safety comes entirely
// from the stores' uniqueness constraints and tagged create outcomes, so any
// number of engine instances may run concurrently for different users, and
// overlapping runs for the same user still converge.
type ReconciliationEngine struct {
	catalog       services.Catalog
	entities      EntityStore
	relationships RelationshipStore
	states        SyncStateTracker
	listens       ListenStore
	limiter       *rate.Limiter
	cooldown      time.Duration
	logger        *log.Logger
	now           func() time.Time
}

// EngineOpts contains construction options for [ReconciliationEngine].
type EngineOpts struct {
	Catalog       services.Catalog
	Entities      EntityStore
	Relationships RelationshipStore
	States        SyncStateTracker
	Listens       ListenStore
	Cooldown      time.Duration // minimum interval between syncs per (user, kind); 0 disables
	RateLimit     float64       // remote page requests per second; 0 means unlimited
	Logger        *log.Logger
	Now           func() time.Time
}

// NewReconciliationEngine creates an engine with the provided collaborators.
func NewReconciliationEngine(opts EngineOpts) *ReconciliationEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &ReconciliationEngine{
		catalog:       opts.Catalog,
		entities:      opts.Entities,
		relationships: opts.Relationships,
		states:        opts.States,
		listens:       opts.Listens,
		limiter:       rate.NewLimiter(limit, 1),
		cooldown:      opts.Cooldown,
		logger:        opts.Logger,
		now:           opts.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the pass.
func (e *ReconciliationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sync reconciles the local mirror of one resource kind with the complete
// remote set for req.UserID.
//
// The remote set is fetched to exhaustion before any diff is computed; a
// page failure aborts the pass with [shared.ErrNetwork] or
// [shared.ErrAuthExpired] and nothing is removed against a partial set.
// Every applied write commits independently and is idempotent, so an
// aborted pass needs no compensation — the next run converges from scratch.
func (e *ReconciliationEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, req SyncRequest) (*models.SyncResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrInvalidConfig)
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: resource kind %q", shared.ErrInvalidArgument, req.Kind)
	}

	logger := shared.WithLogger(e.logger, "user", req.UserID, "kind", req.Kind)

	if err := e.checkCooldown(ctx, req); err != nil {
		return nil, err
	}

	remote, err := e.fetchRemote(ctx, progress, req)
	if err != nil {
		return nil, err
	}

	local, err := e.relationships.ListByUser(ctx, req.UserID, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: list relationships: %v", shared.ErrStorage, err)
	}

	e.sendProgress(progress, diffUpdate(req.Kind, len(remote), len(local)))
	plan := ComputePlan(remote, local)

	result := &models.SyncResult{Kind: req.Kind}

	for i, item := range plan.Missing {
		e.sendProgress(progress, applyAddUpdate(i+1, len(plan.Missing), item))
		added, updated, err := e.linkRemoteItem(ctx, req, item)
		if err != nil {
			return nil, err
		}
		if added {
			result.Added++
		}
		if updated {
			result.Updated++
		}
	}

	for i, changed := range plan.Changed {
		e.sendProgress(progress, applyChangeUpdate(i+1, len(plan.Changed), changed.Item))
		if err := e.entities.Update(ctx, changed.EntityID, changed.Item.Draft(req.Kind)); err != nil {
			return nil, fmt.Errorf("%w: update entity %s: %v", shared.ErrStorage, changed.Item.ExternalID, err)
		}
		result.Updated++
	}

	for i, stale := range plan.Stale {
		e.sendProgress(progress, pruneUpdate(i+1, len(plan.Stale), stale))
		deleted, err := e.relationships.Delete(ctx, req.UserID, stale.EntityID)
		if err != nil {
			return nil, fmt.Errorf("%w: delete relationship %s: %v", shared.ErrStorage, stale.ExternalID, err)
		}
		if deleted {
			result.Removed++
		}
	}

	result.SyncedAt = e.now()
	if err := e.states.Touch(ctx, req.UserID, req.Kind, result.SyncedAt); err != nil {
		return nil, fmt.Errorf("%w: touch sync state: %v", shared.ErrStorage, err)
	}

	logger.Info("sync complete", "added", result.Added, "updated", result.Updated, "removed", result.Removed)
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

// checkCooldown rejects a pass started within the cooldown window since the
// last completed sync. The gate bounds remote API load; it is not needed for
// correctness, so Force bypasses it.
func (e *ReconciliationEngine) checkCooldown(ctx context.Context, req SyncRequest) error {
	if req.Force || e.cooldown <= 0 {
		return nil
	}

	state, err := e.states.Get(ctx, req.UserID, req.Kind)
	if errors.Is(err, shared.ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: get sync state: %v", shared.ErrStorage, err)
	}

	if elapsed := e.now().Sub(state.LastSyncedAt); elapsed < e.cooldown {
		return fmt.Errorf("%w: last synced %s ago", shared.ErrCooldown, elapsed.Round(time.Second))
	}
	return nil
}

// fetchRemote drives the catalog to exhaustion and returns the complete
// remote set keyed by external id. Duplicate external ids across pages
// collapse to the last occurrence.
func (e *ReconciliationEngine) fetchRemote(ctx context.Context, progress chan<- ProgressUpdate, req SyncRequest) (map[string]models.RemoteItem, error) {
	remote := make(map[string]models.RemoteItem)
	cursor := ""

	for page := 1; ; page++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
		}

		e.sendProgress(progress, fetchPageUpdate(req.Kind, page, len(remote)))

		resp, err := e.catalog.FetchPage(ctx, req.Token, req.Kind, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", req.Kind, page, err)
		}

		for _, item := range resp.Items {
			remote[item.ExternalID] = item
		}

		if resp.Next == "" {
			return remote, nil
		}
		cursor = resp.Next
	}
}

// linkRemoteItem ensures a canonical entity and a relationship exist for one
// newly observed remote item. Reports whether a relationship row was
// genuinely created and whether a pre-existing entity was refreshed.
//
// Entity creation uses optimistic-insert-with-fallback-read: on
// AlreadyExists the entity is re-fetched instead of failing, and updated if
// its stored change token is stale. Relationship creation goes through the
// same idempotent step whether the entity was just created or pre-existed.
func (e *ReconciliationEngine) linkRemoteItem(ctx context.Context, req SyncRequest, item models.RemoteItem) (added, updated bool, err error) {
	entity, outcome, err := e.entities.Create(ctx, item.Draft(req.Kind))
	if err != nil {
		return false, false, fmt.Errorf("%w: create entity %s: %v", shared.ErrStorage, item.ExternalID, err)
	}

	if outcome == models.OutcomeAlreadyExists {
		entity, err = e.entities.FindByExternalID(ctx, req.Kind, item.ExternalID)
		if err != nil {
			return false, false, fmt.Errorf("%w: read entity %s after create race: %v", shared.ErrStorage, item.ExternalID, err)
		}
		if entity.ChangeToken != item.ChangeToken {
			if err := e.entities.Update(ctx, entity.ID, item.Draft(req.Kind)); err != nil {
				return false, false, fmt.Errorf("%w: update entity %s: %v", shared.ErrStorage, item.ExternalID, err)
			}
			updated = true
		}
	}

	draft := models.RelationshipDraft{
		UserID:   req.UserID,
		EntityID: entity.ID,
		Kind:     req.Kind,
		Relation: item.Relation,
		AddedAt:  item.AddedAt,
	}

	_, relOutcome, err := e.relationships.Create(ctx, draft)
	if err != nil {
		return false, updated, fmt.Errorf("%w: create relationship %s: %v", shared.ErrStorage, item.ExternalID, err)
	}

	// AlreadyExists means a concurrent sync for the same user linked the
	// pair first; counting it as added would double-report.
	return relOutcome == models.OutcomeCreated, updated, nil
}
