package tasks

import (
	"sort"

	"github.com/kellenGary/MF/internal/models"
)

// Plan is the reconciliation work computed from one complete remote snapshot
// and one local pairing snapshot. Computing it is a pure function of the two
// snapshots; all storage effects happen when the engine applies it.
type Plan struct {
	Missing []models.RemoteItem   // remote items with no local pairing
	Changed []ChangedEntity       // paired items whose change token differs
	Stale   []models.LinkedEntity // local pairings absent from the remote set
}

// ChangedEntity pairs a locally linked entity id with the remote item
// carrying its new fields.
type ChangedEntity struct {
	EntityID string
	Item     models.RemoteItem
}

// Counts returns the number of planned adds, updates and removals.
func (p Plan) Counts() (added, updated, removed int) {
	return len(p.Missing), len(p.Changed), len(p.Stale)
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool {
	return len(p.Missing) == 0 && len(p.Changed) == 0 && len(p.Stale) == 0
}

// ComputePlan diffs a complete remote set (keyed by external id) against the
// local pairing snapshot. Slices are ordered by external id so a plan is
// deterministic regardless of map iteration order.
//
// The caller must guarantee remote is exhaustive: Stale is only meaningful
// against a fully fetched remote set.
func ComputePlan(remote map[string]models.RemoteItem, local []models.LinkedEntity) Plan {
	linked := make(map[string]models.LinkedEntity, len(local))
	for _, le := range local {
		linked[le.ExternalID] = le
	}

	var plan Plan

	for externalID, item := range remote {
		le, ok := linked[externalID]
		if !ok {
			plan.Missing = append(plan.Missing, item)
			continue
		}
		if le.ChangeToken != item.ChangeToken {
			plan.Changed = append(plan.Changed, ChangedEntity{EntityID: le.EntityID, Item: item})
		}
	}

	for _, le := range local {
		if _, ok := remote[le.ExternalID]; !ok {
			plan.Stale = append(plan.Stale, le)
		}
	}

	sort.Slice(plan.Missing, func(i, j int) bool {
		return plan.Missing[i].ExternalID < plan.Missing[j].ExternalID
	})
	sort.Slice(plan.Changed, func(i, j int) bool {
		return plan.Changed[i].Item.ExternalID < plan.Changed[j].Item.ExternalID
	})
	sort.Slice(plan.Stale, func(i, j int) bool {
		return plan.Stale[i].ExternalID < plan.Stale[j].ExternalID
	})

	return plan
}
