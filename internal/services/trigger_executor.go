package services

import (
	"context"
	"fmt"
)

// TriggerExecutor applies Decisions against the stores. It is the only
// part of the trigger pipeline with side effects. Each visibility batch
// is a single all-or-nothing store call; a failed step aborts the
// remaining steps and surfaces the error without rolling back already
// applied batches (later operations re-derive and correct the state).
type TriggerExecutor struct {
	assets AssetStore
	albums AlbumStore
}

func NewTriggerExecutor(assets AssetStore, albums AlbumStore) *TriggerExecutor {
	return &TriggerExecutor{assets: assets, albums: albums}
}

// Apply executes the decision: visibility batches first, then membership
// revocations. Revoking an edge that is already gone is success.
func (x *TriggerExecutor) Apply(ctx context.Context, d Decision) error {
	for _, u := range d.VisibilityUpdates {
		if len(u.AssetIDs) == 0 {
			continue
		}
		if err := x.assets.BulkSetVisibility(ctx, u.AssetIDs, u.Visibility); err != nil {
			return fmt.Errorf("failed to set visibility %s on %d assets: %w", u.Visibility, len(u.AssetIDs), err)
		}
	}

	for _, r := range d.Revocations {
		if err := x.albums.RemoveMembership(ctx, r.AlbumID, r.AssetID); err != nil {
			return fmt.Errorf("failed to revoke asset %s from album %s: %w", r.AssetID, r.AlbumID, err)
		}
	}

	return nil
}
