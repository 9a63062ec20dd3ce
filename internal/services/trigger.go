package services

import (
	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
)

// VisibilityUpdate sets one visibility value on a batch of assets.
type VisibilityUpdate struct {
	AssetIDs   []uuid.UUID
	Visibility models.AssetVisibility
}

// MembershipRevocation removes one album/asset membership edge.
type MembershipRevocation struct {
	AlbumID uuid.UUID
	AssetID uuid.UUID
}

// Decision is the inert outcome of evaluating an album trigger: the
// visibility updates and membership revocations needed to restore the
// hidden-visibility and exclusivity invariants after a mutation. It
// carries no side effects; TriggerExecutor applies it. Visibility
// updates are listed before revocations, but the two kinds touch
// disjoint state and commute.
type Decision struct {
	VisibilityUpdates []VisibilityUpdate
	Revocations       []MembershipRevocation
}

// Empty reports whether applying the decision would do nothing
func (d Decision) Empty() bool {
	return len(d.VisibilityUpdates) == 0 && len(d.Revocations) == 0
}

// TriggerEngine computes Decisions from membership and flag mutations.
// It is pure: every input it needs, including which other albums still
// contain each affected asset, is passed in by the caller. It never
// reads or writes stores.
type TriggerEngine struct{}

func NewTriggerEngine() *TriggerEngine { return &TriggerEngine{} }

// OnAssetsAdded evaluates the triggers for assets just added to album.
// otherAlbums maps each asset to the albums (other than album itself)
// that currently contain it; it is only consulted for the exclusive
// branch and may be nil when album.IsExclusive is false.
func (e *TriggerEngine) OnAssetsAdded(album *models.Album, assetIDs []uuid.UUID, otherAlbums map[uuid.UUID][]models.Album) Decision {
	var d Decision
	if len(assetIDs) == 0 {
		return d
	}

	if album.HideFromTimeline {
		d.VisibilityUpdates = append(d.VisibilityUpdates, VisibilityUpdate{
			AssetIDs:   assetIDs,
			Visibility: models.VisibilityAlbumHidden,
		})
	}

	if album.IsExclusive {
		d.Revocations = append(d.Revocations, revokeElsewhere(album.ID, assetIDs, otherAlbums)...)
	}

	return d
}

// OnAssetsRemoved evaluates the triggers for assets just removed from
// album. Removal from a non-hiding album never changes visibility, and
// exclusivity is never re-triggered on removal. An asset is restored to
// the timeline only when no other hiding album still contains it: one
// remaining hiding album wins over the album just left.
func (e *TriggerEngine) OnAssetsRemoved(album *models.Album, assetIDs []uuid.UUID, otherAlbums map[uuid.UUID][]models.Album) Decision {
	var d Decision
	if !album.HideFromTimeline || len(assetIDs) == 0 {
		return d
	}

	var restore []uuid.UUID
	for _, assetID := range assetIDs {
		if !anyHiding(otherAlbums[assetID], album.ID) {
			restore = append(restore, assetID)
		}
	}
	if len(restore) > 0 {
		d.VisibilityUpdates = append(d.VisibilityUpdates, VisibilityUpdate{
			AssetIDs:   restore,
			Visibility: models.VisibilityTimeline,
		})
	}

	return d
}

// OnFlagsChanged evaluates the triggers for a flag update on one album,
// applied to its full current membership. Turning IsExclusive off has no
// effect: evicted memberships are gone and are not restored.
func (e *TriggerEngine) OnFlagsChanged(oldAlbum, newAlbum *models.Album, memberIDs []uuid.UUID, otherAlbums map[uuid.UUID][]models.Album) Decision {
	var d Decision
	if len(memberIDs) == 0 {
		return d
	}

	if oldAlbum.HideFromTimeline != newAlbum.HideFromTimeline {
		if newAlbum.HideFromTimeline {
			d.VisibilityUpdates = append(d.VisibilityUpdates, VisibilityUpdate{
				AssetIDs:   memberIDs,
				Visibility: models.VisibilityAlbumHidden,
			})
		} else {
			var restore []uuid.UUID
			for _, assetID := range memberIDs {
				if !anyHiding(otherAlbums[assetID], newAlbum.ID) {
					restore = append(restore, assetID)
				}
			}
			if len(restore) > 0 {
				d.VisibilityUpdates = append(d.VisibilityUpdates, VisibilityUpdate{
					AssetIDs:   restore,
					Visibility: models.VisibilityTimeline,
				})
			}
		}
	}

	if oldAlbum.IsExclusive != newAlbum.IsExclusive && newAlbum.IsExclusive {
		d.Revocations = append(d.Revocations, revokeElsewhere(newAlbum.ID, memberIDs, otherAlbums)...)
	}

	return d
}

func revokeElsewhere(albumID uuid.UUID, assetIDs []uuid.UUID, otherAlbums map[uuid.UUID][]models.Album) []MembershipRevocation {
	var revocations []MembershipRevocation
	for _, assetID := range assetIDs {
		for _, other := range otherAlbums[assetID] {
			if other.ID == albumID {
				continue
			}
			revocations = append(revocations, MembershipRevocation{AlbumID: other.ID, AssetID: assetID})
		}
	}
	return revocations
}

func anyHiding(albums []models.Album, excludeID uuid.UUID) bool {
	for _, a := range albums {
		if a.ID != excludeID && a.HideFromTimeline {
			return true
		}
	}
	return false
}
