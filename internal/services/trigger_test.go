package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
)

func newAlbum(hide, exclusive bool) *models.Album {
	return &models.Album{
		ID:               uuid.New(),
		Name:             "test album",
		HideFromTimeline: hide,
		IsExclusive:      exclusive,
	}
}

func updateFor(t *testing.T, d Decision, visibility models.AssetVisibility) VisibilityUpdate {
	t.Helper()
	for _, u := range d.VisibilityUpdates {
		if u.Visibility == visibility {
			return u
		}
	}
	t.Fatalf("no visibility update for %s in %+v", visibility, d)
	return VisibilityUpdate{}
}

func TestOnAssetsAddedPlainAlbumDoesNothing(t *testing.T) {
	engine := NewTriggerEngine()
	d := engine.OnAssetsAdded(newAlbum(false, false), []uuid.UUID{uuid.New()}, nil)
	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}

func TestOnAssetsAddedEmptyBatchDoesNothing(t *testing.T) {
	engine := NewTriggerEngine()
	d := engine.OnAssetsAdded(newAlbum(true, true), nil, nil)
	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}

func TestOnAssetsAddedHidingAlbumHidesBatch(t *testing.T) {
	engine := NewTriggerEngine()
	assets := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	d := engine.OnAssetsAdded(newAlbum(true, false), assets, nil)

	if len(d.Revocations) != 0 {
		t.Fatalf("unexpected revocations: %+v", d.Revocations)
	}
	u := updateFor(t, d, models.VisibilityAlbumHidden)
	if len(u.AssetIDs) != len(assets) {
		t.Fatalf("expected %d assets hidden, got %d", len(assets), len(u.AssetIDs))
	}
}

func TestOnAssetsAddedExclusiveAlbumRevokesOtherMemberships(t *testing.T) {
	engine := NewTriggerEngine()
	album := newAlbum(false, true)
	asset := uuid.New()
	otherA := newAlbum(false, false)
	otherB := newAlbum(true, false)

	d := engine.OnAssetsAdded(album, []uuid.UUID{asset}, map[uuid.UUID][]models.Album{
		asset: {*otherA, *otherB},
	})

	if len(d.VisibilityUpdates) != 0 {
		t.Fatalf("unexpected visibility updates: %+v", d.VisibilityUpdates)
	}
	if len(d.Revocations) != 2 {
		t.Fatalf("expected 2 revocations, got %d", len(d.Revocations))
	}
	for _, r := range d.Revocations {
		if r.AssetID != asset {
			t.Errorf("revocation for wrong asset: %s", r.AssetID)
		}
		if r.AlbumID == album.ID {
			t.Errorf("revoked membership in the exclusive album itself")
		}
	}
}

func TestOnAssetsAddedExclusiveSkipsOwnAlbumInOthers(t *testing.T) {
	engine := NewTriggerEngine()
	album := newAlbum(false, true)
	asset := uuid.New()

	// The caller may include the target album in the gathered memberships;
	// it must never be revoked from itself.
	d := engine.OnAssetsAdded(album, []uuid.UUID{asset}, map[uuid.UUID][]models.Album{
		asset: {*album},
	})

	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}

func TestOnAssetsAddedHidingExclusiveDoesBoth(t *testing.T) {
	engine := NewTriggerEngine()
	album := newAlbum(true, true)
	asset := uuid.New()
	other := newAlbum(false, false)

	d := engine.OnAssetsAdded(album, []uuid.UUID{asset}, map[uuid.UUID][]models.Album{
		asset: {*other},
	})

	u := updateFor(t, d, models.VisibilityAlbumHidden)
	if len(u.AssetIDs) != 1 || u.AssetIDs[0] != asset {
		t.Fatalf("expected the asset hidden, got %+v", u)
	}
	if len(d.Revocations) != 1 || d.Revocations[0].AlbumID != other.ID {
		t.Fatalf("expected revocation from the other album, got %+v", d.Revocations)
	}
}

func TestOnAssetsRemovedNonHidingAlbumDoesNothing(t *testing.T) {
	engine := NewTriggerEngine()
	d := engine.OnAssetsRemoved(newAlbum(false, false), []uuid.UUID{uuid.New()}, nil)
	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}

func TestOnAssetsRemovedRestoresOnlyUnhiddenAssets(t *testing.T) {
	engine := NewTriggerEngine()
	album := newAlbum(true, false)
	free := uuid.New()
	stillHidden := uuid.New()
	otherHiding := newAlbum(true, false)
	otherPlain := newAlbum(false, false)

	d := engine.OnAssetsRemoved(album, []uuid.UUID{free, stillHidden}, map[uuid.UUID][]models.Album{
		free:        {*otherPlain},
		stillHidden: {*otherHiding},
	})

	u := updateFor(t, d, models.VisibilityTimeline)
	if len(u.AssetIDs) != 1 || u.AssetIDs[0] != free {
		t.Fatalf("expected only the free asset restored, got %+v", u.AssetIDs)
	}
}

func TestOnAssetsRemovedIgnoresAlbumItselfInOthers(t *testing.T) {
	engine := NewTriggerEngine()
	album := newAlbum(true, false)
	asset := uuid.New()

	// A stale membership listing that still contains the album being left
	// must not prevent the restore.
	d := engine.OnAssetsRemoved(album, []uuid.UUID{asset}, map[uuid.UUID][]models.Album{
		asset: {*album},
	})

	u := updateFor(t, d, models.VisibilityTimeline)
	if len(u.AssetIDs) != 1 || u.AssetIDs[0] != asset {
		t.Fatalf("expected the asset restored, got %+v", u.AssetIDs)
	}
}

func TestOnFlagsChangedHideOnHidesAllMembers(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(false, false)
	updated := *old
	updated.HideFromTimeline = true
	members := []uuid.UUID{uuid.New(), uuid.New()}

	d := engine.OnFlagsChanged(old, &updated, members, nil)

	u := updateFor(t, d, models.VisibilityAlbumHidden)
	if len(u.AssetIDs) != len(members) {
		t.Fatalf("expected %d members hidden, got %d", len(members), len(u.AssetIDs))
	}
	if len(d.Revocations) != 0 {
		t.Fatalf("unexpected revocations: %+v", d.Revocations)
	}
}

func TestOnFlagsChangedHideOffRestoresUnlessOtherwiseHidden(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(true, false)
	updated := *old
	updated.HideFromTimeline = false
	free := uuid.New()
	stillHidden := uuid.New()
	otherHiding := newAlbum(true, false)

	d := engine.OnFlagsChanged(old, &updated, []uuid.UUID{free, stillHidden}, map[uuid.UUID][]models.Album{
		stillHidden: {*otherHiding},
	})

	u := updateFor(t, d, models.VisibilityTimeline)
	if len(u.AssetIDs) != 1 || u.AssetIDs[0] != free {
		t.Fatalf("expected only the free asset restored, got %+v", u.AssetIDs)
	}
}

func TestOnFlagsChangedExclusiveOnRevokesElsewhere(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(false, false)
	updated := *old
	updated.IsExclusive = true
	member := uuid.New()
	other := newAlbum(false, false)

	d := engine.OnFlagsChanged(old, &updated, []uuid.UUID{member}, map[uuid.UUID][]models.Album{
		member: {*other},
	})

	if len(d.Revocations) != 1 || d.Revocations[0].AlbumID != other.ID || d.Revocations[0].AssetID != member {
		t.Fatalf("expected revocation from the other album, got %+v", d.Revocations)
	}
}

func TestOnFlagsChangedExclusiveOffDoesNothing(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(false, true)
	updated := *old
	updated.IsExclusive = false

	d := engine.OnFlagsChanged(old, &updated, []uuid.UUID{uuid.New()}, nil)

	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}

func TestOnFlagsChangedBothFlipsProduceBothEffects(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(false, false)
	updated := *old
	updated.HideFromTimeline = true
	updated.IsExclusive = true
	member := uuid.New()
	other := newAlbum(false, false)

	d := engine.OnFlagsChanged(old, &updated, []uuid.UUID{member}, map[uuid.UUID][]models.Album{
		member: {*other},
	})

	u := updateFor(t, d, models.VisibilityAlbumHidden)
	if len(u.AssetIDs) != 1 {
		t.Fatalf("expected the member hidden, got %+v", u.AssetIDs)
	}
	if len(d.Revocations) != 1 {
		t.Fatalf("expected one revocation, got %+v", d.Revocations)
	}
}

func TestOnFlagsChangedNoMembersDoesNothing(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(false, false)
	updated := *old
	updated.HideFromTimeline = true
	updated.IsExclusive = true

	d := engine.OnFlagsChanged(old, &updated, nil, nil)

	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}

func TestOnFlagsChangedUnchangedFlagsDoNothing(t *testing.T) {
	engine := NewTriggerEngine()
	old := newAlbum(true, true)
	updated := *old
	updated.Name = "renamed"

	d := engine.OnFlagsChanged(old, &updated, []uuid.UUID{uuid.New()}, nil)

	if !d.Empty() {
		t.Fatalf("expected empty decision, got %+v", d)
	}
}
