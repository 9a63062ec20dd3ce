package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
)

func TestApplyVisibilityBatchesThenRevocations(t *testing.T) {
	assets := newFakeAssetStore()
	albums := newFakeAlbumStore()
	a := uuid.New()
	assets.visibility[a] = models.VisibilityTimeline
	album := &models.Album{OwnerID: uuid.New(), Name: "album"}
	if err := albums.Create(context.Background(), album, []uuid.UUID{a}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	executor := NewTriggerExecutor(assets, albums)
	err := executor.Apply(context.Background(), Decision{
		VisibilityUpdates: []VisibilityUpdate{{AssetIDs: []uuid.UUID{a}, Visibility: models.VisibilityAlbumHidden}},
		Revocations:       []MembershipRevocation{{AlbumID: album.ID, AssetID: a}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if assets.visibility[a] != models.VisibilityAlbumHidden {
		t.Fatalf("visibility not applied, got %s", assets.visibility[a])
	}
	if containsID(albums.members[album.ID], a) {
		t.Fatalf("membership edge not revoked")
	}
}

func TestApplySkipsEmptyBatches(t *testing.T) {
	assets := newFakeAssetStore()
	albums := newFakeAlbumStore()

	executor := NewTriggerExecutor(assets, albums)
	err := executor.Apply(context.Background(), Decision{
		VisibilityUpdates: []VisibilityUpdate{{Visibility: models.VisibilityTimeline}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(assets.setCalls) != 0 {
		t.Fatalf("empty batch reached the store: %+v", assets.setCalls)
	}
}

func TestApplyEmptyDecisionIsNoOp(t *testing.T) {
	assets := newFakeAssetStore()
	albums := newFakeAlbumStore()

	executor := NewTriggerExecutor(assets, albums)
	if err := executor.Apply(context.Background(), Decision{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(assets.setCalls) != 0 || len(albums.revoked) != 0 {
		t.Fatalf("empty decision produced writes")
	}
}

func TestApplyAbortsRemainingStepsOnVisibilityFailure(t *testing.T) {
	assets := newFakeAssetStore()
	albums := newFakeAlbumStore()
	storeErr := errors.New("connection reset")
	assets.failSet = storeErr

	executor := NewTriggerExecutor(assets, albums)
	err := executor.Apply(context.Background(), Decision{
		VisibilityUpdates: []VisibilityUpdate{{AssetIDs: []uuid.UUID{uuid.New()}, Visibility: models.VisibilityAlbumHidden}},
		Revocations:       []MembershipRevocation{{AlbumID: uuid.New(), AssetID: uuid.New()}},
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(albums.revoked) != 0 {
		t.Fatalf("revocations ran after a failed visibility batch: %+v", albums.revoked)
	}
}

func TestApplyRevokingAbsentEdgeSucceeds(t *testing.T) {
	assets := newFakeAssetStore()
	albums := newFakeAlbumStore()
	album := &models.Album{OwnerID: uuid.New(), Name: "album"}
	if err := albums.Create(context.Background(), album, nil, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	executor := NewTriggerExecutor(assets, albums)
	err := executor.Apply(context.Background(), Decision{
		Revocations: []MembershipRevocation{{AlbumID: album.ID, AssetID: uuid.New()}},
	})
	if err != nil {
		t.Fatalf("revoking an already absent edge should succeed, got %v", err)
	}
}

func TestApplyRevocationFailureSurfaces(t *testing.T) {
	assets := newFakeAssetStore()
	albums := newFakeAlbumStore()
	storeErr := errors.New("deadlock detected")
	albums.failRevoke = storeErr

	executor := NewTriggerExecutor(assets, albums)
	err := executor.Apply(context.Background(), Decision{
		Revocations: []MembershipRevocation{{AlbumID: uuid.New(), AssetID: uuid.New()}},
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
