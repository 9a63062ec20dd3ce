package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
)

// UserLookup resolves user ids during album sharing
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AlbumService is the entry point for album operations. Every mutating
// call runs the same pipeline: mutate membership or flags at the store,
// gather the other-album memberships the trigger evaluation needs, feed
// the delta to the TriggerEngine, apply its Decision through the
// TriggerExecutor, then notify recipients. The engine is re-run from a
// fresh read on every call, so a partially applied decision from an
// earlier failure converges on the next operation touching the asset.
type AlbumService struct {
	albums   AlbumStore
	assets   AssetStore
	users    UserLookup
	engine   *TriggerEngine
	executor *TriggerExecutor
	notifier Notifier
}

func NewAlbumService(albums AlbumStore, assets AssetStore, users UserLookup, notifier Notifier) *AlbumService {
	return &AlbumService{
		albums:   albums,
		assets:   assets,
		users:    users,
		engine:   NewTriggerEngine(),
		executor: NewTriggerExecutor(assets, albums),
		notifier: notifier,
	}
}

type AlbumUserInput struct {
	UserID uuid.UUID
	Role   models.AlbumUserRole
}

type CreateAlbumInput struct {
	Name             string
	Description      string
	HideFromTimeline bool
	IsExclusive      bool
	AssetIDs         []uuid.UUID
	Users            []AlbumUserInput
}

type UpdateAlbumInput struct {
	Name             *string
	Description      *string
	ThumbnailAssetID *uuid.UUID
	HideFromTimeline *bool
	IsExclusive      *bool
}

// CreateAlbum creates an album and applies the add triggers for any
// initial assets.
func (s *AlbumService) CreateAlbum(ctx context.Context, actorID uuid.UUID, in CreateAlbumInput) (*models.Album, error) {
	albumUsers, err := s.resolveUsers(ctx, actorID, in.Users)
	if err != nil {
		return nil, err
	}

	album := &models.Album{
		OwnerID:          actorID,
		Name:             in.Name,
		Description:      in.Description,
		HideFromTimeline: in.HideFromTimeline,
		IsExclusive:      in.IsExclusive,
	}
	if len(in.AssetIDs) > 0 {
		album.ThumbnailAssetID = &in.AssetIDs[0]
	}

	if err := s.albums.Create(ctx, album, in.AssetIDs, albumUsers); err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}

	if len(in.AssetIDs) > 0 {
		if err := s.applyAddedTriggers(ctx, actorID, album, in.AssetIDs); err != nil {
			return nil, err
		}
	}

	for _, u := range albumUsers {
		s.notifier.AlbumInvited(ctx, album.ID, u.UserID)
	}

	return album, nil
}

// UpdateAlbum patches album metadata and flags. Flag changes run the
// property-change triggers over the full current membership. When both
// flags flip in one call the hide handling and the exclusivity handling
// are applied sequentially, not atomically: a failure in between leaves
// one applied, and the next operation on the affected assets corrects
// the rest.
func (s *AlbumService) UpdateAlbum(ctx context.Context, actorID, albumID uuid.UUID, in UpdateAlbumInput) (*models.Album, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}

	if in.ThumbnailAssetID != nil {
		ok, err := s.albums.HasAsset(ctx, albumID, *in.ThumbnailAssetID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: thumbnail asset is not in the album", ErrInvalidRequest)
		}
	}

	old := *album
	if in.Name != nil {
		album.Name = *in.Name
	}
	if in.Description != nil {
		album.Description = *in.Description
	}
	if in.ThumbnailAssetID != nil {
		album.ThumbnailAssetID = in.ThumbnailAssetID
	}
	if in.HideFromTimeline != nil {
		album.HideFromTimeline = *in.HideFromTimeline
	}
	if in.IsExclusive != nil {
		album.IsExclusive = *in.IsExclusive
	}

	if err := s.albums.Update(ctx, album); err != nil {
		return nil, fmt.Errorf("failed to update album: %w", err)
	}

	hideChanged := old.HideFromTimeline != album.HideFromTimeline
	exclusiveChanged := old.IsExclusive != album.IsExclusive
	if hideChanged || exclusiveChanged {
		memberIDs, err := s.albums.ListAssetIDs(ctx, albumID)
		if err != nil {
			return nil, err
		}
		if len(memberIDs) > 0 {
			var others map[uuid.UUID][]models.Album
			needOthers := (hideChanged && !album.HideFromTimeline) || (exclusiveChanged && album.IsExclusive)
			if needOthers {
				others, err = s.otherAlbums(ctx, actorID, album.ID, memberIDs)
				if err != nil {
					return nil, err
				}
			}
			decision := s.engine.OnFlagsChanged(&old, album, memberIDs, others)
			if err := s.executor.Apply(ctx, decision); err != nil {
				return nil, err
			}
		}
	}

	s.notifyRecipients(ctx, album, actorID)
	return album, nil
}

// DeleteAlbum removes the album and all of its membership edges. Leaving
// a hiding album this way restores member visibility the same as an
// explicit removal would.
func (s *AlbumService) DeleteAlbum(ctx context.Context, actorID, albumID uuid.UUID) error {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return err
	}

	var memberIDs []uuid.UUID
	if album.HideFromTimeline {
		memberIDs, err = s.albums.ListAssetIDs(ctx, albumID)
		if err != nil {
			return err
		}
	}

	if err := s.albums.Delete(ctx, albumID); err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
	}

	if len(memberIDs) > 0 {
		others, err := s.otherAlbums(ctx, actorID, album.ID, memberIDs)
		if err != nil {
			return err
		}
		decision := s.engine.OnAssetsRemoved(album, memberIDs, others)
		if err := s.executor.Apply(ctx, decision); err != nil {
			return err
		}
	}

	return nil
}

// AddAssets adds assets to the album and returns the ids that were
// actually added. Adding an asset that is already a member is a no-op.
func (s *AlbumService) AddAssets(ctx context.Context, actorID, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}

	added, err := s.albums.AddAssets(ctx, albumID, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to add assets: %w", err)
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := s.applyAddedTriggers(ctx, actorID, album, added); err != nil {
		return added, err
	}

	if album.ThumbnailAssetID == nil {
		album.ThumbnailAssetID = &added[0]
		if err := s.albums.Update(ctx, album); err != nil {
			return added, fmt.Errorf("failed to update album thumbnail: %w", err)
		}
	}

	s.notifyRecipients(ctx, album, actorID)
	return added, nil
}

// RemoveAssets removes assets from the album and returns the ids that
// were actually removed. Removing an absent asset is a no-op.
func (s *AlbumService) RemoveAssets(ctx context.Context, actorID, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}

	removed, err := s.albums.RemoveAssets(ctx, albumID, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to remove assets: %w", err)
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if album.HideFromTimeline {
		others, err := s.otherAlbums(ctx, actorID, album.ID, removed)
		if err != nil {
			return removed, err
		}
		decision := s.engine.OnAssetsRemoved(album, removed, others)
		if err := s.executor.Apply(ctx, decision); err != nil {
			return removed, err
		}
	}

	if album.ThumbnailAssetID != nil && containsID(removed, *album.ThumbnailAssetID) {
		next, err := s.albums.FirstAssetID(ctx, albumID)
		if err != nil {
			return removed, err
		}
		album.ThumbnailAssetID = next
		if err := s.albums.Update(ctx, album); err != nil {
			return removed, fmt.Errorf("failed to update album thumbnail: %w", err)
		}
	}

	s.notifyRecipients(ctx, album, actorID)
	return removed, nil
}

// AddAssetsToAlbums adds the same assets to several albums. All the
// membership edges are inserted before any trigger runs: an exclusive
// album anywhere in the batch then sees the edges just created in its
// siblings and evicts them, instead of firing against a half-built
// state. The result maps album id to the ids actually added there.
func (s *AlbumService) AddAssetsToAlbums(ctx context.Context, actorID uuid.UUID, albumIDs, assetIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	albums := make([]*models.Album, 0, len(albumIDs))
	for _, albumID := range albumIDs {
		album, err := s.albums.GetByID(ctx, albumID)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}

	results := make(map[uuid.UUID][]uuid.UUID, len(albums))
	for _, album := range albums {
		added, err := s.albums.AddAssets(ctx, album.ID, assetIDs)
		if err != nil {
			return results, fmt.Errorf("failed to add assets: %w", err)
		}
		if len(added) > 0 {
			results[album.ID] = added
		}
	}

	for _, album := range albums {
		added := results[album.ID]
		if len(added) == 0 {
			continue
		}
		if err := s.applyAddedTriggers(ctx, actorID, album, added); err != nil {
			return results, err
		}
	}

	for _, album := range albums {
		if len(results[album.ID]) == 0 {
			continue
		}
		// Triggers may have evicted what was just added, so the thumbnail
		// comes from the membership that actually remains.
		if album.ThumbnailAssetID == nil {
			next, err := s.albums.FirstAssetID(ctx, album.ID)
			if err != nil {
				return results, err
			}
			if next != nil {
				album.ThumbnailAssetID = next
				if err := s.albums.Update(ctx, album); err != nil {
					return results, fmt.Errorf("failed to update album thumbnail: %w", err)
				}
			}
		}
		s.notifyRecipients(ctx, album, actorID)
	}

	return results, nil
}

// ShareWithUsers shares the album with additional users
func (s *AlbumService) ShareWithUsers(ctx context.Context, actorID, albumID uuid.UUID, users []AlbumUserInput) error {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return err
	}

	albumUsers, err := s.resolveUsers(ctx, album.OwnerID, users)
	if err != nil {
		return err
	}

	for _, u := range albumUsers {
		if err := s.albums.AddUser(ctx, albumID, u.UserID, u.Role); err != nil {
			return fmt.Errorf("failed to share album: %w", err)
		}
		s.notifier.AlbumInvited(ctx, albumID, u.UserID)
	}
	return nil
}

// RemoveUser unshares the album from one user
func (s *AlbumService) RemoveUser(ctx context.Context, actorID, albumID, userID uuid.UUID) error {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return err
	}
	if album.OwnerID == userID {
		return fmt.Errorf("%w: cannot remove the album owner", ErrInvalidRequest)
	}
	return s.albums.RemoveUser(ctx, albumID, userID)
}

// UpdateUserRole changes a shared user's role
func (s *AlbumService) UpdateUserRole(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error {
	if role != models.AlbumRoleViewer && role != models.AlbumRoleEditor {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	return s.albums.UpdateUserRole(ctx, albumID, userID, role)
}

// GetAlbum returns one album with its assets and shared users
func (s *AlbumService) GetAlbum(ctx context.Context, id uuid.UUID) (*models.Album, error) {
	return s.albums.GetWithAssets(ctx, id)
}

// ListAlbums lists albums owned by or shared with the user
func (s *AlbumService) ListAlbums(ctx context.Context, userID uuid.UUID, shared bool) ([]models.Album, error) {
	if shared {
		return s.albums.ListSharedWith(ctx, userID)
	}
	return s.albums.ListOwned(ctx, userID)
}

// Statistics returns owned/shared album counts for the user
func (s *AlbumService) Statistics(ctx context.Context, userID uuid.UUID) (owned, shared int, err error) {
	ownedAlbums, err := s.albums.ListOwned(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	sharedAlbums, err := s.albums.ListSharedWith(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return len(ownedAlbums), len(sharedAlbums), nil
}

// AuditHiddenVisibility re-derives the hidden-visibility invariant from
// current membership: assets in at least one hiding album must be
// album-hidden, everything else managed by the engine must be back on
// the timeline. It returns how many assets were corrected. Run
// periodically, it converges any drift left by concurrent operations or
// partially applied decisions.
func (s *AlbumService) AuditHiddenVisibility(ctx context.Context) (int, error) {
	hiddenByAlbum, err := s.albums.ListHiddenAssetIDs(ctx)
	if err != nil {
		return 0, err
	}
	shouldHide := make(map[uuid.UUID]bool, len(hiddenByAlbum))
	for _, id := range hiddenByAlbum {
		shouldHide[id] = true
	}

	onTimeline, err := s.assets.ListIDsByVisibility(ctx, models.VisibilityTimeline)
	if err != nil {
		return 0, err
	}
	currentlyHidden, err := s.assets.ListIDsByVisibility(ctx, models.VisibilityAlbumHidden)
	if err != nil {
		return 0, err
	}

	var toHide, toRestore []uuid.UUID
	for _, id := range onTimeline {
		if shouldHide[id] {
			toHide = append(toHide, id)
		}
	}
	for _, id := range currentlyHidden {
		if !shouldHide[id] {
			toRestore = append(toRestore, id)
		}
	}

	decision := Decision{}
	if len(toHide) > 0 {
		decision.VisibilityUpdates = append(decision.VisibilityUpdates, VisibilityUpdate{
			AssetIDs:   toHide,
			Visibility: models.VisibilityAlbumHidden,
		})
	}
	if len(toRestore) > 0 {
		decision.VisibilityUpdates = append(decision.VisibilityUpdates, VisibilityUpdate{
			AssetIDs:   toRestore,
			Visibility: models.VisibilityTimeline,
		})
	}
	if decision.Empty() {
		return 0, nil
	}
	if err := s.executor.Apply(ctx, decision); err != nil {
		return 0, err
	}
	return len(toHide) + len(toRestore), nil
}

func (s *AlbumService) applyAddedTriggers(ctx context.Context, actorID uuid.UUID, album *models.Album, added []uuid.UUID) error {
	if !album.HideFromTimeline && !album.IsExclusive {
		return nil
	}
	var others map[uuid.UUID][]models.Album
	if album.IsExclusive {
		var err error
		others, err = s.otherAlbums(ctx, actorID, album.ID, added)
		if err != nil {
			return err
		}
	}
	decision := s.engine.OnAssetsAdded(album, added, others)
	return s.executor.Apply(ctx, decision)
}

// otherAlbums collects, per asset, the albums other than excludeID that
// currently contain it. Assets that resolve to nothing are simply absent
// from the map.
func (s *AlbumService) otherAlbums(ctx context.Context, userID, excludeID uuid.UUID, assetIDs []uuid.UUID) (map[uuid.UUID][]models.Album, error) {
	out := make(map[uuid.UUID][]models.Album, len(assetIDs))
	for _, assetID := range assetIDs {
		list, err := s.albums.GetAlbumsForAsset(ctx, userID, assetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve albums for asset %s: %w", assetID, err)
		}
		var others []models.Album
		for _, a := range list {
			if a.ID != excludeID {
				others = append(others, a)
			}
		}
		if len(others) > 0 {
			out[assetID] = others
		}
	}
	return out, nil
}

func (s *AlbumService) notifyRecipients(ctx context.Context, album *models.Album, actorID uuid.UUID) {
	sharedIDs, err := s.albums.ListSharedUserIDs(ctx, album.ID)
	if err != nil {
		// Recipients are best effort; the mutation already succeeded.
		return
	}
	seen := map[uuid.UUID]bool{actorID: true}
	for _, id := range append(sharedIDs, album.OwnerID) {
		if seen[id] {
			continue
		}
		seen[id] = true
		s.notifier.AlbumUpdated(ctx, album.ID, id)
	}
}

func (s *AlbumService) resolveUsers(ctx context.Context, ownerID uuid.UUID, users []AlbumUserInput) ([]models.AlbumUser, error) {
	albumUsers := make([]models.AlbumUser, 0, len(users))
	for _, u := range users {
		if u.UserID == ownerID {
			return nil, fmt.Errorf("%w: cannot share album with its owner", ErrInvalidRequest)
		}
		if _, err := s.users.GetByID(ctx, u.UserID); err != nil {
			return nil, err
		}
		role := u.Role
		if role == "" {
			role = models.AlbumRoleViewer
		}
		albumUsers = append(albumUsers, models.AlbumUser{UserID: u.UserID, Role: role})
	}
	return albumUsers, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
