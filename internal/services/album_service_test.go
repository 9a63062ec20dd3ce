package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
)

// fakeAssetStore keeps asset visibility in memory. Like the real store,
// BulkSetVisibility only touches assets currently on the timeline or
// album-hidden; archived and locked assets are left alone.
type fakeAssetStore struct {
	visibility map[uuid.UUID]models.AssetVisibility
	setCalls   []VisibilityUpdate
	failSet    error
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{visibility: make(map[uuid.UUID]models.AssetVisibility)}
}

func (f *fakeAssetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	vis, ok := f.visibility[id]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return &models.Asset{ID: id, Visibility: vis}, nil
}

func (f *fakeAssetStore) BulkSetVisibility(ctx context.Context, assetIDs []uuid.UUID, value models.AssetVisibility) error {
	if f.failSet != nil {
		return f.failSet
	}
	f.setCalls = append(f.setCalls, VisibilityUpdate{AssetIDs: assetIDs, Visibility: value})
	for _, id := range assetIDs {
		cur, ok := f.visibility[id]
		if !ok {
			continue
		}
		if cur == models.VisibilityTimeline || cur == models.VisibilityAlbumHidden {
			f.visibility[id] = value
		}
	}
	return nil
}

func (f *fakeAssetStore) ListIDsByVisibility(ctx context.Context, value models.AssetVisibility) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, vis := range f.visibility {
		if vis == value {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// fakeAlbumStore keeps albums, membership edges and shared users in
// memory with the same idempotency contract as the gorm implementation.
type fakeAlbumStore struct {
	albums     map[uuid.UUID]*models.Album
	members    map[uuid.UUID][]uuid.UUID
	users      map[uuid.UUID][]models.AlbumUser
	revoked    []MembershipRevocation
	failRevoke error
}

func newFakeAlbumStore() *fakeAlbumStore {
	return &fakeAlbumStore{
		albums:  make(map[uuid.UUID]*models.Album),
		members: make(map[uuid.UUID][]uuid.UUID),
		users:   make(map[uuid.UUID][]models.AlbumUser),
	}
}

func (f *fakeAlbumStore) Create(ctx context.Context, album *models.Album, assetIDs []uuid.UUID, users []models.AlbumUser) error {
	if album.ID == uuid.Nil {
		album.ID = uuid.New()
	}
	copied := *album
	f.albums[album.ID] = &copied
	for _, assetID := range assetIDs {
		if !containsID(f.members[album.ID], assetID) {
			f.members[album.ID] = append(f.members[album.ID], assetID)
		}
	}
	for _, u := range users {
		u.AlbumID = album.ID
		f.users[album.ID] = append(f.users[album.ID], u)
	}
	return nil
}

func (f *fakeAlbumStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Album, error) {
	album, ok := f.albums[id]
	if !ok {
		return nil, ErrAlbumNotFound
	}
	copied := *album
	return &copied, nil
}

func (f *fakeAlbumStore) GetWithAssets(ctx context.Context, id uuid.UUID) (*models.Album, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeAlbumStore) Update(ctx context.Context, album *models.Album) error {
	if _, ok := f.albums[album.ID]; !ok {
		return ErrAlbumNotFound
	}
	copied := *album
	f.albums[album.ID] = &copied
	return nil
}

func (f *fakeAlbumStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.albums, id)
	delete(f.members, id)
	delete(f.users, id)
	return nil
}

func (f *fakeAlbumStore) ListOwned(ctx context.Context, userID uuid.UUID) ([]models.Album, error) {
	var out []models.Album
	for _, album := range f.albums {
		if album.OwnerID == userID {
			out = append(out, *album)
		}
	}
	return out, nil
}

func (f *fakeAlbumStore) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]models.Album, error) {
	var out []models.Album
	for albumID, users := range f.users {
		for _, u := range users {
			if u.UserID == userID {
				out = append(out, *f.albums[albumID])
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAlbumStore) GetAlbumsForAsset(ctx context.Context, userID, assetID uuid.UUID) ([]models.Album, error) {
	var out []models.Album
	for albumID, assetIDs := range f.members {
		if containsID(assetIDs, assetID) {
			out = append(out, *f.albums[albumID])
		}
	}
	return out, nil
}

func (f *fakeAlbumStore) AddAssets(ctx context.Context, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	var added []uuid.UUID
	for _, assetID := range assetIDs {
		if containsID(f.members[albumID], assetID) {
			continue
		}
		f.members[albumID] = append(f.members[albumID], assetID)
		added = append(added, assetID)
	}
	return added, nil
}

func (f *fakeAlbumStore) RemoveAssets(ctx context.Context, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	for _, assetID := range assetIDs {
		if f.dropEdge(albumID, assetID) {
			removed = append(removed, assetID)
		}
	}
	return removed, nil
}

func (f *fakeAlbumStore) RemoveMembership(ctx context.Context, albumID, assetID uuid.UUID) error {
	if f.failRevoke != nil {
		return f.failRevoke
	}
	f.dropEdge(albumID, assetID)
	f.revoked = append(f.revoked, MembershipRevocation{AlbumID: albumID, AssetID: assetID})
	return nil
}

func (f *fakeAlbumStore) dropEdge(albumID, assetID uuid.UUID) bool {
	ids := f.members[albumID]
	for i, id := range ids {
		if id == assetID {
			f.members[albumID] = append(ids[:i:i], ids[i+1:]...)
			return true
		}
	}
	return false
}

func (f *fakeAlbumStore) HasAsset(ctx context.Context, albumID, assetID uuid.UUID) (bool, error) {
	return containsID(f.members[albumID], assetID), nil
}

func (f *fakeAlbumStore) ListAssetIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID(nil), f.members[albumID]...), nil
}

func (f *fakeAlbumStore) FirstAssetID(ctx context.Context, albumID uuid.UUID) (*uuid.UUID, error) {
	ids := f.members[albumID]
	if len(ids) == 0 {
		return nil, nil
	}
	id := ids[0]
	return &id, nil
}

func (f *fakeAlbumStore) ListHiddenAssetIDs(ctx context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for albumID, assetIDs := range f.members {
		if !f.albums[albumID].HideFromTimeline {
			continue
		}
		for _, id := range assetIDs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (f *fakeAlbumStore) AddUser(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error {
	for _, u := range f.users[albumID] {
		if u.UserID == userID {
			return nil
		}
	}
	f.users[albumID] = append(f.users[albumID], models.AlbumUser{AlbumID: albumID, UserID: userID, Role: role})
	return nil
}

func (f *fakeAlbumStore) RemoveUser(ctx context.Context, albumID, userID uuid.UUID) error {
	users := f.users[albumID]
	for i, u := range users {
		if u.UserID == userID {
			f.users[albumID] = append(users[:i:i], users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeAlbumStore) UpdateUserRole(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error {
	for i, u := range f.users[albumID] {
		if u.UserID == userID {
			f.users[albumID][i].Role = role
			return nil
		}
	}
	return ErrUserNotFound
}

func (f *fakeAlbumStore) ListSharedUserIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, u := range f.users[albumID] {
		ids = append(ids, u.UserID)
	}
	return ids, nil
}

type fakeUserLookup struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type notification struct {
	AlbumID     uuid.UUID
	RecipientID uuid.UUID
}

type fakeNotifier struct {
	updated []notification
	invited []notification
}

func (f *fakeNotifier) AlbumUpdated(ctx context.Context, albumID, recipientID uuid.UUID) {
	f.updated = append(f.updated, notification{albumID, recipientID})
}

func (f *fakeNotifier) AlbumInvited(ctx context.Context, albumID, recipientID uuid.UUID) {
	f.invited = append(f.invited, notification{albumID, recipientID})
}

type fixture struct {
	albums   *fakeAlbumStore
	assets   *fakeAssetStore
	users    *fakeUserLookup
	notifier *fakeNotifier
	svc      *AlbumService
	owner    uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		albums:   newFakeAlbumStore(),
		assets:   newFakeAssetStore(),
		users:    &fakeUserLookup{users: make(map[uuid.UUID]*models.User)},
		notifier: &fakeNotifier{},
		owner:    uuid.New(),
	}
	f.users.users[f.owner] = &models.User{ID: f.owner, Username: "owner"}
	f.svc = NewAlbumService(f.albums, f.assets, f.users, f.notifier)
	return f
}

func (f *fixture) newAsset(t *testing.T, vis models.AssetVisibility) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.assets.visibility[id] = vis
	return id
}

func (f *fixture) newUser(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.users.users[id] = &models.User{ID: id}
	return id
}

func (f *fixture) seedAlbum(t *testing.T, hide, exclusive bool, assetIDs ...uuid.UUID) *models.Album {
	t.Helper()
	album := &models.Album{
		OwnerID:          f.owner,
		Name:             "album",
		HideFromTimeline: hide,
		IsExclusive:      exclusive,
	}
	if err := f.albums.Create(context.Background(), album, assetIDs, nil); err != nil {
		t.Fatalf("seed album: %v", err)
	}
	return album
}

func (f *fixture) wantVisibility(t *testing.T, assetID uuid.UUID, want models.AssetVisibility) {
	t.Helper()
	if got := f.assets.visibility[assetID]; got != want {
		t.Fatalf("asset %s visibility = %s, want %s", assetID, got, want)
	}
}

func TestAddAssetsToHidingAlbumHidesThem(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, true, false)
	a := f.newAsset(t, models.VisibilityTimeline)
	b := f.newAsset(t, models.VisibilityTimeline)

	added, err := f.svc.AddAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a, b})
	if err != nil {
		t.Fatalf("AddAssets: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("expected 2 added, got %d", len(added))
	}
	f.wantVisibility(t, a, models.VisibilityAlbumHidden)
	f.wantVisibility(t, b, models.VisibilityAlbumHidden)
}

func TestAddAssetsToPlainAlbumKeepsTimeline(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, false, false)
	a := f.newAsset(t, models.VisibilityTimeline)

	if _, err := f.svc.AddAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a}); err != nil {
		t.Fatalf("AddAssets: %v", err)
	}
	f.wantVisibility(t, a, models.VisibilityTimeline)
	if len(f.assets.setCalls) != 0 {
		t.Fatalf("unexpected visibility writes: %+v", f.assets.setCalls)
	}
}

func TestAddAssetsAlreadyMemberIsNoOp(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	album := f.seedAlbum(t, true, false, a)
	f.assets.visibility[a] = models.VisibilityAlbumHidden

	added, err := f.svc.AddAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a})
	if err != nil {
		t.Fatalf("AddAssets: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("expected nothing added, got %v", added)
	}
	if len(f.assets.setCalls) != 0 {
		t.Fatalf("unexpected visibility writes: %+v", f.assets.setCalls)
	}
}

func TestAddAssetsDoesNotTouchArchivedAssets(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, true, false)
	archived := f.newAsset(t, models.VisibilityArchived)

	if _, err := f.svc.AddAssets(context.Background(), f.owner, album.ID, []uuid.UUID{archived}); err != nil {
		t.Fatalf("AddAssets: %v", err)
	}
	f.wantVisibility(t, archived, models.VisibilityArchived)
}

func TestAddAssetsToExclusiveAlbumEvictsOtherMemberships(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	other := f.seedAlbum(t, false, false, a)
	exclusive := f.seedAlbum(t, false, true)

	if _, err := f.svc.AddAssets(context.Background(), f.owner, exclusive.ID, []uuid.UUID{a}); err != nil {
		t.Fatalf("AddAssets: %v", err)
	}

	if containsID(f.albums.members[other.ID], a) {
		t.Fatalf("asset still member of the other album")
	}
	if !containsID(f.albums.members[exclusive.ID], a) {
		t.Fatalf("asset missing from the exclusive album")
	}
}

func TestAddAssetsSetsThumbnailWhenUnset(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, false, false)
	a := f.newAsset(t, models.VisibilityTimeline)

	if _, err := f.svc.AddAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a}); err != nil {
		t.Fatalf("AddAssets: %v", err)
	}

	stored := f.albums.albums[album.ID]
	if stored.ThumbnailAssetID == nil || *stored.ThumbnailAssetID != a {
		t.Fatalf("thumbnail not set to first added asset")
	}
}

func TestRemoveAssetsRestoresTimeline(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityAlbumHidden)
	album := f.seedAlbum(t, true, false, a)

	removed, err := f.svc.RemoveAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a})
	if err != nil {
		t.Fatalf("RemoveAssets: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected 1 removed, got %d", len(removed))
	}
	f.wantVisibility(t, a, models.VisibilityTimeline)
}

func TestRemoveAssetsKeepsHiddenWhenAnotherHidingAlbumRemains(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityAlbumHidden)
	first := f.seedAlbum(t, true, false, a)
	f.seedAlbum(t, true, false, a)

	if _, err := f.svc.RemoveAssets(context.Background(), f.owner, first.ID, []uuid.UUID{a}); err != nil {
		t.Fatalf("RemoveAssets: %v", err)
	}
	f.wantVisibility(t, a, models.VisibilityAlbumHidden)
}

func TestRemoveAssetsAbsentAssetIsNoOp(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, true, false)
	a := f.newAsset(t, models.VisibilityTimeline)

	removed, err := f.svc.RemoveAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a})
	if err != nil {
		t.Fatalf("RemoveAssets: %v", err)
	}
	if len(removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
	if len(f.assets.setCalls) != 0 {
		t.Fatalf("unexpected visibility writes: %+v", f.assets.setCalls)
	}
}

func TestRemoveAssetsReassignsThumbnail(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	b := f.newAsset(t, models.VisibilityTimeline)
	album := f.seedAlbum(t, false, false, a, b)
	album.ThumbnailAssetID = &a
	if err := f.albums.Update(context.Background(), album); err != nil {
		t.Fatalf("seed thumbnail: %v", err)
	}

	if _, err := f.svc.RemoveAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a}); err != nil {
		t.Fatalf("RemoveAssets: %v", err)
	}

	stored := f.albums.albums[album.ID]
	if stored.ThumbnailAssetID == nil || *stored.ThumbnailAssetID != b {
		t.Fatalf("thumbnail not reassigned to a remaining asset")
	}
}

func TestUpdateAlbumHideOnHidesMembers(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	album := f.seedAlbum(t, false, false, a)
	hide := true

	if _, err := f.svc.UpdateAlbum(context.Background(), f.owner, album.ID, UpdateAlbumInput{HideFromTimeline: &hide}); err != nil {
		t.Fatalf("UpdateAlbum: %v", err)
	}
	f.wantVisibility(t, a, models.VisibilityAlbumHidden)
}

func TestUpdateAlbumHideOffRestoresMembersUnlessOtherwiseHidden(t *testing.T) {
	f := newFixture()
	free := f.newAsset(t, models.VisibilityAlbumHidden)
	pinned := f.newAsset(t, models.VisibilityAlbumHidden)
	album := f.seedAlbum(t, true, false, free, pinned)
	f.seedAlbum(t, true, false, pinned)
	hide := false

	if _, err := f.svc.UpdateAlbum(context.Background(), f.owner, album.ID, UpdateAlbumInput{HideFromTimeline: &hide}); err != nil {
		t.Fatalf("UpdateAlbum: %v", err)
	}
	f.wantVisibility(t, free, models.VisibilityTimeline)
	f.wantVisibility(t, pinned, models.VisibilityAlbumHidden)
}

func TestUpdateAlbumExclusiveOnEvictsFromOtherAlbums(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	other := f.seedAlbum(t, false, false, a)
	album := f.seedAlbum(t, false, false, a)
	exclusive := true

	if _, err := f.svc.UpdateAlbum(context.Background(), f.owner, album.ID, UpdateAlbumInput{IsExclusive: &exclusive}); err != nil {
		t.Fatalf("UpdateAlbum: %v", err)
	}

	if containsID(f.albums.members[other.ID], a) {
		t.Fatalf("asset still member of the other album")
	}
	if !containsID(f.albums.members[album.ID], a) {
		t.Fatalf("asset missing from the exclusive album")
	}
}

func TestUpdateAlbumBothFlagsFlipInOneCall(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	other := f.seedAlbum(t, false, false, a)
	album := f.seedAlbum(t, false, false, a)
	hide := true
	exclusive := true

	if _, err := f.svc.UpdateAlbum(context.Background(), f.owner, album.ID, UpdateAlbumInput{
		HideFromTimeline: &hide,
		IsExclusive:      &exclusive,
	}); err != nil {
		t.Fatalf("UpdateAlbum: %v", err)
	}

	f.wantVisibility(t, a, models.VisibilityAlbumHidden)
	if containsID(f.albums.members[other.ID], a) {
		t.Fatalf("asset still member of the other album")
	}
}

func TestUpdateAlbumThumbnailMustBeMember(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, false, false)
	outsider := f.newAsset(t, models.VisibilityTimeline)

	_, err := f.svc.UpdateAlbum(context.Background(), f.owner, album.ID, UpdateAlbumInput{ThumbnailAssetID: &outsider})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUpdateAlbumUnknownAlbumFails(t *testing.T) {
	f := newFixture()
	name := "renamed"

	_, err := f.svc.UpdateAlbum(context.Background(), f.owner, uuid.New(), UpdateAlbumInput{Name: &name})
	if !errors.Is(err, ErrAlbumNotFound) {
		t.Fatalf("expected ErrAlbumNotFound, got %v", err)
	}
}

func TestDeleteHidingAlbumRestoresMembers(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityAlbumHidden)
	album := f.seedAlbum(t, true, false, a)

	if err := f.svc.DeleteAlbum(context.Background(), f.owner, album.ID); err != nil {
		t.Fatalf("DeleteAlbum: %v", err)
	}
	f.wantVisibility(t, a, models.VisibilityTimeline)
	if _, err := f.svc.GetAlbum(context.Background(), album.ID); !errors.Is(err, ErrAlbumNotFound) {
		t.Fatalf("expected album gone, got %v", err)
	}
}

func TestDeleteHidingAlbumKeepsAssetsHiddenElsewhere(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityAlbumHidden)
	album := f.seedAlbum(t, true, false, a)
	f.seedAlbum(t, true, false, a)

	if err := f.svc.DeleteAlbum(context.Background(), f.owner, album.ID); err != nil {
		t.Fatalf("DeleteAlbum: %v", err)
	}
	f.wantVisibility(t, a, models.VisibilityAlbumHidden)
}

func TestCreateAlbumWithInitialAssetsRunsTriggers(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)

	album, err := f.svc.CreateAlbum(context.Background(), f.owner, CreateAlbumInput{
		Name:             "hidden stuff",
		HideFromTimeline: true,
		AssetIDs:         []uuid.UUID{a},
	})
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}
	f.wantVisibility(t, a, models.VisibilityAlbumHidden)
	if album.ThumbnailAssetID == nil || *album.ThumbnailAssetID != a {
		t.Fatalf("thumbnail not set from initial assets")
	}
}

func TestCreateAlbumSharingWithOwnerFails(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateAlbum(context.Background(), f.owner, CreateAlbumInput{
		Name:  "album",
		Users: []AlbumUserInput{{UserID: f.owner}},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreateAlbumWithUnknownUserFails(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateAlbum(context.Background(), f.owner, CreateAlbumInput{
		Name:  "album",
		Users: []AlbumUserInput{{UserID: uuid.New()}},
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateAlbumNotifiesInvitedUsers(t *testing.T) {
	f := newFixture()
	invited := f.newUser(t)

	album, err := f.svc.CreateAlbum(context.Background(), f.owner, CreateAlbumInput{
		Name:  "album",
		Users: []AlbumUserInput{{UserID: invited, Role: models.AlbumRoleEditor}},
	})
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}

	if len(f.notifier.invited) != 1 || f.notifier.invited[0].RecipientID != invited || f.notifier.invited[0].AlbumID != album.ID {
		t.Fatalf("expected one invite notification for %s, got %+v", invited, f.notifier.invited)
	}
}

func TestMutationNotifiesSharedUsersButNotActor(t *testing.T) {
	f := newFixture()
	sharedUser := f.newUser(t)
	a := f.newAsset(t, models.VisibilityTimeline)
	album := f.seedAlbum(t, false, false)
	if err := f.albums.AddUser(context.Background(), album.ID, sharedUser, models.AlbumRoleViewer); err != nil {
		t.Fatalf("seed shared user: %v", err)
	}

	if _, err := f.svc.AddAssets(context.Background(), f.owner, album.ID, []uuid.UUID{a}); err != nil {
		t.Fatalf("AddAssets: %v", err)
	}

	for _, n := range f.notifier.updated {
		if n.RecipientID == f.owner {
			t.Fatalf("actor was notified about their own mutation")
		}
	}
	found := false
	for _, n := range f.notifier.updated {
		if n.RecipientID == sharedUser {
			found = true
		}
	}
	if !found {
		t.Fatalf("shared user was not notified, got %+v", f.notifier.updated)
	}
}

func TestRemoveUserCannotRemoveOwner(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, false, false)

	err := f.svc.RemoveUser(context.Background(), f.owner, album.ID, f.owner)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUpdateUserRoleRejectsUnknownRole(t *testing.T) {
	f := newFixture()
	album := f.seedAlbum(t, false, false)

	err := f.svc.UpdateUserRole(context.Background(), album.ID, uuid.New(), "moderator")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAddAssetsToAlbumsFailsOnMissingAlbum(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	album := f.seedAlbum(t, false, false)

	_, err := f.svc.AddAssetsToAlbums(context.Background(), f.owner, []uuid.UUID{album.ID, uuid.New()}, []uuid.UUID{a})
	if !errors.Is(err, ErrAlbumNotFound) {
		t.Fatalf("expected ErrAlbumNotFound, got %v", err)
	}
}

func TestAddAssetsToAlbumsReportsPerAlbumDelta(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	b := f.newAsset(t, models.VisibilityTimeline)
	withA := f.seedAlbum(t, false, false, a)
	empty := f.seedAlbum(t, false, false)

	result, err := f.svc.AddAssetsToAlbums(context.Background(), f.owner, []uuid.UUID{withA.ID, empty.ID}, []uuid.UUID{a, b})
	if err != nil {
		t.Fatalf("AddAssetsToAlbums: %v", err)
	}

	if len(result[withA.ID]) != 1 || result[withA.ID][0] != b {
		t.Fatalf("expected only the new asset added to the first album, got %v", result[withA.ID])
	}
	if len(result[empty.ID]) != 2 {
		t.Fatalf("expected both assets added to the empty album, got %v", result[empty.ID])
	}
}

func TestAddAssetsToAlbumsExclusiveFirstEvictsLaterSibling(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	exclusive := f.seedAlbum(t, false, true)
	plain := f.seedAlbum(t, false, false)

	_, err := f.svc.AddAssetsToAlbums(context.Background(), f.owner, []uuid.UUID{exclusive.ID, plain.ID}, []uuid.UUID{a})
	if err != nil {
		t.Fatalf("AddAssetsToAlbums: %v", err)
	}

	if !containsID(f.albums.members[exclusive.ID], a) {
		t.Fatalf("asset missing from the exclusive album")
	}
	if containsID(f.albums.members[plain.ID], a) {
		t.Fatalf("asset still member of a sibling album next to an exclusive one")
	}
}

func TestAddAssetsToAlbumsExclusiveLastEvictsEarlierSibling(t *testing.T) {
	f := newFixture()
	a := f.newAsset(t, models.VisibilityTimeline)
	plain := f.seedAlbum(t, false, false)
	exclusive := f.seedAlbum(t, false, true)

	_, err := f.svc.AddAssetsToAlbums(context.Background(), f.owner, []uuid.UUID{plain.ID, exclusive.ID}, []uuid.UUID{a})
	if err != nil {
		t.Fatalf("AddAssetsToAlbums: %v", err)
	}

	if !containsID(f.albums.members[exclusive.ID], a) {
		t.Fatalf("asset missing from the exclusive album")
	}
	if containsID(f.albums.members[plain.ID], a) {
		t.Fatalf("asset still member of a sibling album next to an exclusive one")
	}
}

func TestAuditHiddenVisibilityRepairsDrift(t *testing.T) {
	f := newFixture()
	shouldBeHidden := f.newAsset(t, models.VisibilityTimeline)
	shouldBeVisible := f.newAsset(t, models.VisibilityAlbumHidden)
	untouched := f.newAsset(t, models.VisibilityArchived)
	f.seedAlbum(t, true, false, shouldBeHidden, untouched)

	corrected, err := f.svc.AuditHiddenVisibility(context.Background())
	if err != nil {
		t.Fatalf("AuditHiddenVisibility: %v", err)
	}
	if corrected != 2 {
		t.Fatalf("expected 2 corrections, got %d", corrected)
	}
	f.wantVisibility(t, shouldBeHidden, models.VisibilityAlbumHidden)
	f.wantVisibility(t, shouldBeVisible, models.VisibilityTimeline)
	f.wantVisibility(t, untouched, models.VisibilityArchived)
}

func TestAuditHiddenVisibilityCleanStateIsNoOp(t *testing.T) {
	f := newFixture()
	hidden := f.newAsset(t, models.VisibilityAlbumHidden)
	f.seedAlbum(t, true, false, hidden)
	f.newAsset(t, models.VisibilityTimeline)

	corrected, err := f.svc.AuditHiddenVisibility(context.Background())
	if err != nil {
		t.Fatalf("AuditHiddenVisibility: %v", err)
	}
	if corrected != 0 {
		t.Fatalf("expected no corrections, got %d", corrected)
	}
	if len(f.assets.setCalls) != 0 {
		t.Fatalf("unexpected visibility writes: %+v", f.assets.setCalls)
	}
}
