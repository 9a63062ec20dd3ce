package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
	"github.com/photovault/backend/internal/services"
)

type AlbumHandler struct {
	albumService *services.AlbumService
	shareLinks   *services.ShareLinkService
	qrService    *services.QRService
}

func NewAlbumHandler(albumService *services.AlbumService, shareLinks *services.ShareLinkService, qrService *services.QRService) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
		shareLinks:   shareLinks,
		qrService:    qrService,
	}
}

type albumUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

func (r albumUserRequest) toInput() (services.AlbumUserInput, error) {
	id, err := uuid.Parse(r.UserID)
	if err != nil {
		return services.AlbumUserInput{}, err
	}
	return services.AlbumUserInput{UserID: id, Role: models.AlbumUserRole(r.Role)}, nil
}

func albumResponse(album *models.Album) gin.H {
	return gin.H{
		"id":                 album.ID,
		"owner_id":           album.OwnerID,
		"name":               album.Name,
		"description":        album.Description,
		"thumbnail_asset_id": album.ThumbnailAssetID,
		"hide_from_timeline": album.HideFromTimeline,
		"is_exclusive":       album.IsExclusive,
		"created_at":         album.CreatedAt,
		"updated_at":         album.UpdatedAt,
	}
}

// Create handles album creation
func (h *AlbumHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Name             string             `json:"name" binding:"required,max=255"`
		Description      string             `json:"description"`
		HideFromTimeline bool               `json:"hide_from_timeline"`
		IsExclusive      bool               `json:"is_exclusive"`
		AssetIDs         []string           `json:"asset_ids"`
		Users            []albumUserRequest `json:"users"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assetIDs, err := parseUUIDs(req.AssetIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	users := make([]services.AlbumUserInput, 0, len(req.Users))
	for _, u := range req.Users {
		in, err := u.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		users = append(users, in)
	}

	album, err := h.albumService.CreateAlbum(c.Request.Context(), userID, services.CreateAlbumInput{
		Name:             req.Name,
		Description:      req.Description,
		HideFromTimeline: req.HideFromTimeline,
		IsExclusive:      req.IsExclusive,
		AssetIDs:         assetIDs,
		Users:            users,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, albumResponse(album))
}

// List returns the user's albums, shared ones when ?shared=true
func (h *AlbumHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	shared := c.Query("shared") == "true"
	albums, err := h.albumService.ListAlbums(c.Request.Context(), userID, shared)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(albums))
	for i := range albums {
		out = append(out, albumResponse(&albums[i]))
	}
	c.JSON(http.StatusOK, gin.H{"albums": out})
}

// Statistics returns owned and shared album counts
func (h *AlbumHandler) Statistics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	owned, shared, err := h.albumService.Statistics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"owned": owned, "shared": shared})
}

// Get returns one album with its assets
func (h *AlbumHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	album, err := h.albumService.GetAlbum(c.Request.Context(), albumID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := albumResponse(album)
	resp["assets"] = album.Assets
	resp["users"] = album.Users
	c.JSON(http.StatusOK, resp)
}

// Update patches album metadata and flags
func (h *AlbumHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name             *string `json:"name"`
		Description      *string `json:"description"`
		ThumbnailAssetID *string `json:"thumbnail_asset_id"`
		HideFromTimeline *bool   `json:"hide_from_timeline"`
		IsExclusive      *bool   `json:"is_exclusive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.UpdateAlbumInput{
		Name:             req.Name,
		Description:      req.Description,
		HideFromTimeline: req.HideFromTimeline,
		IsExclusive:      req.IsExclusive,
	}
	if req.ThumbnailAssetID != nil {
		id, err := uuid.Parse(*req.ThumbnailAssetID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thumbnail asset ID"})
			return
		}
		in.ThumbnailAssetID = &id
	}

	album, err := h.albumService.UpdateAlbum(c.Request.Context(), userID, albumID, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, albumResponse(album))
}

// Delete removes an album
func (h *AlbumHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.albumService.DeleteAlbum(c.Request.Context(), userID, albumID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Album deleted"})
}

// AddAssets adds assets to an album
func (h *AlbumHandler) AddAssets(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		AssetIDs []string `json:"asset_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assetIDs, err := parseUUIDs(req.AssetIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	added, err := h.albumService.AddAssets(c.Request.Context(), userID, albumID, assetIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RemoveAssets removes assets from an album
func (h *AlbumHandler) RemoveAssets(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		AssetIDs []string `json:"asset_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assetIDs, err := parseUUIDs(req.AssetIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	removed, err := h.albumService.RemoveAssets(c.Request.Context(), userID, albumID, assetIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// AddToMany adds assets to several albums in one request
func (h *AlbumHandler) AddToMany(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		AlbumIDs []string `json:"album_ids" binding:"required,min=1"`
		AssetIDs []string `json:"asset_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	albumIDs, err := parseUUIDs(req.AlbumIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid album ID"})
		return
	}
	assetIDs, err := parseUUIDs(req.AssetIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	result, err := h.albumService.AddAssetsToAlbums(c.Request.Context(), userID, albumIDs, assetIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make(map[string][]uuid.UUID, len(result))
	for albumID, added := range result {
		out[albumID.String()] = added
	}
	c.JSON(http.StatusOK, gin.H{"added": out})
}

// ShareUsers shares an album with additional users
func (h *AlbumHandler) ShareUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Users []albumUserRequest `json:"users" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users := make([]services.AlbumUserInput, 0, len(req.Users))
	for _, u := range req.Users {
		in, err := u.toInput()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		users = append(users, in)
	}

	if err := h.albumService.ShareWithUsers(c.Request.Context(), userID, albumID, users); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Album shared"})
}

// RemoveUser removes a shared user from an album
func (h *AlbumHandler) RemoveUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	if err := h.albumService.RemoveUser(c.Request.Context(), userID, albumID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User removed"})
}

// UpdateUserRole changes a shared user's role
func (h *AlbumHandler) UpdateUserRole(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.albumService.UpdateUserRole(c.Request.Context(), albumID, targetID, models.AlbumUserRole(req.Role)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// CreateShareLink creates a public share link for an album
func (h *AlbumHandler) CreateShareLink(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	link, err := h.shareLinks.CreateForAlbum(c.Request.Context(), albumID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         link.ID,
		"code":       link.Code,
		"url":        h.shareLinks.ShareURL(link),
		"expires_at": link.ExpiresAt,
	})
}

// ListShareLinks lists an album's share links
func (h *AlbumHandler) ListShareLinks(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	links, err := h.shareLinks.ListForAlbum(c.Request.Context(), albumID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(links))
	for i := range links {
		out = append(out, gin.H{
			"id":         links[i].ID,
			"code":       links[i].Code,
			"url":        h.shareLinks.ShareURL(&links[i]),
			"expires_at": links[i].ExpiresAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"share_links": out})
}

// RevokeShareLink deletes a share link
func (h *AlbumHandler) RevokeShareLink(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	linkID, ok := pathUUID(c, "linkId")
	if !ok {
		return
	}

	if err := h.shareLinks.Revoke(c.Request.Context(), albumID, linkID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Share link revoked"})
}

// ShareLinkQRPDF streams a printable PDF with the share link QR code
func (h *AlbumHandler) ShareLinkQRPDF(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	albumID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	linkID, ok := pathUUID(c, "linkId")
	if !ok {
		return
	}

	album, err := h.albumService.GetAlbum(c.Request.Context(), albumID)
	if err != nil {
		respondError(c, err)
		return
	}

	links, err := h.shareLinks.ListForAlbum(c.Request.Context(), albumID)
	if err != nil {
		respondError(c, err)
		return
	}
	var link *models.ShareLink
	for i := range links {
		if links[i].ID == linkID {
			link = &links[i]
			break
		}
	}
	if link == nil {
		respondError(c, services.ErrShareLinkNotFound)
		return
	}

	pdf, err := h.qrService.GenerateShareQRPDF(link, album.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"album-share-%s.pdf\"", link.Code))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// PublicShare resolves a share link code without authentication
func (h *AlbumHandler) PublicShare(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code"})
		return
	}

	link, err := h.shareLinks.GetByCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	album, err := h.albumService.GetAlbum(c.Request.Context(), link.AlbumID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := albumResponse(album)
	resp["assets"] = album.Assets
	c.JSON(http.StatusOK, resp)
}
