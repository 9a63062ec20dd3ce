package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/photovault/backend/internal/models"
	"github.com/photovault/backend/internal/services"
)

type AssetHandler struct {
	assetService   *services.AssetService
	storageService *services.StorageService
}

func NewAssetHandler(assetService *services.AssetService, storageService *services.StorageService) *AssetHandler {
	return &AssetHandler{
		assetService:   assetService,
		storageService: storageService,
	}
}

func assetResponse(asset *models.Asset) gin.H {
	return gin.H{
		"id":         asset.ID,
		"owner_id":   asset.OwnerID,
		"filename":   asset.Filename,
		"mime_type":  asset.MimeType,
		"size_bytes": asset.SizeBytes,
		"checksum":   asset.Checksum,
		"visibility": asset.Visibility,
		"created_at": asset.CreatedAt,
	}
}

// Upload handles a multipart asset upload
func (h *AssetHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	asset, err := h.assetService.Upload(c.Request.Context(), userID, header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assetResponse(asset))
}

// Get returns one asset record
func (h *AssetHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	assetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.GetByID(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assetResponse(asset))
}

// ServeFile streams the asset original with range support
func (h *AssetHandler) ServeFile(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	assetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.GetByID(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	absPath, err := h.assetService.LocalPath(c.Request.Context(), asset.Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load asset"})
		return
	}

	c.Header("Content-Type", asset.MimeType)
	h.storageService.ServeFileWithRange(c.Writer, c.Request, absPath, asset.Filename)
}

// Download returns a time-limited presigned URL for the asset original
func (h *AssetHandler) Download(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	assetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.GetByID(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.assetService.PresignDownload(c.Request.Context(), asset.Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"filename": asset.Filename,
	})
}

// Delete removes an asset
func (h *AssetHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.assetService.Delete(c.Request.Context(), userID, assetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
}

// Archive puts an asset into the archive
func (h *AssetHandler) Archive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.assetService.Archive(c.Request.Context(), userID, assetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visibility": models.VisibilityArchived})
}

// Unarchive takes an asset out of the archive
func (h *AssetHandler) Unarchive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	visibility, err := h.assetService.Unarchive(c.Request.Context(), userID, assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"visibility": visibility})
}

// ListTimeline lists the user's timeline assets
func (h *AssetHandler) ListTimeline(c *gin.Context) {
	h.listByVisibility(c, models.VisibilityTimeline)
}

// ListArchived lists the user's archived assets
func (h *AssetHandler) ListArchived(c *gin.Context) {
	h.listByVisibility(c, models.VisibilityArchived)
}

func (h *AssetHandler) listByVisibility(c *gin.Context, visibility models.AssetVisibility) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	assets, total, err := h.assetService.ListByVisibility(c.Request.Context(), userID, visibility, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(assets))
	for i := range assets {
		out = append(out, assetResponse(&assets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"assets": out, "total": total})
}
