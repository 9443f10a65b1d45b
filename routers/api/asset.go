package api

import (
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"FrameForge-server/models"
)

func (e *Env) ListAssets(c *gin.Context) {
	assets, err := models.ListAssets(e.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

// ScanAssets walks the asset root and upserts a row per media file found.
func (e *Env) ScanAssets(c *gin.Context) {
	var scanned []string
	err := filepath.WalkDir(e.AssetRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		kind := models.DetectAssetType(path)
		if kind == "other" {
			return nil
		}
		rel, err := filepath.Rel(e.AssetRoot, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		asset := models.Asset{
			Path: filepath.ToSlash(rel),
			Name: d.Name(),
			Size: info.Size(),
			Type: kind,
		}
		if err := e.DB.Save(&asset).Error; err != nil {
			return err
		}
		scanned = append(scanned, asset.Path)
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scanned": len(scanned), "paths": scanned})
}

// SetAssetCategories replaces an asset's category set.
func (e *Env) SetAssetCategories(c *gin.Context) {
	var req struct {
		Path       string   `json:"path" binding:"required"`
		Categories []string `json:"categories"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	asset, err := models.GetAssetByPath(e.DB, req.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	if err := asset.SetCategories(e.DB, req.Categories); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

func (e *Env) DeleteAsset(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.DeleteAsset(e.DB, e.AssetRoot, req.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": req.Path})
}
