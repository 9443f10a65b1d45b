package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Asset struct {
	// Path is relative to the asset root and doubles as the identity.
	Path       string          `gorm:"primaryKey;type:varchar(512)" json:"path"`
	Name       string          `json:"name"`
	Size       int64           `json:"size"`
	Type       string          `json:"type"`
	URL        string          `json:"url"`
	Categories []AssetCategory `gorm:"many2many:asset_category_links;" json:"categories"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (Asset) TableName() string {
	return "asset"
}

type AssetCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;type:varchar(128)" json:"name"`
}

func (AssetCategory) TableName() string {
	return "asset_category"
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true,
}

// DetectAssetType classifies by extension, matching the categories the
// dashboard filters on.
func DetectAssetType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExts[ext]:
		return "video"
	case ext == ".mp3" || ext == ".wav" || ext == ".m4a" || ext == ".ogg":
		return "audio"
	case ext == ".png" || ext == ".jpg" || ext == ".jpeg" || ext == ".webp":
		return "image"
	default:
		return "other"
	}
}

func IsVideoAsset(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func GetAssetByPath(db *gorm.DB, path string) (*Asset, error) {
	var a Asset
	if err := db.Preload("Categories").First(&a, "path = ?", path).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func ListAssets(db *gorm.DB) ([]Asset, error) {
	var assets []Asset
	if err := db.Preload("Categories").Order("path ASC").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// ListAssetPathsByCategory returns relative paths of video assets that carry
// the named category, alphabetically.
func ListAssetPathsByCategory(db *gorm.DB, category string) ([]string, error) {
	var paths []string
	err := db.Model(&Asset{}).
		Joins("JOIN asset_category_links l ON l.asset_path = asset.path").
		Joins("JOIN asset_category c ON c.id = l.asset_category_id").
		Where("c.name = ? AND asset.type = ?", category, "video").
		Order("asset.path ASC").
		Pluck("asset.path", &paths).Error
	return paths, err
}

func (a *Asset) SetCategories(db *gorm.DB, names []string) error {
	cats := make([]AssetCategory, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var c AssetCategory
		if err := db.Where(AssetCategory{Name: name}).FirstOrCreate(&c).Error; err != nil {
			return err
		}
		cats = append(cats, c)
	}
	if err := db.Model(a).Association("Categories").Replace(cats); err != nil {
		return err
	}
	a.UpdatedAt = time.Now()
	return db.Model(a).Update("updated_at", a.UpdatedAt).Error
}

func DeleteAssetByPath(db *gorm.DB, path string) error {
	return db.Select("Categories").Delete(&Asset{Path: path}).Error
}

// DeleteAsset removes both the catalog row and the file under the asset
// root. A file that is already gone is not an error.
func DeleteAsset(db *gorm.DB, assetRoot, path string) error {
	rel := filepath.FromSlash(path)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("asset path %q escapes the asset root", path)
	}
	if err := DeleteAssetByPath(db, path); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(assetRoot, rel)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
