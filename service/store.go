package service

import (
	"gorm.io/gorm"

	"FrameForge-server/models"
)

// GormProjectStore backs the pipeline's project state and metadata records
// with the project table.
type GormProjectStore struct {
	DB *gorm.DB
}

func NewGormProjectStore(db *gorm.DB) *GormProjectStore {
	return &GormProjectStore{DB: db}
}

func (s *GormProjectStore) GetProject(id string) (*models.Project, error) {
	return models.GetProjectByID(s.DB, id)
}

func (s *GormProjectStore) UpdateProjectState(id, status, stage string) error {
	p, err := models.GetProjectByID(s.DB, id)
	if err != nil {
		return err
	}
	return p.UpdateState(s.DB, status, stage)
}

func (s *GormProjectStore) LoadMetaJSON(id string) (string, error) {
	p, err := models.GetProjectByID(s.DB, id)
	if err != nil {
		return "", err
	}
	return p.MetaJSON, nil
}

func (s *GormProjectStore) SaveMetaJSON(id, raw string) error {
	return s.DB.Model(&models.Project{}).Where("id = ?", id).
		Update("meta_json", raw).Error
}

// GormAssetCatalog answers background pool queries from the asset tables.
type GormAssetCatalog struct {
	DB *gorm.DB
}

func (c *GormAssetCatalog) VideoPathsByCategory(category string) ([]string, error) {
	return models.ListAssetPathsByCategory(c.DB, category)
}
