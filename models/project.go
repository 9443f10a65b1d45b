package models

import (
	"time"

	"gorm.io/gorm"
)

// Project lifecycle status (mirrored into the meta document for the UI).
const (
	ProjectStatusIdle       = "Idle"
	ProjectStatusProcessing = "Processing"
	ProjectStatusSuccess    = "Success"
	ProjectStatusError      = "Error"
	ProjectStatusCancelled  = "Cancelled"
)

type Project struct {
	ID           string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Subreddit    string    `gorm:"index" json:"subreddit"`
	Status       string    `gorm:"default:Idle" json:"status"`
	CurrentStage string    `gorm:"default:Text Scrapped" json:"currentStage"`
	MetaJSON     string    `gorm:"type:longtext" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "project"
}

func GetProjectByID(db *gorm.DB, id string) (*Project, error) {
	var p Project
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func ListProjects(db *gorm.DB) ([]Project, error) {
	var projects []Project
	if err := db.Order("updated_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (p *Project) UpdateState(db *gorm.DB, status, stage string) error {
	p.Status = status
	p.CurrentStage = stage
	p.UpdatedAt = time.Now()
	return db.Model(p).Updates(map[string]interface{}{
		"status":        status,
		"current_stage": stage,
		"updated_at":    p.UpdatedAt,
	}).Error
}

func DeleteProjectByID(db *gorm.DB, id string) error {
	return db.Delete(&Project{}, "id = ?", id).Error
}
