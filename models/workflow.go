package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// WorkflowNode is one UI-facing parameter bundle (source discovery, voice,
// captions, visuals, mastering). Nodes are immutable at runtime.
type WorkflowNode struct {
	ID          string                   `json:"id"`
	Label       string                   `json:"label"`
	Icon        string                   `json:"icon"`
	Description string                   `json:"description"`
	Parameters  []map[string]interface{} `json:"parameters"`
}

type WorkflowNodeList []WorkflowNode

func (l WorkflowNodeList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *WorkflowNodeList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported type for WorkflowNodeList")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, l)
}

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported type for StringList")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, l)
}

type Workflow struct {
	ID          string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	UsageCount  int              `json:"usage_count"`
	Tags        StringList       `gorm:"type:json" json:"tags"`
	Nodes       WorkflowNodeList `gorm:"type:json" json:"nodes"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (Workflow) TableName() string {
	return "workflow"
}

func GetWorkflowByID(db *gorm.DB, id string) (*Workflow, error) {
	var w Workflow
	if err := db.First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func ListWorkflows(db *gorm.DB) ([]Workflow, error) {
	var workflows []Workflow
	if err := db.Order("created_at ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

func IncrementWorkflowUsage(db *gorm.DB, id string) error {
	return db.Model(&Workflow{}).Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
