package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// TemplateField positions are fractions of the template image's own
// dimensions, resolved to pixels only at render time.
type TemplateField struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
	FontFamily  string  `json:"fontFamily"`
	FontSize    int     `json:"fontSize"`
	Color       string  `json:"color"`
	Shadow      string  `json:"shadow,omitempty"`
	Align       string  `json:"align,omitempty"`
	AutoFit     bool    `json:"autoFit,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	StrokeColor string  `json:"strokeColor,omitempty"`
	Hidden      bool    `json:"hidden,omitempty"`
}

type TemplateFieldList []TemplateField

func (l TemplateFieldList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *TemplateFieldList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported type for TemplateFieldList")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, l)
}

type Template struct {
	ID        string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	Fields    TemplateFieldList `gorm:"type:json" json:"fields"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (Template) TableName() string {
	return "template"
}

func GetTemplateByID(db *gorm.DB, id string) (*Template, error) {
	var t Template
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func ListTemplates(db *gorm.DB) ([]Template, error) {
	var templates []Template
	if err := db.Order("created_at ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
