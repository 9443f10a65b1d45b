package models

import (
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"FrameForge-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var GormDB *gorm.DB

func InitDB() {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	GormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to initialize gorm: %v", err)
	}

	if err := GormDB.AutoMigrate(
		&Project{},
		&Asset{},
		&AssetCategory{},
		&Template{},
		&Workflow{},
		&Job{},
	); err != nil {
		log.Fatalf("auto migration failed: %v", err)
	}
}

// SyncProjectsToDB backfills project rows from directories that exist on disk
// but have no database row yet. Disk metadata wins only for brand new rows.
func SyncProjectsToDB(db *gorm.DB, projectsRoot string) {
	entries, err := os.ReadDir(projectsRoot)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		projectID := e.Name()
		var count int64
		db.Model(&Project{}).Where("id = ?", projectID).Count(&count)
		if count > 0 {
			continue
		}

		raw, _ := os.ReadFile(filepath.Join(projectsRoot, projectID, "meta.json"))
		p := projectFromMirror(projectID, raw)
		if err := db.Create(&p).Error; err != nil {
			log.Printf("project sync failed for %s: %v", projectID, err)
		}
	}
}

// projectFromMirror builds a backfill row from a project directory's
// meta.json contents. The mirror uses the same keys the pipeline and
// harvester write (status, current_stage); an unreadable mirror yields a
// finished row defaulted to the first stage.
func projectFromMirror(projectID string, raw []byte) Project {
	p := Project{
		ID:           projectID,
		Title:        projectID,
		Subreddit:    "unknown",
		Status:       ProjectStatusSuccess,
		CurrentStage: "Text Scrapped",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	var meta map[string]interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &meta) != nil {
		return p
	}
	if v, ok := meta["title"].(string); ok && v != "" {
		p.Title = v
	}
	if v, ok := meta["author"].(string); ok {
		p.Author = v
	}
	if v, ok := meta["subreddit"].(string); ok && v != "" {
		p.Subreddit = v
	}
	if v, ok := meta["status"].(string); ok && v != "" {
		p.Status = v
	}
	if v, ok := meta["current_stage"].(string); ok && v != "" {
		p.CurrentStage = v
	}
	p.MetaJSON = string(raw)
	return p
}
