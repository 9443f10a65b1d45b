package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	JobStatusPending   = "Pending"
	JobStatusRunning   = "Running"
	JobStatusCompleted = "Completed"
	JobStatusFailed    = "Failed"

	JobIntervalOnce   = "once"
	JobIntervalDaily  = "daily"
	JobIntervalWeekly = "weekly"
)

type JobParams map[string]interface{}

func (p JobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *JobParams) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported type for JobParams")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, p)
}

// Job is a scheduled, parameterized harvest-and-configure operation tied to a
// workflow. Interval daily/weekly requires a non-empty Time ("HH:MM").
type Job struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name       string     `json:"name"`
	WorkflowID string     `gorm:"index" json:"workflowId"`
	Params     JobParams  `gorm:"type:json" json:"params"`
	Interval   string     `json:"interval"`
	Time       string     `json:"time"`
	LastRun    *time.Time `json:"lastRun"`
	Status     string     `gorm:"default:Pending" json:"status"`
	Progress   int        `json:"progress"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Job) TableName() string {
	return "job"
}

// CreateJob inserts the job and bumps the owning workflow's usage counter in
// the same transaction. The counter tracks scheduled work, so it moves at
// creation time rather than when a run finishes.
func CreateJob(db *gorm.DB, job *Job) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		if job.WorkflowID == "" {
			return nil
		}
		return IncrementWorkflowUsage(tx, job.WorkflowID)
	})
}

func GetJobByID(db *gorm.DB, id string) (*Job, error) {
	var j Job
	if err := db.First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func ListJobs(db *gorm.DB) ([]Job, error) {
	var jobs []Job
	if err := db.Order("created_at ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (j *Job) UpdateProgress(db *gorm.DB, status string, progress int) error {
	j.Status = status
	j.Progress = progress
	j.UpdatedAt = time.Now()
	return db.Model(j).Updates(map[string]interface{}{
		"status":     status,
		"progress":   progress,
		"updated_at": j.UpdatedAt,
	}).Error
}

func (j *Job) MarkRun(db *gorm.DB, status string, ranAt time.Time) error {
	j.Status = status
	j.LastRun = &ranAt
	j.Progress = 100
	j.UpdatedAt = time.Now()
	return db.Model(j).Updates(map[string]interface{}{
		"status":     status,
		"last_run":   ranAt,
		"progress":   100,
		"updated_at": j.UpdatedAt,
	}).Error
}

func UpdateJobStatus(db *gorm.DB, id, status string) error {
	return db.Model(&Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}

func DeleteJobByID(db *gorm.DB, id string) error {
	return db.Delete(&Job{}, "id = ?", id).Error
}
