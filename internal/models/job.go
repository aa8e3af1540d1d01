package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobStatus values are part of the wire contract; casing and spelling
// must not change. The client-only "requesting" state never appears here.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Terminal reports whether the status allows no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// AnalysisJob is the persisted unit of asynchronous work. Result holds the
// canonical JSON of the AnalysisResult and is written exactly once, by the
// orchestration completion handler.
type AnalysisJob struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ResumeRef   string         `gorm:"type:text;not null" json:"resume_ref"`
	Industry    Industry       `gorm:"type:text;not null" json:"industry"`
	Status      JobStatus      `gorm:"not null;default:'pending'" json:"status"`
	Result      datatypes.JSON `gorm:"type:jsonb" json:"result,omitempty"`
	ErrorReason *string        `gorm:"type:text" json:"error_reason,omitempty"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	CompletedAt *time.Time     `gorm:"type:timestamp" json:"completed_at,omitempty"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}

// Request rebuilds the immutable AnalysisRequest the job was created from.
func (j *AnalysisJob) Request() AnalysisRequest {
	return AnalysisRequest{
		ID:          j.ID,
		ResumeRef:   j.ResumeRef,
		Industry:    j.Industry,
		RequestedAt: j.CreatedAt,
	}
}
