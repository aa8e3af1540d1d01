package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumelens/resume-analyzer/internal/models"
)

var (
	// ErrNotFound is returned when no job exists under the given id.
	ErrNotFound = errors.New("analysis job not found")
	// ErrInvalidTransition is returned when a status write would move a job
	// backward or re-enter a terminal state.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// AnalysisRepository owns the job lifecycle. Transitions are strictly
// forward: every status write is guarded by the expected prior status, so
// a slow retry racing the completion handler can never rewind a job.
type AnalysisRepository interface {
	Create(job *models.AnalysisJob) error
	FindByID(id uuid.UUID) (*models.AnalysisJob, error)
	MarkProcessing(id uuid.UUID) error
	Complete(id uuid.UUID, result datatypes.JSON, completedAt time.Time) error
	Fail(id uuid.UUID, reason string, completedAt time.Time) error
	FindPendingJobs(limit int) ([]models.AnalysisJob, error)
	FailStalled(olderThan time.Duration, reason string) (int64, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(job *models.AnalysisJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create analysis job: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find analysis job: %w", err)
	}
	return &job, nil
}

func (r *analysisRepository) MarkProcessing(id uuid.UUID) error {
	result := r.db.Model(&models.AnalysisJob{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark job processing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *analysisRepository) Complete(id uuid.UUID, result datatypes.JSON, completedAt time.Time) error {
	res := r.db.Model(&models.AnalysisJob{}).
		Where("id = ? AND status NOT IN ?", id, []models.JobStatus{models.StatusCompleted, models.StatusError}).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"result":       result,
			"completed_at": completedAt,
			"updated_at":   completedAt,
		})

	if res.Error != nil {
		return fmt.Errorf("failed to complete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *analysisRepository) Fail(id uuid.UUID, reason string, completedAt time.Time) error {
	res := r.db.Model(&models.AnalysisJob{}).
		Where("id = ? AND status NOT IN ?", id, []models.JobStatus{models.StatusCompleted, models.StatusError}).
		Updates(map[string]interface{}{
			"status":       models.StatusError,
			"error_reason": reason,
			"completed_at": completedAt,
			"updated_at":   completedAt,
		})

	if res.Error != nil {
		return fmt.Errorf("failed to fail job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.AnalysisJob, error) {
	var jobs []models.AnalysisJob
	err := r.db.
		Where("status = ?", models.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return jobs, nil
}

// FailStalled forces jobs stuck in processing beyond the hard cap into the
// error state. Jobs whose orchestration later finishes hit the terminal
// guard in Complete/Fail and stay errored.
func (r *analysisRepository) FailStalled(olderThan time.Duration, reason string) (int64, error) {
	now := time.Now()
	res := r.db.Model(&models.AnalysisJob{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, now.Add(-olderThan)).
		Updates(map[string]interface{}{
			"status":       models.StatusError,
			"error_reason": reason,
			"completed_at": now,
			"updated_at":   now,
		})

	if res.Error != nil {
		return 0, fmt.Errorf("failed to fail stalled jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
