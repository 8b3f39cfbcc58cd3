package postgres

import (
	"time"

	"github.com/frahmantamala/people-analytics/internal/importer"
	"gorm.io/gorm"
)

// JobRepository implements the importer.RepositoryAPI job store using GORM.
// Counter updates go through SQL expressions so concurrent increments from
// the status endpoint's point of view are always consistent.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) importer.RepositoryAPI {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateJob(job *importer.ImportJob) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetJob(id string) (*importer.ImportJob, error) {
	var job importer.ImportJob
	err := r.db.
		Preload("RowErrors", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_number ASC")
		}).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListJobs returns recent jobs newest first, without their row errors or
// file content; the per-job status endpoint loads row errors.
func (r *JobRepository) ListJobs(limit int) ([]*importer.ImportJob, error) {
	var jobs []*importer.ImportJob
	err := r.db.
		Omit("raw_content").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// ListQueued returns queued jobs submitted before the cutoff, oldest first,
// with their file content so a worker can run them.
func (r *JobRepository) ListQueued(olderThan time.Time, limit int) ([]*importer.ImportJob, error) {
	var jobs []*importer.ImportJob
	err := r.db.
		Where("status = ? AND created_at < ?", importer.StatusQueued, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// MarkProcessing performs the claim-once transition out of queued. Exactly
// one caller can win; losers get ErrJobAlreadyClaimed.
func (r *JobRepository) MarkProcessing(id string, startedAt time.Time) error {
	tx := r.db.Model(&importer.ImportJob{}).
		Where("id = ? AND status = ?", id, importer.StatusQueued).
		Updates(map[string]interface{}{
			"status":     importer.StatusProcessing,
			"started_at": startedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return importer.ErrJobAlreadyClaimed
	}
	return nil
}

func (r *JobRepository) MarkCompleted(id string, completedAt time.Time) error {
	return r.db.Model(&importer.ImportJob{}).
		Where("id = ? AND status = ?", id, importer.StatusProcessing).
		Updates(map[string]interface{}{
			"status":       importer.StatusCompleted,
			"completed_at": completedAt,
		}).Error
}

// MarkFailed is reachable from both queued (fatal parse error) and
// processing (infrastructure fault); a terminal status never changes.
func (r *JobRepository) MarkFailed(id string, message string, completedAt time.Time) error {
	return r.db.Model(&importer.ImportJob{}).
		Where("id = ? AND status IN ?", id, []importer.Status{importer.StatusQueued, importer.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        importer.StatusFailed,
			"error_message": message,
			"completed_at":  completedAt,
		}).Error
}

func (r *JobRepository) IncrementSucceeded(id string) error {
	return r.db.Model(&importer.ImportJob{}).
		Where("id = ?", id).
		UpdateColumn("succeeded", gorm.Expr("succeeded + 1")).Error
}

func (r *JobRepository) IncrementFailed(id string) error {
	return r.db.Model(&importer.ImportJob{}).
		Where("id = ?", id).
		UpdateColumn("failed", gorm.Expr("failed + 1")).Error
}

func (r *JobRepository) AppendRowError(rowErr *importer.RowError) error {
	return r.db.Create(rowErr).Error
}
