package datastore

import (
	"context"

	"github.com/illegalcall/glow-up/internal/models"
)

const jobColumns = `id, profile_id, type, status, created_at`

func (s *Store) CreateAnalysisJob(ctx context.Context, profileID string, jobType models.JobType) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	err := s.db.QueryRowxContext(ctx, `INSERT INTO analysis_jobs (profile_id, type, status)
		VALUES ($1, $2, $3)
		RETURNING `+jobColumns, profileID, jobType, models.StatusPending).StructScan(&job)
	if err != nil {
		return nil, s.fail("create analysis job", err)
	}
	return &job, nil
}

func (s *Store) GetAnalysisJob(ctx context.Context, profileID string, id int) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	err := s.db.GetContext(ctx, &job, `SELECT `+jobColumns+` FROM analysis_jobs
		WHERE id = $1 AND profile_id = $2`, id, profileID)
	if err != nil {
		return nil, s.fail("get analysis job", err)
	}
	return &job, nil
}

func (s *Store) UpdateAnalysisJobStatus(ctx context.Context, id int, status string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE analysis_jobs SET status = $1 WHERE id = $2`, status, id); err != nil {
		return s.fail("update analysis job status", err)
	}
	return nil
}
