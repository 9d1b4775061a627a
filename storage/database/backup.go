package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gyermekkert/admin/core/backup"
)

type backupRepository struct {
	db *sqlx.DB
}

var _ backup.Repository = (*backupRepository)(nil) // interface compliance check

func NewBackupRepository(db *sqlx.DB) *backupRepository {
	return &backupRepository{db: db}
}

type backupRunRow struct {
	ID         string    `db:"id"`
	Kind       string    `db:"kind"`
	Path       string    `db:"path"`
	SizeBytes  int64     `db:"size_bytes"`
	Status     string    `db:"status"`
	Error      string    `db:"error"`
	StartedAt  null.Time `db:"started_at"`
	FinishedAt null.Time `db:"finished_at"`
}

type backupScheduleRow struct {
	ID        string    `db:"id"`
	Enabled   bool      `db:"enabled"`
	Hour      int       `db:"hour"`
	Minute    int       `db:"minute"`
	Frequency string    `db:"frequency"`
	LastRunAt null.Time `db:"last_run_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

func (repo backupRepository) unrowRun(r backupRunRow) backup.Run {
	return backup.Run{
		ID:         r.ID,
		Kind:       r.Kind,
		Path:       r.Path,
		SizeBytes:  r.SizeBytes,
		Status:     r.Status,
		Error:      r.Error,
		StartedAt:  r.StartedAt.Time,
		FinishedAt: r.FinishedAt.Ptr(),
	}
}

func (repo backupRepository) CreateRun(ctx context.Context, run *backup.Run) error {
	run.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO backup_run (id, kind, path, size_bytes, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Kind, run.Path, run.SizeBytes, run.Status, run.Error, run.StartedAt, run.FinishedAt)
	return errors.Wrap(err, "inserting backup run")
}

func (repo backupRepository) UpdateRun(ctx context.Context, run *backup.Run) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE backup_run SET path = $2, size_bytes = $3, status = $4, error = $5, finished_at = $6 WHERE id = $1`,
		run.ID, run.Path, run.SizeBytes, run.Status, run.Error, run.FinishedAt)
	if err != nil {
		return errors.Wrap(err, "updating backup run")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return errors.New("backup run not found")
	}
	return nil
}

func (repo backupRepository) QueryRuns(ctx context.Context, limit int) ([]backup.Run, error) {
	var rows []backupRunRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT * FROM backup_run ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying backup runs")
	}
	runs := make([]backup.Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, repo.unrowRun(r))
	}
	return runs, nil
}

func (repo backupRepository) GetRun(ctx context.Context, id string) (backup.Run, error) {
	var r backupRunRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM backup_run WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return backup.Run{}, backup.ErrRunNotFound
		}
		return backup.Run{}, errors.Wrap(err, "fetching backup run")
	}
	return repo.unrowRun(r), nil
}

func (repo backupRepository) GetRunningRun(ctx context.Context) (backup.Run, bool, error) {
	var r backupRunRow
	err := repo.db.GetContext(ctx, &r,
		"SELECT * FROM backup_run WHERE status = $1 ORDER BY started_at DESC LIMIT 1", backup.StatusRunning)
	if err != nil {
		if err == sql.ErrNoRows {
			return backup.Run{}, false, nil
		}
		return backup.Run{}, false, errors.Wrap(err, "fetching running backup")
	}
	return repo.unrowRun(r), true, nil
}

func (repo backupRepository) GetSchedule(ctx context.Context) (backup.Schedule, error) {
	var r backupScheduleRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM backup_schedule LIMIT 1"); err != nil {
		if err == sql.ErrNoRows {
			return backup.Schedule{}, backup.ErrNoSchedule
		}
		return backup.Schedule{}, errors.Wrap(err, "fetching backup schedule")
	}
	return backup.Schedule{
		ID:        r.ID,
		Enabled:   r.Enabled,
		Hour:      r.Hour,
		Minute:    r.Minute,
		Frequency: r.Frequency,
		LastRunAt: r.LastRunAt.Ptr(),
		UpdatedAt: r.UpdatedAt.Time,
	}, nil
}

func (repo backupRepository) SaveSchedule(ctx context.Context, s *backup.Schedule) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO backup_schedule (id, enabled, hour, minute, frequency, last_run_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			hour = EXCLUDED.hour,
			minute = EXCLUDED.minute,
			frequency = EXCLUDED.frequency,
			last_run_at = EXCLUDED.last_run_at,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Enabled, s.Hour, s.Minute, s.Frequency, s.LastRunAt, s.UpdatedAt)
	return errors.Wrap(err, "saving backup schedule")
}
