package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/backup"
)

type backupRepository struct {
	db *backupTable
}

var _ backup.Repository = (*backupRepository)(nil) // interface compliance check

func NewBackupRepository(db *DB) backup.Repository {
	return &backupRepository{db: db.backup}
}

func (repo *backupRepository) CreateRun(ctx context.Context, run *backup.Run) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	run.ID = uuid.New().String()
	cp := *run
	repo.db.runs[run.ID] = &cp
	return nil
}

func (repo *backupRepository) UpdateRun(ctx context.Context, run *backup.Run) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.runs[run.ID]; !ok {
		return errors.New("backup run not found")
	}
	cp := *run
	repo.db.runs[run.ID] = &cp
	return nil
}

func (repo *backupRepository) QueryRuns(ctx context.Context, limit int) ([]backup.Run, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	runs := make([]backup.Run, 0, len(repo.db.runs))
	for _, r := range repo.db.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (repo *backupRepository) GetRun(ctx context.Context, id string) (backup.Run, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	r, ok := repo.db.runs[id]
	if !ok {
		return backup.Run{}, backup.ErrRunNotFound
	}
	return *r, nil
}

func (repo *backupRepository) GetRunningRun(ctx context.Context) (backup.Run, bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.runs {
		if r.Status == backup.StatusRunning {
			return *r, true, nil
		}
	}
	return backup.Run{}, false, nil
}

func (repo *backupRepository) GetSchedule(ctx context.Context) (backup.Schedule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.schedule == nil {
		return backup.Schedule{}, backup.ErrNoSchedule
	}
	return *repo.db.schedule, nil
}

func (repo *backupRepository) SaveSchedule(ctx context.Context, s *backup.Schedule) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	cp := *s
	repo.db.schedule = &cp
	return nil
}
