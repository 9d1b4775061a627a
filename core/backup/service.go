package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
)

var (
	ErrNoSchedule  = errors.New("backup schedule not configured")
	ErrRunning     = errors.New("a backup is already running")
	ErrRunNotFound = errors.New("backup run not found")
)

// Dumper exports every application table as JSON. The database layer
// implements it so the service stays storage-agnostic.
type Dumper interface {
	// DumpTables returns {table name: JSON array of rows}.
	DumpTables(ctx context.Context) (map[string][]byte, error)
}

type Repository interface {
	CreateRun(ctx context.Context, r *Run) error
	UpdateRun(ctx context.Context, r *Run) error
	QueryRuns(ctx context.Context, limit int) ([]Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	// GetRunningRun returns ErrNoRunning semantics via (Run{}, false).
	GetRunningRun(ctx context.Context) (Run, bool, error)

	GetSchedule(ctx context.Context) (Schedule, error)
	SaveSchedule(ctx context.Context, s *Schedule) error
}

type Service struct {
	repo     Repository
	dumper   Dumper
	files    core.FileStore
	logger   core.Logger
	validate *validator.Validate
}

func NewService(repo Repository, dumper Dumper, files core.FileStore, logger core.Logger, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		dumper:   dumper,
		files:    files,
		logger:   logger,
		validate: validate,
	}
}

// Run dumps all tables into a zip archive and uploads it. Only one run may
// be in flight at a time.
func (svc *Service) Run(ctx context.Context, kind string) (Run, error) {
	if _, running, err := svc.repo.GetRunningRun(ctx); err != nil {
		return Run{}, errors.Wrap(err, "checking running backup")
	} else if running {
		return Run{}, ErrRunning
	}

	run := Run{
		Kind:      kind,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := svc.repo.CreateRun(ctx, &run); err != nil {
		return Run{}, errors.Wrap(err, "creating backup run")
	}

	archive, err := svc.buildArchive(ctx)
	if err == nil {
		var path string
		path, err = svc.files.Upload(ctx, core.BucketBackups, "backup.zip", bytes.NewReader(archive))
		if err == nil {
			run.Path = path
			run.SizeBytes = int64(len(archive))
		}
	}

	now := time.Now().UTC()
	run.FinishedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		svc.logger.Error(errors.Wrap(err, "backup run failed").Error())
	} else {
		run.Status = StatusDone
	}
	if uerr := svc.repo.UpdateRun(ctx, &run); uerr != nil {
		return run, errors.Wrap(uerr, "finalizing backup run")
	}
	return run, err
}

func (svc *Service) buildArchive(ctx context.Context) ([]byte, error) {
	dumps, err := svc.dumper.DumpTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dumping tables")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for table, data := range dumps {
		w, err := zw.Create(fmt.Sprintf("%s.json", table))
		if err != nil {
			return nil, errors.Wrapf(err, "archiving table %s", table)
		}
		if _, err = w.Write(data); err != nil {
			return nil, errors.Wrapf(err, "archiving table %s", table)
		}
	}
	if err = zw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing archive")
	}
	return buf.Bytes(), nil
}

func (svc *Service) QueryRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	runs, err := svc.repo.QueryRuns(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying backup runs")
	}
	return runs, nil
}

func (svc *Service) GetRun(ctx context.Context, id string) (Run, error) {
	return svc.repo.GetRun(ctx, id)
}

func (svc *Service) GetSchedule(ctx context.Context) (Schedule, error) {
	return svc.repo.GetSchedule(ctx)
}

func (svc *Service) SaveSchedule(ctx context.Context, req SaveSchedule) (Schedule, error) {
	if err := svc.validate.Struct(req); err != nil {
		return Schedule{}, err
	}

	s, err := svc.repo.GetSchedule(ctx)
	if err != nil && !errors.Is(err, ErrNoSchedule) {
		return Schedule{}, errors.Wrap(err, "loading schedule")
	}
	s.Enabled = req.Enabled
	s.Hour = req.Hour
	s.Minute = req.Minute
	s.Frequency = req.Frequency
	s.UpdatedAt = time.Now().UTC()
	if err = svc.repo.SaveSchedule(ctx, &s); err != nil {
		return Schedule{}, errors.Wrap(err, "saving schedule")
	}
	return s, nil
}

// DownloadURL returns a signed URL for a finished backup archive.
func (svc *Service) DownloadURL(run Run, ttl time.Duration) (string, error) {
	if run.Status != StatusDone {
		return "", errors.New("backup run has no archive")
	}
	return svc.files.SignedURL(run.Path, ttl)
}
