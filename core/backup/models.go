package backup

import "time"

const (
	KindManual    = "manual"
	KindScheduled = "scheduled"

	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run is one backup attempt, manual or scheduled.
type Run struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Path       string     `json:"path"` // archive path in the file store
	SizeBytes  int64      `json:"size_bytes"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"` // UTC
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// Schedule is the single backup schedule row: fire at Hour:Minute UTC,
// daily or weekly. Persisted so the scheduler survives restarts.
type Schedule struct {
	ID        string     `json:"id"`
	Enabled   bool       `json:"enabled"`
	Hour      int        `json:"hour"`
	Minute    int        `json:"minute"`
	Frequency string     `json:"frequency"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// NextRun reports when the schedule should next fire. The first run after
// configuration waits for the next Hour:Minute crossing; subsequent runs are
// anchored to the last run's day, so the phase never drifts with process
// restarts.
func (s Schedule) NextRun(now time.Time) time.Time {
	at := func(d time.Time) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), s.Hour, s.Minute, 0, 0, time.UTC)
	}
	if s.LastRunAt != nil {
		step := 24 * time.Hour
		if s.Frequency == FrequencyWeekly {
			step = 7 * 24 * time.Hour
		}
		return at(s.LastRunAt.UTC().Add(step))
	}
	next := at(now.UTC())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

type SaveSchedule struct {
	Enabled   bool   `json:"enabled"`
	Hour      int    `json:"hour" validate:"min=0,max=23"`
	Minute    int    `json:"minute" validate:"min=0,max=59"`
	Frequency string `json:"frequency" validate:"required,oneof=daily weekly"`
}
