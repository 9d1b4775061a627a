package attendance

import (
	"time"

	"github.com/gyermekkert/admin/core"
)

// Class is a kindergarten group; it has zero-or-one assigned pedagogue and
// many students.
type Class struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	House       string    `json:"house"`
	PedagogueID string    `json:"pedagogue_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClassID   string    `json:"class_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Record is one student's attendance on one date in one class. At most one
// record exists per (student, class, date).
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date"`
	Present   bool      `json:"present"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SheetEntry is one row of the live-entry form for a (class, date). Students
// without a stored record default to present here; the historical report
// view (ReportEntry) intentionally does NOT apply this default.
type SheetEntry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Present     bool   `json:"present"`
	Note        string `json:"note,omitempty"`
}

// ReportEntry is one row of the historical report view; Recorded is false
// when no record exists for the student on that date.
type ReportEntry struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Date        time.Time `json:"date"`
	Recorded    bool      `json:"recorded"`
	Present     bool      `json:"present"`
	Note        string    `json:"note,omitempty"`
}

type NewClass struct {
	Name        string `json:"name" validate:"required"`
	House       string `json:"house"`
	PedagogueID string `json:"pedagogue_id"`
}

func (nc *NewClass) Validate(svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.House = core.CleanString(nc.House)
	return svc.validate.Struct(nc)
}

type UpdateClass struct {
	Name        string  `json:"name"`
	House       string  `json:"house"`
	PedagogueID *string `json:"pedagogue_id"`
}

type NewStudent struct {
	Name    string `json:"name" validate:"required"`
	ClassID string `json:"class_id" validate:"required"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	return svc.validate.Struct(ns)
}

// SheetSave is the full-replacement payload for one (class, date).
type SheetSave struct {
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []SheetSaveEntry `json:"entries" validate:"required,dive"`
}

type SheetSaveEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Present   bool   `json:"present"`
	Note      string `json:"note"`
}

func (ss *SheetSave) Validate(svc *Service) error {
	for i := range ss.Entries {
		ss.Entries[i].Note = core.CleanString(ss.Entries[i].Note)
	}
	return svc.validate.Struct(ss)
}
