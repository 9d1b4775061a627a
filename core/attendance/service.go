package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/user"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrNotVisible      = errors.New("class not visible to user")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class) (Class, error)
		QueryClasses(ctx context.Context) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		DeleteClass(ctx context.Context, id string) error

		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryStudentsByClass(ctx context.Context, classID string) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent cascades the student's attendance history.
		DeleteStudent(ctx context.Context, id string) error

		QueryRecords(ctx context.Context, classID string, date time.Time) ([]Record, error)
		QueryRecordsRange(ctx context.Context, classID string, from, to time.Time) ([]Record, error)
		// ReplaceSheet deletes all records for (classID, date) and bulk-inserts
		// records, in one transaction. Concurrent saves for the same sheet are
		// last-writer-wins.
		ReplaceSheet(ctx context.Context, classID string, date time.Time, records []Record) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// visible reports whether usr may see class c: pedagogus only their assigned
// classes, hazvezeto only their house's classes, everyone else everything.
func visible(usr user.User, c Class) bool {
	if usr.IsAdmin() || usr.IsAdminisztracio() {
		return true
	}
	if usr.IsHazvezeto() {
		return usr.House != "" && usr.House == c.House
	}
	if usr.IsPedagogus() {
		return c.PedagogueID == usr.ID
	}
	return false
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	return svc.repo.CreateClass(ctx, Class{
		Name:        nc.Name,
		House:       nc.House,
		PedagogueID: nc.PedagogueID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Classes returns the classes visible to usr.
func (svc *Service) Classes(ctx context.Context, usr user.User) ([]Class, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	if err != nil {
		return nil, err
	}
	vis := make([]Class, 0, len(classes))
	for _, c := range classes {
		if visible(usr, c) {
			vis = append(vis, c)
		}
	}
	return vis, nil
}

// GetClass returns the class if it is visible to usr; ErrNotVisible otherwise.
func (svc *Service) GetClass(ctx context.Context, usr user.User, id string) (Class, error) {
	c, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !visible(usr, c) {
		return Class{}, ErrNotVisible
	}
	return c, nil
}

func (svc *Service) UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	c, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if name := core.CleanString(uc.Name); name != "" {
		c.Name = name
	}
	if house := core.CleanString(uc.House); house != "" {
		c.House = house
	}
	if uc.PedagogueID != nil {
		c.PedagogueID = *uc.PedagogueID
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, c)
}

func (svc *Service) DeleteClass(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetClassByID(ctx, ns.ClassID); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		Name:      ns.Name,
		ClassID:   ns.ClassID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Students(ctx context.Context, classID string) ([]Student, error) {
	return svc.repo.QueryStudentsByClass(ctx, classID)
}

func (svc *Service) UpdateStudent(ctx context.Context, id, name string) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if name = core.CleanString(name); name != "" {
		s.Name = name
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// Sheet assembles the live-entry form for (class, date): one entry per
// student, defaulting to present when no record is stored.
func (svc *Service) Sheet(ctx context.Context, usr user.User, classID string, date time.Time) ([]SheetEntry, error) {
	if _, err := svc.GetClass(ctx, usr, classID); err != nil {
		return nil, err
	}
	students, err := svc.repo.QueryStudentsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	records, err := svc.repo.QueryRecords(ctx, classID, date)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[string]Record, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec
	}

	entries := make([]SheetEntry, 0, len(students))
	for _, s := range students {
		entry := SheetEntry{StudentID: s.ID, StudentName: s.Name, Present: true}
		if rec, ok := byStudent[s.ID]; ok {
			entry.Present = rec.Present
			entry.Note = rec.Note
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveSheet replaces the whole attendance sheet for (class, date).
func (svc *Service) SaveSheet(ctx context.Context, usr user.User, classID string, save SheetSave) error {
	if _, err := svc.GetClass(ctx, usr, classID); err != nil {
		return err
	}
	date, err := time.Parse("2006-01-02", save.Date)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(save.Entries))
	for _, entry := range save.Entries {
		records = append(records, Record{
			StudentID: entry.StudentID,
			ClassID:   classID,
			Date:      date,
			Present:   entry.Present,
			Note:      entry.Note,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return pkgerrors.Wrap(svc.repo.ReplaceSheet(ctx, classID, date, records), "replacing attendance sheet")
}

// Report assembles the historical view for a class over [from, to]: one
// entry per (student, date); days without a record are flagged unrecorded
// instead of defaulting to present.
func (svc *Service) Report(ctx context.Context, usr user.User, classID string, from, to time.Time) ([]ReportEntry, error) {
	if _, err := svc.GetClass(ctx, usr, classID); err != nil {
		return nil, err
	}
	students, err := svc.repo.QueryStudentsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	records, err := svc.repo.QueryRecordsRange(ctx, classID, from, to)
	if err != nil {
		return nil, err
	}

	type key struct {
		studentID string
		date      string
	}
	byKey := make(map[key]Record, len(records))
	for _, rec := range records {
		byKey[key{rec.StudentID, rec.Date.Format("2006-01-02")}] = rec
	}

	var entries []ReportEntry
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, s := range students {
			entry := ReportEntry{StudentID: s.ID, StudentName: s.Name, Date: day}
			if rec, ok := byKey[key{s.ID, day.Format("2006-01-02")}]; ok {
				entry.Recorded = true
				entry.Present = rec.Present
				entry.Note = rec.Note
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
