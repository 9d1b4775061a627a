package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gyermekkert/admin/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (repo *attendanceRepository) CreateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.classes[c.ID] = &c
	return c, nil
}

func (repo *attendanceRepository) QueryClasses(ctx context.Context) ([]attendance.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]attendance.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *attendanceRepository) GetClassByID(ctx context.Context, id string) (attendance.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return *c, nil
	}
	return attendance.Class{}, attendance.ErrClassNotFound
}

func (repo *attendanceRepository) UpdateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[c.ID]; !ok {
		return attendance.Class{}, attendance.ErrClassNotFound
	}
	repo.db.classes[c.ID] = &c
	return c, nil
}

func (repo *attendanceRepository) DeleteClass(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return attendance.ErrClassNotFound
	}
	delete(repo.db.classes, id)
	for sid, s := range repo.db.students {
		if s.ClassID == id {
			delete(repo.db.students, sid)
		}
	}
	for rid, r := range repo.db.records {
		if r.ClassID == id {
			delete(repo.db.records, rid)
		}
	}
	return nil
}

func (repo *attendanceRepository) CreateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *attendanceRepository) QueryStudentsByClass(ctx context.Context, classID string) ([]attendance.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]attendance.Student, 0)
	for _, s := range repo.db.students {
		if s.ClassID == classID {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func (repo *attendanceRepository) GetStudentByID(ctx context.Context, id string) (attendance.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return attendance.Student{}, attendance.ErrStudentNotFound
}

func (repo *attendanceRepository) UpdateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[s.ID]; !ok {
		return attendance.Student{}, attendance.ErrStudentNotFound
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *attendanceRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return attendance.ErrStudentNotFound
	}
	delete(repo.db.students, id)
	// cascade the attendance history
	for rid, r := range repo.db.records {
		if r.StudentID == id {
			delete(repo.db.records, rid)
		}
	}
	return nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, classID string, date time.Time) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, r := range repo.db.records {
		if r.ClassID == classID && sameDay(r.Date, date) {
			recs = append(recs, *r)
		}
	}
	return recs, nil
}

func (repo *attendanceRepository) QueryRecordsRange(ctx context.Context, classID string, from, to time.Time) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, r := range repo.db.records {
		if r.ClassID != classID {
			continue
		}
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		recs = append(recs, *r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs, nil
}

func (repo *attendanceRepository) ReplaceSheet(ctx context.Context, classID string, date time.Time, records []attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for rid, r := range repo.db.records {
		if r.ClassID == classID && sameDay(r.Date, date) {
			delete(repo.db.records, rid)
		}
	}
	for _, rec := range records {
		rec := rec
		rec.ID = uuid.New().String()
		rec.ClassID = classID
		rec.Date = date
		repo.db.records[rec.ID] = &rec
	}
	return nil
}
