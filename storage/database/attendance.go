package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gyermekkert/admin/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type classRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	House       string      `db:"house"`
	PedagogueID null.String `db:"pedagogue_id"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type studentRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ClassID   string    `db:"class_id"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

type attendanceRecordRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	ClassID   string    `db:"class_id"`
	Date      time.Time `db:"date"`
	Present   bool      `db:"present"`
	Note      string    `db:"note"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

func (repo attendanceRepository) unrowClass(r classRow) attendance.Class {
	return attendance.Class{
		ID:          r.ID,
		Name:        r.Name,
		House:       r.House,
		PedagogueID: r.PedagogueID.String,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (repo attendanceRepository) unrowStudent(r studentRow) attendance.Student {
	return attendance.Student{
		ID:        r.ID,
		Name:      r.Name,
		ClassID:   r.ClassID,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func (repo attendanceRepository) unrowRecord(r attendanceRecordRow) attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		Date:      r.Date,
		Present:   r.Present,
		Note:      r.Note,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func (repo attendanceRepository) CreateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	c.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO class (id, name, house, pedagogue_id, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		c.ID, c.Name, c.House, c.PedagogueID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return attendance.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo attendanceRepository) QueryClasses(ctx context.Context) ([]attendance.Class, error) {
	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM class ORDER BY name"); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]attendance.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, repo.unrowClass(r))
	}
	return classes, nil
}

func (repo attendanceRepository) GetClassByID(ctx context.Context, id string) (attendance.Class, error) {
	var r classRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM class WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Class{}, attendance.ErrClassNotFound
		}
		return attendance.Class{}, errors.Wrap(err, "fetching class")
	}
	return repo.unrowClass(r), nil
}

func (repo attendanceRepository) UpdateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE class SET name = $2, house = $3, pedagogue_id = NULLIF($4, ''), updated_at = $5 WHERE id = $1`,
		c.ID, c.Name, c.House, c.PedagogueID, c.UpdatedAt)
	if err != nil {
		return attendance.Class{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Class{}, attendance.ErrClassNotFound
	}
	return c, nil
}

func (repo attendanceRepository) DeleteClass(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM class WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrClassNotFound
	}
	return nil
}

func (repo attendanceRepository) CreateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO student (id, name, class_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Name, s.ClassID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return attendance.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo attendanceRepository) QueryStudentsByClass(ctx context.Context, classID string) ([]attendance.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM student WHERE class_id = $1 ORDER BY name", classID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]attendance.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, repo.unrowStudent(r))
	}
	return students, nil
}

func (repo attendanceRepository) GetStudentByID(ctx context.Context, id string) (attendance.Student, error) {
	var r studentRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM student WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Student{}, attendance.ErrStudentNotFound
		}
		return attendance.Student{}, errors.Wrap(err, "fetching student")
	}
	return repo.unrowStudent(r), nil
}

func (repo attendanceRepository) UpdateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE student SET name = $2, class_id = $3, updated_at = $4 WHERE id = $1",
		s.ID, s.Name, s.ClassID, s.UpdatedAt)
	if err != nil {
		return attendance.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Student{}, attendance.ErrStudentNotFound
	}
	return s, nil
}

func (repo attendanceRepository) DeleteStudent(ctx context.Context, id string) error {
	// attendance records cascade
	res, err := repo.db.ExecContext(ctx, "DELETE FROM student WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrStudentNotFound
	}
	return nil
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, classID string, date time.Time) ([]attendance.Record, error) {
	var rows []attendanceRecordRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT * FROM attendance_record WHERE class_id = $1 AND date = $2", classID, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, repo.unrowRecord(r))
	}
	return recs, nil
}

func (repo attendanceRepository) QueryRecordsRange(ctx context.Context, classID string, from, to time.Time) ([]attendance.Record, error) {
	var rows []attendanceRecordRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT * FROM attendance_record WHERE class_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date", classID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, repo.unrowRecord(r))
	}
	return recs, nil
}

func (repo attendanceRepository) ReplaceSheet(ctx context.Context, classID string, date time.Time, records []attendance.Record) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM attendance_record WHERE class_id = $1 AND date = $2", classID, date); err != nil {
		return errors.Wrap(err, "clearing sheet")
	}
	for _, rec := range records {
		rec.ID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attendance_record (id, student_id, class_id, date, present, note, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, rec.StudentID, classID, date, rec.Present, rec.Note, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "inserting attendance record")
		}
	}
	return errors.Wrap(tx.Commit(), "committing sheet")
}
