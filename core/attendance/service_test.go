package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyermekkert/admin/core/user"
)

type repoStub struct {
	classes  []Class
	students []Student
	records  []Record
}

func (r *repoStub) CreateClass(ctx context.Context, c Class) (Class, error) {
	c.ID = uuid.NewString()
	r.classes = append(r.classes, c)
	return c, nil
}

func (r *repoStub) QueryClasses(ctx context.Context) ([]Class, error) {
	return r.classes, nil
}

func (r *repoStub) GetClassByID(ctx context.Context, id string) (Class, error) {
	for _, c := range r.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return Class{}, ErrClassNotFound
}

func (r *repoStub) UpdateClass(ctx context.Context, c Class) (Class, error) {
	for i := range r.classes {
		if r.classes[i].ID == c.ID {
			r.classes[i] = c
			return c, nil
		}
	}
	return Class{}, ErrClassNotFound
}

func (r *repoStub) DeleteClass(ctx context.Context, id string) error {
	for i := range r.classes {
		if r.classes[i].ID == id {
			r.classes = append(r.classes[:i], r.classes[i+1:]...)
			return nil
		}
	}
	return ErrClassNotFound
}

func (r *repoStub) CreateStudent(ctx context.Context, s Student) (Student, error) {
	s.ID = uuid.NewString()
	r.students = append(r.students, s)
	return s, nil
}

func (r *repoStub) QueryStudentsByClass(ctx context.Context, classID string) ([]Student, error) {
	var out []Student
	for _, s := range r.students {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *repoStub) GetStudentByID(ctx context.Context, id string) (Student, error) {
	for _, s := range r.students {
		if s.ID == id {
			return s, nil
		}
	}
	return Student{}, ErrStudentNotFound
}

func (r *repoStub) UpdateStudent(ctx context.Context, s Student) (Student, error) {
	for i := range r.students {
		if r.students[i].ID == s.ID {
			r.students[i] = s
			return s, nil
		}
	}
	return Student{}, ErrStudentNotFound
}

func (r *repoStub) DeleteStudent(ctx context.Context, id string) error {
	for i := range r.students {
		if r.students[i].ID == id {
			r.students = append(r.students[:i], r.students[i+1:]...)
			kept := r.records[:0]
			for _, rec := range r.records {
				if rec.StudentID != id {
					kept = append(kept, rec)
				}
			}
			r.records = kept
			return nil
		}
	}
	return ErrStudentNotFound
}

func (r *repoStub) QueryRecords(ctx context.Context, classID string, date time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.ClassID == classID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *repoStub) QueryRecordsRange(ctx context.Context, classID string, from, to time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.ClassID == classID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *repoStub) ReplaceSheet(ctx context.Context, classID string, date time.Time, records []Record) error {
	kept := r.records[:0]
	for _, rec := range r.records {
		if !(rec.ClassID == classID && rec.Date.Equal(date)) {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	for i := range records {
		records[i].ID = uuid.NewString()
	}
	r.records = append(r.records, records...)
	return nil
}

var _ Repository = (*repoStub)(nil)

func boolPtr(b bool) *bool { return &b }

func testUser(id, house string, roles ...string) user.User {
	return user.User{ID: id, House: house, Roles: roles, IsActive: boolPtr(true)}
}

func TestService_Classes_visibility(t *testing.T) {
	ctx := context.Background()
	repo := &repoStub{}
	svc := NewService(repo, validator.New())

	pedID := uuid.NewString()
	katica, err := svc.CreateClass(ctx, NewClass{Name: "Katica", House: "Kék Ház", PedagogueID: pedID})
	require.NoError(t, err)
	suni, err := svc.CreateClass(ctx, NewClass{Name: "Süni", House: "Zöld Ház"})
	require.NoError(t, err)

	tests := []struct {
		name string
		usr  user.User
		want []Class
	}{
		{name: "admin sees all", usr: testUser("a", "", user.RoleAdmin), want: []Class{katica, suni}},
		{name: "office sees all", usr: testUser("o", "", user.RoleAdminisztracio), want: []Class{katica, suni}},
		{name: "hazvezeto scoped to house", usr: testUser("h", "Kék Ház", user.RoleHazvezeto), want: []Class{katica}},
		{name: "hazvezeto without house sees none", usr: testUser("h2", "", user.RoleHazvezeto), want: []Class{}},
		{name: "pedagogus scoped to assignment", usr: testUser(pedID, "Kék Ház", user.RolePedagogus), want: []Class{katica}},
		{name: "no role sees none", usr: testUser("x", ""), want: []Class{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Classes(ctx, tt.usr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("GetClass blocks invisible", func(t *testing.T) {
		_, err := svc.GetClass(ctx, testUser(pedID, "", user.RolePedagogus), suni.ID)
		assert.Equal(t, ErrNotVisible, err)
	})
}

func TestService_UpdateClass(t *testing.T) {
	ctx := context.Background()
	repo := &repoStub{}
	svc := NewService(repo, validator.New())

	c, err := svc.CreateClass(ctx, NewClass{Name: "Katica", House: "Kék Ház", PedagogueID: "ped1"})
	require.NoError(t, err)

	// partial update: empty fields keep their value, pedagogue may be cleared
	empty := ""
	got, err := svc.UpdateClass(ctx, c.ID, UpdateClass{Name: "Méhecske", PedagogueID: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Méhecske", got.Name)
	assert.Equal(t, "Kék Ház", got.House)
	assert.Empty(t, got.PedagogueID)

	_, err = svc.UpdateClass(ctx, "nope", UpdateClass{})
	assert.Equal(t, ErrClassNotFound, err)
}

func TestService_Sheet(t *testing.T) {
	ctx := context.Background()
	repo := &repoStub{}
	svc := NewService(repo, validator.New())
	office := testUser("o", "", user.RoleAdminisztracio)

	c, err := svc.CreateClass(ctx, NewClass{Name: "Katica"})
	require.NoError(t, err)
	bence, err := svc.CreateStudent(ctx, NewStudent{Name: "Kovács Bence", ClassID: c.ID})
	require.NoError(t, err)
	lili, err := svc.CreateStudent(ctx, NewStudent{Name: "Horváth Lili", ClassID: c.ID})
	require.NoError(t, err)

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("defaults to present", func(t *testing.T) {
		entries, err := svc.Sheet(ctx, office, c.ID, date)
		require.NoError(t, err)
		assert.Equal(t, []SheetEntry{
			{StudentID: bence.ID, StudentName: bence.Name, Present: true},
			{StudentID: lili.ID, StudentName: lili.Name, Present: true},
		}, entries)
	})

	t.Run("save replaces the day", func(t *testing.T) {
		err := svc.SaveSheet(ctx, office, c.ID, SheetSave{
			Date: "2026-09-01",
			Entries: []SheetSaveEntry{
				{StudentID: bence.ID, Present: true},
				{StudentID: lili.ID, Present: false, Note: "beteg"},
			},
		})
		require.NoError(t, err)

		entries, err := svc.Sheet(ctx, office, c.ID, date)
		require.NoError(t, err)
		assert.Equal(t, []SheetEntry{
			{StudentID: bence.ID, StudentName: bence.Name, Present: true},
			{StudentID: lili.ID, StudentName: lili.Name, Present: false, Note: "beteg"},
		}, entries)

		// second save wins
		err = svc.SaveSheet(ctx, office, c.ID, SheetSave{
			Date:    "2026-09-01",
			Entries: []SheetSaveEntry{{StudentID: lili.ID, Present: true}},
		})
		require.NoError(t, err)
		records, err := repo.QueryRecords(ctx, c.ID, date)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("report flags unrecorded days", func(t *testing.T) {
		from := date.AddDate(0, 0, -1)
		entries, err := svc.Report(ctx, office, c.ID, from, date)
		require.NoError(t, err)
		require.Len(t, entries, 4) // 2 students x 2 days
		for _, e := range entries[:2] {
			assert.False(t, e.Recorded)
			assert.False(t, e.Present)
		}
		var liliDay ReportEntry
		for _, e := range entries[2:] {
			if e.StudentID == lili.ID {
				liliDay = e
			}
		}
		assert.True(t, liliDay.Recorded)
		assert.True(t, liliDay.Present)
	})
}

func TestService_DeleteStudent_cascades(t *testing.T) {
	ctx := context.Background()
	repo := &repoStub{}
	svc := NewService(repo, validator.New())
	office := testUser("o", "", user.RoleAdminisztracio)

	c, err := svc.CreateClass(ctx, NewClass{Name: "Katica"})
	require.NoError(t, err)
	s, err := svc.CreateStudent(ctx, NewStudent{Name: "Kovács Bence", ClassID: c.ID})
	require.NoError(t, err)
	require.NoError(t, svc.SaveSheet(ctx, office, c.ID, SheetSave{
		Date:    "2026-09-01",
		Entries: []SheetSaveEntry{{StudentID: s.ID, Present: false}},
	}))

	require.NoError(t, svc.DeleteStudent(ctx, s.ID))
	assert.Empty(t, repo.records)

	_, err = svc.CreateStudent(ctx, NewStudent{Name: "Senki", ClassID: "nope"})
	assert.Equal(t, ErrClassNotFound, err)
}
