package team_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
	emailsvc "github.com/gyermekkert/admin/services/email"
	dummydb "github.com/gyermekkert/admin/storage/database/dummy"
	testutil "github.com/gyermekkert/admin/tests"
)

func setup(t *testing.T) (*team.Service, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{AppName: "Gyermekkert Admin", SecretKey: []byte("secret"), WorkDir: core.Getwd()}
	validate := validator.New()
	usrRepo := dummydb.NewUserRepository(db)
	usrSvc := user.NewService(conf, usrRepo, emailsvc.NewConsoleServiceMock(conf), validate)

	return team.NewService(dummydb.NewTeamRepository(db), usrSvc, validate), usrRepo
}

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	created, err := svc.Create(ctx, team.NewTeam{Name: "  Konyha  ", Description: "konyhai ügyelet", House: "Kék Ház"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Konyha", created.Name) // trimmed

	_, err = svc.Create(ctx, team.NewTeam{Description: "névtelen"})
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)

	teams, err := svc.Query(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	desc := ""
	updated, err := svc.Update(ctx, created.ID, team.UpdateTeam{Name: "Kert", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Kert", updated.Name)
	assert.Empty(t, updated.Description)
	assert.Equal(t, "Kék Ház", updated.House)

	_, err = svc.Update(ctx, "nope", team.UpdateTeam{})
	assert.Equal(t, team.ErrNotFound, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.GetByID(ctx, created.ID)
	assert.Equal(t, team.ErrNotFound, err)
}

func TestService_members(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Kiss Anna", "kissanna", "anna@test.hu", "", "", nil, true)
	created, err := svc.Create(ctx, team.NewTeam{Name: "Konyha"})
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(ctx, created.ID, usr.ID))
	// adding twice is a no-op
	require.NoError(t, svc.AddMember(ctx, created.ID, usr.ID))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, usr.ID, got.Members[0].ID)

	assert.Equal(t, team.ErrNotFound, svc.AddMember(ctx, "nope", usr.ID))
	assert.Equal(t, user.ErrNotFound, svc.AddMember(ctx, created.ID, "nope"))

	require.NoError(t, svc.RemoveMember(ctx, created.ID, usr.ID))
	got, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Members)
}
