package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
)

type teamRepository struct {
	db    *sqlx.DB
	users *userRepository
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(db *sqlx.DB) *teamRepository {
	return &teamRepository{db: db, users: NewUserRepository(db)}
}

type teamRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	House       string    `db:"house"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (repo teamRepository) unrow(r teamRow) team.Team {
	return team.Team{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		House:       r.House,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (repo teamRepository) CreateTeam(ctx context.Context, t *team.Team) error {
	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO team (id, name, description, house, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Description, t.House, t.CreatedAt, t.UpdatedAt)
	return errors.Wrap(err, "inserting team")
}

func (repo teamRepository) QueryTeams(ctx context.Context) ([]team.Team, error) {
	var rows []teamRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM team ORDER BY name"); err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	teams := make([]team.Team, 0, len(rows))
	for _, r := range rows {
		t := repo.unrow(r)
		members, err := repo.queryMembers(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Members = members
		teams = append(teams, t)
	}
	return teams, nil
}

func (repo teamRepository) GetTeamByID(ctx context.Context, id string) (team.Team, error) {
	var r teamRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM team WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return team.Team{}, team.ErrNotFound
		}
		return team.Team{}, errors.Wrap(err, "fetching team")
	}
	t := repo.unrow(r)
	members, err := repo.queryMembers(ctx, t.ID)
	if err != nil {
		return team.Team{}, err
	}
	t.Members = members
	return t, nil
}

func (repo teamRepository) queryMembers(ctx context.Context, teamID string) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT u.* FROM "user" u JOIN team_member tm ON tm.user_id = u.id
		WHERE tm.team_id = $1 ORDER BY u.name`, teamID)
	if err != nil {
		return nil, errors.Wrap(err, "querying team members")
	}
	return repo.users.unrowSlice(rows), nil
}

func (repo teamRepository) UpdateTeam(ctx context.Context, t *team.Team) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE team SET name = $2, description = $3, house = $4, updated_at = $5 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.House, t.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating team")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return team.ErrNotFound
	}
	return nil
}

func (repo teamRepository) DeleteTeam(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM team WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting team")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return team.ErrNotFound
	}
	return nil
}

func (repo teamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO team_member (team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		teamID, userID)
	return errors.Wrap(err, "adding team member")
}

func (repo teamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	_, err := repo.db.ExecContext(ctx,
		"DELETE FROM team_member WHERE team_id = $1 AND user_id = $2", teamID, userID)
	return errors.Wrap(err, "removing team member")
}
