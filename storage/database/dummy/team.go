package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
)

type teamRepository struct {
	db    *teamTable
	users *userTable
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(db *DB) team.Repository {
	return &teamRepository{db: db.team, users: db.user}
}

func (repo *teamRepository) members(teamID string) []user.User {
	repo.users.RLock()
	defer repo.users.RUnlock()

	members := make([]user.User, 0)
	for userID := range repo.db.members[teamID] {
		if usr, ok := repo.users.table[userID]; ok {
			members = append(members, *usr)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members
}

func (repo *teamRepository) CreateTeam(ctx context.Context, t *team.Team) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	repo.db.teams[t.ID] = &cp
	return nil
}

func (repo *teamRepository) QueryTeams(ctx context.Context) ([]team.Team, error) {
	repo.db.RLock()
	teams := make([]team.Team, 0, len(repo.db.teams))
	for _, t := range repo.db.teams {
		teams = append(teams, *t)
	}
	repo.db.RUnlock()

	for i := range teams {
		teams[i].Members = repo.members(teams[i].ID)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (repo *teamRepository) GetTeamByID(ctx context.Context, id string) (team.Team, error) {
	repo.db.RLock()
	t, ok := repo.db.teams[id]
	repo.db.RUnlock()
	if !ok {
		return team.Team{}, team.ErrNotFound
	}
	out := *t
	out.Members = repo.members(id)
	return out, nil
}

func (repo *teamRepository) UpdateTeam(ctx context.Context, t *team.Team) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teams[t.ID]; !ok {
		return team.ErrNotFound
	}
	cp := *t
	cp.Members = nil
	repo.db.teams[t.ID] = &cp
	return nil
}

func (repo *teamRepository) DeleteTeam(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teams[id]; !ok {
		return team.ErrNotFound
	}
	delete(repo.db.teams, id)
	delete(repo.db.members, id)
	return nil
}

func (repo *teamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.members[teamID] == nil {
		repo.db.members[teamID] = make(map[string]bool)
	}
	repo.db.members[teamID][userID] = true
	return nil
}

func (repo *teamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.members[teamID], userID)
	return nil
}
