package team

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/user"
)

var ErrNotFound = errors.New("team not found")

type Repository interface {
	CreateTeam(ctx context.Context, t *Team) error
	QueryTeams(ctx context.Context) ([]Team, error)
	GetTeamByID(ctx context.Context, id string) (Team, error)
	UpdateTeam(ctx context.Context, t *Team) error
	DeleteTeam(ctx context.Context, id string) error

	// AddMember is a no-op when the user is already a member.
	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

type Service struct {
	repo     Repository
	usrSvc   *user.Service
	validate *validator.Validate
}

func NewService(repo Repository, usrSvc *user.Service, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		usrSvc:   usrSvc,
		validate: validate,
	}
}

func (svc *Service) Create(ctx context.Context, nt NewTeam) (Team, error) {
	if err := nt.Validate(svc); err != nil {
		return Team{}, err
	}

	t := Team{
		Name:        nt.Name,
		Description: nt.Description,
		House:       nt.House,
	}
	if err := svc.repo.CreateTeam(ctx, &t); err != nil {
		return Team{}, errors.Wrap(err, "creating team")
	}
	return t, nil
}

func (svc *Service) Query(ctx context.Context) ([]Team, error) {
	ts, err := svc.repo.QueryTeams(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	return ts, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Team, error) {
	return svc.repo.GetTeamByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTeam) (Team, error) {
	t, err := svc.repo.GetTeamByID(ctx, id)
	if err != nil {
		return Team{}, err
	}

	if ut.Name != "" {
		t.Name = core.CleanString(ut.Name)
	}
	if ut.Description != nil {
		t.Description = *ut.Description
	}
	if ut.House != nil {
		t.House = core.CleanString(*ut.House)
	}
	t.UpdatedAt = time.Now().UTC()

	if err = svc.repo.UpdateTeam(ctx, &t); err != nil {
		return Team{}, errors.Wrap(err, "updating team")
	}
	return t, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTeam(ctx, id)
}

func (svc *Service) AddMember(ctx context.Context, teamID, userID string) error {
	if _, err := svc.repo.GetTeamByID(ctx, teamID); err != nil {
		return err
	}
	if _, err := svc.usrSvc.GetByID(ctx, userID); err != nil {
		return err
	}
	return svc.repo.AddMember(ctx, teamID, userID)
}

func (svc *Service) RemoveMember(ctx context.Context, teamID, userID string) error {
	return svc.repo.RemoveMember(ctx, teamID, userID)
}
