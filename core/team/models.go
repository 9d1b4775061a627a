package team

import (
	"time"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/user"
)

// Team groups staff members for the admin UI (duty rosters, notices).
type Team struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	House       string      `json:"house,omitempty"`
	Members     []user.User `json:"members,omitempty"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

type NewTeam struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	House       string `json:"house"`
}

func (nt *NewTeam) Validate(svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.House = core.CleanString(nt.House)
	return svc.validate.Struct(nt)
}

type UpdateTeam struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	House       *string `json:"house"`
}
