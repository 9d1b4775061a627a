package newsletter

import (
	"encoding/json"
	"time"

	"github.com/gyermekkert/admin/core"
)

type ComponentType string

// Content block types of the newsletter builder.
const (
	TypeHeading        ComponentType = "heading"
	TypeTextBlock      ComponentType = "text-block"
	TypeImage          ComponentType = "image"
	TypeButton         ComponentType = "button"
	TypeDivider        ComponentType = "divider"
	TypeFormSection    ComponentType = "form-section"
	TypeCalendarButton ComponentType = "calendar-button"
)

// Component is one typed content block. Position orders the blocks; the
// builder renumbers positions after every move.
type Component struct {
	Type     ComponentType `json:"type"`
	Position int           `json:"position"`

	// heading / text-block
	Text     string `json:"text,omitempty"`
	Color    string `json:"color,omitempty"`
	Align    string `json:"align,omitempty"`
	FontSize int    `json:"font_size,omitempty"`

	// image
	Src string `json:"src,omitempty"`
	Alt string `json:"alt,omitempty"`

	// button / calendar-button
	Href  string `json:"href,omitempty"`
	Label string `json:"label,omitempty"`

	// form-section
	FormID string `json:"form_id,omitempty"`
}

// Newsletter stores both the structured component list (source of truth)
// and a derived HTML rendering (cache for the public page).
type Newsletter struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Campus      string      `json:"campus"`
	Components  []Component `json:"components"`
	HTML        string      `json:"html"`
	FormIDs     []string    `json:"form_ids,omitempty"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

type Form struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Fields    json.RawMessage `json:"fields"` // field schema, opaque to the server
	CreatedAt time.Time       `json:"created_at"` // UTC
	UpdatedAt time.Time       `json:"updated_at"` // UTC
}

type NewNewsletter struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description"`
	Campus      string      `json:"campus"`
	Components  []Component `json:"components"`
}

func (nn *NewNewsletter) Validate(svc *Service) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Campus = core.CleanString(nn.Campus)
	return svc.validate.Struct(nn)
}

type UpdateNewsletter struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Campus      string      `json:"campus"`
	Components  []Component `json:"components"`
}

type NewForm struct {
	Title  string          `json:"title" validate:"required"`
	Fields json.RawMessage `json:"fields"`
}

func (nf *NewForm) Validate(svc *Service) error {
	nf.Title = core.CleanString(nf.Title)
	return svc.validate.Struct(nf)
}

type UpdateForm struct {
	Title  string          `json:"title"`
	Fields json.RawMessage `json:"fields"`
}

// MoveComponent relocates the component at index From to index To.
type MoveComponent struct {
	From int `json:"from" validate:"min=0"`
	To   int `json:"to" validate:"min=0"`
}

// SendRequest emails the rendered newsletter.
type SendRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
}
