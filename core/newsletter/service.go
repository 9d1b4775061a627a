package newsletter

import (
	"context"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
)

var (
	ErrNotFound     = errors.New("newsletter not found")
	ErrFormNotFound = errors.New("form not found")
	ErrBadPosition  = errors.New("component position out of range")
)

type Repository interface {
	CreateNewsletter(ctx context.Context, n *Newsletter) error
	QueryNewsletters(ctx context.Context, campus string) ([]Newsletter, error)
	GetNewsletterByID(ctx context.Context, id string) (Newsletter, error)
	UpdateNewsletter(ctx context.Context, n *Newsletter) error
	DeleteNewsletter(ctx context.Context, id string) error

	CreateForm(ctx context.Context, f *Form) error
	QueryForms(ctx context.Context) ([]Form, error)
	GetFormByID(ctx context.Context, id string) (Form, error)
	UpdateForm(ctx context.Context, f *Form) error
	DeleteForm(ctx context.Context, id string) error

	// LinkForm attaches a form to a newsletter; linking twice is a no-op.
	LinkForm(ctx context.Context, newsletterID, formID string) error
	UnlinkForm(ctx context.Context, newsletterID, formID string) error
}

type Service struct {
	conf     *core.Config
	repo     Repository
	mailSvc  core.EmailService
	validate *validator.Validate
}

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
	}
}

func (svc *Service) Create(ctx context.Context, nn NewNewsletter) (Newsletter, error) {
	if err := nn.Validate(svc); err != nil {
		return Newsletter{}, err
	}

	n := Newsletter{
		Title:       nn.Title,
		Description: nn.Description,
		Campus:      nn.Campus,
		Components:  renumber(nn.Components),
	}
	n.HTML = RenderHTML(n.Components)

	if err := svc.repo.CreateNewsletter(ctx, &n); err != nil {
		return Newsletter{}, errors.Wrap(err, "creating newsletter")
	}
	return n, nil
}

func (svc *Service) Query(ctx context.Context, campus string) ([]Newsletter, error) {
	ns, err := svc.repo.QueryNewsletters(ctx, campus)
	if err != nil {
		return nil, errors.Wrap(err, "querying newsletters")
	}
	return ns, nil
}

// GetByID loads a newsletter. Newsletters saved before the structured
// builder only carry HTML; for those the component list is recovered from
// the markup so the builder can still edit them.
func (svc *Service) GetByID(ctx context.Context, id string) (Newsletter, error) {
	n, err := svc.repo.GetNewsletterByID(ctx, id)
	if err != nil {
		return Newsletter{}, err
	}
	if len(n.Components) == 0 && n.HTML != "" {
		n.Components = ParseHTML(n.HTML)
	}
	return n, nil
}

func (svc *Service) Update(ctx context.Context, id string, un UpdateNewsletter) (Newsletter, error) {
	n, err := svc.repo.GetNewsletterByID(ctx, id)
	if err != nil {
		return Newsletter{}, err
	}

	if un.Title != "" {
		n.Title = core.CleanString(un.Title)
	}
	if un.Description != nil {
		n.Description = *un.Description
	}
	if un.Campus != "" {
		n.Campus = core.CleanString(un.Campus)
	}
	if un.Components != nil {
		n.Components = renumber(un.Components)
	}
	n.HTML = RenderHTML(n.Components)

	if err := svc.repo.UpdateNewsletter(ctx, &n); err != nil {
		return Newsletter{}, errors.Wrap(err, "updating newsletter")
	}
	return n, nil
}

// Move relocates a component and renumbers all positions.
func (svc *Service) Move(ctx context.Context, id string, mv MoveComponent) (Newsletter, error) {
	if err := svc.validate.Struct(mv); err != nil {
		return Newsletter{}, err
	}

	n, err := svc.repo.GetNewsletterByID(ctx, id)
	if err != nil {
		return Newsletter{}, err
	}
	if mv.From >= len(n.Components) || mv.To >= len(n.Components) {
		return Newsletter{}, ErrBadPosition
	}

	c := n.Components[mv.From]
	n.Components = append(n.Components[:mv.From], n.Components[mv.From+1:]...)
	n.Components = append(n.Components[:mv.To], append([]Component{c}, n.Components[mv.To:]...)...)
	n.Components = renumber(n.Components)
	n.HTML = RenderHTML(n.Components)

	if err := svc.repo.UpdateNewsletter(ctx, &n); err != nil {
		return Newsletter{}, errors.Wrap(err, "moving component")
	}
	return n, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteNewsletter(ctx, id)
}

// Send emails the rendered newsletter to the given recipients.
func (svc *Service) Send(ctx context.Context, id string, req SendRequest) error {
	if err := svc.validate.Struct(req); err != nil {
		return err
	}

	n, err := svc.repo.GetNewsletterByID(ctx, id)
	if err != nil {
		return err
	}
	if n.HTML == "" {
		n.HTML = RenderHTML(n.Components)
	}

	to := make([]mail.Address, len(req.Recipients))
	for i, addr := range req.Recipients {
		to[i] = mail.Address{Address: addr}
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:       to,
		Subject:  n.Title,
		BodyStr:  n.Description,
		BodyHTML: n.HTML,
	})
	return nil
}

func (svc *Service) CreateForm(ctx context.Context, nf NewForm) (Form, error) {
	if err := nf.Validate(svc); err != nil {
		return Form{}, err
	}

	f := Form{Title: nf.Title, Fields: nf.Fields}
	if err := svc.repo.CreateForm(ctx, &f); err != nil {
		return Form{}, errors.Wrap(err, "creating form")
	}
	return f, nil
}

func (svc *Service) QueryForms(ctx context.Context) ([]Form, error) {
	fs, err := svc.repo.QueryForms(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying forms")
	}
	return fs, nil
}

func (svc *Service) GetFormByID(ctx context.Context, id string) (Form, error) {
	return svc.repo.GetFormByID(ctx, id)
}

func (svc *Service) UpdateForm(ctx context.Context, id string, uf UpdateForm) (Form, error) {
	f, err := svc.repo.GetFormByID(ctx, id)
	if err != nil {
		return Form{}, err
	}
	if title := core.CleanString(uf.Title); title != "" {
		f.Title = title
	}
	if uf.Fields != nil {
		f.Fields = uf.Fields
	}
	if err := svc.repo.UpdateForm(ctx, &f); err != nil {
		return Form{}, errors.Wrap(err, "updating form")
	}
	return f, nil
}

func (svc *Service) DeleteForm(ctx context.Context, id string) error {
	return svc.repo.DeleteForm(ctx, id)
}

func (svc *Service) LinkForm(ctx context.Context, newsletterID, formID string) error {
	if _, err := svc.repo.GetNewsletterByID(ctx, newsletterID); err != nil {
		return err
	}
	if _, err := svc.repo.GetFormByID(ctx, formID); err != nil {
		return err
	}
	return svc.repo.LinkForm(ctx, newsletterID, formID)
}

func (svc *Service) UnlinkForm(ctx context.Context, newsletterID, formID string) error {
	return svc.repo.UnlinkForm(ctx, newsletterID, formID)
}

func renumber(comps []Component) []Component {
	for i := range comps {
		comps[i].Position = i
	}
	return comps
}
