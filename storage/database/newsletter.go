package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gyermekkert/admin/core/newsletter"
)

type newsletterRepository struct {
	db *sqlx.DB
}

var _ newsletter.Repository = (*newsletterRepository)(nil) // interface compliance check

func NewNewsletterRepository(db *sqlx.DB) *newsletterRepository {
	return &newsletterRepository{db: db}
}

type newsletterRow struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Campus      string          `db:"campus"`
	Components  json.RawMessage `db:"components"`
	HTML        string          `db:"html"`
	CreatedAt   null.Time       `db:"created_at"`
	UpdatedAt   null.Time       `db:"updated_at"`
}

type formRow struct {
	ID        string          `db:"id"`
	Title     string          `db:"title"`
	Fields    json.RawMessage `db:"fields"`
	CreatedAt null.Time       `db:"created_at"`
	UpdatedAt null.Time       `db:"updated_at"`
}

func (repo newsletterRepository) unrow(r newsletterRow) (newsletter.Newsletter, error) {
	n := newsletter.Newsletter{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Campus:      r.Campus,
		HTML:        r.HTML,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
	if len(r.Components) > 0 {
		if err := json.Unmarshal(r.Components, &n.Components); err != nil {
			return newsletter.Newsletter{}, errors.Wrap(err, "decoding components")
		}
	}
	return n, nil
}

func (repo newsletterRepository) unrowForm(r formRow) newsletter.Form {
	return newsletter.Form{
		ID:        r.ID,
		Title:     r.Title,
		Fields:    r.Fields,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

func (repo newsletterRepository) CreateNewsletter(ctx context.Context, n *newsletter.Newsletter) error {
	n.ID = uuid.New().String()
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now

	components, err := json.Marshal(n.Components)
	if err != nil {
		return errors.Wrap(err, "encoding components")
	}
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO newsletter (id, title, description, campus, components, html, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.Title, n.Description, n.Campus, components, n.HTML, n.CreatedAt, n.UpdatedAt)
	return errors.Wrap(err, "inserting newsletter")
}

func (repo newsletterRepository) QueryNewsletters(ctx context.Context, campus string) ([]newsletter.Newsletter, error) {
	q := "SELECT * FROM newsletter"
	var args []interface{}
	if campus != "" {
		q += " WHERE campus = $1"
		args = append(args, campus)
	}
	q += " ORDER BY created_at DESC"

	var rows []newsletterRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying newsletters")
	}
	ns := make([]newsletter.Newsletter, 0, len(rows))
	for _, r := range rows {
		n, err := repo.unrow(r)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func (repo newsletterRepository) GetNewsletterByID(ctx context.Context, id string) (newsletter.Newsletter, error) {
	var r newsletterRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM newsletter WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return newsletter.Newsletter{}, newsletter.ErrNotFound
		}
		return newsletter.Newsletter{}, errors.Wrap(err, "fetching newsletter")
	}
	n, err := repo.unrow(r)
	if err != nil {
		return newsletter.Newsletter{}, err
	}

	var formIDs []string
	err = repo.db.SelectContext(ctx, &formIDs,
		"SELECT form_id FROM newsletter_form WHERE newsletter_id = $1", id)
	if err != nil {
		return newsletter.Newsletter{}, errors.Wrap(err, "fetching linked forms")
	}
	n.FormIDs = formIDs
	return n, nil
}

func (repo newsletterRepository) UpdateNewsletter(ctx context.Context, n *newsletter.Newsletter) error {
	n.UpdatedAt = time.Now().UTC()
	components, err := json.Marshal(n.Components)
	if err != nil {
		return errors.Wrap(err, "encoding components")
	}
	res, err := repo.db.ExecContext(ctx, `
		UPDATE newsletter SET title = $2, description = $3, campus = $4, components = $5, html = $6, updated_at = $7
		WHERE id = $1`,
		n.ID, n.Title, n.Description, n.Campus, components, n.HTML, n.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating newsletter")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return newsletter.ErrNotFound
	}
	return nil
}

func (repo newsletterRepository) DeleteNewsletter(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM newsletter WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting newsletter")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return newsletter.ErrNotFound
	}
	return nil
}

func (repo newsletterRepository) CreateForm(ctx context.Context, f *newsletter.Form) error {
	f.ID = uuid.New().String()
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	fields := f.Fields
	if len(fields) == 0 {
		fields = json.RawMessage("[]")
	}
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO form (id, title, fields, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		f.ID, f.Title, fields, f.CreatedAt, f.UpdatedAt)
	return errors.Wrap(err, "inserting form")
}

func (repo newsletterRepository) QueryForms(ctx context.Context) ([]newsletter.Form, error) {
	var rows []formRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM form ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying forms")
	}
	fs := make([]newsletter.Form, 0, len(rows))
	for _, r := range rows {
		fs = append(fs, repo.unrowForm(r))
	}
	return fs, nil
}

func (repo newsletterRepository) GetFormByID(ctx context.Context, id string) (newsletter.Form, error) {
	var r formRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM form WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return newsletter.Form{}, newsletter.ErrFormNotFound
		}
		return newsletter.Form{}, errors.Wrap(err, "fetching form")
	}
	return repo.unrowForm(r), nil
}

func (repo newsletterRepository) UpdateForm(ctx context.Context, f *newsletter.Form) error {
	f.UpdatedAt = time.Now().UTC()

	fields := f.Fields
	if len(fields) == 0 {
		fields = json.RawMessage("[]")
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE form SET title = $2, fields = $3, updated_at = $4 WHERE id = $1",
		f.ID, f.Title, fields, f.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating form")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return newsletter.ErrFormNotFound
	}
	return nil
}

func (repo newsletterRepository) DeleteForm(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM form WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting form")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return newsletter.ErrFormNotFound
	}
	return nil
}

func (repo newsletterRepository) LinkForm(ctx context.Context, newsletterID, formID string) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO newsletter_form (newsletter_id, form_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, newsletterID, formID)
	return errors.Wrap(err, "linking form")
}

func (repo newsletterRepository) UnlinkForm(ctx context.Context, newsletterID, formID string) error {
	_, err := repo.db.ExecContext(ctx,
		"DELETE FROM newsletter_form WHERE newsletter_id = $1 AND form_id = $2", newsletterID, formID)
	return errors.Wrap(err, "unlinking form")
}
