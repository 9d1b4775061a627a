package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gyermekkert/admin/core/newsletter"
)

type newsletterRepository struct {
	db *newsletterTable
}

var _ newsletter.Repository = (*newsletterRepository)(nil) // interface compliance check

func NewNewsletterRepository(db *DB) newsletter.Repository {
	return &newsletterRepository{db: db.newsletter}
}

func (repo *newsletterRepository) CreateNewsletter(ctx context.Context, n *newsletter.Newsletter) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	cp := *n
	repo.db.newsletters[n.ID] = &cp
	return nil
}

func (repo *newsletterRepository) QueryNewsletters(ctx context.Context, campus string) ([]newsletter.Newsletter, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ns := make([]newsletter.Newsletter, 0, len(repo.db.newsletters))
	for _, n := range repo.db.newsletters {
		if campus != "" && n.Campus != campus {
			continue
		}
		ns = append(ns, *n)
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i].CreatedAt.After(ns[j].CreatedAt) })
	return ns, nil
}

func (repo *newsletterRepository) GetNewsletterByID(ctx context.Context, id string) (newsletter.Newsletter, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	n, ok := repo.db.newsletters[id]
	if !ok {
		return newsletter.Newsletter{}, newsletter.ErrNotFound
	}
	out := *n
	out.FormIDs = nil
	for formID := range repo.db.links[id] {
		out.FormIDs = append(out.FormIDs, formID)
	}
	sort.Strings(out.FormIDs)
	return out, nil
}

func (repo *newsletterRepository) UpdateNewsletter(ctx context.Context, n *newsletter.Newsletter) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.newsletters[n.ID]; !ok {
		return newsletter.ErrNotFound
	}
	n.UpdatedAt = time.Now().UTC()
	cp := *n
	repo.db.newsletters[n.ID] = &cp
	return nil
}

func (repo *newsletterRepository) DeleteNewsletter(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.newsletters[id]; !ok {
		return newsletter.ErrNotFound
	}
	delete(repo.db.newsletters, id)
	delete(repo.db.links, id)
	return nil
}

func (repo *newsletterRepository) CreateForm(ctx context.Context, f *newsletter.Form) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	f.ID = uuid.New().String()
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	cp := *f
	repo.db.forms[f.ID] = &cp
	return nil
}

func (repo *newsletterRepository) QueryForms(ctx context.Context) ([]newsletter.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fs := make([]newsletter.Form, 0, len(repo.db.forms))
	for _, f := range repo.db.forms {
		fs = append(fs, *f)
	}
	sort.Slice(fs, func(i, j int) bool { return fs[i].CreatedAt.After(fs[j].CreatedAt) })
	return fs, nil
}

func (repo *newsletterRepository) GetFormByID(ctx context.Context, id string) (newsletter.Form, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.forms[id]; ok {
		return *f, nil
	}
	return newsletter.Form{}, newsletter.ErrFormNotFound
}

func (repo *newsletterRepository) UpdateForm(ctx context.Context, f *newsletter.Form) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.forms[f.ID]; !ok {
		return newsletter.ErrFormNotFound
	}
	f.UpdatedAt = time.Now().UTC()
	cp := *f
	repo.db.forms[f.ID] = &cp
	return nil
}

func (repo *newsletterRepository) DeleteForm(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.forms[id]; !ok {
		return newsletter.ErrFormNotFound
	}
	delete(repo.db.forms, id)
	for _, formIDs := range repo.db.links {
		delete(formIDs, id)
	}
	return nil
}

func (repo *newsletterRepository) LinkForm(ctx context.Context, newsletterID, formID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.links[newsletterID] == nil {
		repo.db.links[newsletterID] = make(map[string]bool)
	}
	repo.db.links[newsletterID][formID] = true
	return nil
}

func (repo *newsletterRepository) UnlinkForm(ctx context.Context, newsletterID, formID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.links[newsletterID], formID)
	return nil
}
