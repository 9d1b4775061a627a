package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gyermekkert/admin/core/invoice"
)

type invoiceRepository struct {
	db *invoiceTable
}

var _ invoice.Repository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(db *DB) invoice.Repository {
	return &invoiceRepository{db: db.invoice}
}

func (repo *invoiceRepository) CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inv.ID = uuid.New().String()
	repo.db.table[inv.ID] = &inv
	return inv, nil
}

func (repo *invoiceRepository) QueryInvoices(ctx context.Context, filter invoice.QueryFilter) ([]invoice.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	invs := make([]invoice.Invoice, 0, len(repo.db.table))
	for _, inv := range repo.db.table {
		if matchInvoice(*inv, filter) {
			invs = append(invs, *inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].InvoiceDate.After(invs[j].InvoiceDate) })
	return invs, nil
}

func matchInvoice(inv invoice.Invoice, filter invoice.QueryFilter) bool {
	if filter.Organization != "" && inv.Organization != filter.Organization {
		return false
	}
	if filter.Month != "" {
		if m, err := time.Parse("2006-01", filter.Month); err != nil ||
			inv.InvoiceDate.Year() != m.Year() || inv.InvoiceDate.Month() != m.Month() {
			return false
		}
	}
	if filter.Munkaszam != "" && inv.Munkaszam != filter.Munkaszam {
		return false
	}
	if filter.Category != "" && inv.Category != filter.Category {
		return false
	}
	return true
}

func (repo *invoiceRepository) GetInvoiceByID(ctx context.Context, id string) (invoice.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.table[id]; ok {
		return *inv, nil
	}
	return invoice.Invoice{}, invoice.ErrNotFound
}

func (repo *invoiceRepository) DeleteInvoice(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return invoice.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
