package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/invoice"
)

type invoiceRepository struct {
	db *sqlx.DB
}

var _ invoice.Repository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(db *sqlx.DB) *invoiceRepository {
	return &invoiceRepository{db: db}
}

type invoiceRow struct {
	ID           string    `db:"id"`
	Organization string    `db:"organization"`
	Partner      string    `db:"partner"`
	Amount       float64   `db:"amount"`
	InvoiceType  string    `db:"invoice_type"`
	Category     string    `db:"category"`
	Munkaszam    string    `db:"munkaszam"`
	InvoiceDate  time.Time `db:"invoice_date"`
	PaymentDate  null.Time `db:"payment_date"`
	FilePath     string    `db:"file_path"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
}

func (repo invoiceRepository) row(inv invoice.Invoice) invoiceRow {
	r := invoiceRow{
		ID:           inv.ID,
		Organization: string(inv.Organization),
		Partner:      inv.Partner,
		Amount:       inv.Amount,
		InvoiceType:  inv.InvoiceType,
		Category:     inv.Category,
		Munkaszam:    inv.Munkaszam,
		InvoiceDate:  inv.InvoiceDate,
		FilePath:     inv.FilePath,
		CreatedAt:    null.NewTime(inv.CreatedAt.UTC(), !inv.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(inv.UpdatedAt.UTC(), !inv.UpdatedAt.IsZero()),
	}
	if inv.PaymentDate != nil {
		r.PaymentDate = null.TimeFrom(*inv.PaymentDate)
	}
	return r
}

func (repo invoiceRepository) unrow(r invoiceRow) invoice.Invoice {
	return invoice.Invoice{
		ID:           r.ID,
		Organization: core.Organization(r.Organization),
		Partner:      r.Partner,
		Amount:       r.Amount,
		InvoiceType:  r.InvoiceType,
		Category:     r.Category,
		Munkaszam:    r.Munkaszam,
		InvoiceDate:  r.InvoiceDate,
		PaymentDate:  r.PaymentDate.Ptr(),
		FilePath:     r.FilePath,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func (repo invoiceRepository) CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	inv.ID = uuid.New().String()
	r := repo.row(inv)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO invoice (id, organization, partner, amount, invoice_type, category, munkaszam, invoice_date, payment_date, file_path, created_at, updated_at)
		VALUES (:id, :organization, :partner, :amount, :invoice_type, :category, :munkaszam, :invoice_date, :payment_date, :file_path, :created_at, :updated_at)`, r)
	if err != nil {
		return invoice.Invoice{}, errors.Wrap(err, "inserting invoice")
	}
	return repo.unrow(r), nil
}

func (repo invoiceRepository) QueryInvoices(ctx context.Context, filter invoice.QueryFilter) ([]invoice.Invoice, error) {
	var (
		conds []string
		args  argList
	)
	arg := args.add

	if filter.Organization != "" {
		conds = append(conds, "organization = "+arg(string(filter.Organization)))
	}
	if filter.Month != "" {
		// yyyy-mm
		conds = append(conds, "TO_CHAR(invoice_date, 'YYYY-MM') = "+arg(filter.Month))
	}
	if filter.Munkaszam != "" {
		conds = append(conds, "munkaszam = "+arg(filter.Munkaszam))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}

	q := "SELECT * FROM invoice"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY invoice_date DESC, created_at DESC"

	var rows []invoiceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying invoices")
	}
	invs := make([]invoice.Invoice, 0, len(rows))
	for _, r := range rows {
		invs = append(invs, repo.unrow(r))
	}
	return invs, nil
}

func (repo invoiceRepository) GetInvoiceByID(ctx context.Context, id string) (invoice.Invoice, error) {
	var r invoiceRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM invoice WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return invoice.Invoice{}, invoice.ErrNotFound
		}
		return invoice.Invoice{}, errors.Wrap(err, "fetching invoice")
	}
	return repo.unrow(r), nil
}

func (repo invoiceRepository) DeleteInvoice(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM invoice WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting invoice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return invoice.ErrNotFound
	}
	return nil
}
