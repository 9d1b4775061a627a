package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/payroll"
)

type payrollRepository struct {
	db *sqlx.DB
}

var _ payroll.Repository = (*payrollRepository)(nil) // interface compliance check

func NewPayrollRepository(db *sqlx.DB) *payrollRepository {
	return &payrollRepository{db: db}
}

type payrollRecordRow struct {
	ID           string    `db:"id"`
	EmployeeName string    `db:"employee_name"`
	Munkaszam    string    `db:"munkaszam"`
	Amount       float64   `db:"amount"`
	Date         time.Time `db:"date"`
	IsRental     bool      `db:"is_rental"`
	IsCash       bool      `db:"is_cash"`
	Organization string    `db:"organization"`
	DocumentPath string    `db:"document_path"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
}

type payrollSummaryRow struct {
	ID                string         `db:"id"`
	Year              int            `db:"year"`
	Month             int            `db:"month"`
	Organization      string         `db:"organization"`
	BankTransferCosts float64        `db:"bank_transfer_costs"`
	CashCosts         float64        `db:"cash_costs"`
	RentalCosts       float64        `db:"rental_costs"`
	NonRentalCosts    float64        `db:"non_rental_costs"`
	TaxAmount         float64        `db:"tax_amount"`
	TotalPayroll      float64        `db:"total_payroll"`
	RecordCount       int            `db:"record_count"`
	DocumentPaths     pq.StringArray `db:"document_paths"`
	CreatedAt         null.Time      `db:"created_at"`
	UpdatedAt         null.Time      `db:"updated_at"`
}

func (repo payrollRepository) recordRow(rec payroll.Record) payrollRecordRow {
	return payrollRecordRow{
		ID:           rec.ID,
		EmployeeName: rec.EmployeeName,
		Munkaszam:    rec.Munkaszam,
		Amount:       rec.Amount,
		Date:         rec.Date,
		IsRental:     rec.IsRental,
		IsCash:       rec.IsCash,
		Organization: string(rec.Organization),
		DocumentPath: rec.DocumentPath,
		CreatedAt:    null.NewTime(rec.CreatedAt.UTC(), !rec.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}
}

func (repo payrollRepository) unrowRecord(r payrollRecordRow) payroll.Record {
	return payroll.Record{
		ID:           r.ID,
		EmployeeName: r.EmployeeName,
		Munkaszam:    r.Munkaszam,
		Amount:       r.Amount,
		Date:         r.Date,
		IsRental:     r.IsRental,
		IsCash:       r.IsCash,
		Organization: core.Organization(r.Organization),
		DocumentPath: r.DocumentPath,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func (repo payrollRepository) summaryRow(s payroll.Summary) payrollSummaryRow {
	return payrollSummaryRow{
		ID:                s.ID,
		Year:              s.Year,
		Month:             s.Month,
		Organization:      string(s.Organization),
		BankTransferCosts: s.BankTransferCosts,
		CashCosts:         s.CashCosts,
		RentalCosts:       s.RentalCosts,
		NonRentalCosts:    s.NonRentalCosts,
		TaxAmount:         s.TaxAmount,
		TotalPayroll:      s.TotalPayroll,
		RecordCount:       s.RecordCount,
		DocumentPaths:     s.DocumentPaths,
		CreatedAt:         null.NewTime(s.CreatedAt.UTC(), !s.CreatedAt.IsZero()),
		UpdatedAt:         null.NewTime(s.UpdatedAt.UTC(), !s.UpdatedAt.IsZero()),
	}
}

func (repo payrollRepository) unrowSummary(r payrollSummaryRow) payroll.Summary {
	return payroll.Summary{
		ID:                r.ID,
		Year:              r.Year,
		Month:             r.Month,
		Organization:      core.Organization(r.Organization),
		BankTransferCosts: r.BankTransferCosts,
		CashCosts:         r.CashCosts,
		RentalCosts:       r.RentalCosts,
		NonRentalCosts:    r.NonRentalCosts,
		TaxAmount:         r.TaxAmount,
		TotalPayroll:      r.TotalPayroll,
		RecordCount:       r.RecordCount,
		DocumentPaths:     r.DocumentPaths,
		CreatedAt:         r.CreatedAt.Time,
		UpdatedAt:         r.UpdatedAt.Time,
	}
}

const insertPayrollRecord = `
	INSERT INTO payroll_record (id, employee_name, munkaszam, amount, date, is_rental, is_cash, organization, document_path, created_at, updated_at)
	VALUES (:id, :employee_name, :munkaszam, :amount, :date, :is_rental, :is_cash, :organization, :document_path, :created_at, :updated_at)`

const upsertPayrollSummary = `
	INSERT INTO payroll_summary (id, year, month, organization, bank_transfer_costs, cash_costs, rental_costs, non_rental_costs, tax_amount, total_payroll, record_count, document_paths, created_at, updated_at)
	VALUES (:id, :year, :month, :organization, :bank_transfer_costs, :cash_costs, :rental_costs, :non_rental_costs, :tax_amount, :total_payroll, :record_count, :document_paths, :created_at, :updated_at)
	ON CONFLICT (year, month, organization) DO UPDATE SET
		bank_transfer_costs = EXCLUDED.bank_transfer_costs,
		cash_costs = EXCLUDED.cash_costs,
		rental_costs = EXCLUDED.rental_costs,
		non_rental_costs = EXCLUDED.non_rental_costs,
		tax_amount = EXCLUDED.tax_amount,
		total_payroll = EXCLUDED.total_payroll,
		record_count = EXCLUDED.record_count,
		document_paths = EXCLUDED.document_paths,
		updated_at = EXCLUDED.updated_at`

func (repo payrollRepository) SaveBatch(ctx context.Context, records []payroll.Record, summary payroll.Summary) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		rec.ID = uuid.New().String()
		if _, err = tx.NamedExecContext(ctx, insertPayrollRecord, repo.recordRow(rec)); err != nil {
			return errors.Wrap(err, "inserting payroll record")
		}
	}

	summary.ID = uuid.New().String()
	if _, err = tx.NamedExecContext(ctx, upsertPayrollSummary, repo.summaryRow(summary)); err != nil {
		return errors.Wrap(err, "upserting payroll summary")
	}
	return errors.Wrap(tx.Commit(), "committing payroll batch")
}

func (repo payrollRepository) QueryRecords(ctx context.Context, filter payroll.QueryFilter) ([]payroll.Record, error) {
	var (
		conds []string
		args  argList
	)
	arg := args.add

	if filter.Year != 0 {
		conds = append(conds, "EXTRACT(YEAR FROM date) = "+arg(filter.Year))
	}
	if filter.Month != 0 {
		conds = append(conds, "EXTRACT(MONTH FROM date) = "+arg(filter.Month))
	}
	if filter.Organization != "" {
		conds = append(conds, "organization = "+arg(string(filter.Organization)))
	}

	q := "SELECT * FROM payroll_record"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date, employee_name"

	var rows []payrollRecordRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payroll records")
	}
	recs := make([]payroll.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, repo.unrowRecord(r))
	}
	return recs, nil
}

func (repo payrollRepository) GetRecordByID(ctx context.Context, id string) (payroll.Record, error) {
	var r payrollRecordRow
	if err := repo.db.GetContext(ctx, &r, "SELECT * FROM payroll_record WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, errors.Wrap(err, "fetching payroll record")
	}
	return repo.unrowRecord(r), nil
}

func (repo payrollRepository) UpdateRecord(ctx context.Context, rec payroll.Record) (payroll.Record, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE payroll_record SET employee_name = :employee_name, munkaszam = :munkaszam, amount = :amount,
			is_rental = :is_rental, is_cash = :is_cash, updated_at = :updated_at
		WHERE id = :id`, repo.recordRow(rec))
	if err != nil {
		return payroll.Record{}, errors.Wrap(err, "updating payroll record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return rec, nil
}

func (repo payrollRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM payroll_record WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting payroll record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrRecordNotFound
	}
	return nil
}

func (repo payrollRepository) GetSummary(ctx context.Context, year, month int, org core.Organization) (payroll.Summary, error) {
	var r payrollSummaryRow
	err := repo.db.GetContext(ctx, &r,
		"SELECT * FROM payroll_summary WHERE year = $1 AND month = $2 AND organization = $3", year, month, string(org))
	if err != nil {
		if err == sql.ErrNoRows {
			return payroll.Summary{}, payroll.ErrSummaryNotFound
		}
		return payroll.Summary{}, errors.Wrap(err, "fetching payroll summary")
	}
	return repo.unrowSummary(r), nil
}

func (repo payrollRepository) UpsertSummary(ctx context.Context, s payroll.Summary) (payroll.Summary, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if _, err := repo.db.NamedExecContext(ctx, upsertPayrollSummary, repo.summaryRow(s)); err != nil {
		return payroll.Summary{}, errors.Wrap(err, "upserting payroll summary")
	}
	return repo.GetSummary(ctx, s.Year, s.Month, s.Organization)
}

func (repo payrollRepository) QuerySummaries(ctx context.Context, filter payroll.QueryFilter) ([]payroll.Summary, error) {
	var (
		conds []string
		args  argList
	)
	arg := args.add

	if filter.Year != 0 {
		conds = append(conds, "year = "+arg(filter.Year))
	}
	if filter.Month != 0 {
		conds = append(conds, "month = "+arg(filter.Month))
	}
	if filter.Organization != "" {
		conds = append(conds, "organization = "+arg(string(filter.Organization)))
	}

	q := "SELECT * FROM payroll_summary"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY year DESC, month DESC, organization"

	var rows []payrollSummaryRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payroll summaries")
	}
	sums := make([]payroll.Summary, 0, len(rows))
	for _, r := range rows {
		sums = append(sums, repo.unrowSummary(r))
	}
	return sums, nil
}
