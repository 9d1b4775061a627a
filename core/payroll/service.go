package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
)

var (
	// errors
	ErrRecordNotFound  = errors.New("payroll record not found")
	ErrSummaryNotFound = errors.New("payroll summary not found")
)

// Extraction kinds for the wizard's document steps.
const (
	KindTransfer = "transfer"
	KindCash     = "cash"
)

type (
	Repository interface {
		// SaveBatch inserts records and upserts the summary in one transaction;
		// nothing is committed if any statement fails.
		SaveBatch(ctx context.Context, records []Record, summary Summary) error
		QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, id string) error
		GetSummary(ctx context.Context, year, month int, org core.Organization) (Summary, error)
		// UpsertSummary is keyed on (year, month, organization); last writer wins.
		UpsertSummary(ctx context.Context, s Summary) (Summary, error)
		QuerySummaries(ctx context.Context, filter QueryFilter) ([]Summary, error)
	}

	// ExtractResult is the outcome of one wizard extraction step.
	ExtractResult struct {
		Lines        []core.ExtractedPayrollLine `json:"lines"`
		DocumentPath string                      `json:"document_path,omitempty"`
		Notices      []core.Notice               `json:"notices,omitempty"`
	}

	// TaxResult is the outcome of the tax extraction sub-step.
	TaxResult struct {
		Amount       float64       `json:"amount"`
		DocumentPath string        `json:"document_path,omitempty"`
		Notices      []core.Notice `json:"notices,omitempty"`
	}

	Service struct {
		repo     Repository
		docAI    core.DocAI
		files    core.FileStore
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(repo Repository, docAI core.DocAI, files core.FileStore, logger core.Logger, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		docAI:    docAI,
		files:    files,
		logger:   logger,
		validate: validate,
	}
}

// uploadDocument stores the source document. Upload failure is non-fatal:
// the wizard proceeds without a file link and the caller receives an info
// notice instead.
func (svc *Service) uploadDocument(ctx context.Context, filename string, data []byte) (string, []core.Notice) {
	path, err := svc.files.Upload(ctx, core.BucketPayroll, filename, bytes.NewReader(data))
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("uploading payroll document %s: %v", filename, err))
		return "", []core.Notice{core.InfoNotice("a dokumentum mentése nem sikerült; a tételek fájl hivatkozás nélkül kerülnek mentésre")}
	}
	return path, nil
}

// ExtractDocument runs one wizard step: store the uploaded document, pull its
// text and parse structured payment lines out of it. Any extraction failure
// aborts the step; no records are committed.
func (svc *Service) ExtractDocument(ctx context.Context, kind, filename, contentType string, data []byte) (ExtractResult, error) {
	var res ExtractResult
	res.DocumentPath, res.Notices = svc.uploadDocument(ctx, filename, data)

	text, err := svc.docAI.ExtractText(ctx, contentType, data)
	if err != nil {
		return ExtractResult{}, pkgerrors.Wrap(err, "extracting document text")
	}

	switch kind {
	case KindCash:
		res.Lines, err = svc.docAI.ParseCashPayroll(ctx, text)
	default:
		res.Lines, err = svc.docAI.ParsePayroll(ctx, text)
	}
	if err != nil {
		return ExtractResult{}, pkgerrors.Wrap(err, "parsing payroll lines")
	}
	return res, nil
}

// ExtractTax pulls the monthly tax total out of an uploaded tax document.
func (svc *Service) ExtractTax(ctx context.Context, filename, contentType string, data []byte) (TaxResult, error) {
	var res TaxResult
	res.DocumentPath, res.Notices = svc.uploadDocument(ctx, filename, data)

	text, err := svc.docAI.ExtractText(ctx, contentType, data)
	if err != nil {
		return TaxResult{}, pkgerrors.Wrap(err, "extracting document text")
	}
	res.Amount, err = svc.docAI.ParseTax(ctx, text)
	if err != nil {
		return TaxResult{}, pkgerrors.Wrap(err, "parsing tax amount")
	}
	return res, nil
}

// Save persists one wizard run: the confirmed records plus the recomputed
// monthly summary, in a single transaction.
func (svc *Service) Save(ctx context.Context, req SaveRequest) (Summary, error) {
	now := time.Now().UTC()
	records := make([]Record, 0, len(req.Records))
	for _, nr := range req.Records {
		date, err := time.Parse("2006-01-02", nr.Date)
		if err != nil {
			return Summary{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
		}
		records = append(records, Record{
			EmployeeName: nr.EmployeeName,
			Munkaszam:    nr.Munkaszam,
			Amount:       nr.Amount,
			Date:         date,
			IsRental:     nr.IsRental,
			IsCash:       nr.IsCash,
			Organization: req.Organization,
			DocumentPath: firstOrEmpty(req.DocumentPaths),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	summary := Compute(records, req.TaxAmount)
	summary.Year = req.Year
	summary.Month = req.Month
	summary.Organization = req.Organization
	summary.DocumentPaths = req.DocumentPaths
	summary.UpdatedAt = now

	if err := svc.repo.SaveBatch(ctx, records, summary); err != nil {
		return Summary{}, pkgerrors.Wrap(err, "saving payroll batch")
	}
	return summary, nil
}

func (svc *Service) Records(ctx context.Context, filter QueryFilter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}

func (svc *Service) RecordByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *Service) Summaries(ctx context.Context, filter QueryFilter) ([]Summary, error) {
	return svc.repo.QuerySummaries(ctx, filter)
}

// UpdateRecord edits a record and reconciles its month's summary.
func (svc *Service) UpdateRecord(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	if name := core.CleanString(ur.EmployeeName); name != "" {
		rec.EmployeeName = name
	}
	if msz := core.CleanString(ur.Munkaszam); msz != "" {
		rec.Munkaszam = msz
	}
	if ur.Amount != 0 {
		rec.Amount = ur.Amount
	}
	if ur.IsRental != nil {
		rec.IsRental = *ur.IsRental
	}
	if ur.IsCash != nil {
		rec.IsCash = *ur.IsCash
	}
	rec.UpdatedAt = time.Now().UTC()

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, pkgerrors.Wrap(err, "updating payroll record")
	}
	if err = svc.reconcileMonth(ctx, rec.Organization, rec.Year(), int(rec.Month())); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// DeleteRecord removes a record and reconciles its month's summary from the
// remaining records.
func (svc *Service) DeleteRecord(ctx context.Context, id string) error {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteRecord(ctx, id); err != nil {
		return pkgerrors.Wrap(err, "deleting payroll record")
	}
	return svc.ReconcileAfterRecordDelete(ctx, rec)
}

// ReconcileAfterRecordDelete recomputes the deleted record's monthly summary
// from the remaining records. The stored tax amount is preserved: tax is
// independent of individual payroll lines. With zero records remaining the
// summary keeps existing with zero costs and the retained tax amount.
// Idempotent: calling it again with no further mutation yields the same
// summary.
func (svc *Service) ReconcileAfterRecordDelete(ctx context.Context, rec Record) error {
	return svc.reconcileMonth(ctx, rec.Organization, rec.Year(), int(rec.Month()))
}

func (svc *Service) reconcileMonth(ctx context.Context, org core.Organization, year, month int) error {
	prev, err := svc.repo.GetSummary(ctx, year, month, org)
	if err != nil {
		if err == ErrSummaryNotFound {
			// nothing to reconcile
			return nil
		}
		return pkgerrors.Wrap(err, "fetching summary")
	}

	records, err := svc.repo.QueryRecords(ctx, QueryFilter{Year: year, Month: month, Organization: org})
	if err != nil {
		return pkgerrors.Wrap(err, "fetching remaining records")
	}

	summary := Compute(records, prev.TaxAmount)
	summary.Year = year
	summary.Month = month
	summary.Organization = org
	summary.DocumentPaths = prev.DocumentPaths
	summary.UpdatedAt = time.Now().UTC()

	if _, err = svc.repo.UpsertSummary(ctx, summary); err != nil {
		return pkgerrors.Wrap(err, "upserting summary")
	}
	return nil
}

// RecordTaxShare returns the display-only pro-rata tax allocation for one
// record. Returns 0 when the month has no summary or no payroll total.
func (svc *Service) RecordTaxShare(ctx context.Context, id string) (float64, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return 0, err
	}
	summary, err := svc.repo.GetSummary(ctx, rec.Year(), int(rec.Month()), rec.Organization)
	if err != nil {
		if err == ErrSummaryNotFound {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(err, "fetching summary")
	}
	return TaxShare(rec.Amount, summary.TaxAmount, summary.BankTransferCosts+summary.CashCosts), nil
}

func firstOrEmpty(paths []string) string {
	if len(paths) > 0 {
		return paths[0]
	}
	return ""
}
