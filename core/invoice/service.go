package invoice

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/payroll"
)

var ErrNotFound = errors.New("invoice not found")

type (
	Repository interface {
		CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
		QueryInvoices(ctx context.Context, filter QueryFilter) ([]Invoice, error)
		GetInvoiceByID(ctx context.Context, id string) (Invoice, error)
		DeleteInvoice(ctx context.Context, id string) error
	}

	// RecognizeResult carries the stored document path plus the fields the
	// model read out of it, for user confirmation before the row is created.
	RecognizeResult struct {
		FilePath  string                 `json:"file_path,omitempty"`
		Extracted *core.ExtractedInvoice `json:"extracted"`
	}

	Service struct {
		repo        Repository
		payrollRepo payroll.Repository
		docAI       core.DocAI
		files       core.FileStore
		validate    *validator.Validate
	}
)

func NewService(repo Repository, payrollRepo payroll.Repository, docAI core.DocAI, files core.FileStore, validate *validator.Validate) *Service {
	return &Service{
		repo:        repo,
		payrollRepo: payrollRepo,
		docAI:       docAI,
		files:       files,
		validate:    validate,
	}
}

// Recognize stores the uploaded invoice document and extracts its header
// fields. Unlike the payroll wizard, a failed upload here is fatal: the file
// IS the invoice.
func (svc *Service) Recognize(ctx context.Context, filename, contentType string, data []byte) (RecognizeResult, error) {
	path, err := svc.files.Upload(ctx, core.BucketInvoices, filename, bytes.NewReader(data))
	if err != nil {
		return RecognizeResult{}, pkgerrors.Wrap(err, "uploading invoice document")
	}
	extracted, err := svc.docAI.ExtractInvoice(ctx, contentType, data)
	if err != nil {
		return RecognizeResult{}, pkgerrors.Wrap(err, "extracting invoice fields")
	}
	return RecognizeResult{FilePath: path, Extracted: extracted}, nil
}

func (svc *Service) Create(ctx context.Context, ni NewInvoice) (Invoice, error) {
	invoiceDate, err := time.Parse("2006-01-02", ni.InvoiceDate)
	if err != nil {
		return Invoice{}, core.NewValidationError(err, core.FieldError{Field: "invoice_date", Error: "invalid date"})
	}
	var paymentDate *time.Time
	if ni.PaymentDate != "" {
		pd, err := time.Parse("2006-01-02", ni.PaymentDate)
		if err != nil {
			return Invoice{}, core.NewValidationError(err, core.FieldError{Field: "payment_date", Error: "invalid date"})
		}
		paymentDate = &pd
	}

	now := time.Now().UTC()
	return svc.repo.CreateInvoice(ctx, Invoice{
		Organization: ni.Organization,
		Partner:      ni.Partner,
		Amount:       ni.Amount,
		InvoiceType:  ni.InvoiceType,
		Category:     ni.Category,
		Munkaszam:    ni.Munkaszam,
		InvoiceDate:  invoiceDate,
		PaymentDate:  paymentDate,
		FilePath:     ni.FilePath,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Invoice, error) {
	return svc.repo.QueryInvoices(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Invoice, error) {
	return svc.repo.GetInvoiceByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteInvoice(ctx, id)
}

// Dashboard fetches the full invoice and payroll row sets and derives the
// chart series client-side filters ask for.
func (svc *Service) Dashboard(ctx context.Context, f DashboardFilter) (Dashboard, error) {
	invoices, err := svc.repo.QueryInvoices(ctx, QueryFilter{})
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "fetching invoices")
	}
	records, err := svc.payrollRepo.QueryRecords(ctx, payroll.QueryFilter{})
	if err != nil {
		return Dashboard{}, pkgerrors.Wrap(err, "fetching payroll records")
	}
	return DeriveDashboard(invoices, records, f), nil
}

// FileURL returns a short-lived signed URL for an invoice's stored document.
func (svc *Service) FileURL(ctx context.Context, id string, ttl time.Duration) (string, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return "", err
	}
	if inv.FilePath == "" {
		return "", ErrNotFound
	}
	return svc.files.SignedURL(inv.FilePath, ttl)
}
