package invoice

import (
	"time"

	"github.com/gyermekkert/admin/core"
)

// Invoice is one uploaded invoice document's metadata plus its extracted
// fields. Rows are created by the upload-processing flow and are read-only
// from the dashboard's perspective.
type Invoice struct {
	ID           string            `json:"id"`
	Organization core.Organization `json:"organization"`
	Partner      string            `json:"partner"`
	Amount       float64           `json:"amount"`
	InvoiceType  string            `json:"invoice_type"`
	Category     string            `json:"category"`
	Munkaszam    string            `json:"munkaszam"`
	InvoiceDate  time.Time         `json:"invoice_date"`
	PaymentDate  *time.Time        `json:"payment_date,omitempty"`
	FilePath     string            `json:"file_path,omitempty"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
	UpdatedAt    time.Time         `json:"updated_at"` // UTC
}

// NewInvoice contains the confirmed fields needed to register an invoice.
type NewInvoice struct {
	Organization core.Organization `json:"organization" validate:"required,organization"`
	Partner      string            `json:"partner" validate:"required"`
	Amount       float64           `json:"amount" validate:"required"`
	InvoiceType  string            `json:"invoice_type"`
	Category     string            `json:"category"`
	Munkaszam    string            `json:"munkaszam"`
	InvoiceDate  string            `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	PaymentDate  string            `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	FilePath     string            `json:"file_path"`
}

func (ni *NewInvoice) Validate(svc *Service) error {
	ni.Partner = core.CleanString(ni.Partner)
	ni.Category = core.CleanString(ni.Category)
	ni.Munkaszam = core.CleanString(ni.Munkaszam)
	return svc.validate.Struct(ni)
}

type QueryFilter struct {
	Organization core.Organization `query:"organization"`
	Month        string            `query:"month"` // yyyy-mm
	Munkaszam    string            `query:"munkaszam"`
	Category     string            `query:"category"`
}
