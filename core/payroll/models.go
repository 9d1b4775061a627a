package payroll

import (
	"time"

	"github.com/gyermekkert/admin/core"
)

// Record is one employee/payment line of a monthly payroll.
type Record struct {
	ID           string            `json:"id"`
	EmployeeName string            `json:"employee_name"`
	Munkaszam    string            `json:"munkaszam"`
	Amount       float64           `json:"amount"`
	Date         time.Time         `json:"date"`
	IsRental     bool              `json:"is_rental"`
	IsCash       bool              `json:"is_cash"`
	Organization core.Organization `json:"organization"`
	DocumentPath string            `json:"document_path,omitempty"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
	UpdatedAt    time.Time         `json:"updated_at"` // UTC
}

func (r Record) Year() int         { return r.Date.Year() }
func (r Record) Month() time.Month { return r.Date.Month() }

// Summary aggregates one (year, month, organization) worth of records.
// Invariants:
//
//	TotalPayroll == BankTransferCosts + CashCosts + TaxAmount
//	RentalCosts + NonRentalCosts == BankTransferCosts + CashCosts
type Summary struct {
	ID                string            `json:"id"`
	Year              int               `json:"year"`
	Month             int               `json:"month"`
	Organization      core.Organization `json:"organization"`
	BankTransferCosts float64           `json:"bank_transfer_costs"`
	CashCosts         float64           `json:"cash_costs"`
	RentalCosts       float64           `json:"rental_costs"`
	NonRentalCosts    float64           `json:"non_rental_costs"`
	TaxAmount         float64           `json:"tax_amount"`
	TotalPayroll      float64           `json:"total_payroll"`
	RecordCount       int               `json:"record_count"`
	DocumentPaths     []string          `json:"document_paths,omitempty"`
	CreatedAt         time.Time         `json:"created_at"` // UTC
	UpdatedAt         time.Time         `json:"updated_at"` // UTC
}

// NewRecord is one line of a save request, as confirmed by the user after
// extraction.
type NewRecord struct {
	EmployeeName string  `json:"employee_name" validate:"required"`
	Munkaszam    string  `json:"munkaszam"`
	Amount       float64 `json:"amount" validate:"required"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	IsRental     bool    `json:"is_rental"`
	IsCash       bool    `json:"is_cash"`
}

// SaveRequest persists one wizard run: the confirmed records plus the
// optional monthly tax total.
type SaveRequest struct {
	Organization  core.Organization `json:"organization" validate:"required,organization"`
	Year          int               `json:"year" validate:"required,min=2000,max=2100"`
	Month         int               `json:"month" validate:"required,min=1,max=12"`
	Records       []NewRecord       `json:"records" validate:"required,min=1,dive"`
	TaxAmount     float64           `json:"tax_amount"`
	DocumentPaths []string          `json:"document_paths"`
}

func (sr *SaveRequest) Validate(svc *Service) error {
	for i := range sr.Records {
		sr.Records[i].EmployeeName = core.CleanString(sr.Records[i].EmployeeName)
		sr.Records[i].Munkaszam = core.CleanString(sr.Records[i].Munkaszam)
	}
	return svc.validate.Struct(sr)
}

// UpdateRecord defines what may be modified on an existing Record.
type UpdateRecord struct {
	EmployeeName string  `json:"employee_name"`
	Munkaszam    string  `json:"munkaszam"`
	Amount       float64 `json:"amount"`
	IsRental     *bool   `json:"is_rental"`
	IsCash       *bool   `json:"is_cash"`
}

type QueryFilter struct {
	Year         int               `query:"year"`
	Month        int               `query:"month"`
	Organization core.Organization `query:"organization"`
}
