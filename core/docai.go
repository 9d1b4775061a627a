package core

import "context"

type (
	// ExtractedInvoice is the structured result of recognizing an uploaded
	// invoice document.
	ExtractedInvoice struct {
		Partner      string       `json:"partner"`
		Organization Organization `json:"organization"`
		InvoiceType  string       `json:"invoice_type"`
		Category     string       `json:"category"`
		Munkaszam    string       `json:"munkaszam"`
		Amount       float64      `json:"amount,string"`
		InvoiceDate  string       `json:"invoice_date"` // yyyy-mm-dd
		PaymentDate  string       `json:"payment_date"` // yyyy-mm-dd, optional
	}

	// ExtractedPayrollLine is one employee/payment line recognized in a
	// payroll document.
	ExtractedPayrollLine struct {
		EmployeeName string  `json:"employee_name"`
		Munkaszam    string  `json:"munkaszam"`
		Amount       float64 `json:"amount"`
		Date         string  `json:"date"` // yyyy-mm-dd
		IsRental     bool    `json:"is_rental"`
	}

	ChatMessage struct {
		Role    string `json:"role"` // "user" | "assistant"
		Content string `json:"content"`
	}

	// DocAI is any service that can turn uploaded documents into structured
	// records and answer assistant chat turns. The production implementation
	// calls the Gemini API; tests use a canned dummy.
	DocAI interface {
		// ExtractText returns the raw text content of a document.
		ExtractText(ctx context.Context, contentType string, data []byte) (string, error)
		// ExtractInvoice recognizes invoice header fields in a document.
		ExtractInvoice(ctx context.Context, contentType string, data []byte) (*ExtractedInvoice, error)
		// ParsePayroll recognizes bank-transfer payroll lines in extracted text.
		ParsePayroll(ctx context.Context, text string) ([]ExtractedPayrollLine, error)
		// ParseCashPayroll recognizes cash payment lines in extracted text.
		ParseCashPayroll(ctx context.Context, text string) ([]ExtractedPayrollLine, error)
		// ParseTax recognizes the monthly tax total in extracted text.
		ParseTax(ctx context.Context, text string) (float64, error)
		Chat(ctx context.Context, messages []ChatMessage) (string, error)
	}
)
