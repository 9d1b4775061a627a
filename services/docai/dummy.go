package docaisvc

import (
	"context"

	"github.com/gyermekkert/admin/core"
)

// DummyService returns canned results; used in tests and DEV without an API
// key. Zero value fields mean "succeed with empty result".
type DummyService struct {
	Text         string
	Invoice      *core.ExtractedInvoice
	PayrollLines []core.ExtractedPayrollLine
	CashLines    []core.ExtractedPayrollLine
	TaxAmount    float64
	ChatReply    string
	Err          error
}

var _ core.DocAI = (*DummyService)(nil)

func (svc *DummyService) ExtractText(ctx context.Context, contentType string, data []byte) (string, error) {
	return svc.Text, svc.Err
}

func (svc *DummyService) ExtractInvoice(ctx context.Context, contentType string, data []byte) (*core.ExtractedInvoice, error) {
	return svc.Invoice, svc.Err
}

func (svc *DummyService) ParsePayroll(ctx context.Context, text string) ([]core.ExtractedPayrollLine, error) {
	return svc.PayrollLines, svc.Err
}

func (svc *DummyService) ParseCashPayroll(ctx context.Context, text string) ([]core.ExtractedPayrollLine, error) {
	return svc.CashLines, svc.Err
}

func (svc *DummyService) ParseTax(ctx context.Context, text string) (float64, error) {
	return svc.TaxAmount, svc.Err
}

func (svc *DummyService) Chat(ctx context.Context, messages []core.ChatMessage) (string, error) {
	return svc.ChatReply, svc.Err
}
