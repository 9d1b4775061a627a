package payroll

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyermekkert/admin/core"
)

type repoStub struct {
	records   []Record
	summaries map[string]Summary
}

func newRepoStub() *repoStub {
	return &repoStub{summaries: make(map[string]Summary)}
}

func summaryKey(year, month int, org core.Organization) string {
	return fmt.Sprintf("%d-%d-%s", year, month, org)
}

func (r *repoStub) SaveBatch(ctx context.Context, records []Record, summary Summary) error {
	for i := range records {
		records[i].ID = uuid.NewString()
	}
	r.records = append(r.records, records...)
	summary.ID = uuid.NewString()
	r.summaries[summaryKey(summary.Year, summary.Month, summary.Organization)] = summary
	return nil
}

func (r *repoStub) QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if filter.Year != 0 && rec.Year() != filter.Year {
			continue
		}
		if filter.Month != 0 && int(rec.Month()) != filter.Month {
			continue
		}
		if filter.Organization != "" && rec.Organization != filter.Organization {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *repoStub) GetRecordByID(ctx context.Context, id string) (Record, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *repoStub) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	for i := range r.records {
		if r.records[i].ID == rec.ID {
			r.records[i] = rec
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (r *repoStub) DeleteRecord(ctx context.Context, id string) error {
	for i := range r.records {
		if r.records[i].ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (r *repoStub) GetSummary(ctx context.Context, year, month int, org core.Organization) (Summary, error) {
	s, ok := r.summaries[summaryKey(year, month, org)]
	if !ok {
		return Summary{}, ErrSummaryNotFound
	}
	return s, nil
}

func (r *repoStub) UpsertSummary(ctx context.Context, s Summary) (Summary, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.summaries[summaryKey(s.Year, s.Month, s.Organization)] = s
	return s, nil
}

func (r *repoStub) QuerySummaries(ctx context.Context, filter QueryFilter) ([]Summary, error) {
	var out []Summary
	for _, s := range r.summaries {
		if filter.Organization != "" && s.Organization != filter.Organization {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

var _ Repository = (*repoStub)(nil)

type fileStoreStub struct {
	uploadErr error
}

func (f *fileStoreStub) Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return bucket + "/" + filename, nil
}

func (f *fileStoreStub) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fileStoreStub) SignedURL(path string, ttl time.Duration) (string, error) { return path, nil }

func (f *fileStoreStub) VerifyToken(path string, expires int64, token string) error { return nil }

var _ core.FileStore = (*fileStoreStub)(nil)

type docAIStub struct {
	text      string
	lines     []core.ExtractedPayrollLine
	cashLines []core.ExtractedPayrollLine
	tax       float64
	err       error
}

func (d *docAIStub) ExtractText(ctx context.Context, contentType string, data []byte) (string, error) {
	return d.text, d.err
}

func (d *docAIStub) ExtractInvoice(ctx context.Context, contentType string, data []byte) (*core.ExtractedInvoice, error) {
	return nil, d.err
}

func (d *docAIStub) ParsePayroll(ctx context.Context, text string) ([]core.ExtractedPayrollLine, error) {
	return d.lines, d.err
}

func (d *docAIStub) ParseCashPayroll(ctx context.Context, text string) ([]core.ExtractedPayrollLine, error) {
	return d.cashLines, d.err
}

func (d *docAIStub) ParseTax(ctx context.Context, text string) (float64, error) {
	return d.tax, d.err
}

func (d *docAIStub) Chat(ctx context.Context, messages []core.ChatMessage) (string, error) {
	return "", d.err
}

var _ core.DocAI = (*docAIStub)(nil)

func newTestService(repo *repoStub, docAI *docAIStub, files core.FileStore) *Service {
	return NewService(
		repo,
		docAI,
		files,
		core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
		validator.New(),
	)
}

func TestService_ExtractDocument(t *testing.T) {
	ctx := context.Background()
	docAI := &docAIStub{
		text:      "átutalási lista",
		lines:     []core.ExtractedPayrollLine{{EmployeeName: "Kiss Anna", Amount: 250000}},
		cashLines: []core.ExtractedPayrollLine{{EmployeeName: "Nagy Ádám", Amount: 80000}},
	}

	t.Run("transfer", func(t *testing.T) {
		svc := newTestService(newRepoStub(), docAI, &fileStoreStub{})

		res, err := svc.ExtractDocument(ctx, KindTransfer, "berlista.pdf", "application/pdf", []byte("pdf"))
		require.NoError(t, err)
		assert.Equal(t, docAI.lines, res.Lines)
		assert.Equal(t, core.BucketPayroll+"/berlista.pdf", res.DocumentPath)
		assert.Empty(t, res.Notices)
	})

	t.Run("cash", func(t *testing.T) {
		svc := newTestService(newRepoStub(), docAI, &fileStoreStub{})

		res, err := svc.ExtractDocument(ctx, KindCash, "penztar.pdf", "application/pdf", []byte("pdf"))
		require.NoError(t, err)
		assert.Equal(t, docAI.cashLines, res.Lines)
	})

	t.Run("upload failure is non-fatal", func(t *testing.T) {
		svc := newTestService(newRepoStub(), docAI, &fileStoreStub{uploadErr: errors.New("disk full")})

		res, err := svc.ExtractDocument(ctx, KindTransfer, "berlista.pdf", "application/pdf", []byte("pdf"))
		require.NoError(t, err)
		assert.Equal(t, docAI.lines, res.Lines)
		assert.Empty(t, res.DocumentPath)
		require.Len(t, res.Notices, 1)
		assert.Equal(t, core.NoticeInfo, res.Notices[0].Level)
	})

	t.Run("extraction failure aborts", func(t *testing.T) {
		svc := newTestService(newRepoStub(), &docAIStub{err: errors.New("model unavailable")}, &fileStoreStub{})

		_, err := svc.ExtractDocument(ctx, KindTransfer, "berlista.pdf", "application/pdf", []byte("pdf"))
		require.Error(t, err)
	})
}

func TestService_ExtractTax(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newRepoStub(), &docAIStub{text: "járulék összesítő", tax: 123000}, &fileStoreStub{})

	res, err := svc.ExtractTax(ctx, "jarulek.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, float64(123000), res.Amount)
	assert.Equal(t, core.BucketPayroll+"/jarulek.pdf", res.DocumentPath)
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	svc := newTestService(repo, &docAIStub{}, &fileStoreStub{})

	summary, err := svc.Save(ctx, SaveRequest{
		Organization: core.OrgAlapitvany,
		Year:         2026,
		Month:        3,
		Records: []NewRecord{
			{EmployeeName: "Kiss Anna", Amount: 250000, Date: "2026-03-10"},
			{EmployeeName: "Nagy Ádám", Amount: 80000, Date: "2026-03-10", IsCash: true},
			{EmployeeName: "Tóth Eszter", Amount: 120000, Date: "2026-03-10", IsRental: true},
		},
		TaxAmount:     90000,
		DocumentPaths: []string{"payroll/berlista.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(370000), summary.BankTransferCosts)
	assert.Equal(t, float64(80000), summary.CashCosts)
	assert.Equal(t, float64(120000), summary.RentalCosts)
	assert.Equal(t, float64(330000), summary.NonRentalCosts)
	assert.Equal(t, float64(90000), summary.TaxAmount)
	assert.Equal(t, float64(540000), summary.TotalPayroll)
	assert.Equal(t, 3, summary.RecordCount)
	// invariants
	assert.Equal(t, summary.TotalPayroll, summary.BankTransferCosts+summary.CashCosts+summary.TaxAmount)
	assert.Equal(t, summary.RentalCosts+summary.NonRentalCosts, summary.BankTransferCosts+summary.CashCosts)

	records, err := svc.Records(ctx, QueryFilter{Year: 2026, Month: 3, Organization: core.OrgAlapitvany})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "payroll/berlista.pdf", records[0].DocumentPath)

	t.Run("bad date", func(t *testing.T) {
		_, err := svc.Save(ctx, SaveRequest{
			Organization: core.OrgAlapitvany,
			Year:         2026,
			Month:        3,
			Records:      []NewRecord{{EmployeeName: "Kiss Anna", Amount: 1, Date: "tegnap"}},
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestService_UpdateRecord_reconcilesSummary(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	svc := newTestService(repo, &docAIStub{}, &fileStoreStub{})

	_, err := svc.Save(ctx, SaveRequest{
		Organization: core.OrgOvoda,
		Year:         2026,
		Month:        4,
		Records: []NewRecord{
			{EmployeeName: "Kiss Anna", Amount: 100000, Date: "2026-04-10"},
			{EmployeeName: "Nagy Ádám", Amount: 50000, Date: "2026-04-10", IsCash: true},
		},
		TaxAmount: 30000,
	})
	require.NoError(t, err)

	id := repo.records[0].ID
	rec, err := svc.UpdateRecord(ctx, id, UpdateRecord{Amount: 150000})
	require.NoError(t, err)
	assert.Equal(t, float64(150000), rec.Amount)

	summary, err := repo.GetSummary(ctx, 2026, 4, core.OrgOvoda)
	require.NoError(t, err)
	assert.Equal(t, float64(150000), summary.BankTransferCosts)
	assert.Equal(t, float64(50000), summary.CashCosts)
	assert.Equal(t, float64(30000), summary.TaxAmount) // tax untouched
	assert.Equal(t, float64(230000), summary.TotalPayroll)
}

func TestService_DeleteRecord_reconcilesSummary(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	svc := newTestService(repo, &docAIStub{}, &fileStoreStub{})

	_, err := svc.Save(ctx, SaveRequest{
		Organization: core.OrgAlapitvany,
		Year:         2026,
		Month:        5,
		Records: []NewRecord{
			{EmployeeName: "Kiss Anna", Amount: 100000, Date: "2026-05-10"},
		},
		TaxAmount: 20000,
	})
	require.NoError(t, err)

	rec := repo.records[0]
	require.NoError(t, svc.DeleteRecord(ctx, rec.ID))

	// the summary survives with zero costs and the retained tax amount
	summary, err := repo.GetSummary(ctx, 2026, 5, core.OrgAlapitvany)
	require.NoError(t, err)
	assert.Equal(t, float64(0), summary.BankTransferCosts)
	assert.Equal(t, float64(0), summary.CashCosts)
	assert.Equal(t, float64(20000), summary.TaxAmount)
	assert.Equal(t, float64(20000), summary.TotalPayroll)
	assert.Equal(t, 0, summary.RecordCount)

	// reconciling again with nothing changed leaves the summary as is
	require.NoError(t, svc.ReconcileAfterRecordDelete(ctx, rec))
	again, err := repo.GetSummary(ctx, 2026, 5, core.OrgAlapitvany)
	require.NoError(t, err)
	again.UpdatedAt = summary.UpdatedAt
	assert.Equal(t, summary, again)

	assert.Equal(t, ErrRecordNotFound, errors.Cause(svc.DeleteRecord(ctx, "nope")))
}

func TestService_RecordTaxShare(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	svc := newTestService(repo, &docAIStub{}, &fileStoreStub{})

	_, err := svc.Save(ctx, SaveRequest{
		Organization: core.OrgAlapitvany,
		Year:         2026,
		Month:        6,
		Records: []NewRecord{
			{EmployeeName: "Kiss Anna", Amount: 75000, Date: "2026-06-10"},
			{EmployeeName: "Nagy Ádám", Amount: 25000, Date: "2026-06-10"},
		},
		TaxAmount: 40000,
	})
	require.NoError(t, err)

	share, err := svc.RecordTaxShare(ctx, repo.records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, float64(30000), share) // 75k/100k of 40k

	t.Run("no summary", func(t *testing.T) {
		repo.records = append(repo.records, Record{
			ID:           "orphan",
			EmployeeName: "Régi",
			Amount:       1000,
			Date:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Organization: core.OrgAlapitvany,
		})
		share, err := svc.RecordTaxShare(ctx, "orphan")
		require.NoError(t, err)
		assert.Equal(t, float64(0), share)
	})
}
