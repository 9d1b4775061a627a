package dummydb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/payroll"
)

type payrollRepository struct {
	db *payrollTable
}

var _ payroll.Repository = (*payrollRepository)(nil) // interface compliance check

func NewPayrollRepository(db *DB) payroll.Repository {
	return &payrollRepository{db: db.payroll}
}

func summaryKey(year, month int, org core.Organization) string {
	return fmt.Sprintf("%d-%d-%s", year, month, org)
}

func (repo *payrollRepository) SaveBatch(ctx context.Context, records []payroll.Record, summary payroll.Summary) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range records {
		rec := rec
		rec.ID = uuid.New().String()
		repo.db.records[rec.ID] = &rec
	}
	summary.ID = uuid.New().String()
	repo.upsertSummaryLocked(summary)
	return nil
}

func (repo *payrollRepository) upsertSummaryLocked(s payroll.Summary) payroll.Summary {
	key := summaryKey(s.Year, s.Month, s.Organization)
	if prev, ok := repo.db.summaries[key]; ok {
		s.ID = prev.ID
		s.CreatedAt = prev.CreatedAt
	} else if s.ID == "" {
		s.ID = uuid.New().String()
	}
	repo.db.summaries[key] = &s
	return s
}

func (repo *payrollRepository) QueryRecords(ctx context.Context, filter payroll.QueryFilter) ([]payroll.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]payroll.Record, 0)
	for _, rec := range repo.db.records {
		if matchRecord(*rec, filter) {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.Before(recs[j].Date)
		}
		return recs[i].EmployeeName < recs[j].EmployeeName
	})
	return recs, nil
}

func matchRecord(rec payroll.Record, filter payroll.QueryFilter) bool {
	if filter.Year != 0 && rec.Year() != filter.Year {
		return false
	}
	if filter.Month != 0 && int(rec.Month()) != filter.Month {
		return false
	}
	if filter.Organization != "" && rec.Organization != filter.Organization {
		return false
	}
	return true
}

func (repo *payrollRepository) GetRecordByID(ctx context.Context, id string) (payroll.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.records[id]; ok {
		return *rec, nil
	}
	return payroll.Record{}, payroll.ErrRecordNotFound
}

func (repo *payrollRepository) UpdateRecord(ctx context.Context, rec payroll.Record) (payroll.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.records[rec.ID]; !ok {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *payrollRepository) DeleteRecord(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.records[id]; !ok {
		return payroll.ErrRecordNotFound
	}
	delete(repo.db.records, id)
	return nil
}

func (repo *payrollRepository) GetSummary(ctx context.Context, year, month int, org core.Organization) (payroll.Summary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.summaries[summaryKey(year, month, org)]; ok {
		return *s, nil
	}
	return payroll.Summary{}, payroll.ErrSummaryNotFound
}

func (repo *payrollRepository) UpsertSummary(ctx context.Context, s payroll.Summary) (payroll.Summary, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	return repo.upsertSummaryLocked(s), nil
}

func (repo *payrollRepository) QuerySummaries(ctx context.Context, filter payroll.QueryFilter) ([]payroll.Summary, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sums := make([]payroll.Summary, 0)
	for _, s := range repo.db.summaries {
		if filter.Year != 0 && s.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && s.Month != filter.Month {
			continue
		}
		if filter.Organization != "" && s.Organization != filter.Organization {
			continue
		}
		sums = append(sums, *s)
	}
	sort.Slice(sums, func(i, j int) bool {
		if sums[i].Year != sums[j].Year {
			return sums[i].Year > sums[j].Year
		}
		if sums[i].Month != sums[j].Month {
			return sums[i].Month > sums[j].Month
		}
		return sums[i].Organization < sums[j].Organization
	})
	return sums, nil
}
