package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyermekkert/admin/core"
)

func record(amount float64, isCash, isRental bool) Record {
	return Record{
		EmployeeName: "Teszt Elek",
		Amount:       amount,
		IsCash:       isCash,
		IsRental:     isRental,
		Organization: core.OrgOvoda,
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		tax     float64
		want    Summary
	}{
		{
			name: "empty set keeps tax only",
			tax:  20000,
			want: Summary{TaxAmount: 20000, TotalPayroll: 20000},
		},
		{
			name: "bank transfer only",
			records: []Record{
				record(100000, false, false),
				record(50000, false, true),
			},
			tax: 20000,
			want: Summary{
				BankTransferCosts: 150000,
				RentalCosts:       50000,
				NonRentalCosts:    100000,
				TaxAmount:         20000,
				TotalPayroll:      170000,
				RecordCount:       2,
			},
		},
		{
			name: "mixed cash and transfer",
			records: []Record{
				record(100000, false, false),
				record(40000, true, false),
				record(60000, true, true),
			},
			want: Summary{
				BankTransferCosts: 100000,
				CashCosts:         100000,
				RentalCosts:       60000,
				NonRentalCosts:    140000,
				TotalPayroll:      200000,
				RecordCount:       3,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.records, tt.tax)
			assert.Equal(t, tt.want, got)

			// partition invariants hold for any record set
			var total float64
			for _, rec := range tt.records {
				total += rec.Amount
			}
			assert.Equal(t, total+tt.tax, got.TotalPayroll)
			assert.Equal(t, total, got.RentalCosts+got.NonRentalCosts)
			assert.Equal(t, got.BankTransferCosts+got.CashCosts, got.RentalCosts+got.NonRentalCosts)
		})
	}
}

func TestTaxShare(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		monthlyTax   float64
		totalPayroll float64
		want         float64
	}{
		{name: "zero total payroll guards division", amount: 100000, monthlyTax: 20000, totalPayroll: 0, want: 0},
		{name: "zero tax", amount: 100000, monthlyTax: 0, totalPayroll: 150000, want: 0},
		{name: "pro rata split", amount: 100000, monthlyTax: 30000, totalPayroll: 150000, want: 20000},
		{name: "full share", amount: 150000, monthlyTax: 30000, totalPayroll: 150000, want: 30000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaxShare(tt.amount, tt.monthlyTax, tt.totalPayroll))
		})
	}
}
