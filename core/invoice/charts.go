package invoice

import (
	"fmt"
	"sort"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/payroll"
)

// ChartPoint is one slice/bar of a dashboard chart.
type ChartPoint struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Amount float64 `json:"amount"`
	Color  string  `json:"color"`
}

// Dashboard carries all chart series the manager dashboard renders. Every
// series is re-derived from the full row set on each call; there is no
// incremental recomputation.
type Dashboard struct {
	InvoicesByMonth     []ChartPoint `json:"invoices_by_month"`
	InvoicesByCategory  []ChartPoint `json:"invoices_by_category"`
	InvoicesByMunkaszam []ChartPoint `json:"invoices_by_munkaszam"`
	PayrollByMonth      []ChartPoint `json:"payroll_by_month"`
	TotalInvoiced       float64      `json:"total_invoiced"`
	TotalPayroll        float64      `json:"total_payroll"`
}

// DashboardFilter narrows the rows feeding the chart series. Zero values
// mean "no filtering" for that dimension. Rental ("rental"|"non-rental")
// only applies to payroll rows.
type DashboardFilter struct {
	Organization core.Organization `query:"organization"`
	Month        string            `query:"month"` // yyyy-mm
	Munkaszam    string            `query:"munkaszam"`
	Rental       string            `query:"rental"`
}

var chartPalette = []string{
	"#4f6bed", "#e8618c", "#f2a33c", "#39b37a", "#8b5cf6", "#2aa7c4", "#d95f49", "#7a869a",
}

func paletteColor(i int) string { return chartPalette[i%len(chartPalette)] }

func (f DashboardFilter) matchInvoice(inv Invoice) bool {
	if f.Organization != "" && inv.Organization != f.Organization {
		return false
	}
	if f.Month != "" && inv.InvoiceDate.Format("2006-01") != f.Month {
		return false
	}
	if f.Munkaszam != "" && inv.Munkaszam != f.Munkaszam {
		return false
	}
	return true
}

func (f DashboardFilter) matchRecord(rec payroll.Record) bool {
	if f.Organization != "" && rec.Organization != f.Organization {
		return false
	}
	if f.Month != "" && rec.Date.Format("2006-01") != f.Month {
		return false
	}
	if f.Munkaszam != "" && rec.Munkaszam != f.Munkaszam {
		return false
	}
	switch f.Rental {
	case "rental":
		return rec.IsRental
	case "non-rental":
		return !rec.IsRental
	}
	return true
}

// groupSum folds labeled amounts into sorted chart points with stable colors.
func groupSum(sums map[string]float64, counts map[string]int) []ChartPoint {
	labels := make([]string, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	points := make([]ChartPoint, 0, len(labels))
	for i, label := range labels {
		points = append(points, ChartPoint{
			Label:  label,
			Value:  float64(counts[label]),
			Amount: sums[label],
			Color:  paletteColor(i),
		})
	}
	return points
}

// DeriveDashboard is a pure transform of the full invoice/payroll row sets
// into chart series.
func DeriveDashboard(invoices []Invoice, records []payroll.Record, f DashboardFilter) Dashboard {
	var d Dashboard

	byMonth := make(map[string]float64)
	byMonthN := make(map[string]int)
	byCategory := make(map[string]float64)
	byCategoryN := make(map[string]int)
	byMunkaszam := make(map[string]float64)
	byMunkaszamN := make(map[string]int)

	for _, inv := range invoices {
		if !f.matchInvoice(inv) {
			continue
		}
		d.TotalInvoiced += inv.Amount

		month := inv.InvoiceDate.Format("2006-01")
		byMonth[month] += inv.Amount
		byMonthN[month]++

		category := inv.Category
		if category == "" {
			category = "egyéb"
		}
		byCategory[category] += inv.Amount
		byCategoryN[category]++

		if inv.Munkaszam != "" {
			byMunkaszam[inv.Munkaszam] += inv.Amount
			byMunkaszamN[inv.Munkaszam]++
		}
	}

	payrollByMonth := make(map[string]float64)
	payrollByMonthN := make(map[string]int)
	for _, rec := range records {
		if !f.matchRecord(rec) {
			continue
		}
		d.TotalPayroll += rec.Amount
		month := fmt.Sprintf("%04d-%02d", rec.Year(), int(rec.Month()))
		payrollByMonth[month] += rec.Amount
		payrollByMonthN[month]++
	}

	d.InvoicesByMonth = groupSum(byMonth, byMonthN)
	d.InvoicesByCategory = groupSum(byCategory, byCategoryN)
	d.InvoicesByMunkaszam = groupSum(byMunkaszam, byMunkaszamN)
	d.PayrollByMonth = groupSum(payrollByMonth, payrollByMonthN)
	return d
}
