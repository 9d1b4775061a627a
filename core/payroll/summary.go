package payroll

// Compute aggregates records into a Summary by (IsCash, IsRental) partition.
// Ordering of records does not matter. The identifying fields (year, month,
// organization) are left zero; callers fill them in.
func Compute(records []Record, taxAmount float64) Summary {
	var s Summary
	for _, rec := range records {
		if rec.IsCash {
			s.CashCosts += rec.Amount
		} else {
			s.BankTransferCosts += rec.Amount
		}
		if rec.IsRental {
			s.RentalCosts += rec.Amount
		} else {
			s.NonRentalCosts += rec.Amount
		}
	}
	s.TaxAmount = taxAmount
	s.TotalPayroll = s.BankTransferCosts + s.CashCosts + s.TaxAmount
	s.RecordCount = len(records)
	return s
}

// TaxShare pro-rates the monthly tax total onto one record for display in
// the record detail view; it is never persisted. totalPayroll is the sum of
// all payroll line amounts for the month (bank transfer + cash, tax
// excluded). Returns 0 when totalPayroll is 0.
func TaxShare(amount, monthlyTax, totalPayroll float64) float64 {
	if totalPayroll == 0 {
		return 0
	}
	return amount * monthlyTax / totalPayroll
}
