package feeseries

import "github.com/shopspring/decimal"

// OutlierFactor is the multiple of the running average above which a daily
// value is treated as an indexing artifact.
var OutlierFactor = decimal.NewFromInt(1000)

// OutlierFilter tracks the running sum and count of accepted values for one
// token. The zero value is an empty filter. Apply returns the next state and
// never mutates the receiver.
type OutlierFilter struct {
	sum   decimal.Decimal
	count int64
}

// Apply filters v. When v exceeds OutlierFactor times the running average it
// is replaced by that average and left out of the running totals.
func (f OutlierFilter) Apply(v decimal.Decimal) (OutlierFilter, decimal.Decimal, bool) {
	if f.count > 0 {
		avg := f.Average()
		if v.GreaterThan(avg.Mul(OutlierFactor)) {
			return f, avg, true
		}
	}
	return OutlierFilter{sum: f.sum.Add(v), count: f.count + 1}, v, false
}

// Average returns the mean of the accepted values, zero when empty.
func (f OutlierFilter) Average() decimal.Decimal {
	if f.count == 0 {
		return decimal.Zero
	}
	return f.sum.Div(decimal.NewFromInt(f.count))
}

// Count returns how many values were accepted.
func (f OutlierFilter) Count() int64 {
	return f.count
}
