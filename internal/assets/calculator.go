package assets

import "github.com/shopspring/decimal"

// Method enumerates supported depreciation methods.
type Method string

const (
	MethodStraightLine     Method = "STRAIGHT_LINE"
	MethodDecliningBalance Method = "DECLINING_BALANCE"
	MethodSumOfYearsDigits Method = "SUM_OF_YEARS_DIGITS"
)

var twelve = decimal.NewFromInt(12)

// AnnualAmount computes depreciation for the given 0-based year index.
// The year index counts elapsed years since acquisition, not calendar
// years, so the first year is always a full year. Amounts are floored so
// book value never drops below salvage.
func AnnualAmount(cost, salvage decimal.Decimal, lifeYears int, method Method, yearIndex int) decimal.Decimal {
	if lifeYears <= 0 || yearIndex < 0 || yearIndex >= lifeYears {
		return decimal.Zero
	}
	base := cost.Sub(salvage)
	if !base.IsPositive() {
		return decimal.Zero
	}
	life := decimal.NewFromInt(int64(lifeYears))

	switch method {
	case MethodStraightLine:
		return base.Div(life)
	case MethodDecliningBalance:
		// Double-declining by convention: rate = 2/life applied to the
		// book value at the start of the year.
		rate := decimal.NewFromInt(2).Div(life)
		book := cost
		one := decimal.NewFromInt(1)
		for i := 0; i < yearIndex; i++ {
			book = book.Mul(one.Sub(rate))
		}
		annual := book.Mul(rate)
		if floor := book.Sub(salvage); annual.GreaterThan(floor) {
			annual = floor
		}
		if annual.IsNegative() {
			return decimal.Zero
		}
		return annual
	case MethodSumOfYearsDigits:
		// Weight each year by remaining life over the triangular sum, so
		// depreciation decreases linearly year over year.
		triangular := decimal.NewFromInt(int64(lifeYears * (lifeYears + 1) / 2))
		remaining := decimal.NewFromInt(int64(lifeYears - yearIndex))
		return base.Mul(remaining).Div(triangular)
	}
	return decimal.Zero
}

// MonthlyAmount spreads the year's depreciation evenly across its twelve
// periods, rounded to the currency minor unit. periodIndex is 0-based
// months since acquisition.
func MonthlyAmount(cost, salvage decimal.Decimal, lifeYears int, method Method, periodIndex int) decimal.Decimal {
	if periodIndex < 0 {
		return decimal.Zero
	}
	annual := AnnualAmount(cost, salvage, lifeYears, method, periodIndex/12)
	return annual.Div(twelve).Round(2)
}
