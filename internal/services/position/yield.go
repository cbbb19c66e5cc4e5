package position

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/idoh90/portfoliohub/internal/models"
)

// BondYTM approximates yield to maturity in percent using
// ((annualCoupon + (face-price)/years) / ((face+price)/2)) * 100.
// This is the textbook approximation, not an iterative exact solve.
// Returns 0 when years or the face+price midpoint is zero.
func BondYTM(faceValue, currentPrice, couponRatePercent, yearsToMaturity float64) float64 {
	if yearsToMaturity == 0 {
		return 0
	}
	midpoint := dec(faceValue).Add(dec(currentPrice)).Div(dec(2))
	if midpoint.IsZero() {
		return 0
	}
	annualCoupon := dec(faceValue).Mul(dec(couponRatePercent)).Div(dec(100))
	accrual := dec(faceValue).Sub(dec(currentPrice)).Div(dec(yearsToMaturity))
	return annualCoupon.Add(accrual).Div(midpoint).Mul(dec(100)).InexactFloat64()
}

// RealEstateMetrics derives return figures for a directly held property.
// Equity assumes an interest-only view of the loan: current value minus
// the original financed amount. Annualized return is CAGR in percent.
// Zero denominators (years, down payment, current value, purchase
// price) yield 0 for the affected field.
func RealEstateMetrics(purchasePrice, currentValue, downPayment, monthlyRent, monthlyExpenses, yearsOwned float64) models.RealEstateMetrics {
	noi := dec(monthlyRent).Sub(dec(monthlyExpenses)).Mul(dec(12))
	appreciation := dec(currentValue).Sub(dec(purchasePrice))
	totalIncome := noi.Mul(dec(yearsOwned))

	m := models.RealEstateMetrics{
		NetOperatingIncome: noi.InexactFloat64(),
		Equity:             dec(currentValue).Sub(dec(purchasePrice).Sub(dec(downPayment))).InexactFloat64(),
		TotalReturn:        appreciation.Add(totalIncome).InexactFloat64(),
	}

	if yearsOwned > 0 && purchasePrice > 0 && currentValue > 0 {
		m.AnnualizedReturn = (math.Pow(currentValue/purchasePrice, 1/yearsOwned) - 1) * 100
	}
	if downPayment > 0 {
		m.CashOnCashReturn = ratioDiv(noi, dec(downPayment)).Mul(dec(100)).InexactFloat64()
	}
	if currentValue > 0 {
		m.CapRate = ratioDiv(noi, dec(currentValue)).Mul(dec(100)).InexactFloat64()
	}

	return m
}

// TrailingTwelveMonthDividendPerShare sums per-share dividends whose
// effective date (pay date, else ex date) falls within the 365 days
// before asOf.
func TrailingTwelveMonthDividendPerShare(dividends []models.Dividend, asOf time.Time) float64 {
	cutoff := asOf.AddDate(0, 0, -365)

	total := decimal.Zero
	for i := range dividends {
		effective := dividends[i].EffectiveDate()
		if effective.After(cutoff) && !effective.After(asOf) {
			total = total.Add(dec(dividends[i].AmountPerShare))
		}
	}
	return total.InexactFloat64()
}

// DividendYieldPercent is the trailing-12-month dividend divided by the
// current price, in percent. Zero or negative prices yield 0.
func DividendYieldPercent(dividends []models.Dividend, asOf time.Time, currentPrice float64) float64 {
	if currentPrice <= 0 {
		return 0
	}
	ttm := TrailingTwelveMonthDividendPerShare(dividends, asOf)
	return dec(ttm).Div(dec(currentPrice)).Mul(dec(100)).InexactFloat64()
}
