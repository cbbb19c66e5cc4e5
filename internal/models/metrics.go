package models

// Computed value objects. All of these are derived on demand from lots
// plus a current price and are never persisted.

// LotMetrics is the per-lot view of cost and return.
type LotMetrics struct {
	CostBasis            float64 `json:"cost_basis"`
	CurrentValue         float64 `json:"current_value"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
}

// PositionMetrics aggregates a ledger against a current price.
// TotalCost sums quantity*price+fees across all lots, sells included
// (gross lot cost, not net remaining basis).
type PositionMetrics struct {
	TotalQuantity        float64 `json:"total_quantity"`
	TotalCost            float64 `json:"total_cost"`
	AvgCost              float64 `json:"avg_cost"`
	CurrentValue         float64 `json:"current_value"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
	TodayChange          float64 `json:"today_change"`
	TodayChangePercent   float64 `json:"today_change_percent"`
}

// OptionBreakeven holds closed-form breakeven/extreme values for a
// single-leg option position.
//
// Unbounded sentinels differ per field: MaxProfit uses nil for "no
// ceiling" (long call); MaxLoss uses math.Inf(1) for "no floor"
// (short call). Because encoding/json rejects Inf, this struct carries
// no json tags and must not be encoded directly; boundaries flatten
// both sentinels into nullable fields first.
type OptionBreakeven struct {
	Breakeven float64
	MaxProfit *float64 // nil = unbounded
	MaxLoss   float64  // +Inf = unbounded
}

// RealEstateMetrics summarizes a directly held property position.
type RealEstateMetrics struct {
	TotalReturn        float64 `json:"total_return"`
	AnnualizedReturn   float64 `json:"annualized_return"`
	CashOnCashReturn   float64 `json:"cash_on_cash_return"`
	CapRate            float64 `json:"cap_rate"`
	Equity             float64 `json:"equity"`
	NetOperatingIncome float64 `json:"net_operating_income"`
}
