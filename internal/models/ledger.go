package models

import (
	"time"

	"github.com/google/uuid"
)

// LotSide marks a lot as a purchase or a sale.
type LotSide string

const (
	LotSideBuy  LotSide = "buy"
	LotSideSell LotSide = "sell"
)

// Lot is a single buy or sell transaction in a position's ledger.
// Immutable once created; quantity is strictly positive on both sides
// (a sell records the positive quantity sold). The ledger orders lots
// by trade date, not insertion order.
type Lot struct {
	ID       string    `json:"id"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	Fees     float64   `json:"fees,omitempty"`
	Date     time.Time `json:"date"`
	Side     LotSide   `json:"side"`
}

// NewLot builds a buy/sell lot with a generated ID.
func NewLot(side LotSide, quantity, price, fees float64, date time.Time) Lot {
	return Lot{
		ID:       uuid.NewString(),
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
		Date:     date,
		Side:     side,
	}
}

// Validate checks lot invariants. now bounds the trade date.
func (l *Lot) Validate(now time.Time) error {
	fields := map[string]string{}
	if l.Quantity <= 0 {
		fields["quantity"] = "must be strictly positive"
	}
	if l.Price < 0 {
		fields["price"] = "must not be negative"
	}
	if l.Fees < 0 {
		fields["fees"] = "must not be negative"
	}
	if l.Date.IsZero() {
		fields["date"] = "missing"
	} else if l.Date.After(now) {
		fields["date"] = "must not be in the future"
	}
	if l.Side != LotSideBuy && l.Side != LotSideSell {
		fields["side"] = "must be buy or sell"
	}
	if len(fields) > 0 {
		return &ValidationError{Entity: "lot", Fields: fields}
	}
	return nil
}

// Dividend is a per-share cash distribution attributed to a position.
// The engine only reads these in aggregate (trailing-12-month sums).
type Dividend struct {
	PositionID     string     `json:"position_id"`
	ExDate         time.Time  `json:"ex_date"`
	PayDate        *time.Time `json:"pay_date,omitempty"`
	AmountPerShare float64    `json:"amount_per_share"`
	Currency       string     `json:"currency"`
}

// EffectiveDate is the pay date when recorded, else the ex date.
func (d *Dividend) EffectiveDate() time.Time {
	if d.PayDate != nil && !d.PayDate.IsZero() {
		return *d.PayDate
	}
	return d.ExDate
}
