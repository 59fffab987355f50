package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

// DecimalScale is the fractional digit count of every stored decimal column.
const DecimalScale int32 = 18

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is one executed brokerage fill. UnmatchedQty is the only field the
// matcher mutates; it is the single copy of the remaining quantity no matter
// which bucket's run touches the order.
type Order struct {
	OrderID      string          `gorm:"column:order_id;type:varchar(64);primaryKey"`
	Symbol       string          `gorm:"type:varchar(32);not null;index:idx_order_symbol_bucket"`
	Timeframe    string          `gorm:"type:varchar(32);not null;index:idx_order_symbol_bucket"`
	Side         Side            `gorm:"type:varchar(4);not null;index:idx_order_side"`
	Quantity     decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	Commission   decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0"`
	UnmatchedQty decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	Time         time.Time       `gorm:"column:fill_time;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *Order) IsBuy() bool {
	return o.Side == Buy
}

// Consumed is the part of the original quantity already attributed to matches.
func (o *Order) Consumed() decimal.Decimal {
	return o.Quantity.Sub(o.UnmatchedQty)
}

// Validate checks the row-level invariants a persisted order must hold.
func (o *Order) Validate() error {
	switch {
	case o.OrderID == "":
		return fmt.Errorf("order id is empty")
	case o.Symbol == "":
		return fmt.Errorf("order %s: symbol is empty", o.OrderID)
	case o.Timeframe == "":
		return fmt.Errorf("order %s: timeframe is empty", o.OrderID)
	case o.Side != Buy && o.Side != Sell:
		return fmt.Errorf("order %s: invalid side %q", o.OrderID, o.Side)
	case !o.Quantity.IsPositive():
		return fmt.Errorf("order %s: quantity must be positive, got %s", o.OrderID, o.Quantity)
	case !o.Price.IsPositive():
		return fmt.Errorf("order %s: price must be positive, got %s", o.OrderID, o.Price)
	case o.Commission.IsNegative():
		return fmt.Errorf("order %s: commission must not be negative, got %s", o.OrderID, o.Commission)
	case o.UnmatchedQty.IsNegative() || o.UnmatchedQty.GreaterThan(o.Quantity):
		return fmt.Errorf("order %s: unmatched qty %s outside [0, %s]", o.OrderID, o.UnmatchedQty, o.Quantity)
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"quantity", o.Quantity},
		{"price", o.Price},
		{"commission", o.Commission},
	} {
		if !FitsColumn(f.value) {
			return fmt.Errorf("order %s: %s %s does not fit decimal(36,%d)", o.OrderID, f.name, f.value, DecimalScale)
		}
	}
	return nil
}

var maxColumnValue = decimal.New(1, 36-DecimalScale)

// FitsColumn reports whether v is stored without rounding.
func FitsColumn(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(DecimalScale)) && v.Abs().LessThan(maxColumnValue)
}
