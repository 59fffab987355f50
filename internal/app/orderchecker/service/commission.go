package service

import (
	"github.com/shopspring/decimal"

	"fillReconciler/internal/domain/entity"
)

const DefaultCommissionScale int32 = 18

// commissionShare is the commission attributed to q more units of order,
// given what earlier matches already consumed. Shares are differences of the
// rounded cumulative allocation, so all shares of a fully matched order add
// up to exactly its commission.
func commissionShare(order *entity.Order, q decimal.Decimal, scale int32) decimal.Decimal {
	if order.Commission.IsZero() || q.IsZero() {
		return decimal.Zero
	}
	consumed := order.Consumed()
	return allocatedCommission(order, consumed.Add(q), scale).
		Sub(allocatedCommission(order, consumed, scale))
}

func allocatedCommission(order *entity.Order, consumed decimal.Decimal, scale int32) decimal.Decimal {
	if consumed.IsZero() {
		return decimal.Zero
	}
	if consumed.Equal(order.Quantity) {
		return order.Commission
	}
	return order.Commission.Mul(consumed).DivRound(order.Quantity, scale)
}
