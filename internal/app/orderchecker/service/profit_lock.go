package service

import (
	"context"

	"github.com/shopspring/decimal"

	"fillReconciler/internal/repository"
)

// LockableQuantity reports how much of the symbol's position can be sold at
// currentPrice while every unit sold clears its cost basis by minProfitRatio.
// Inventory from all buckets counts, cheapest first. No qualifying inventory
// yields zero, not an error.
func (m *Matcher) LockableQuantity(ctx context.Context, symbol string, availableQty, currentPrice, minProfitRatio decimal.Decimal) (decimal.Decimal, error) {
	if err := checkLockArgs(symbol, availableQty, currentPrice, minProfitRatio); err != nil {
		return decimal.Zero, err
	}
	pool, err := m.BuildPool(ctx, symbol, repository.AllBuckets)
	if err != nil {
		return decimal.Zero, err
	}
	return lockableFromPool(pool, availableQty, currentPrice, minProfitRatio), nil
}

func lockableFromPool(pool *BuyPool, availableQty, currentPrice, minProfitRatio decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(minProfitRatio)
	total := decimal.Zero
	for _, buy := range pool.Entries() {
		if total.GreaterThanOrEqual(availableQty) {
			break
		}
		// below the floor: skip, keep scanning
		if currentPrice.LessThan(buy.Price.Mul(factor)) {
			continue
		}
		total = total.Add(buy.UnmatchedQty)
	}
	return decimal.Min(total, availableQty)
}

func checkLockArgs(symbol string, availableQty, currentPrice, minProfitRatio decimal.Decimal) error {
	switch {
	case symbol == "":
		return invalidArgument("symbol is empty")
	case availableQty.IsNegative():
		return invalidArgument("available qty must not be negative, got %s", availableQty)
	case !currentPrice.IsPositive():
		return invalidArgument("current price must be positive, got %s", currentPrice)
	case minProfitRatio.IsNegative() || minProfitRatio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return invalidArgument("min profit ratio must be in [0, 1), got %s", minProfitRatio)
	}
	return nil
}
