package service

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"fillReconciler/internal/common/dto"
	"fillReconciler/internal/domain/entity"
)

// SafeWindowStatus compares each bucket's unmatched BUY inventory with what
// the pooling bucket's pending SELL quantity would still draw from it.
// Inventory and pending quantity are the store's per-bucket totals; the BUY
// rows only decide which bucket the draw lands on. Callers that need the
// three reads to agree run them in one transaction.
func (m *Matcher) SafeWindowStatus(ctx context.Context, symbol, primaryBucket string) (dto.SafeWindowStatus, error) {
	if err := checkStream(symbol, primaryBucket); err != nil {
		return dto.SafeWindowStatus{}, err
	}
	held, err := m.orderRepo.GetUnmatchedBuyTotals(ctx, symbol)
	if err != nil {
		return dto.SafeWindowStatus{}, err
	}
	pendingByBucket, err := m.orderRepo.GetUnmatchedSellTotals(ctx, symbol)
	if err != nil {
		return dto.SafeWindowStatus{}, err
	}
	buys, err := m.orderRepo.GetUnmatchedOrdersBySide(ctx, symbol, entity.Buy)
	if err != nil {
		return dto.SafeWindowStatus{}, err
	}
	rows, err := checkRows(buys)
	if err != nil {
		return dto.SafeWindowStatus{}, err
	}
	return safeWindow(symbol, primaryBucket, pendingByBucket[primaryBucket], held, rows), nil
}

// safeWindow walks the BUY rows cheapest first and charges pending to them.
// held carries each bucket's unmatched BUY total.
func safeWindow(symbol, primaryBucket string, pending decimal.Decimal, held map[string]decimal.Decimal, buys []*entity.Order) dto.SafeWindowStatus {
	pooled := decimal.Zero
	for _, qty := range held {
		pooled = pooled.Add(qty)
	}

	drawn := make(map[string]decimal.Decimal)
	remaining := pending
	for _, buy := range BuildPool(buys).Entries() {
		take := decimal.Min(remaining, buy.UnmatchedQty)
		drawn[buy.Timeframe] = drawn[buy.Timeframe].Add(take)
		remaining = remaining.Sub(take)
	}

	buckets := lo.Filter(lo.Keys(held), func(bucket string, _ int) bool {
		return held[bucket].IsPositive()
	})
	sort.Strings(buckets)
	windows := lo.Map(buckets, func(bucket string, _ int) dto.BucketWindow {
		return dto.BucketWindow{
			Bucket:          bucket,
			UnmatchedBuyQty: held[bucket],
			Consumable:      drawn[bucket],
			Remaining:       held[bucket].Sub(drawn[bucket]),
		}
	})

	return dto.SafeWindowStatus{
		Symbol:         symbol,
		PrimaryBucket:  primaryBucket,
		PendingSellQty: pending,
		PooledBuyQty:   pooled,
		Shortfall:      remaining,
		Safe:           pooled.GreaterThanOrEqual(pending),
		Buckets:        windows,
	}
}
