package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fillReconciler/internal/domain/entity"
	"fillReconciler/internal/testutil"
)

var d = testutil.D

func order(id string, side entity.Side, qty, price string, minute int) *entity.Order {
	o := testutil.NewOrder(id, "BTCUSDT", "5m", side, qty, price, minute)
	return &o
}

func directOpts() reconcileOptions {
	return reconcileOptions{
		symbol:          "BTCUSDT",
		bucket:          "5m",
		mode:            entity.DirectMatch,
		commissionScale: DefaultCommissionScale,
		now:             time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestReconcileCheapestBuyFirst(t *testing.T) {
	b1 := order("b1", entity.Buy, "10", "100", 1)
	b2 := order("b2", entity.Buy, "5", "90", 2)
	s1 := order("s1", entity.Sell, "12", "120", 3)

	res := reconcile([]*entity.Order{b1, b2, s1}, directOpts())

	require.Len(t, res.matches, 2)
	assert.Equal(t, "b2", res.matches[0].BuyOrderID)
	assert.True(t, res.matches[0].MatchedQty.Equal(d("5")))
	assert.True(t, res.matches[0].Profit.Equal(d("150")))
	assert.Equal(t, "b1", res.matches[1].BuyOrderID)
	assert.True(t, res.matches[1].MatchedQty.Equal(d("7")))
	assert.True(t, res.matches[1].Profit.Equal(d("140")))

	assert.True(t, b1.UnmatchedQty.Equal(d("3")))
	assert.True(t, b2.UnmatchedQty.IsZero())
	assert.True(t, s1.UnmatchedQty.IsZero())

	assert.Equal(t, 2, res.stats.MatchedPairs)
	assert.True(t, res.stats.TotalMatchedQty.Equal(d("12")))
	assert.True(t, res.stats.TotalProfit.Equal(d("290")))
	assert.Len(t, res.touched, 3)
}

func TestReconcileSellOutlivesPool(t *testing.T) {
	b1 := order("b1", entity.Buy, "10", "100", 1)
	b2 := order("b2", entity.Buy, "5", "90", 2)
	s1 := order("s1", entity.Sell, "20", "120", 3)

	res := reconcile([]*entity.Order{b1, b2, s1}, directOpts())

	require.Len(t, res.matches, 2)
	assert.True(t, res.stats.TotalMatchedQty.Equal(d("15")))
	assert.True(t, b1.UnmatchedQty.IsZero())
	assert.True(t, b2.UnmatchedQty.IsZero())
	assert.True(t, s1.UnmatchedQty.Equal(d("5")))
}

func TestReconcilePendingSellTakesLaterBuy(t *testing.T) {
	s1 := order("s1", entity.Sell, "4", "120", 1)
	b1 := order("b1", entity.Buy, "3", "100", 2)
	b2 := order("b2", entity.Buy, "3", "95", 3)

	res := reconcile([]*entity.Order{s1, b1, b2}, directOpts())

	require.Len(t, res.matches, 2)
	assert.Equal(t, "b1", res.matches[0].BuyOrderID)
	assert.True(t, res.matches[0].MatchedQty.Equal(d("3")))
	assert.Equal(t, "b2", res.matches[1].BuyOrderID)
	assert.True(t, res.matches[1].MatchedQty.Equal(d("1")))
	assert.True(t, s1.UnmatchedQty.IsZero())
	assert.True(t, b2.UnmatchedQty.Equal(d("2")))
}

func TestReconcilePendingSellSeesWholeSameTimeArrival(t *testing.T) {
	s1 := order("s1", entity.Sell, "1", "120", 1)
	pricey := order("b-a", entity.Buy, "1", "110", 2)
	cheap := order("b-b", entity.Buy, "1", "90", 2)

	res := reconcile([]*entity.Order{s1, pricey, cheap}, directOpts())

	require.Len(t, res.matches, 1)
	assert.Equal(t, "b-b", res.matches[0].BuyOrderID)
	assert.True(t, res.matches[0].Profit.Equal(d("30")))
	assert.True(t, pricey.UnmatchedQty.Equal(d("1")))
	assert.True(t, cheap.UnmatchedQty.IsZero())
}

func TestReconcileSameTimeSellWaitsBehindPending(t *testing.T) {
	s1 := order("s1", entity.Sell, "1", "120", 1)
	b1 := order("b1", entity.Buy, "1", "100", 2)
	s2 := order("s2", entity.Sell, "1", "130", 2)

	res := reconcile([]*entity.Order{s1, b1, s2}, directOpts())

	require.Len(t, res.matches, 1)
	assert.Equal(t, "s1", res.matches[0].SellOrderID)
	assert.True(t, s2.UnmatchedQty.Equal(d("1")))
}

func TestReconcileBuyAfterSellIsNotUsedByEarlierSatisfiedSell(t *testing.T) {
	b1 := order("b1", entity.Buy, "2", "100", 1)
	s1 := order("s1", entity.Sell, "2", "110", 2)
	b2 := order("b2", entity.Buy, "2", "50", 3)

	res := reconcile([]*entity.Order{b1, s1, b2}, directOpts())

	require.Len(t, res.matches, 1)
	assert.Equal(t, "b1", res.matches[0].BuyOrderID)
	assert.True(t, b2.UnmatchedQty.Equal(d("2")))
}

func TestReconcilePriceTieBrokenByTime(t *testing.T) {
	late := order("a-late", entity.Buy, "1", "100", 2)
	early := order("z-early", entity.Buy, "1", "100", 1)
	s1 := order("s1", entity.Sell, "1", "101", 3)

	res := reconcile([]*entity.Order{late, early, s1}, directOpts())

	require.Len(t, res.matches, 1)
	assert.Equal(t, "z-early", res.matches[0].BuyOrderID)
}

func TestReconcileOrdersByTimeNotInputOrder(t *testing.T) {
	s1 := order("s1", entity.Sell, "1", "120", 5)
	b1 := order("b1", entity.Buy, "1", "100", 1)

	res := reconcile([]*entity.Order{s1, b1}, directOpts())

	require.Len(t, res.matches, 1)
	assert.True(t, s1.UnmatchedQty.IsZero())
}

func TestReconcileSkipsExhaustedOrders(t *testing.T) {
	b1 := order("b1", entity.Buy, "5", "100", 1)
	b1.UnmatchedQty = decimal.Zero
	s1 := order("s1", entity.Sell, "5", "120", 2)

	res := reconcile([]*entity.Order{b1, s1}, directOpts())

	assert.Empty(t, res.matches)
	assert.True(t, res.stats.IsZero())
	assert.Empty(t, res.touched)
}

func TestReconcileMatchMetadata(t *testing.T) {
	b1 := order("b1", entity.Buy, "1", "100", 1)
	s1 := order("s1", entity.Sell, "1", "90", 2)
	opts := directOpts()
	opts.mode = entity.ProxyMatch
	opts.bucket = "1m"

	res := reconcile([]*entity.Order{b1, s1}, opts)

	require.Len(t, res.matches, 1)
	m := res.matches[0]
	assert.Equal(t, entity.ProxyMatch, m.Mode)
	assert.Equal(t, "1m", m.Bucket)
	assert.Equal(t, "BTCUSDT", m.Symbol)
	assert.Equal(t, opts.now, m.MatchedTime)
	// selling below cost is recorded, as a loss
	assert.True(t, m.Profit.Equal(d("-10")))
}

func TestReconcileCommissionSplitAcrossMatches(t *testing.T) {
	b1 := order("b1", entity.Buy, "10", "100", 1)
	b1.Commission = d("1")
	s1 := order("s1", entity.Sell, "4", "110", 2)
	s1.Commission = d("0.4")
	s2 := order("s2", entity.Sell, "6", "110", 3)
	s2.Commission = d("0.3")

	res := reconcile([]*entity.Order{b1, s1, s2}, directOpts())

	require.Len(t, res.matches, 2)
	// 4*10 - 1*4/10 - 0.4
	assert.True(t, res.matches[0].Profit.Equal(d("39.2")), res.matches[0].Profit.String())
	// 6*10 - 1*6/10 - 0.3
	assert.True(t, res.matches[1].Profit.Equal(d("59.1")), res.matches[1].Profit.String())
}

func TestCommissionSharesAddUpExactly(t *testing.T) {
	b1 := order("b1", entity.Buy, "3", "100", 1)
	b1.Commission = d("1")
	sells := []*entity.Order{
		order("s1", entity.Sell, "1", "100", 2),
		order("s2", entity.Sell, "1", "100", 3),
		order("s3", entity.Sell, "1", "100", 4),
	}

	res := reconcile(append([]*entity.Order{b1}, sells...), directOpts())

	require.Len(t, res.matches, 3)
	// equal prices: profit is minus the commission share only
	total := decimal.Zero
	for _, m := range res.matches {
		total = total.Add(m.Profit)
	}
	assert.True(t, total.Equal(d("-1")), total.String())
	assert.True(t, res.matches[0].Profit.Equal(d("-0.333333333333333333")), res.matches[0].Profit.String())
	assert.True(t, res.matches[1].Profit.Equal(d("-0.333333333333333334")), res.matches[1].Profit.String())
	assert.True(t, res.matches[2].Profit.Equal(d("-0.333333333333333333")), res.matches[2].Profit.String())
}

func TestReconcileConservation(t *testing.T) {
	orders := []*entity.Order{
		order("b1", entity.Buy, "2.5", "100", 1),
		order("s1", entity.Sell, "1.2", "105", 2),
		order("b2", entity.Buy, "0.7", "99", 3),
		order("s2", entity.Sell, "3", "101", 4),
		order("b3", entity.Buy, "4", "98", 5),
		order("s3", entity.Sell, "0.1", "97", 6),
	}
	original := make(map[string]decimal.Decimal)
	for _, o := range orders {
		original[o.OrderID] = o.Quantity
	}

	res := reconcile(orders, directOpts())

	matched := make(map[string]decimal.Decimal)
	pairs := make(map[[2]string]int)
	for _, m := range res.matches {
		assert.True(t, m.MatchedQty.IsPositive())
		matched[m.BuyOrderID] = matched[m.BuyOrderID].Add(m.MatchedQty)
		matched[m.SellOrderID] = matched[m.SellOrderID].Add(m.MatchedQty)
		pairs[[2]string{m.BuyOrderID, m.SellOrderID}]++
	}
	for _, o := range orders {
		assert.True(t, o.UnmatchedQty.Add(matched[o.OrderID]).Equal(original[o.OrderID]), o.OrderID)
		assert.False(t, o.UnmatchedQty.IsNegative(), o.OrderID)
	}
	for pair, n := range pairs {
		assert.Equal(t, 1, n, "pair %v matched twice", pair)
	}
}
