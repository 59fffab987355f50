package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fillReconciler/internal/common/dto"
	"fillReconciler/internal/domain/entity"
)

type reconcileOptions struct {
	symbol          string
	bucket          string
	mode            entity.MatchMode
	commissionScale int32
	now             time.Time
}

type reconcileResult struct {
	matches []entity.OrderMatch
	// touched lists every order whose UnmatchedQty changed, in first-touch order.
	touched []*entity.Order
	stats   dto.MatchStats
}

type reconciler struct {
	opts    reconcileOptions
	pool    *BuyPool
	pending []*entity.Order
	seen    map[string]struct{}
	result  reconcileResult
}

// reconcile walks orders in fill-time order and pairs every SELL with the
// cheapest BUY inventory available at that point. A SELL that outlives the
// pool waits, oldest first, and is served as soon as a later BUY arrives.
// The orders are mutated in place.
func reconcile(orders []*entity.Order, opts reconcileOptions) reconcileResult {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].Time.Equal(orders[j].Time) {
			return orders[i].Time.Before(orders[j].Time)
		}
		return orders[i].OrderID < orders[j].OrderID
	})

	r := &reconciler{
		opts: opts,
		pool: NewBuyPool(),
		seen: make(map[string]struct{}),
		result: reconcileResult{stats: dto.MatchStats{
			TotalMatchedQty: decimal.Zero,
			TotalProfit:     decimal.Zero,
		}},
	}

	// BUYs sharing a fill time enter the pool together before waiting
	// SELLs are served, so those SELLs see the cheapest of them.
	var arrival time.Time
	arriving := false
	for _, order := range orders {
		if !order.UnmatchedQty.IsPositive() {
			continue
		}
		if arriving && !(order.IsBuy() && order.Time.Equal(arrival)) {
			r.drainPending()
			arriving = false
		}
		if order.IsBuy() {
			r.pool.Push(order)
			arrival, arriving = order.Time, true
			continue
		}
		r.consume(order)
		if order.UnmatchedQty.IsPositive() {
			r.pending = append(r.pending, order)
		}
	}
	if arriving {
		r.drainPending()
	}
	return r.result
}

func (r *reconciler) drainPending() {
	for len(r.pending) > 0 && !r.pool.Empty() {
		sell := r.pending[0]
		r.consume(sell)
		if sell.UnmatchedQty.IsPositive() {
			return
		}
		r.pending = r.pending[1:]
	}
}

func (r *reconciler) consume(sell *entity.Order) {
	for sell.UnmatchedQty.IsPositive() && !r.pool.Empty() {
		buy := r.pool.Peek()
		qty := decimal.Min(sell.UnmatchedQty, buy.UnmatchedQty)

		// rounded to the stored scale so the run totals equal the persisted rows
		profit := qty.Mul(sell.Price.Sub(buy.Price)).
			Sub(commissionShare(buy, qty, r.opts.commissionScale)).
			Sub(commissionShare(sell, qty, r.opts.commissionScale)).
			Round(entity.DecimalScale)

		buy.UnmatchedQty = buy.UnmatchedQty.Sub(qty)
		sell.UnmatchedQty = sell.UnmatchedQty.Sub(qty)
		if buy.UnmatchedQty.IsZero() {
			r.pool.Remove(buy)
		}
		r.touch(buy)
		r.touch(sell)

		r.result.matches = append(r.result.matches, entity.OrderMatch{
			BuyOrderID:  buy.OrderID,
			SellOrderID: sell.OrderID,
			MatchedQty:  qty,
			Profit:      profit,
			Symbol:      r.opts.symbol,
			Bucket:      r.opts.bucket,
			Mode:        r.opts.mode,
			MatchedTime: r.opts.now,
		})
		r.result.stats.MatchedPairs++
		r.result.stats.TotalMatchedQty = r.result.stats.TotalMatchedQty.Add(qty)
		r.result.stats.TotalProfit = r.result.stats.TotalProfit.Add(profit)
	}
}

func (r *reconciler) touch(order *entity.Order) {
	if _, ok := r.seen[order.OrderID]; ok {
		return
	}
	r.seen[order.OrderID] = struct{}{}
	r.result.touched = append(r.result.touched, order)
}
