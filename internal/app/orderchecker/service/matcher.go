package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"fillReconciler/internal/common/dto"
	"fillReconciler/internal/domain/entity"
	"fillReconciler/internal/repository"
)

// Matcher reconciles persisted fills. It does no locking and opens no
// transaction of its own; callers that need a run to be atomic pass a
// context carrying one (see OrderCheckerService).
type Matcher struct {
	orderRepo       repository.IOrderRepository
	transactionRepo repository.ITransactionRepository
	commissionScale int32
	now             func() time.Time
}

type MatcherOption func(*Matcher)

// WithCommissionScale sets the rounding scale of commission shares. Values
// outside (0, entity.DecimalScale] are ignored.
func WithCommissionScale(scale int32) MatcherOption {
	return func(m *Matcher) {
		if scale > 0 && scale <= entity.DecimalScale {
			m.commissionScale = scale
		}
	}
}

func WithClock(now func() time.Time) MatcherOption {
	return func(m *Matcher) { m.now = now }
}

func NewMatcher(orderRepo repository.IOrderRepository, transactionRepo repository.ITransactionRepository, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		commissionScale: DefaultCommissionScale,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BuildPool loads the unmatched BUY inventory of one bucket, or of the whole
// symbol when bucket is repository.AllBuckets.
func (m *Matcher) BuildPool(ctx context.Context, symbol, bucket string) (*BuyPool, error) {
	if symbol == "" {
		return nil, invalidArgument("symbol is empty")
	}
	var (
		orders []entity.Order
		err    error
	)
	if bucket == repository.AllBuckets {
		orders, err = m.orderRepo.GetUnmatchedOrdersBySide(ctx, symbol, entity.Buy)
	} else {
		orders, err = m.orderRepo.GetUnmatchedOrders(ctx, symbol, bucket)
	}
	if err != nil {
		return nil, err
	}
	rows, err := checkRows(orders)
	if err != nil {
		return nil, err
	}
	return BuildPool(rows), nil
}

// Match reconciles the unmatched SELL orders of (symbol, bucket) against the
// bucket's own BUY inventory.
func (m *Matcher) Match(ctx context.Context, symbol, bucket string) (dto.MatchStats, error) {
	if err := checkStream(symbol, bucket); err != nil {
		return dto.MatchStats{}, err
	}
	orders, err := m.orderRepo.GetUnmatchedOrders(ctx, symbol, bucket)
	if err != nil {
		return dto.MatchStats{}, err
	}
	return m.run(ctx, orders, reconcileOptions{
		symbol: symbol,
		bucket: bucket,
		mode:   entity.DirectMatch,
	})
}

// ProxyMatch reconciles the SELL orders of the pooling bucket against the
// BUY inventory of every bucket of the symbol.
func (m *Matcher) ProxyMatch(ctx context.Context, symbol, primaryBucket string) (dto.MatchStats, error) {
	if err := checkStream(symbol, primaryBucket); err != nil {
		return dto.MatchStats{}, err
	}
	buys, err := m.orderRepo.GetUnmatchedOrdersBySide(ctx, symbol, entity.Buy)
	if err != nil {
		return dto.MatchStats{}, err
	}
	primary, err := m.orderRepo.GetUnmatchedOrders(ctx, symbol, primaryBucket)
	if err != nil {
		return dto.MatchStats{}, err
	}
	sells := lo.Filter(primary, func(o entity.Order, _ int) bool { return o.Side == entity.Sell })

	return m.run(ctx, append(buys, sells...), reconcileOptions{
		symbol: symbol,
		bucket: primaryBucket,
		mode:   entity.ProxyMatch,
	})
}

func (m *Matcher) run(ctx context.Context, orders []entity.Order, opts reconcileOptions) (dto.MatchStats, error) {
	rows, err := checkRows(orders)
	if err != nil {
		return dto.MatchStats{}, err
	}
	if err := m.verifyConservation(ctx, rows); err != nil {
		return dto.MatchStats{}, err
	}

	opts.commissionScale = m.commissionScale
	opts.now = m.now()
	result := reconcile(rows, opts)

	for i := range result.matches {
		if err := m.transactionRepo.InsertMatch(ctx, &result.matches[i]); err != nil {
			return dto.MatchStats{}, err
		}
	}
	for _, order := range result.touched {
		if err := m.orderRepo.UpdateUnmatchedQty(ctx, order.OrderID, order.UnmatchedQty); err != nil {
			return dto.MatchStats{}, err
		}
	}
	return result.stats, nil
}

// verifyConservation checks quantity == unmatched + matched for every loaded
// order before anything is paired.
func (m *Matcher) verifyConservation(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := lo.Map(orders, func(o *entity.Order, _ int) string { return o.OrderID })
	matched, err := m.transactionRepo.GetMatchedTotals(ctx, ids)
	if err != nil {
		return err
	}
	for _, order := range orders {
		done, ok := matched[order.OrderID]
		if !ok {
			done = decimal.Zero
		}
		if !order.UnmatchedQty.Add(done).Equal(order.Quantity) {
			return &InvariantError{
				OrderID: order.OrderID,
				Reason:  fmt.Sprintf("quantity %s != unmatched %s + matched %s", order.Quantity, order.UnmatchedQty, done),
			}
		}
	}
	return nil
}

// checkRows validates every loaded row and returns pointers into a private
// copy, so a failed run never leaves the caller's slice half mutated.
func checkRows(orders []entity.Order) ([]*entity.Order, error) {
	rows := make([]*entity.Order, len(orders))
	for i := range orders {
		order := orders[i]
		if err := order.Validate(); err != nil {
			return nil, &InvariantError{OrderID: order.OrderID, Reason: err.Error()}
		}
		rows[i] = &order
	}
	return rows, nil
}

func checkStream(symbol, bucket string) error {
	if symbol == "" {
		return invalidArgument("symbol is empty")
	}
	if bucket == "" {
		return invalidArgument("bucket is empty")
	}
	return nil
}
