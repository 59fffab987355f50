package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fillReconciler/internal/domain/entity"
	"fillReconciler/pkg/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrQuantityOutOfRange = errors.New("unmatched quantity out of range")
)

// AllBuckets selects every timeframe of a symbol.
const AllBuckets = ""

type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order) error
	FindOrderById(ctx context.Context, orderID string) (entity.Order, error)
	GetUnmatchedOrders(ctx context.Context, symbol, bucket string) ([]entity.Order, error)
	GetUnmatchedOrdersBySide(ctx context.Context, symbol string, side entity.Side) ([]entity.Order, error)
	UpdateUnmatchedQty(ctx context.Context, orderID string, qty decimal.Decimal) error
	GetUnmatchedBuyTotals(ctx context.Context, symbol string) (map[string]decimal.Decimal, error)
	GetUnmatchedSellTotals(ctx context.Context, symbol string) (map[string]decimal.Decimal, error)
	GetBuckets(ctx context.Context, symbol string) ([]string, error)
	GetSymbols(ctx context.Context) ([]string, error)
}

type OrderRepository struct {
	gormDB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) IOrderRepository {
	return &OrderRepository{
		gormDB: db,
	}
}

// CreateOrder stores a newly imported fill. New fills always start fully
// unmatched.
func (o *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) error {
	order.UnmatchedQty = order.Quantity
	if err := order.Validate(); err != nil {
		return err
	}
	if err := utils.DBFromContext(ctx, o.gormDB).Create(order).Error; err != nil {
		return fmt.Errorf("create order %s: %w", order.OrderID, err)
	}
	return nil
}

func (o *OrderRepository) FindOrderById(ctx context.Context, orderID string) (entity.Order, error) {
	var order entity.Order
	if err := utils.DBFromContext(ctx, o.gormDB).Take(&order, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return entity.Order{}, err
	}
	return order, nil
}

func (o *OrderRepository) GetUnmatchedOrders(ctx context.Context, symbol, bucket string) ([]entity.Order, error) {
	var orders []entity.Order
	q := utils.DBFromContext(ctx, o.gormDB).Where("symbol = ?", symbol)
	if bucket != AllBuckets {
		q = q.Where("timeframe = ?", bucket)
	}
	if err := q.Order("fill_time ASC, order_id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load unmatched orders %s/%s: %w", symbol, bucket, err)
	}
	return withUnmatched(orders), nil
}

func (o *OrderRepository) GetUnmatchedOrdersBySide(ctx context.Context, symbol string, side entity.Side) ([]entity.Order, error) {
	var orders []entity.Order
	if err := utils.DBFromContext(ctx, o.gormDB).
		Where("symbol = ? AND side = ?", symbol, side).
		Order("fill_time ASC, order_id ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load unmatched %s orders %s: %w", side, symbol, err)
	}
	return withUnmatched(orders), nil
}

// withUnmatched keeps orders with quantity left. The comparison runs on the
// decoded decimals since sqlite keeps them as TEXT.
func withUnmatched(orders []entity.Order) []entity.Order {
	return lo.Filter(orders, func(order entity.Order, _ int) bool {
		return order.UnmatchedQty.IsPositive()
	})
}

func (o *OrderRepository) UpdateUnmatchedQty(ctx context.Context, orderID string, qty decimal.Decimal) error {
	order, err := o.FindOrderById(ctx, orderID)
	if err != nil {
		return err
	}
	if qty.IsNegative() || qty.GreaterThan(order.Quantity) {
		return fmt.Errorf("%w: order %s qty %s not in [0, %s]", ErrQuantityOutOfRange, orderID, qty, order.Quantity)
	}
	if err := utils.DBFromContext(ctx, o.gormDB).Model(&entity.Order{}).
		Where("order_id = ?", orderID).
		Update("unmatched_qty", qty).Error; err != nil {
		return fmt.Errorf("update unmatched qty of %s: %w", orderID, err)
	}
	return nil
}

func (o *OrderRepository) GetUnmatchedBuyTotals(ctx context.Context, symbol string) (map[string]decimal.Decimal, error) {
	return o.unmatchedTotals(ctx, symbol, entity.Buy)
}

func (o *OrderRepository) GetUnmatchedSellTotals(ctx context.Context, symbol string) (map[string]decimal.Decimal, error) {
	return o.unmatchedTotals(ctx, symbol, entity.Sell)
}

// unmatchedTotals sums in Go so the result stays exact whatever numeric type
// the backend aggregates with.
func (o *OrderRepository) unmatchedTotals(ctx context.Context, symbol string, side entity.Side) (map[string]decimal.Decimal, error) {
	orders, err := o.GetUnmatchedOrdersBySide(ctx, symbol, side)
	if err != nil {
		return nil, err
	}
	byBucket := lo.GroupBy(orders, func(order entity.Order) string { return order.Timeframe })
	return lo.MapValues(byBucket, func(group []entity.Order, _ string) decimal.Decimal {
		return SumUnmatched(group)
	}), nil
}

func (o *OrderRepository) GetBuckets(ctx context.Context, symbol string) ([]string, error) {
	var buckets []string
	if err := utils.DBFromContext(ctx, o.gormDB).Model(&entity.Order{}).
		Where("symbol = ?", symbol).
		Distinct().
		Order("timeframe ASC").
		Pluck("timeframe", &buckets).Error; err != nil {
		return nil, fmt.Errorf("list buckets of %s: %w", symbol, err)
	}
	return buckets, nil
}

func (o *OrderRepository) GetSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := utils.DBFromContext(ctx, o.gormDB).Model(&entity.Order{}).
		Distinct().
		Order("symbol ASC").
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return symbols, nil
}

func SumUnmatched(orders []entity.Order) decimal.Decimal {
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(order.UnmatchedQty)
	}
	return total
}
