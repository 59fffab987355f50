package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fillReconciler/internal/domain/entity"
	"fillReconciler/pkg/utils"
)

var ErrDuplicateMatch = errors.New("duplicate order match")

type ITransactionRepository interface {
	InsertMatch(ctx context.Context, match *entity.OrderMatch) error
	FetchMatch(ctx context.Context, buyOrderID, sellOrderID string, qty decimal.Decimal) (*entity.OrderMatch, error)
	FindMatchesByOrder(ctx context.Context, orderID string) ([]entity.OrderMatch, error)
	GetMatchedTotals(ctx context.Context, orderIDs []string) (map[string]decimal.Decimal, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository struct {
	gormDB *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) ITransactionRepository {
	return &TransactionRepository{
		gormDB: db,
	}
}

// InsertMatch appends a match. (buy, sell, matched qty) is the idempotency
// key, so a retried run fails here instead of booking the units twice.
func (t *TransactionRepository) InsertMatch(ctx context.Context, match *entity.OrderMatch) error {
	existing, err := t.FetchMatch(ctx, match.BuyOrderID, match.SellOrderID, match.MatchedQty)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: buy %s sell %s qty %s", ErrDuplicateMatch, match.BuyOrderID, match.SellOrderID, match.MatchedQty)
	}
	if err := utils.DBFromContext(ctx, t.gormDB).Create(match).Error; err != nil {
		return fmt.Errorf("insert match %s/%s: %w", match.BuyOrderID, match.SellOrderID, err)
	}
	return nil
}

func (t *TransactionRepository) FetchMatch(ctx context.Context, buyOrderID, sellOrderID string, qty decimal.Decimal) (*entity.OrderMatch, error) {
	var match entity.OrderMatch
	err := utils.DBFromContext(ctx, t.gormDB).
		Where("buy_order_id = ? AND sell_order_id = ? AND matched_qty = ?", buyOrderID, sellOrderID, qty).
		Take(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

func (t *TransactionRepository) FindMatchesByOrder(ctx context.Context, orderID string) ([]entity.OrderMatch, error) {
	var matches []entity.OrderMatch
	if err := utils.DBFromContext(ctx, t.gormDB).
		Where("buy_order_id = ? OR sell_order_id = ?", orderID, orderID).
		Order("matched_time ASC").
		Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

// GetMatchedTotals returns, per order id, the quantity attributed to it over
// every match on either side. Orders without matches are absent.
func (t *TransactionRepository) GetMatchedTotals(ctx context.Context, orderIDs []string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(orderIDs))
	if len(orderIDs) == 0 {
		return totals, nil
	}
	var matches []entity.OrderMatch
	if err := utils.DBFromContext(ctx, t.gormDB).
		Where("buy_order_id IN ? OR sell_order_id IN ?", orderIDs, orderIDs).
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("load matched totals: %w", err)
	}
	wanted := make(map[string]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = struct{}{}
	}
	add := func(id string, qty decimal.Decimal) {
		if _, ok := wanted[id]; ok {
			totals[id] = totals[id].Add(qty)
		}
	}
	for _, m := range matches {
		add(m.BuyOrderID, m.MatchedQty)
		add(m.SellOrderID, m.MatchedQty)
	}
	return totals, nil
}

// WithTransaction runs fn as one unit of work. Repositories called with the
// context fn receives join the transaction; a nested call reuses the outer one.
func (t *TransactionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := utils.TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return t.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(utils.ContextWithTx(ctx, tx))
	})
}
