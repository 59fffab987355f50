package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fillReconciler/internal/domain/entity"
	"fillReconciler/internal/repository/mocks"
	"fillReconciler/internal/testutil"
)

func bucketOrder(id, bucket string, side entity.Side, qty, price string, minute int) *entity.Order {
	o := testutil.NewOrder(id, "BTCUSDT", bucket, side, qty, price, minute)
	return &o
}

func TestSafeWindowCovered(t *testing.T) {
	buys := []*entity.Order{
		bucketOrder("a1", "A", entity.Buy, "3", "50", 1),
		bucketOrder("m1", "1m", entity.Buy, "2", "70", 2),
	}
	held := map[string]decimal.Decimal{"A": d("3"), "1m": d("2")}

	status := safeWindow("BTCUSDT", "1m", d("4"), held, buys)

	assert.True(t, status.Safe)
	assert.True(t, status.PendingSellQty.Equal(d("4")))
	assert.True(t, status.PooledBuyQty.Equal(d("5")))
	assert.True(t, status.Shortfall.IsZero())
	require.Len(t, status.Buckets, 2)

	// cheapest first: all of A, then one unit of 1m
	assert.Equal(t, "1m", status.Buckets[0].Bucket)
	assert.True(t, status.Buckets[0].Consumable.Equal(d("1")))
	assert.True(t, status.Buckets[0].Remaining.Equal(d("1")))
	assert.Equal(t, "A", status.Buckets[1].Bucket)
	assert.True(t, status.Buckets[1].Consumable.Equal(d("3")))
	assert.True(t, status.Buckets[1].Remaining.IsZero())
}

func TestSafeWindowShortfall(t *testing.T) {
	buys := []*entity.Order{bucketOrder("a1", "A", entity.Buy, "1", "50", 1)}

	status := safeWindow("BTCUSDT", "1m", d("2.5"), map[string]decimal.Decimal{"A": d("1")}, buys)

	assert.False(t, status.Safe)
	assert.True(t, status.Shortfall.Equal(d("1.5")))
	require.Len(t, status.Buckets, 1)
	assert.True(t, status.Buckets[0].Remaining.IsZero())
}

func TestSafeWindowEmpty(t *testing.T) {
	status := safeWindow("BTCUSDT", "1m", decimal.Zero, nil, nil)

	assert.True(t, status.Safe)
	assert.True(t, status.PendingSellQty.IsZero())
	assert.Empty(t, status.Buckets)
}

func TestSafeWindowStatusUsesStoreTotals(t *testing.T) {
	orderRepo := mocks.NewIOrderRepository(t)
	txRepo := mocks.NewITransactionRepository(t)
	orderRepo.On("GetUnmatchedBuyTotals", mock.Anything, "BTCUSDT").
		Return(map[string]decimal.Decimal{"A": d("3"), "5m": d("1")}, nil)
	orderRepo.On("GetUnmatchedSellTotals", mock.Anything, "BTCUSDT").
		Return(map[string]decimal.Decimal{"1m": d("2"), "A": d("7")}, nil)
	orderRepo.On("GetUnmatchedOrdersBySide", mock.Anything, "BTCUSDT", entity.Buy).Return([]entity.Order{
		testutil.NewOrder("a1", "BTCUSDT", "A", entity.Buy, "3", "50", 1),
		testutil.NewOrder("f1", "BTCUSDT", "5m", entity.Buy, "1", "40", 2),
	}, nil)

	status, err := NewMatcher(orderRepo, txRepo).SafeWindowStatus(context.Background(), "BTCUSDT", "1m")
	require.NoError(t, err)

	assert.True(t, status.PendingSellQty.Equal(d("2")))
	assert.True(t, status.PooledBuyQty.Equal(d("4")))
	assert.True(t, status.Safe)
	require.Len(t, status.Buckets, 2)
	assert.Equal(t, "5m", status.Buckets[0].Bucket)
	assert.True(t, status.Buckets[0].UnmatchedBuyQty.Equal(d("1")))
	assert.True(t, status.Buckets[0].Consumable.Equal(d("1")))
	assert.Equal(t, "A", status.Buckets[1].Bucket)
	assert.True(t, status.Buckets[1].UnmatchedBuyQty.Equal(d("3")))
	assert.True(t, status.Buckets[1].Consumable.Equal(d("1")))
	assert.True(t, status.Buckets[1].Remaining.Equal(d("2")))
}

func TestSafeWindowStatusStoreError(t *testing.T) {
	orderRepo := mocks.NewIOrderRepository(t)
	orderRepo.On("GetUnmatchedBuyTotals", mock.Anything, "BTCUSDT").Return(nil, errStore)

	_, err := NewMatcher(orderRepo, mocks.NewITransactionRepository(t)).SafeWindowStatus(context.Background(), "BTCUSDT", "1m")
	assert.ErrorIs(t, err, errStore)
}
