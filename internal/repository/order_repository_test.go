package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fillReconciler/internal/domain/entity"
	"fillReconciler/internal/testutil"
)

func TestCreateOrder(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	orderRepository := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("Create Order", func(t *testing.T) {
		order := testutil.NewOrder("o-1", "BTCUSDT", "1m", entity.Buy, "2.5", "100", 1)
		order.UnmatchedQty = testutil.D("0")
		err := orderRepository.CreateOrder(ctx, &order)
		assert.NoError(t, err, "Error while creating order")

		stored, err := orderRepository.FindOrderById(ctx, "o-1")
		require.NoError(t, err)
		assert.True(t, stored.UnmatchedQty.Equal(testutil.D("2.5")), "New orders start fully unmatched")
		assert.Equal(t, entity.Buy, stored.Side)
		assert.True(t, stored.Time.Equal(testutil.At(1)))
	})
	t.Run("Create Order with existing id", func(t *testing.T) {
		order := testutil.NewOrder("o-1", "BTCUSDT", "1m", entity.Sell, "1", "100", 2)
		assert.Error(t, orderRepository.CreateOrder(ctx, &order), "Expected error for a duplicate order id")
	})
	t.Run("Create invalid Order", func(t *testing.T) {
		order := testutil.NewOrder("o-2", "BTCUSDT", "1m", entity.Sell, "1", "-5", 2)
		assert.Error(t, orderRepository.CreateOrder(ctx, &order), "Expected error for a negative price")
	})
}

func TestFindOrderById(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	orderRepository := NewOrderRepository(db)

	_, err := orderRepository.FindOrderById(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetUnmatchedOrders(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	spent := testutil.NewOrder("spent", "BTCUSDT", "1m", entity.Buy, "1", "100", 0)
	spent.UnmatchedQty = testutil.D("0")
	testutil.Seed(t, db,
		testutil.NewOrder("c", "BTCUSDT", "1m", entity.Sell, "1", "100", 5),
		testutil.NewOrder("b", "BTCUSDT", "1m", entity.Buy, "1", "100", 2),
		testutil.NewOrder("a", "BTCUSDT", "1m", entity.Buy, "1", "100", 2),
		testutil.NewOrder("d", "BTCUSDT", "5m", entity.Buy, "1", "100", 1),
		testutil.NewOrder("e", "ETHUSDT", "1m", entity.Buy, "1", "100", 1),
		spent,
	)
	orderRepository := NewOrderRepository(db)
	ctx := context.Background()

	orderIDs := func(orders []entity.Order) []string {
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.OrderID)
		}
		return out
	}

	t.Run("One bucket in fill order", func(t *testing.T) {
		orders, err := orderRepository.GetUnmatchedOrders(ctx, "BTCUSDT", "1m")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, orderIDs(orders))
	})
	t.Run("All buckets", func(t *testing.T) {
		orders, err := orderRepository.GetUnmatchedOrders(ctx, "BTCUSDT", AllBuckets)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "a", "b", "c"}, orderIDs(orders))
	})
	t.Run("By side", func(t *testing.T) {
		orders, err := orderRepository.GetUnmatchedOrdersBySide(ctx, "BTCUSDT", entity.Buy)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "a", "b"}, orderIDs(orders))
	})
	t.Run("Unknown symbol", func(t *testing.T) {
		orders, err := orderRepository.GetUnmatchedOrders(ctx, "XRPUSDT", "1m")
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestUpdateUnmatchedQty(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.Seed(t, db, testutil.NewOrder("o-1", "BTCUSDT", "1m", entity.Buy, "4", "100", 1))
	orderRepository := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("Within range", func(t *testing.T) {
		require.NoError(t, orderRepository.UpdateUnmatchedQty(ctx, "o-1", testutil.D("1.5")))
		stored, err := orderRepository.FindOrderById(ctx, "o-1")
		require.NoError(t, err)
		assert.True(t, stored.UnmatchedQty.Equal(testutil.D("1.5")))
	})
	t.Run("Above quantity", func(t *testing.T) {
		err := orderRepository.UpdateUnmatchedQty(ctx, "o-1", testutil.D("4.5"))
		assert.ErrorIs(t, err, ErrQuantityOutOfRange)
	})
	t.Run("Negative", func(t *testing.T) {
		err := orderRepository.UpdateUnmatchedQty(ctx, "o-1", testutil.D("-1"))
		assert.ErrorIs(t, err, ErrQuantityOutOfRange)
	})
	t.Run("Unknown order", func(t *testing.T) {
		err := orderRepository.UpdateUnmatchedQty(ctx, "missing", testutil.D("1"))
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestUnmatchedTotals(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.Seed(t, db,
		testutil.NewOrder("b1", "BTCUSDT", "1m", entity.Buy, "1.5", "100", 1),
		testutil.NewOrder("b2", "BTCUSDT", "1m", entity.Buy, "2", "100", 2),
		testutil.NewOrder("b3", "BTCUSDT", "A", entity.Buy, "0.5", "100", 3),
		testutil.NewOrder("s1", "BTCUSDT", "1m", entity.Sell, "3", "100", 4),
	)
	orderRepository := NewOrderRepository(db)
	ctx := context.Background()

	buys, err := orderRepository.GetUnmatchedBuyTotals(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, buys, 2)
	assert.True(t, buys["1m"].Equal(testutil.D("3.5")))
	assert.True(t, buys["A"].Equal(testutil.D("0.5")))

	sells, err := orderRepository.GetUnmatchedSellTotals(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.True(t, sells["1m"].Equal(testutil.D("3")))
}

func TestBucketsAndSymbols(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.Seed(t, db,
		testutil.NewOrder("b1", "BTCUSDT", "5m", entity.Buy, "1", "100", 1),
		testutil.NewOrder("b2", "BTCUSDT", "1m", entity.Buy, "1", "100", 2),
		testutil.NewOrder("b3", "BTCUSDT", "1m", entity.Sell, "1", "100", 3),
		testutil.NewOrder("e1", "ETHUSDT", "A", entity.Buy, "1", "100", 1),
	)
	orderRepository := NewOrderRepository(db)
	ctx := context.Background()

	buckets, err := orderRepository.GetBuckets(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"1m", "5m"}, buckets)

	symbols, err := orderRepository.GetSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func TestSumUnmatched(t *testing.T) {
	orders := []entity.Order{
		testutil.NewOrder("a", "BTCUSDT", "1m", entity.Buy, "0.1", "1", 0),
		testutil.NewOrder("b", "BTCUSDT", "1m", entity.Buy, "0.2", "1", 0),
	}
	assert.True(t, SumUnmatched(orders).Equal(testutil.D("0.3")))
	assert.True(t, SumUnmatched(nil).IsZero())
}

func TestEighteenDecimalRoundTrip(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	orderRepository := NewOrderRepository(db)
	ctx := context.Background()

	order := testutil.NewOrder("b1", "BTCUSDT", "1m", entity.Buy, "1.000000000000000001", "100.123456789012345678", 1)
	order.Commission = testutil.D("0.000000000000000003")
	require.NoError(t, orderRepository.CreateOrder(ctx, &order))

	stored, err := orderRepository.FindOrderById(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "1.000000000000000001", stored.Quantity.String())
	assert.Equal(t, "100.123456789012345678", stored.Price.String())
	assert.Equal(t, "0.000000000000000003", stored.Commission.String())

	t.Run("Dust stays unmatched", func(t *testing.T) {
		require.NoError(t, orderRepository.UpdateUnmatchedQty(ctx, "b1", testutil.D("0.000000000000000001")))
		orders, err := orderRepository.GetUnmatchedOrders(ctx, "BTCUSDT", "1m")
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "0.000000000000000001", orders[0].UnmatchedQty.String())
	})
	t.Run("Zero drops out", func(t *testing.T) {
		require.NoError(t, orderRepository.UpdateUnmatchedQty(ctx, "b1", testutil.D("0")))
		orders, err := orderRepository.GetUnmatchedOrdersBySide(ctx, "BTCUSDT", entity.Buy)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}
