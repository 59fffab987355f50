package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fillReconciler/internal/domain/entity"
	"fillReconciler/pkg/database"
)

// NewSQLiteDB opens a migrated in-memory database that lives as long as t.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDBConnection(&database.Config{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// At returns a fill time n minutes after a fixed epoch.
func At(n int) time.Time {
	return epoch.Add(time.Duration(n) * time.Minute)
}

func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NewOrder builds an unmatched fill without commission.
func NewOrder(id, symbol, bucket string, side entity.Side, qty, price string, minute int) entity.Order {
	return entity.Order{
		OrderID:      id,
		Symbol:       symbol,
		Timeframe:    bucket,
		Side:         side,
		Quantity:     D(qty),
		Price:        D(price),
		Commission:   decimal.Zero,
		UnmatchedQty: D(qty),
		Time:         At(minute),
	}
}

// Seed stores orders through the gorm handle, bypassing repository checks.
func Seed(t *testing.T, db *gorm.DB, orders ...entity.Order) {
	t.Helper()
	for i := range orders {
		require.NoError(t, db.WithContext(context.Background()).Create(&orders[i]).Error)
	}
}
