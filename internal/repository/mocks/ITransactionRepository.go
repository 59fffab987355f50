package mocks

import (
	context "context"

	decimal "github.com/shopspring/decimal"
	mock "github.com/stretchr/testify/mock"

	entity "fillReconciler/internal/domain/entity"
)

// ITransactionRepository is a mock type for the ITransactionRepository type
type ITransactionRepository struct {
	mock.Mock
}

// InsertMatch provides a mock function with given fields: ctx, match
func (_m *ITransactionRepository) InsertMatch(ctx context.Context, match *entity.OrderMatch) error {
	ret := _m.Called(ctx, match)
	return ret.Error(0)
}

// FetchMatch provides a mock function with given fields: ctx, buyOrderID, sellOrderID, qty
func (_m *ITransactionRepository) FetchMatch(ctx context.Context, buyOrderID string, sellOrderID string, qty decimal.Decimal) (*entity.OrderMatch, error) {
	ret := _m.Called(ctx, buyOrderID, sellOrderID, qty)
	var r0 *entity.OrderMatch
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*entity.OrderMatch)
	}
	return r0, ret.Error(1)
}

// FindMatchesByOrder provides a mock function with given fields: ctx, orderID
func (_m *ITransactionRepository) FindMatchesByOrder(ctx context.Context, orderID string) ([]entity.OrderMatch, error) {
	ret := _m.Called(ctx, orderID)
	var r0 []entity.OrderMatch
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]entity.OrderMatch)
	}
	return r0, ret.Error(1)
}

// GetMatchedTotals provides a mock function with given fields: ctx, orderIDs
func (_m *ITransactionRepository) GetMatchedTotals(ctx context.Context, orderIDs []string) (map[string]decimal.Decimal, error) {
	ret := _m.Called(ctx, orderIDs)
	var r0 map[string]decimal.Decimal
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]decimal.Decimal)
	}
	return r0, ret.Error(1)
}

// WithTransaction provides a mock function with given fields: ctx, fn
func (_m *ITransactionRepository) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	ret := _m.Called(ctx, fn)
	if rf, ok := ret.Get(0).(func(context.Context, func(context.Context) error) error); ok {
		return rf(ctx, fn)
	}
	return ret.Error(0)
}

// NewITransactionRepository creates a new instance of ITransactionRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewITransactionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *ITransactionRepository {
	m := &ITransactionRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
