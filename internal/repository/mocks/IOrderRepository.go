package mocks

import (
	context "context"

	decimal "github.com/shopspring/decimal"
	mock "github.com/stretchr/testify/mock"

	entity "fillReconciler/internal/domain/entity"
)

// IOrderRepository is a mock type for the IOrderRepository type
type IOrderRepository struct {
	mock.Mock
}

// CreateOrder provides a mock function with given fields: ctx, order
func (_m *IOrderRepository) CreateOrder(ctx context.Context, order *entity.Order) error {
	ret := _m.Called(ctx, order)
	return ret.Error(0)
}

// FindOrderById provides a mock function with given fields: ctx, orderID
func (_m *IOrderRepository) FindOrderById(ctx context.Context, orderID string) (entity.Order, error) {
	ret := _m.Called(ctx, orderID)
	return ret.Get(0).(entity.Order), ret.Error(1)
}

// GetUnmatchedOrders provides a mock function with given fields: ctx, symbol, bucket
func (_m *IOrderRepository) GetUnmatchedOrders(ctx context.Context, symbol string, bucket string) ([]entity.Order, error) {
	ret := _m.Called(ctx, symbol, bucket)
	var r0 []entity.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]entity.Order)
	}
	return r0, ret.Error(1)
}

// GetUnmatchedOrdersBySide provides a mock function with given fields: ctx, symbol, side
func (_m *IOrderRepository) GetUnmatchedOrdersBySide(ctx context.Context, symbol string, side entity.Side) ([]entity.Order, error) {
	ret := _m.Called(ctx, symbol, side)
	var r0 []entity.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]entity.Order)
	}
	return r0, ret.Error(1)
}

// UpdateUnmatchedQty provides a mock function with given fields: ctx, orderID, qty
func (_m *IOrderRepository) UpdateUnmatchedQty(ctx context.Context, orderID string, qty decimal.Decimal) error {
	ret := _m.Called(ctx, orderID, qty)
	return ret.Error(0)
}

// GetUnmatchedBuyTotals provides a mock function with given fields: ctx, symbol
func (_m *IOrderRepository) GetUnmatchedBuyTotals(ctx context.Context, symbol string) (map[string]decimal.Decimal, error) {
	ret := _m.Called(ctx, symbol)
	var r0 map[string]decimal.Decimal
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]decimal.Decimal)
	}
	return r0, ret.Error(1)
}

// GetUnmatchedSellTotals provides a mock function with given fields: ctx, symbol
func (_m *IOrderRepository) GetUnmatchedSellTotals(ctx context.Context, symbol string) (map[string]decimal.Decimal, error) {
	ret := _m.Called(ctx, symbol)
	var r0 map[string]decimal.Decimal
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]decimal.Decimal)
	}
	return r0, ret.Error(1)
}

// GetBuckets provides a mock function with given fields: ctx, symbol
func (_m *IOrderRepository) GetBuckets(ctx context.Context, symbol string) ([]string, error) {
	ret := _m.Called(ctx, symbol)
	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

// GetSymbols provides a mock function with given fields: ctx
func (_m *IOrderRepository) GetSymbols(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)
	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

// NewIOrderRepository creates a new instance of IOrderRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewIOrderRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *IOrderRepository {
	m := &IOrderRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
