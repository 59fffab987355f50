package service

import (
	"strings"

	rbt "github.com/emirpasic/gods/trees/redblacktree"

	"fillReconciler/internal/domain/entity"
)

type poolKey struct {
	order *entity.Order
}

// poolComparator orders buy inventory cheapest first, then oldest, then by
// order id so equal price and time still give a total order.
func poolComparator(a, b interface{}) int {
	x := a.(poolKey).order
	y := b.(poolKey).order
	if c := x.Price.Cmp(y.Price); c != 0 {
		return c
	}
	if x.Time.Before(y.Time) {
		return -1
	}
	if x.Time.After(y.Time) {
		return 1
	}
	return strings.Compare(x.OrderID, y.OrderID)
}

// BuyPool is the price-ordered view of unmatched BUY inventory. It lives for
// one call and holds pointers to the caller's orders, so decrementing an
// entry's UnmatchedQty is visible to whoever persists the run.
type BuyPool struct {
	tree *rbt.Tree
}

func NewBuyPool() *BuyPool {
	return &BuyPool{tree: rbt.NewWith(poolComparator)}
}

// BuildPool returns the BUY orders with remaining quantity, cheapest first.
// Sell orders and exhausted buys are ignored.
func BuildPool(orders []*entity.Order) *BuyPool {
	pool := NewBuyPool()
	for _, order := range orders {
		pool.Push(order)
	}
	return pool
}

func (p *BuyPool) Push(order *entity.Order) {
	if !order.IsBuy() || !order.UnmatchedQty.IsPositive() {
		return
	}
	p.tree.Put(poolKey{order: order}, nil)
}

// Peek returns the cheapest entry, or nil when the pool is empty.
func (p *BuyPool) Peek() *entity.Order {
	node := p.tree.Left()
	if node == nil {
		return nil
	}
	return node.Key.(poolKey).order
}

func (p *BuyPool) Remove(order *entity.Order) {
	p.tree.Remove(poolKey{order: order})
}

func (p *BuyPool) Len() int {
	return p.tree.Size()
}

func (p *BuyPool) Empty() bool {
	return p.tree.Empty()
}

// Entries lists the pool in consumption order.
func (p *BuyPool) Entries() []*entity.Order {
	entries := make([]*entity.Order, 0, p.tree.Size())
	it := p.tree.Iterator()
	for it.Next() {
		entries = append(entries, it.Key().(poolKey).order)
	}
	return entries
}
