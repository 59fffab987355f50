package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchStats struct {
	MatchedPairs    int             `json:"matched_pairs"`
	TotalMatchedQty decimal.Decimal `json:"total_matched_qty"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
}

func (s MatchStats) IsZero() bool {
	return s.MatchedPairs == 0 && s.TotalMatchedQty.IsZero() && s.TotalProfit.IsZero()
}

type BucketWindow struct {
	Bucket          string          `json:"bucket"`
	UnmatchedBuyQty decimal.Decimal `json:"unmatched_buy_qty"`
	// Consumable is how much of this bucket's inventory the pooling bucket's
	// pending sells would draw when walking the pool cheapest first.
	Consumable decimal.Decimal `json:"consumable"`
	Remaining  decimal.Decimal `json:"remaining"`
}

type SafeWindowStatus struct {
	Symbol         string          `json:"symbol"`
	PrimaryBucket  string          `json:"primary_bucket"`
	PendingSellQty decimal.Decimal `json:"pending_sell_qty"`
	PooledBuyQty   decimal.Decimal `json:"pooled_buy_qty"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	Safe           bool            `json:"safe"`
	Buckets        []BucketWindow  `json:"buckets"`
}

type PoolEntryDto struct {
	OrderID      string          `json:"order_id"`
	Timeframe    string          `json:"timeframe"`
	Price        decimal.Decimal `json:"price"`
	UnmatchedQty decimal.Decimal `json:"unmatched_qty"`
	Time         time.Time       `json:"time"`
}

// FillDto is one executed fill as handed over by the importer.
type FillDto struct {
	OrderID    string          `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Side       string          `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Time       time.Time       `json:"time"`
}

type MatchDto struct {
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	MatchedQty  decimal.Decimal `json:"matched_qty"`
	Profit      decimal.Decimal `json:"profit"`
	Bucket      string          `json:"bucket"`
	Mode        string          `json:"mode"`
	MatchedTime time.Time       `json:"matched_time"`
}

type OrderDto struct {
	OrderID      string          `json:"order_id"`
	Symbol       string          `json:"symbol"`
	Timeframe    string          `json:"timeframe"`
	Side         string          `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Commission   decimal.Decimal `json:"commission"`
	UnmatchedQty decimal.Decimal `json:"unmatched_qty"`
	Time         time.Time       `json:"time"`
	Matches      []MatchDto      `json:"matches"`
}
