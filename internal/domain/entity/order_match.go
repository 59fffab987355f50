package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MatchMode string

const (
	DirectMatch MatchMode = "direct"
	ProxyMatch  MatchMode = "proxy"
)

// OrderMatch is an append-only record of one buy/sell pairing.
type OrderMatch struct {
	ID          uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	BuyOrderID  string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_match_key;index:idx_order_match_buy"`
	SellOrderID string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_match_key;index:idx_order_match_sell"`
	MatchedQty  decimal.Decimal `gorm:"type:decimal(36,18);not null;uniqueIndex:idx_order_match_key"`
	Profit      decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	Symbol      string          `gorm:"type:varchar(32);not null;index"`
	Bucket      string          `gorm:"type:varchar(32);not null"`
	Mode        MatchMode       `gorm:"type:varchar(8);not null"`
	MatchedTime time.Time       `gorm:"not null"`
}

func (m *OrderMatch) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MatchedTime.IsZero() {
		m.MatchedTime = time.Now().UTC()
	}
	return nil
}
