package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch lote de un producto.
type Batch struct {
	ID        string
	TenantID  string
	ProductID string
	Code      string
	ExpiresAt *time.Time
	UnitCost  decimal.Decimal
	CreatedAt time.Time
}

func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && b.ExpiresAt.Before(now)
}
