package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto inventariable.
// StockQty es un agregado cacheado: suma de todos sus saldos por bodega.
type Product struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	CostPrice decimal.Decimal
	IsKit     bool
	StockQty  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KitComponent cantidad de un hijo por unidad del kit.
type KitComponent struct {
	KitID    string
	ChildID  string
	Quantity decimal.Decimal
}
