package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifica una fila de saldo. BatchID vacío es la fila sin lote.
type BalanceKey struct {
	TenantID    string
	WarehouseID string
	ProductID   string
	BatchID     string
}

// Less orden total usado para tomar locks de saldo siempre en la misma secuencia.
func (k BalanceKey) Less(o BalanceKey) bool {
	if k.TenantID != o.TenantID {
		return k.TenantID < o.TenantID
	}
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.BatchID < o.BatchID
}

// WarehouseBalance cantidad materializada de un producto (y lote) en una bodega.
// Siempre debe coincidir con la suma con signo de los movimientos del libro para su clave.
type WarehouseBalance struct {
	BalanceKey
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

func (b WarehouseBalance) IsNegative() bool {
	return b.Quantity.IsNegative()
}
