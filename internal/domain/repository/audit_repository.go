package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceDrift fila de saldo cuyo valor no coincide con la suma del libro.
type BalanceDrift struct {
	WarehouseID    string
	ProductID      string
	BatchID        string
	StoredQuantity decimal.Decimal
	LedgerQuantity decimal.Decimal
}

// AggregateDrift producto cuyo stock_qty difiere de la suma de sus saldos.
type AggregateDrift struct {
	ProductID        string
	StockQty         decimal.Decimal
	BalancesQuantity decimal.Decimal
}

// AuditRepository consultas de verificación del libro contra los saldos.
type AuditRepository interface {
	// LedgerDrift warehouseID vacío revisa todas las bodegas del tenant.
	LedgerDrift(ctx context.Context, tenantID, warehouseID string) ([]BalanceDrift, error)
	AggregateDrift(ctx context.Context, tenantID string) ([]AggregateDrift, error)
}
