package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// BalanceFilter filtros para listar saldos.
type BalanceFilter struct {
	WarehouseID string
	ProductID   string
	NonZeroOnly bool
}

// BalanceRepository puerto de saldos por (tenant, bodega, producto, lote).
type BalanceRepository interface {
	// GetOrCreate devuelve la fila de la clave creándola en cero si no existe.
	// Llamadas concurrentes para la misma clave nunca producen dos filas.
	GetOrCreate(ctx context.Context, key entity.BalanceKey) (*entity.WarehouseBalance, error)
	// Increment suma delta de forma atómica y devuelve el saldo resultante.
	Increment(ctx context.Context, key entity.BalanceKey, delta decimal.Decimal) (*entity.WarehouseBalance, error)
	// Get devuelve nil si la fila no existe.
	Get(ctx context.Context, key entity.BalanceKey) (*entity.WarehouseBalance, error)
	List(ctx context.Context, tenantID string, f BalanceFilter) ([]*entity.WarehouseBalance, error)
}
