package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ProductRepository puerto de productos para el libro de stock.
type ProductRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	// LockForUpdate bloquea las filas de los productos en orden de id (SELECT ... FOR UPDATE).
	// Los ids inexistentes no aparecen en el mapa.
	LockForUpdate(ctx context.Context, tenantID string, ids []string) (map[string]*entity.Product, error)
	// RefreshStockQty recalcula stock_qty como la suma de los saldos del producto.
	RefreshStockQty(ctx context.Context, tenantID, productID string) (decimal.Decimal, error)
	ListKitComponents(ctx context.Context, tenantID, kitID string) ([]entity.KitComponent, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) (map[string]*entity.Product, error)
}
