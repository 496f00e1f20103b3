package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type CountFilter struct {
	WarehouseID string
	Status      entity.CountStatus
	Limit       int
	Offset      int
}

// InventoryCountRepository persistencia de tomas de inventario.
type InventoryCountRepository interface {
	// Create devuelve domain.ErrConflict si ya hay una toma abierta para la bodega.
	Create(ctx context.Context, c *entity.InventoryCount) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryCount, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.InventoryCount, error)
	UpdateItemCount(ctx context.Context, item *entity.InventoryCountItem) error
	UpdateItemAdjustment(ctx context.Context, item *entity.InventoryCountItem) error
	UpdateStatus(ctx context.Context, c *entity.InventoryCount) error
	List(ctx context.Context, tenantID string, f CountFilter) ([]*entity.InventoryCount, error)
}
