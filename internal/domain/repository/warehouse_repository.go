package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// WarehouseRepository lectura de bodegas; el alta y edición viven en otro servicio.
type WarehouseRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Warehouse, error)
}

// BatchRepository lectura de lotes.
type BatchRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Batch, error)
}
