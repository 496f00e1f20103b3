package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

type TransferFilter struct {
	Status      entity.TransferStatus
	WarehouseID string // origen o destino
	ToUserID    string
	Limit       int
	Offset      int
}

// TransferRepository persistencia de transferencias con sus ítems.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.StockTransfer) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error)
	// GetForUpdate bloquea la cabecera; serializa transiciones concurrentes.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error)
	UpdateStatus(ctx context.Context, t *entity.StockTransfer) error
	List(ctx context.Context, tenantID string, f TransferFilter) ([]*entity.StockTransfer, error)
}
