package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// EntryFilter filtros para listar movimientos. WarehouseID coincide con origen o destino.
type EntryFilter struct {
	ProductID     string
	WarehouseID   string
	Kind          entity.MovementKind
	ReferenceKind entity.ReferenceKind
	ReferenceID   string
	Limit         int
	Offset        int
}

// LedgerEntryRepository puerto del libro de movimientos. Solo inserción: no hay Update ni Delete.
type LedgerEntryRepository interface {
	// Insert persiste el movimiento. Si ya existe uno con la misma clave de idempotencia
	// para el tenant devuelve el existente con inserted=false y no escribe nada.
	Insert(ctx context.Context, e *entity.LedgerEntry) (stored *entity.LedgerEntry, inserted bool, err error)
	GetByID(ctx context.Context, tenantID, id string) (*entity.LedgerEntry, error)
	List(ctx context.Context, tenantID string, f EntryFilter) ([]*entity.LedgerEntry, error)
}
