package inventory

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// Repos conjunto de repositorios atados a una misma conexión o transacción.
type Repos struct {
	Entries    repository.LedgerEntryRepository
	Balances   repository.BalanceRepository
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Batches    repository.BatchRepository
	Transfers  repository.TransferRepository
	Counts     repository.InventoryCountRepository
	Audit      repository.AuditRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a ella.
// Si fn devuelve error se hace Rollback y no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// Observer recibe eventos del libro después del Commit (métricas).
type Observer interface {
	EntryPosted(kind entity.MovementKind, replayed bool)
	NegativeBalance(b entity.WarehouseBalance)
	TransferTransition(status entity.TransferStatus)
	CountDiscrepancies(n int)
}

// NopObserver descarta todos los eventos.
type NopObserver struct{}

func (NopObserver) EntryPosted(entity.MovementKind, bool)    {}
func (NopObserver) NegativeBalance(entity.WarehouseBalance)  {}
func (NopObserver) TransferTransition(entity.TransferStatus) {}
func (NopObserver) CountDiscrepancies(int)                   {}

// CountSheetRenderer genera la planilla de conteo ciego.
type CountSheetRenderer interface {
	RenderCountSheet(ctx context.Context, sheet CountSheet) ([]byte, error)
}

// CountSheet datos que necesita la planilla; no incluye cantidades esperadas.
type CountSheet struct {
	Count     *entity.InventoryCount
	Warehouse *entity.Warehouse
	Products  map[string]*entity.Product
}
