package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// CountStatus estado de una toma de inventario.
type CountStatus string

const (
	CountOpen      CountStatus = "open"
	CountCompleted CountStatus = "completed"
	CountCancelled CountStatus = "cancelled"
)

func (s CountStatus) IsValid() bool {
	switch s {
	case CountOpen, CountCompleted, CountCancelled:
		return true
	}
	return false
}

// InventoryCount toma física de una bodega. Al abrirla se congela la cantidad esperada
// de cada saldo; al cerrarla se ajusta el libro por las diferencias contadas.
type InventoryCount struct {
	ID          string
	TenantID    string
	WarehouseID string
	Reference   string
	Status      CountStatus
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedBy string
	CompletedAt *time.Time
	CancelledAt *time.Time
	Items       []InventoryCountItem
}

type InventoryCountItem struct {
	ID                 string
	CountID            string
	ProductID          string
	BatchID            string
	SerialID           string
	ExpectedQuantity   decimal.Decimal
	CountedQuantity    *decimal.Decimal // nil = no contado
	Notes              string
	CountedAt          *time.Time
	AdjustmentQuantity *decimal.Decimal // delta aplicado al cerrar
	AdjustmentEntryID  string
}

func (i *InventoryCountItem) IsCounted() bool {
	return i.CountedQuantity != nil
}

// Discrepancy contado - esperado. ok=false si el ítem no fue contado.
func (i *InventoryCountItem) Discrepancy() (diff decimal.Decimal, ok bool) {
	if i.CountedQuantity == nil {
		return decimal.Zero, false
	}
	return i.CountedQuantity.Sub(i.ExpectedQuantity), true
}

// RecordCount registra la cantidad contada; puede sobrescribirse mientras la toma esté abierta.
func (i *InventoryCountItem) RecordCount(counted decimal.Decimal, notes string, at time.Time) error {
	if counted.IsNegative() {
		return domain.Invalid("la cantidad contada no puede ser negativa")
	}
	if err := CheckScale("counted_quantity", counted); err != nil {
		return err
	}
	c := counted
	i.CountedQuantity = &c
	i.Notes = notes
	i.CountedAt = &at
	return nil
}

func (c *InventoryCount) EnsureOpen() error {
	if c.Status != CountOpen {
		return domain.IllegalState("la toma de inventario está %s", c.Status)
	}
	return nil
}

// Item busca por id; nil si no pertenece a la toma.
func (c *InventoryCount) Item(id string) *InventoryCountItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *InventoryCount) Complete(by string, at time.Time) error {
	if err := c.EnsureOpen(); err != nil {
		return err
	}
	c.Status = CountCompleted
	c.CompletedBy = by
	c.CompletedAt = &at
	c.UpdatedAt = at
	return nil
}

func (c *InventoryCount) Cancel(at time.Time) error {
	if err := c.EnsureOpen(); err != nil {
		return err
	}
	c.Status = CountCancelled
	c.CancelledAt = &at
	c.UpdatedAt = at
	return nil
}

// CountedItems número de ítems con cantidad registrada.
func (c *InventoryCount) CountedItems() int {
	n := 0
	for i := range c.Items {
		if c.Items[i].IsCounted() {
			n++
		}
	}
	return n
}
