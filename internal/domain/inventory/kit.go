package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// KitLine movimiento derivado para un componente de kit.
type KitLine struct {
	ProductID string
	Kind      entity.MovementKind
	Quantity  decimal.Decimal
}

// ExplodesKit tipos de movimiento que se propagan a los componentes.
// Reservas, devoluciones y transferencias mueven el kit como unidad.
func ExplodesKit(kind entity.MovementKind) bool {
	switch kind {
	case entity.MovementEntry, entity.MovementExit, entity.MovementAdjustment:
		return true
	}
	return false
}

// ExplodeKit calcula los movimientos de los componentes para quantity unidades del kit.
// Un ajuste se traduce en entrada o salida según su signo.
func ExplodeKit(kind entity.MovementKind, quantity decimal.Decimal, components []entity.KitComponent) []KitLine {
	if !ExplodesKit(kind) || quantity.IsZero() {
		return nil
	}
	childKind := kind
	units := quantity
	if kind == entity.MovementAdjustment {
		childKind = entity.MovementEntry
		if quantity.IsNegative() {
			childKind = entity.MovementExit
		}
		units = quantity.Abs()
	}

	lines := make([]KitLine, 0, len(components))
	for _, c := range components {
		q := c.Quantity.Mul(units)
		if !q.IsPositive() {
			continue
		}
		lines = append(lines, KitLine{ProductID: c.ChildID, Kind: childKind, Quantity: q})
	}
	return lines
}
