package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// MovementKind tipo de movimiento del libro de stock.
type MovementKind string

const (
	MovementEntry       MovementKind = "entry"       // entrada
	MovementExit        MovementKind = "exit"        // salida
	MovementAdjustment  MovementKind = "adjustment"  // ajuste con signo
	MovementReservation MovementKind = "reservation" // reserva (descuenta)
	MovementReturn      MovementKind = "return"      // devolución (suma)
	MovementTransfer    MovementKind = "transfer"    // traslado origen -> destino
)

// MovementKinds todos los tipos válidos, en orden estable.
var MovementKinds = []MovementKind{
	MovementEntry, MovementExit, MovementAdjustment,
	MovementReservation, MovementReturn, MovementTransfer,
}

func (k MovementKind) IsValid() bool {
	for _, v := range MovementKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Sign devuelve +1 o -1 para los tipos de dirección fija, vista desde WarehouseID.
// Para ajustes devuelve 0: el signo viaja en la cantidad.
func (k MovementKind) Sign() int {
	switch k {
	case MovementEntry, MovementReturn:
		return 1
	case MovementExit, MovementReservation, MovementTransfer:
		return -1
	default:
		return 0
	}
}

// QuantityScale decimales que admiten las columnas NUMERIC(18,4) de cantidades y costos.
const QuantityScale = 4

// CheckScale rechaza valores con más decimales de los que persiste la base.
func CheckScale(field string, v decimal.Decimal) error {
	if v.Exponent() < -QuantityScale && !v.Equal(v.Truncate(QuantityScale)) {
		return domain.Invalid("%s admite como máximo %d decimales", field, QuantityScale)
	}
	return nil
}

// LedgerEntry movimiento inmutable del libro. Una vez persistido nunca se modifica ni se borra;
// las correcciones se registran como movimientos nuevos.
type LedgerEntry struct {
	ID                string
	TenantID          string
	ProductID         string
	WarehouseID       string
	TargetWarehouseID string // solo transfer
	BatchID           string // vacío = sin lote
	SerialID          string
	Kind              MovementKind
	// Quantity > 0 para todos los tipos salvo adjustment, donde es el delta con signo (≠ 0).
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	Reference      Reference
	Notes          string
	IdempotencyKey string
	CreatedBy      string
	CreatedAt      time.Time
}

// SignedQuantity efecto sobre el saldo de WarehouseID.
func (e *LedgerEntry) SignedQuantity() decimal.Decimal {
	if e.Kind == MovementAdjustment {
		return e.Quantity
	}
	if e.Kind.Sign() < 0 {
		return e.Quantity.Neg()
	}
	return e.Quantity
}

// Validate reglas estructurales del movimiento (no consulta persistencia).
func (e *LedgerEntry) Validate() error {
	if e.TenantID == "" {
		return domain.Invalid("tenant_id es obligatorio")
	}
	if e.ProductID == "" {
		return domain.Invalid("product_id es obligatorio")
	}
	if e.WarehouseID == "" {
		return domain.Invalid("warehouse_id es obligatorio")
	}
	if !e.Kind.IsValid() {
		return domain.Invalid("tipo de movimiento desconocido %q", e.Kind)
	}
	if e.Kind == MovementAdjustment {
		if e.Quantity.IsZero() {
			return domain.Invalid("el ajuste debe tener cantidad distinta de cero")
		}
	} else if !e.Quantity.IsPositive() {
		return domain.Invalid("la cantidad debe ser mayor que cero para %s", e.Kind)
	}
	if err := CheckScale("quantity", e.Quantity); err != nil {
		return err
	}
	if e.Kind == MovementTransfer {
		if e.TargetWarehouseID == "" {
			return domain.Invalid("target_warehouse_id es obligatorio en transferencias")
		}
		if e.TargetWarehouseID == e.WarehouseID {
			return domain.Invalid("la bodega destino debe ser distinta del origen")
		}
	} else if e.TargetWarehouseID != "" {
		return domain.Invalid("target_warehouse_id solo aplica a transferencias")
	}
	if e.UnitCost.IsNegative() {
		return domain.Invalid("unit_cost no puede ser negativo")
	}
	if err := CheckScale("unit_cost", e.UnitCost); err != nil {
		return err
	}
	return e.Reference.Validate()
}

// SamePayload indica si dos movimientos piden lo mismo. Se usa al repetir una clave de
// idempotencia: costo, notas y fechas no cuentan, el resto sí.
func (e *LedgerEntry) SamePayload(o *LedgerEntry) bool {
	a, b := e.Reference.Normalized(), o.Reference.Normalized()
	return e.TenantID == o.TenantID &&
		e.ProductID == o.ProductID &&
		e.WarehouseID == o.WarehouseID &&
		e.TargetWarehouseID == o.TargetWarehouseID &&
		e.BatchID == o.BatchID &&
		e.SerialID == o.SerialID &&
		e.Kind == o.Kind &&
		e.Quantity.Equal(o.Quantity) &&
		a.Kind == b.Kind &&
		a.ID == b.ID
}
