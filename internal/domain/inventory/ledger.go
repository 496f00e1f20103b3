package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// BalanceDelta efecto de un movimiento sobre una fila de saldo.
type BalanceDelta struct {
	Key   entity.BalanceKey
	Delta decimal.Decimal
}

// Deltas traduce un movimiento a los cambios de saldo que produce.
// Una transferencia produce dos: -q en origen y +q en destino, con el mismo lote.
func Deltas(e *entity.LedgerEntry) []BalanceDelta {
	src := entity.BalanceKey{
		TenantID:    e.TenantID,
		WarehouseID: e.WarehouseID,
		ProductID:   e.ProductID,
		BatchID:     e.BatchID,
	}
	out := []BalanceDelta{{Key: src, Delta: e.SignedQuantity()}}
	if e.Kind == entity.MovementTransfer {
		dst := src
		dst.WarehouseID = e.TargetWarehouseID
		out = append(out, BalanceDelta{Key: dst, Delta: e.Quantity})
	}
	return out
}

// SortDeltas ordena por clave para que dos transacciones tomen los locks en la misma secuencia.
func SortDeltas(ds []BalanceDelta) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Key.Less(ds[j].Key) })
}

// EffectOn suma de los deltas del movimiento que caen en key.
func EffectOn(e *entity.LedgerEntry, key entity.BalanceKey) decimal.Decimal {
	total := decimal.Zero
	for _, d := range Deltas(e) {
		if d.Key == key {
			total = total.Add(d.Delta)
		}
	}
	return total
}

// LedgerSum saldo que el libro implica para key. Es la referencia contra la que se audita
// la tabla de saldos.
func LedgerSum(entries []entity.LedgerEntry, key entity.BalanceKey) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		total = total.Add(EffectOn(&entries[i], key))
	}
	return total
}

// LedgerBalances reconstruye todos los saldos a partir del libro.
func LedgerBalances(entries []entity.LedgerEntry) map[entity.BalanceKey]decimal.Decimal {
	out := make(map[entity.BalanceKey]decimal.Decimal)
	for i := range entries {
		for _, d := range Deltas(&entries[i]) {
			out[d.Key] = out[d.Key].Add(d.Delta)
		}
	}
	return out
}
