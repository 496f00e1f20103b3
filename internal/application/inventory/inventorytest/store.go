// Package inventorytest repositorios en memoria con semántica transaccional para tests de
// los casos de uso de inventario. Las transacciones se serializan con un mutex (equivalente
// a los locks de fila) y sus escrituras solo se publican en el Commit.
package inventorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	warehouses map[string]entity.Warehouse
	products   map[string]entity.Product
	kits       map[string][]entity.KitComponent
	batches    map[string]entity.Batch
	balances   map[entity.BalanceKey]entity.WarehouseBalance
	entries    []entity.LedgerEntry
	transfers  map[string]entity.StockTransfer
	counts     map[string]entity.InventoryCount
}

func newState() *state {
	return &state{
		warehouses: map[string]entity.Warehouse{},
		products:   map[string]entity.Product{},
		kits:       map[string][]entity.KitComponent{},
		batches:    map[string]entity.Batch{},
		balances:   map[entity.BalanceKey]entity.WarehouseBalance{},
		transfers:  map[string]entity.StockTransfer{},
		counts:     map[string]entity.InventoryCount{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.kits {
		c.kits[k] = append([]entity.KitComponent(nil), v...)
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	c.entries = append([]entity.LedgerEntry(nil), s.entries...)
	for k, v := range s.transfers {
		v.Items = append([]entity.StockTransferItem(nil), v.Items...)
		c.transfers[k] = v
	}
	for k, v := range s.counts {
		v.Items = append([]entity.InventoryCountItem(nil), v.Items...)
		c.counts[k] = v
	}
	return c
}

type fault struct {
	after int
	calls int
	err   error
}

// Store base de datos en memoria.
type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *state

	faultMu sync.Mutex
	faults  map[string]*fault

	commits int
}

func NewStore() *Store {
	return &Store{committed: newState(), faults: map[string]*fault{}}
}

// Run ejecuta fn sobre una copia del estado; solo si fn termina sin error la copia se publica.
func (s *Store) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(func() *state { return work })); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.commits++
	s.mu.Unlock()
	return nil
}

// Repos repositorios de lectura sobre el estado confirmado.
func (s *Store) Repos() inventory.Repos {
	return s.repos(s.current)
}

func (s *Store) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

func (s *Store) repos(st func() *state) inventory.Repos {
	return inventory.Repos{
		Entries:    &entryRepo{st: st, s: s},
		Balances:   &balanceRepo{st: st, s: s},
		Products:   &productRepo{st: st},
		Warehouses: &warehouseRepo{st: st},
		Batches:    &batchRepo{st: st},
		Transfers:  &transferRepo{st: st, s: s},
		Counts:     &countRepo{st: st, s: s},
		Audit:      &auditRepo{st: st},
	}
}

// FailOn hace fallar la llamada número nth (desde 1) de la operación op con err.
// Operaciones: entries.insert, balances.increment, transfers.create,
// transfers.update_status, counts.update_item_adjustment, counts.update_status.
func (s *Store) FailOn(op string, nth int, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = &fault{after: nth, err: err}
}

func (s *Store) hit(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	f.calls++
	if f.calls == f.after {
		return f.err
	}
	return nil
}

// Commits número de transacciones confirmadas.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// ── Datos iniciales ─────────────────────────────────────────────────────────

func (s *Store) seed(fn func(st *state)) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.committed.clone()
	fn(next)
	s.committed = next
}

func (s *Store) AddWarehouse(w entity.Warehouse) {
	if w.Type == "" {
		w.Type = entity.WarehouseFixed
	}
	s.seed(func(st *state) { st.warehouses[w.ID] = w })
}

func (s *Store) AddProduct(p entity.Product) {
	s.seed(func(st *state) { st.products[p.ID] = p })
}

// AddKit marca kitID como kit con sus componentes.
func (s *Store) AddKit(kitID string, components ...entity.KitComponent) {
	s.seed(func(st *state) {
		p := st.products[kitID]
		p.IsKit = true
		st.products[kitID] = p
		st.kits[kitID] = append([]entity.KitComponent(nil), components...)
	})
}

func (s *Store) AddBatch(b entity.Batch) {
	s.seed(func(st *state) { st.batches[b.ID] = b })
}

// SetBalance escribe un saldo sin pasar por el libro (para simular desvíos).
func (s *Store) SetBalance(key entity.BalanceKey, qty decimal.Decimal) {
	s.seed(func(st *state) {
		st.balances[key] = entity.WarehouseBalance{BalanceKey: key, Quantity: qty, UpdatedAt: time.Now()}
	})
}

// ── Lecturas para asserts ───────────────────────────────────────────────────

// Balance cantidad confirmada; cero si la fila no existe.
func (s *Store) Balance(key entity.BalanceKey) decimal.Decimal {
	return s.current().balances[key].Quantity
}

// BalanceRows número de filas de saldo para la clave (0 o 1).
func (s *Store) BalanceRows(key entity.BalanceKey) int {
	if _, ok := s.current().balances[key]; ok {
		return 1
	}
	return 0
}

func (s *Store) Product(id string) entity.Product {
	return s.current().products[id]
}

// Entries movimientos confirmados en orden de inserción.
func (s *Store) Entries() []entity.LedgerEntry {
	return append([]entity.LedgerEntry(nil), s.current().entries...)
}

// EntriesByReference movimientos con la referencia indicada.
func (s *Store) EntriesByReference(kind entity.ReferenceKind, id string) []entity.LedgerEntry {
	var out []entity.LedgerEntry
	for _, e := range s.current().entries {
		if e.Reference.Kind == kind && e.Reference.ID == id {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Transfer(id string) (entity.StockTransfer, bool) {
	t, ok := s.current().transfers[id]
	return t, ok
}

func (s *Store) Count(id string) (entity.InventoryCount, bool) {
	c, ok := s.current().counts[id]
	return c, ok
}

func sortedBalanceKeys(m map[entity.BalanceKey]entity.WarehouseBalance) []entity.BalanceKey {
	keys := make([]entity.BalanceKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
