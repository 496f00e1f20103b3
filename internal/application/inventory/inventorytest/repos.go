package inventorytest

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.LedgerEntryRepository    = (*entryRepo)(nil)
	_ repository.BalanceRepository        = (*balanceRepo)(nil)
	_ repository.ProductRepository        = (*productRepo)(nil)
	_ repository.WarehouseRepository      = (*warehouseRepo)(nil)
	_ repository.BatchRepository          = (*batchRepo)(nil)
	_ repository.TransferRepository       = (*transferRepo)(nil)
	_ repository.InventoryCountRepository = (*countRepo)(nil)
	_ repository.AuditRepository          = (*auditRepo)(nil)
)

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ── entries ─────────────────────────────────────────────────────────────────

type entryRepo struct {
	st func() *state
	s  *Store
}

func (r *entryRepo) Insert(_ context.Context, e *entity.LedgerEntry) (*entity.LedgerEntry, bool, error) {
	if err := r.s.hit("entries.insert"); err != nil {
		return nil, false, err
	}
	st := r.st()
	if e.IdempotencyKey != "" {
		for _, existing := range st.entries {
			if existing.TenantID == e.TenantID && existing.IdempotencyKey == e.IdempotencyKey {
				cp := existing
				return &cp, false, nil
			}
		}
	}
	st.entries = append(st.entries, *e)
	cp := *e
	return &cp, true, nil
}

func (r *entryRepo) GetByID(_ context.Context, tenantID, id string) (*entity.LedgerEntry, error) {
	for _, e := range r.st().entries {
		if e.TenantID == tenantID && e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *entryRepo) List(_ context.Context, tenantID string, f repository.EntryFilter) ([]*entity.LedgerEntry, error) {
	entries := r.st().entries
	out := make([]*entity.LedgerEntry, 0)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.TenantID != tenantID {
			continue
		}
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if f.WarehouseID != "" && e.WarehouseID != f.WarehouseID && e.TargetWarehouseID != f.WarehouseID {
			continue
		}
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.ReferenceKind != "" && e.Reference.Kind != f.ReferenceKind {
			continue
		}
		if f.ReferenceID != "" && e.Reference.ID != f.ReferenceID {
			continue
		}
		cp := e
		out = append(out, &cp)
	}
	return page(out, f.Limit, f.Offset), nil
}

// ── balances ────────────────────────────────────────────────────────────────

type balanceRepo struct {
	st func() *state
	s  *Store
}

func (r *balanceRepo) GetOrCreate(_ context.Context, key entity.BalanceKey) (*entity.WarehouseBalance, error) {
	st := r.st()
	b, ok := st.balances[key]
	if !ok {
		b = entity.WarehouseBalance{BalanceKey: key, Quantity: decimal.Zero, UpdatedAt: time.Now()}
		st.balances[key] = b
	}
	return &b, nil
}

func (r *balanceRepo) Increment(_ context.Context, key entity.BalanceKey, delta decimal.Decimal) (*entity.WarehouseBalance, error) {
	if err := r.s.hit("balances.increment"); err != nil {
		return nil, err
	}
	st := r.st()
	b := st.balances[key]
	b.BalanceKey = key
	b.Quantity = b.Quantity.Add(delta)
	b.UpdatedAt = time.Now()
	st.balances[key] = b
	return &b, nil
}

func (r *balanceRepo) Get(_ context.Context, key entity.BalanceKey) (*entity.WarehouseBalance, error) {
	b, ok := r.st().balances[key]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *balanceRepo) List(_ context.Context, tenantID string, f repository.BalanceFilter) ([]*entity.WarehouseBalance, error) {
	st := r.st()
	out := make([]*entity.WarehouseBalance, 0)
	for _, k := range sortedBalanceKeys(st.balances) {
		b := st.balances[k]
		if k.TenantID != tenantID {
			continue
		}
		if f.WarehouseID != "" && k.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ProductID != "" && k.ProductID != f.ProductID {
			continue
		}
		if f.NonZeroOnly && b.Quantity.IsZero() {
			continue
		}
		out = append(out, &b)
	}
	return out, nil
}

// ── products ────────────────────────────────────────────────────────────────

type productRepo struct {
	st func() *state
}

func (r *productRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Product, error) {
	p, ok := r.st().products[id]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) LockForUpdate(ctx context.Context, tenantID string, ids []string) (map[string]*entity.Product, error) {
	return r.ListByIDs(ctx, tenantID, ids)
}

func (r *productRepo) ListByIDs(_ context.Context, tenantID string, ids []string) (map[string]*entity.Product, error) {
	st := r.st()
	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		p, ok := st.products[id]
		if !ok || p.TenantID != tenantID {
			continue
		}
		out[id] = &p
	}
	return out, nil
}

func (r *productRepo) RefreshStockQty(_ context.Context, tenantID, productID string) (decimal.Decimal, error) {
	st := r.st()
	p, ok := st.products[productID]
	if !ok || p.TenantID != tenantID {
		return decimal.Zero, domain.ErrNotFound
	}
	total := decimal.Zero
	for k, b := range st.balances {
		if k.TenantID == tenantID && k.ProductID == productID {
			total = total.Add(b.Quantity)
		}
	}
	p.StockQty = total
	p.UpdatedAt = time.Now()
	st.products[productID] = p
	return total, nil
}

func (r *productRepo) ListKitComponents(_ context.Context, tenantID, kitID string) ([]entity.KitComponent, error) {
	st := r.st()
	if p, ok := st.products[kitID]; !ok || p.TenantID != tenantID {
		return nil, nil
	}
	return append([]entity.KitComponent(nil), st.kits[kitID]...), nil
}

// ── warehouses / batches ────────────────────────────────────────────────────

type warehouseRepo struct {
	st func() *state
}

func (r *warehouseRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Warehouse, error) {
	w, ok := r.st().warehouses[id]
	if !ok || w.TenantID != tenantID {
		return nil, nil
	}
	return &w, nil
}

type batchRepo struct {
	st func() *state
}

func (r *batchRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Batch, error) {
	b, ok := r.st().batches[id]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return &b, nil
}

// ── transfers ───────────────────────────────────────────────────────────────

type transferRepo struct {
	st func() *state
	s  *Store
}

func copyTransfer(t entity.StockTransfer) *entity.StockTransfer {
	t.Items = append([]entity.StockTransferItem(nil), t.Items...)
	return &t
}

func (r *transferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	if err := r.s.hit("transfers.create"); err != nil {
		return err
	}
	st := r.st()
	if _, ok := st.transfers[t.ID]; ok {
		return domain.ErrDuplicate
	}
	st.transfers[t.ID] = *copyTransfer(*t)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	t, ok := r.st().transfers[id]
	if !ok || t.TenantID != tenantID {
		return nil, nil
	}
	return copyTransfer(t), nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *transferRepo) UpdateStatus(_ context.Context, t *entity.StockTransfer) error {
	if err := r.s.hit("transfers.update_status"); err != nil {
		return err
	}
	st := r.st()
	cur, ok := st.transfers[t.ID]
	if !ok || cur.TenantID != t.TenantID {
		return domain.ErrNotFound
	}
	next := *copyTransfer(*t)
	next.Items = cur.Items
	st.transfers[t.ID] = next
	return nil
}

func (r *transferRepo) List(_ context.Context, tenantID string, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	out := make([]*entity.StockTransfer, 0)
	for _, t := range r.st().transfers {
		if t.TenantID != tenantID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.WarehouseID != "" && t.FromWarehouseID != f.WarehouseID && t.ToWarehouseID != f.WarehouseID {
			continue
		}
		if f.ToUserID != "" && t.ToUserID != f.ToUserID {
			continue
		}
		out = append(out, copyTransfer(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

// ── inventory counts ────────────────────────────────────────────────────────

type countRepo struct {
	st func() *state
	s  *Store
}

func copyCount(c entity.InventoryCount) *entity.InventoryCount {
	c.Items = append([]entity.InventoryCountItem(nil), c.Items...)
	return &c
}

func (r *countRepo) Create(_ context.Context, c *entity.InventoryCount) error {
	st := r.st()
	for _, other := range st.counts {
		if other.TenantID == c.TenantID && other.WarehouseID == c.WarehouseID && other.Status == entity.CountOpen {
			return domain.ErrConflict
		}
	}
	st.counts[c.ID] = *copyCount(*c)
	return nil
}

func (r *countRepo) GetByID(_ context.Context, tenantID, id string) (*entity.InventoryCount, error) {
	c, ok := r.st().counts[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return copyCount(c), nil
}

func (r *countRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.InventoryCount, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *countRepo) updateItem(countID, itemID string, fn func(it *entity.InventoryCountItem)) error {
	st := r.st()
	c, ok := st.counts[countID]
	if !ok {
		return domain.ErrNotFound
	}
	c = *copyCount(c)
	it := c.Item(itemID)
	if it == nil {
		return domain.ErrNotFound
	}
	fn(it)
	st.counts[countID] = c
	return nil
}

func (r *countRepo) UpdateItemCount(_ context.Context, item *entity.InventoryCountItem) error {
	return r.updateItem(item.CountID, item.ID, func(it *entity.InventoryCountItem) {
		it.CountedQuantity = item.CountedQuantity
		it.Notes = item.Notes
		it.CountedAt = item.CountedAt
	})
}

func (r *countRepo) UpdateItemAdjustment(_ context.Context, item *entity.InventoryCountItem) error {
	if err := r.s.hit("counts.update_item_adjustment"); err != nil {
		return err
	}
	return r.updateItem(item.CountID, item.ID, func(it *entity.InventoryCountItem) {
		it.AdjustmentQuantity = item.AdjustmentQuantity
		it.AdjustmentEntryID = item.AdjustmentEntryID
	})
}

func (r *countRepo) UpdateStatus(_ context.Context, c *entity.InventoryCount) error {
	if err := r.s.hit("counts.update_status"); err != nil {
		return err
	}
	st := r.st()
	cur, ok := st.counts[c.ID]
	if !ok || cur.TenantID != c.TenantID {
		return domain.ErrNotFound
	}
	next := *copyCount(*c)
	next.Items = cur.Items
	st.counts[c.ID] = next
	return nil
}

func (r *countRepo) List(_ context.Context, tenantID string, f repository.CountFilter) ([]*entity.InventoryCount, error) {
	out := make([]*entity.InventoryCount, 0)
	for _, c := range r.st().counts {
		if c.TenantID != tenantID {
			continue
		}
		if f.WarehouseID != "" && c.WarehouseID != f.WarehouseID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, copyCount(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

// ── audit ───────────────────────────────────────────────────────────────────

type auditRepo struct {
	st func() *state
}

func (r *auditRepo) LedgerDrift(_ context.Context, tenantID, warehouseID string) ([]repository.BalanceDrift, error) {
	st := r.st()
	var entries []entity.LedgerEntry
	for _, e := range st.entries {
		if e.TenantID == tenantID {
			entries = append(entries, e)
		}
	}
	ledger := inventory.LedgerBalances(entries)

	keys := map[entity.BalanceKey]bool{}
	for k := range ledger {
		keys[k] = true
	}
	for k := range st.balances {
		if k.TenantID == tenantID {
			keys[k] = true
		}
	}

	var out []repository.BalanceDrift
	for k := range keys {
		if warehouseID != "" && k.WarehouseID != warehouseID {
			continue
		}
		stored := st.balances[k].Quantity
		expected := ledger[k]
		if stored.Equal(expected) {
			continue
		}
		out = append(out, repository.BalanceDrift{
			WarehouseID:    k.WarehouseID,
			ProductID:      k.ProductID,
			BatchID:        k.BatchID,
			StoredQuantity: stored,
			LedgerQuantity: expected,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].BatchID < out[j].BatchID
	})
	return out, nil
}

func (r *auditRepo) AggregateDrift(_ context.Context, tenantID string) ([]repository.AggregateDrift, error) {
	st := r.st()
	sums := map[string]decimal.Decimal{}
	for k, b := range st.balances {
		if k.TenantID == tenantID {
			sums[k.ProductID] = sums[k.ProductID].Add(b.Quantity)
		}
	}
	var out []repository.AggregateDrift
	for id, p := range st.products {
		if p.TenantID != tenantID || p.StockQty.Equal(sums[id]) {
			continue
		}
		out = append(out, repository.AggregateDrift{ProductID: id, StockQty: p.StockQty, BalancesQuantity: sums[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}
