package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.InventoryCountRepository = (*InventoryCountRepo)(nil)

// InventoryCountRepo tomas de inventario. uq_inventory_counts_open garantiza una toma abierta por bodega.
type InventoryCountRepo struct {
	q Querier
}

func NewInventoryCountRepository(q Querier) *InventoryCountRepo {
	return &InventoryCountRepo{q: q}
}

const countColumns = `id, tenant_id, warehouse_id, reference, status, created_by, created_at, updated_at,
	completed_by, completed_at, cancelled_at`

func (r *InventoryCountRepo) Create(ctx context.Context, c *entity.InventoryCount) error {
	header := `
		INSERT INTO inventory_counts (id, tenant_id, warehouse_id, reference, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, header,
		c.ID, c.TenantID, c.WarehouseID, nullable(c.Reference), string(c.Status), c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ya hay una toma abierta para la bodega %s", domain.ErrConflict, c.WarehouseID)
		}
		return fmt.Errorf("insert inventory count: %w", err)
	}

	item := `
		INSERT INTO inventory_count_items (id, count_id, product_id, batch_id, serial_id, expected_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range c.Items {
		_, err := r.q.Exec(ctx, item, it.ID, c.ID, it.ProductID, nullable(it.BatchID), nullable(it.SerialID), it.ExpectedQuantity)
		if err != nil {
			return fmt.Errorf("insert inventory count item: %w", err)
		}
	}
	return nil
}

func (r *InventoryCountRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryCount, error) {
	return r.get(ctx, tenantID, id, "")
}

func (r *InventoryCountRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.InventoryCount, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *InventoryCountRepo) get(ctx context.Context, tenantID, id, lock string) (*entity.InventoryCount, error) {
	query := `SELECT ` + countColumns + ` FROM inventory_counts WHERE tenant_id = $1 AND id = $2` + lock
	c, err := scanCount(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory count: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.InventoryCount{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// List tomas del tenant, más recientes primero, con sus ítems.
func (r *InventoryCountRepo) List(ctx context.Context, tenantID string, f repository.CountFilter) ([]*entity.InventoryCount, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + countColumns + ` FROM inventory_counts WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory counts: %w", err)
	}
	out := make([]*entity.InventoryCount, 0)
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan inventory count: %w", err)
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inventory counts: %w", err)
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InventoryCountRepo) loadItems(ctx context.Context, counts []*entity.InventoryCount) error {
	if len(counts) == 0 {
		return nil
	}
	byID := make(map[string]*entity.InventoryCount, len(counts))
	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	query := `
		SELECT id, count_id, product_id, batch_id, serial_id, expected_quantity, counted_quantity,
			notes, counted_at, adjustment_quantity, adjustment_entry_id
		FROM inventory_count_items WHERE count_id = ANY($1::text[]::uuid[])
		ORDER BY count_id, product_id, batch_id NULLS FIRST, id`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list inventory count items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.InventoryCountItem
		var batch, serial, notes, entryID *string
		if err := rows.Scan(&it.ID, &it.CountID, &it.ProductID, &batch, &serial, &it.ExpectedQuantity,
			&it.CountedQuantity, &notes, &it.CountedAt, &it.AdjustmentQuantity, &entryID); err != nil {
			return fmt.Errorf("scan inventory count item: %w", err)
		}
		it.BatchID = deref(batch)
		it.SerialID = deref(serial)
		it.Notes = deref(notes)
		it.AdjustmentEntryID = deref(entryID)
		if c := byID[it.CountID]; c != nil {
			c.Items = append(c.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list inventory count items: %w", err)
	}
	return nil
}

func scanCount(row scanner) (*entity.InventoryCount, error) {
	var c entity.InventoryCount
	var status string
	var reference, completedBy *string
	err := row.Scan(&c.ID, &c.TenantID, &c.WarehouseID, &reference, &status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		&completedBy, &c.CompletedAt, &c.CancelledAt)
	if err != nil {
		return nil, err
	}
	c.Status = entity.CountStatus(status)
	c.Reference = deref(reference)
	c.CompletedBy = deref(completedBy)
	return &c, nil
}

func (r *InventoryCountRepo) UpdateItemCount(ctx context.Context, item *entity.InventoryCountItem) error {
	query := `UPDATE inventory_count_items SET counted_quantity = $3, notes = $4, counted_at = $5
		WHERE count_id = $1 AND id = $2`
	return r.updateItem(ctx, query, item.CountID, item.ID, item.CountedQuantity, nullable(item.Notes), item.CountedAt)
}

func (r *InventoryCountRepo) UpdateItemAdjustment(ctx context.Context, item *entity.InventoryCountItem) error {
	query := `UPDATE inventory_count_items SET adjustment_quantity = $3, adjustment_entry_id = $4
		WHERE count_id = $1 AND id = $2`
	return r.updateItem(ctx, query, item.CountID, item.ID, item.AdjustmentQuantity, nullable(item.AdjustmentEntryID))
}

func (r *InventoryCountRepo) updateItem(ctx context.Context, query string, args ...any) error {
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update inventory count item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InventoryCountRepo) UpdateStatus(ctx context.Context, c *entity.InventoryCount) error {
	query := `
		UPDATE inventory_counts SET status = $3, updated_at = $4, completed_by = $5, completed_at = $6, cancelled_at = $7
		WHERE tenant_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		c.TenantID, c.ID, string(c.Status), c.UpdatedAt, nullable(c.CompletedBy), c.CompletedAt, c.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
