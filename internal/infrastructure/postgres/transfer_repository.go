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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo transferencias entre bodegas (cabecera + ítems).
type TransferRepo struct {
	q Querier
}

func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, tenant_id, from_warehouse_id, to_warehouse_id, to_user_id, status, notes,
	created_by, created_at, updated_at, accepted_by, accepted_at, rejected_by, rejected_at,
	rejection_reason, cancelled_by, cancelled_at`

// Create inserta cabecera e ítems; debe llamarse dentro de una transacción.
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	header := `
		INSERT INTO stock_transfers (id, tenant_id, from_warehouse_id, to_warehouse_id, to_user_id, status, notes,
			created_by, created_at, updated_at, accepted_by, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, header,
		t.ID, t.TenantID, t.FromWarehouseID, t.ToWarehouseID, nullable(t.ToUserID), string(t.Status),
		nullable(t.Notes), t.CreatedBy, t.CreatedAt, t.UpdatedAt, nullable(t.AcceptedBy), t.AcceptedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock transfer: %w", err)
	}

	item := `
		INSERT INTO stock_transfer_items (id, transfer_id, product_id, batch_id, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range t.Items {
		if _, err := r.q.Exec(ctx, item, it.ID, t.ID, it.ProductID, nullable(it.BatchID), it.Quantity, it.Position); err != nil {
			return fmt.Errorf("insert stock transfer item: %w", err)
		}
	}
	return nil
}

func (r *TransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, tenantID, id, "")
}

// GetForUpdate bloquea la cabecera (FOR UPDATE); los ítems no cambian después de crear.
func (r *TransferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *TransferRepo) get(ctx context.Context, tenantID, id, lock string) (*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE tenant_id = $1 AND id = $2` + lock
	t, err := scanTransfer(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock transfer: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.StockTransfer{t}); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfers SET status = $3, updated_at = $4,
			accepted_by = $5, accepted_at = $6, rejected_by = $7, rejected_at = $8,
			rejection_reason = $9, cancelled_by = $10, cancelled_at = $11
		WHERE tenant_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		t.TenantID, t.ID, string(t.Status), t.UpdatedAt,
		nullable(t.AcceptedBy), t.AcceptedAt, nullable(t.RejectedBy), t.RejectedAt,
		nullable(t.RejectionReason), nullable(t.CancelledBy), t.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("update stock transfer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más recientes primero.
func (r *TransferRepo) List(ctx context.Context, tenantID string, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		n := len(args)
		where = append(where, fmt.Sprintf("(from_warehouse_id = $%d OR to_warehouse_id = $%d)", n, n))
	}
	if f.ToUserID != "" {
		args = append(args, f.ToUserID)
		where = append(where, fmt.Sprintf("to_user_id = $%d", len(args)))
	}
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock transfers: %w", err)
	}
	out := make([]*entity.StockTransfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stock transfer: %w", err)
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock transfers: %w", err)
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TransferRepo) loadItems(ctx context.Context, transfers []*entity.StockTransfer) error {
	if len(transfers) == 0 {
		return nil
	}
	byID := make(map[string]*entity.StockTransfer, len(transfers))
	ids := make([]string, 0, len(transfers))
	for _, t := range transfers {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	query := `
		SELECT id, transfer_id, product_id, batch_id, quantity, position
		FROM stock_transfer_items WHERE transfer_id = ANY($1::text[]::uuid[])
		ORDER BY transfer_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list stock transfer items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.StockTransferItem
		var batch *string
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ProductID, &batch, &it.Quantity, &it.Position); err != nil {
			return fmt.Errorf("scan stock transfer item: %w", err)
		}
		it.BatchID = deref(batch)
		if t := byID[it.TransferID]; t != nil {
			t.Items = append(t.Items, it)
		}
	}
	return rows.Err()
}

func scanTransfer(row scanner) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	var status string
	var toUser, notes, acceptedBy, rejectedBy, reason, cancelledBy *string
	err := row.Scan(&t.ID, &t.TenantID, &t.FromWarehouseID, &t.ToWarehouseID, &toUser, &status, &notes,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &acceptedBy, &t.AcceptedAt, &rejectedBy, &t.RejectedAt,
		&reason, &cancelledBy, &t.CancelledAt)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	t.ToUserID = deref(toUser)
	t.Notes = deref(notes)
	t.AcceptedBy = deref(acceptedBy)
	t.RejectedBy = deref(rejectedBy)
	t.RejectionReason = deref(reason)
	t.CancelledBy = deref(cancelledBy)
	return &t, nil
}
