package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

const entryColumns = `id, tenant_id, product_id, warehouse_id, target_warehouse_id, batch_id, serial_id,
	kind, quantity, unit_cost, reference_kind, reference_id, reference_label, notes,
	idempotency_key, created_by, created_at`

// LedgerEntryRepo libro de movimientos sobre PostgreSQL. La tabla rechaza UPDATE y DELETE por trigger.
type LedgerEntryRepo struct {
	q Querier
}

func NewLedgerEntryRepository(q Querier) *LedgerEntryRepo {
	return &LedgerEntryRepo{q: q}
}

// Insert con ON CONFLICT sobre la clave de idempotencia; si hubo conflicto lee la fila ganadora.
func (r *LedgerEntryRepo) Insert(ctx context.Context, e *entity.LedgerEntry) (*entity.LedgerEntry, bool, error) {
	ref := e.Reference.Normalized()
	query := `
		INSERT INTO ledger_entries (id, tenant_id, product_id, warehouse_id, target_warehouse_id, batch_id, serial_id,
			kind, quantity, unit_cost, reference_kind, reference_id, reference_label, notes,
			idempotency_key, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (tenant_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query,
		e.ID, e.TenantID, e.ProductID, e.WarehouseID, nullable(e.TargetWarehouseID), nullable(e.BatchID),
		nullable(e.SerialID), string(e.Kind), e.Quantity, e.UnitCost, string(ref.Kind), nullable(ref.ID),
		nullable(ref.Label), nullable(e.Notes), nullable(e.IdempotencyKey), nullable(e.CreatedBy), e.CreatedAt,
	).Scan(&id)
	if err == nil {
		stored := *e
		stored.Reference = ref
		return &stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert ledger entry: %w", err)
	}

	existing, err := r.getByIdempotencyKey(ctx, e.TenantID, e.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("ledger entry con clave %q no encontrado tras conflicto", e.IdempotencyKey)
	}
	return existing, false, nil
}

func (r *LedgerEntryRepo) getByIdempotencyKey(ctx context.Context, tenantID, key string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE tenant_id = $1 AND idempotency_key = $2`
	e, err := scanEntry(r.q.QueryRow(ctx, query, tenantID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry by idempotency key: %w", err)
	}
	return e, nil
}

func (r *LedgerEntryRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE tenant_id = $1 AND id = $2`
	e, err := scanEntry(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// List más recientes primero. WarehouseID coincide con origen o destino.
func (r *LedgerEntryRepo) List(ctx context.Context, tenantID string, f repository.EntryFilter) ([]*entity.LedgerEntry, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		n := len(args)
		where = append(where, fmt.Sprintf("(warehouse_id = $%d OR target_warehouse_id = $%d)", n, n))
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}
	if f.ReferenceKind != "" {
		add("reference_kind = $%d", string(f.ReferenceKind))
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row scanner) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	var kind, refKind string
	var target, batch, serial, refID, refLbl, notes, idemKey, createdBy *string
	err := row.Scan(&e.ID, &e.TenantID, &e.ProductID, &e.WarehouseID, &target, &batch, &serial,
		&kind, &e.Quantity, &e.UnitCost, &refKind, &refID, &refLbl, &notes,
		&idemKey, &createdBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.TargetWarehouseID = deref(target)
	e.BatchID = deref(batch)
	e.SerialID = deref(serial)
	e.Kind = entity.MovementKind(kind)
	e.Reference = entity.Reference{Kind: entity.ReferenceKind(refKind), ID: deref(refID), Label: deref(refLbl)}
	e.Notes = deref(notes)
	e.IdempotencyKey = deref(idemKey)
	e.CreatedBy = deref(createdBy)
	return &e, nil
}
