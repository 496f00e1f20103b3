package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo saldos por (tenant, bodega, producto, lote). La fila sin lote tiene batch_id NULL
// y la restricción uq_warehouse_balances_key (NULLS NOT DISTINCT) la mantiene única.
type BalanceRepo struct {
	q Querier
}

func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

const balanceColumns = `tenant_id, warehouse_id, product_id, batch_id, quantity, updated_at`

func (r *BalanceRepo) GetOrCreate(ctx context.Context, key entity.BalanceKey) (*entity.WarehouseBalance, error) {
	insert := `
		INSERT INTO warehouse_balances (tenant_id, warehouse_id, product_id, batch_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT ON CONSTRAINT uq_warehouse_balances_key DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, key.TenantID, key.WarehouseID, key.ProductID, nullable(key.BatchID)); err != nil {
		return nil, fmt.Errorf("create warehouse balance: %w", err)
	}
	b, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("saldo %s/%s no visible tras crearlo", key.WarehouseID, key.ProductID)
	}
	return b, nil
}

// Increment upsert atómico: crea la fila con delta o le suma delta, y bloquea la fila hasta el commit.
func (r *BalanceRepo) Increment(ctx context.Context, key entity.BalanceKey, delta decimal.Decimal) (*entity.WarehouseBalance, error) {
	query := `
		INSERT INTO warehouse_balances (tenant_id, warehouse_id, product_id, batch_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT ON CONSTRAINT uq_warehouse_balances_key
		DO UPDATE SET quantity = warehouse_balances.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING quantity, updated_at`
	b := entity.WarehouseBalance{BalanceKey: key}
	err := r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.ProductID, nullable(key.BatchID), delta).
		Scan(&b.Quantity, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("increment warehouse balance: %w", err)
	}
	return &b, nil
}

func (r *BalanceRepo) Get(ctx context.Context, key entity.BalanceKey) (*entity.WarehouseBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM warehouse_balances
		WHERE tenant_id = $1 AND warehouse_id = $2 AND product_id = $3 AND batch_id IS NOT DISTINCT FROM $4::uuid`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.ProductID, nullable(key.BatchID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse balance: %w", err)
	}
	return b, nil
}

func (r *BalanceRepo) List(ctx context.Context, tenantID string, f repository.BalanceFilter) ([]*entity.WarehouseBalance, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.NonZeroOnly {
		where = append(where, "quantity <> 0")
	}
	query := `SELECT ` + balanceColumns + ` FROM warehouse_balances WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY warehouse_id, product_id, batch_id NULLS FIRST`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list warehouse balances: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.WarehouseBalance, 0)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBalance(row scanner) (*entity.WarehouseBalance, error) {
	var b entity.WarehouseBalance
	var batch *string
	if err := row.Scan(&b.TenantID, &b.WarehouseID, &b.ProductID, &batch, &b.Quantity, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.BatchID = deref(batch)
	return &b, nil
}
