package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo compara el libro contra los saldos materializados.
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// El signo de cada tipo replica entity.MovementKind.Sign; la transferencia aporta además
// +quantity a la bodega destino (segunda rama del UNION ALL).
// El FULL JOIN compara batch_id vía COALESCE porque IS NOT DISTINCT FROM no admite hash ni merge join.
const ledgerDriftSQL = `
WITH deltas AS (
	SELECT warehouse_id, product_id, batch_id,
		CASE kind
			WHEN 'adjustment' THEN quantity
			WHEN 'entry' THEN quantity
			WHEN 'return' THEN quantity
			ELSE -quantity
		END AS delta
	FROM ledger_entries WHERE tenant_id = $1
	UNION ALL
	SELECT target_warehouse_id, product_id, batch_id, quantity
	FROM ledger_entries WHERE tenant_id = $1 AND kind = 'transfer'
),
ledger AS (
	SELECT warehouse_id, product_id, batch_id, SUM(delta) AS quantity
	FROM deltas GROUP BY warehouse_id, product_id, batch_id
),
stored AS (
	SELECT warehouse_id, product_id, batch_id, quantity
	FROM warehouse_balances WHERE tenant_id = $1
)
SELECT COALESCE(s.warehouse_id, l.warehouse_id) AS warehouse_id,
	COALESCE(s.product_id, l.product_id) AS product_id,
	COALESCE(s.batch_id, l.batch_id) AS batch_id,
	COALESCE(s.quantity, 0) AS stored_quantity,
	COALESCE(l.quantity, 0) AS ledger_quantity
FROM stored s
FULL OUTER JOIN ledger l
	ON s.warehouse_id = l.warehouse_id
	AND s.product_id = l.product_id
	AND COALESCE(s.batch_id, '00000000-0000-0000-0000-000000000000'::uuid)
		= COALESCE(l.batch_id, '00000000-0000-0000-0000-000000000000'::uuid)
WHERE COALESCE(s.quantity, 0) <> COALESCE(l.quantity, 0)
	AND ($2::text = '' OR COALESCE(s.warehouse_id, l.warehouse_id)::text = $2::text)
ORDER BY 1, 2, 3 NULLS FIRST`

func (r *AuditRepo) LedgerDrift(ctx context.Context, tenantID, warehouseID string) ([]repository.BalanceDrift, error) {
	rows, err := r.q.Query(ctx, ledgerDriftSQL, tenantID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ledger drift: %w", err)
	}
	defer rows.Close()
	var out []repository.BalanceDrift
	for rows.Next() {
		var d repository.BalanceDrift
		var batch *string
		if err := rows.Scan(&d.WarehouseID, &d.ProductID, &batch, &d.StoredQuantity, &d.LedgerQuantity); err != nil {
			return nil, fmt.Errorf("scan ledger drift: %w", err)
		}
		d.BatchID = deref(batch)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *AuditRepo) AggregateDrift(ctx context.Context, tenantID string) ([]repository.AggregateDrift, error) {
	query := `
		SELECT p.id, p.stock_qty, COALESCE(b.total, 0)
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(quantity) AS total
			FROM warehouse_balances WHERE tenant_id = $1
			GROUP BY product_id
		) b ON b.product_id = p.id
		WHERE p.tenant_id = $1 AND p.stock_qty <> COALESCE(b.total, 0)
		ORDER BY p.id`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("aggregate drift: %w", err)
	}
	defer rows.Close()
	var out []repository.AggregateDrift
	for rows.Next() {
		var d repository.AggregateDrift
		if err := rows.Scan(&d.ProductID, &d.StockQty, &d.BalancesQuantity); err != nil {
			return nil, fmt.Errorf("scan aggregate drift: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
