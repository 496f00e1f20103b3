package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, tenant_id, sku, name, cost_price, is_kit, stock_qty, created_at, updated_at`

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// LockForUpdate SELECT ... FOR UPDATE ordenado por id para que dos transacciones no se crucen.
func (r *ProductRepo) LockForUpdate(ctx context.Context, tenantID string, ids []string) (map[string]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE tenant_id = $1 AND id = ANY($2::text[]::uuid[])
		ORDER BY id FOR UPDATE`
	return r.queryMap(ctx, "lock products", query, tenantID, ids)
}

func (r *ProductRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) (map[string]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = ANY($2::text[]::uuid[])`
	return r.queryMap(ctx, "list products", query, tenantID, ids)
}

func (r *ProductRepo) queryMap(ctx context.Context, op, query string, tenantID string, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// RefreshStockQty stock_qty = suma de saldos del producto en todas las bodegas.
func (r *ProductRepo) RefreshStockQty(ctx context.Context, tenantID, productID string) (decimal.Decimal, error) {
	query := `
		UPDATE products p SET
			stock_qty = COALESCE((
				SELECT SUM(b.quantity) FROM warehouse_balances b
				WHERE b.tenant_id = p.tenant_id AND b.product_id = p.id
			), 0),
			updated_at = now()
		WHERE p.tenant_id = $1 AND p.id = $2
		RETURNING p.stock_qty`
	var qty decimal.Decimal
	if err := r.q.QueryRow(ctx, query, tenantID, productID).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		return decimal.Zero, fmt.Errorf("refresh stock_qty: %w", err)
	}
	return qty, nil
}

// ListKitComponents componentes del kit ordenados por hijo.
func (r *ProductRepo) ListKitComponents(ctx context.Context, tenantID, kitID string) ([]entity.KitComponent, error) {
	query := `
		SELECT k.kit_id, k.child_id, k.quantity
		FROM product_kit_items k
		JOIN products p ON p.id = k.kit_id
		WHERE p.tenant_id = $1 AND k.kit_id = $2
		ORDER BY k.child_id`
	rows, err := r.q.Query(ctx, query, tenantID, kitID)
	if err != nil {
		return nil, fmt.Errorf("list kit components: %w", err)
	}
	defer rows.Close()
	var out []entity.KitComponent
	for rows.Next() {
		var c entity.KitComponent
		if err := rows.Scan(&c.KitID, &c.ChildID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("scan kit component: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanProduct(row scanner) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.CostPrice, &p.IsKit, &p.StockQty, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
