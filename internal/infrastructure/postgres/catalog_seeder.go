package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// CatalogSeeder escribe bodegas, productos y kits. El catálogo lo administra otro sistema;
// esto solo existe para cmd/seed y los tests de integración. stock_qty nunca se toca aquí.
type CatalogSeeder struct {
	q Querier
}

func NewCatalogSeeder(q Querier) *CatalogSeeder {
	return &CatalogSeeder{q: q}
}

func (s *CatalogSeeder) UpsertWarehouse(ctx context.Context, w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, tenant_id, name, type, user_id, vehicle_driver_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			user_id = EXCLUDED.user_id,
			vehicle_driver_id = EXCLUDED.vehicle_driver_id,
			active = EXCLUDED.active,
			updated_at = now()
		WHERE warehouses.tenant_id = EXCLUDED.tenant_id`
	typ := w.Type
	if typ == "" {
		typ = entity.WarehouseFixed
	}
	_, err := s.q.Exec(ctx, query, w.ID, w.TenantID, w.Name, string(typ),
		nullable(w.UserID), nullable(w.VehicleDriverID), w.Active)
	if err != nil {
		return fmt.Errorf("upsert warehouse %s: %w", w.ID, err)
	}
	return nil
}

func (s *CatalogSeeder) UpsertProduct(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, sku, name, cost_price, is_kit)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			cost_price = EXCLUDED.cost_price,
			is_kit = EXCLUDED.is_kit,
			updated_at = now()
		WHERE products.tenant_id = EXCLUDED.tenant_id`
	_, err := s.q.Exec(ctx, query, p.ID, p.TenantID, p.SKU, p.Name, p.CostPrice, p.IsKit)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("upsert product %s: sku %q ya existe", p.ID, p.SKU)
		}
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *CatalogSeeder) UpsertKitItem(ctx context.Context, c entity.KitComponent) error {
	query := `
		INSERT INTO product_kit_items (kit_id, child_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (kit_id, child_id) DO UPDATE SET quantity = EXCLUDED.quantity`
	if _, err := s.q.Exec(ctx, query, c.KitID, c.ChildID, c.Quantity); err != nil {
		return fmt.Errorf("upsert kit item %s/%s: %w", c.KitID, c.ChildID, err)
	}
	return nil
}
