package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// InventoryCountUseCase tomas físicas de inventario: apertura con foto de saldos,
// conteo ciego y cierre con ajustes por diferencia.
type InventoryCountUseCase struct {
	tx       TxRunner
	repos    Repos
	ledger   *StockLedgerService
	renderer CountSheetRenderer
	log      *logger.Logger
	observer Observer
	now      func() time.Time
}

func NewInventoryCountUseCase(tx TxRunner, repos Repos, ledger *StockLedgerService, renderer CountSheetRenderer, log *logger.Logger, observer Observer) *InventoryCountUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &InventoryCountUseCase{
		tx:       tx,
		repos:    repos,
		ledger:   ledger,
		renderer: renderer,
		log:      log.Component("inventory_count"),
		observer: observer,
		now:      time.Now,
	}
}

// Open congela los saldos actuales de la bodega como cantidades esperadas.
func (uc *InventoryCountUseCase) Open(ctx context.Context, tenantID, warehouseID, reference, createdBy string) (*entity.InventoryCount, error) {
	if tenantID == "" || warehouseID == "" {
		return nil, domain.Invalid("tenant_id y warehouse_id son obligatorios")
	}
	if createdBy == "" {
		return nil, domain.Invalid("el responsable de la toma es obligatorio")
	}

	var out *entity.InventoryCount
	err := uc.tx.Run(ctx, func(r Repos) error {
		if err := checkWarehouse(ctx, r, tenantID, warehouseID); err != nil {
			return err
		}
		balances, err := r.Balances.List(ctx, tenantID, repository.BalanceFilter{WarehouseID: warehouseID})
		if err != nil {
			return err
		}
		sort.SliceStable(balances, func(i, j int) bool { return balances[i].BalanceKey.Less(balances[j].BalanceKey) })

		now := uc.now().UTC()
		c := &entity.InventoryCount{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			Reference:   reference,
			Status:      entity.CountOpen,
			CreatedBy:   createdBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, b := range balances {
			c.Items = append(c.Items, entity.InventoryCountItem{
				ID:               uuid.New().String(),
				CountID:          c.ID,
				ProductID:        b.ProductID,
				BatchID:          b.BatchID,
				ExpectedQuantity: b.Quantity,
			})
		}
		if err := r.Counts.Create(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("count_id", out.ID).
		Str("warehouse_id", warehouseID).
		Int("items", len(out.Items)).
		Msg("toma de inventario abierta")
	return out, nil
}

// RecordCount guarda la cantidad contada de un ítem; se puede corregir mientras siga abierta.
func (uc *InventoryCountUseCase) RecordCount(ctx context.Context, tenantID, countID, itemID string, counted decimal.Decimal, notes string) (*entity.InventoryCountItem, error) {
	if counted.IsNegative() {
		return nil, domain.Invalid("la cantidad contada no puede ser negativa")
	}
	if err := entity.CheckScale("counted_quantity", counted); err != nil {
		return nil, err
	}

	var out entity.InventoryCountItem
	err := uc.tx.Run(ctx, func(r Repos) error {
		c, err := uc.lockCount(ctx, r, tenantID, countID)
		if err != nil {
			return err
		}
		if err := c.EnsureOpen(); err != nil {
			return err
		}
		item := c.Item(itemID)
		if item == nil {
			return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
		}
		if err := item.RecordCount(counted, notes, uc.now().UTC()); err != nil {
			return err
		}
		if err := r.Counts.UpdateItemCount(ctx, item); err != nil {
			return err
		}
		out = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete ajusta el libro por cada ítem contado con diferencia y cierra la toma.
// Los ítems sin contar no se tocan. Todo o nada: ante cualquier fallo no queda ningún ajuste.
func (uc *InventoryCountUseCase) Complete(ctx context.Context, tenantID, countID, actorID string) (*entity.InventoryCount, error) {
	ctx, span := tracer.Start(ctx, "InventoryCountUseCase.Complete", trace.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("count_id", countID),
	))
	defer span.End()

	var (
		out     *entity.InventoryCount
		results []*PostResult
	)
	err := uc.tx.Run(ctx, func(r Repos) error {
		c, err := uc.lockCount(ctx, r, tenantID, countID)
		if err != nil {
			return err
		}
		if err := c.EnsureOpen(); err != nil {
			return err
		}

		order := make([]int, len(c.Items))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ia, ib := c.Items[order[a]], c.Items[order[b]]
			if ia.ProductID != ib.ProductID {
				return ia.ProductID < ib.ProductID
			}
			return ia.BatchID < ib.BatchID
		})

		// ajustes en modo permisivo: la toma refleja la existencia física
		permissive := false
		for _, idx := range order {
			item := &c.Items[idx]
			diff, counted := item.Discrepancy()
			if !counted || diff.IsZero() {
				continue
			}
			res, err := uc.ledger.PostInTx(ctx, r, PostInput{
				TenantID:       tenantID,
				ProductID:      item.ProductID,
				WarehouseID:    c.WarehouseID,
				BatchID:        item.BatchID,
				SerialID:       item.SerialID,
				Kind:           entity.MovementAdjustment,
				Quantity:       diff,
				Reference:      entity.InventoryCountReference(c.ID, c.Reference),
				Notes:          item.Notes,
				IdempotencyKey: "count:" + c.ID + ":" + item.ID,
				CreatedBy:      actorID,
				Strict:         &permissive,
			})
			if err != nil {
				return fmt.Errorf("%w: ítem %s: %w", domain.ErrIncompleteCount, item.ID, err)
			}
			adj := diff
			item.AdjustmentQuantity = &adj
			item.AdjustmentEntryID = res.Entry.ID
			if err := r.Counts.UpdateItemAdjustment(ctx, item); err != nil {
				return fmt.Errorf("%w: ítem %s: %w", domain.ErrIncompleteCount, item.ID, err)
			}
			results = append(results, res)
		}

		if err := c.Complete(actorID, uc.now().UTC()); err != nil {
			return err
		}
		if err := r.Counts.UpdateStatus(ctx, c); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrIncompleteCount, err)
		}
		out = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.ledger.report(results...)
	for _, res := range results {
		e := res.Entry
		uc.log.Warn().
			Str("tenant_id", tenantID).
			Str("count_id", out.ID).
			Str("warehouse_id", out.WarehouseID).
			Str("product_id", e.ProductID).
			Str("batch_id", e.BatchID).
			Str("adjustment", e.Quantity.String()).
			Msg("diferencia de inventario ajustada")
	}
	uc.observer.CountDiscrepancies(len(results))
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("count_id", out.ID).
		Int("counted_items", out.CountedItems()).
		Int("adjustments", len(results)).
		Msg("toma de inventario cerrada")
	return out, nil
}

// Cancel descarta la toma sin tocar el libro.
func (uc *InventoryCountUseCase) Cancel(ctx context.Context, tenantID, countID string) (*entity.InventoryCount, error) {
	var out *entity.InventoryCount
	err := uc.tx.Run(ctx, func(r Repos) error {
		c, err := uc.lockCount(ctx, r, tenantID, countID)
		if err != nil {
			return err
		}
		if err := c.Cancel(uc.now().UTC()); err != nil {
			return err
		}
		if err := r.Counts.UpdateStatus(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("count_id", countID).Msg("toma de inventario cancelada")
	return out, nil
}

func (uc *InventoryCountUseCase) Get(ctx context.Context, tenantID, countID string) (*entity.InventoryCount, error) {
	c, err := uc.repos.Counts.GetByID(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// List tomas del tenant filtradas por bodega y estado.
func (uc *InventoryCountUseCase) List(ctx context.Context, tenantID string, f repository.CountFilter) ([]*entity.InventoryCount, error) {
	if tenantID == "" {
		return nil, domain.Invalid("tenant_id es obligatorio")
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, domain.Invalid("estado desconocido %q", f.Status)
	}
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return uc.repos.Counts.List(ctx, tenantID, f)
}

// RenderSheet planilla PDF para el conteo en bodega.
func (uc *InventoryCountUseCase) RenderSheet(ctx context.Context, tenantID, countID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("inventory count: renderer de planilla no configurado")
	}
	c, err := uc.Get(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	wh, err := uc.repos.Warehouses.GetByID(ctx, tenantID, c.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, c.WarehouseID)
	}
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := uc.repos.Products.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderCountSheet(ctx, CountSheet{Count: c, Warehouse: wh, Products: products})
}

func (uc *InventoryCountUseCase) lockCount(ctx context.Context, r Repos, tenantID, countID string) (*entity.InventoryCount, error) {
	c, err := r.Counts.GetForUpdate(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: toma de inventario %s", domain.ErrNotFound, countID)
	}
	return c, nil
}
