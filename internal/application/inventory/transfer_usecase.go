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
	"github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Actor quien ejecuta la acción.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == jwt.RoleAdmin }

// CanOverrideAcceptance admin y bodeguero pueden aceptar o rechazar en nombre del destinatario.
func (a Actor) CanOverrideAcceptance() bool {
	return a.Role == jwt.RoleAdmin || a.Role == jwt.RoleStockKeeper
}

type TransferItemInput struct {
	ProductID string
	BatchID   string
	Quantity  decimal.Decimal
}

type CreateTransferInput struct {
	TenantID        string
	FromWarehouseID string
	ToWarehouseID   string
	ToUserID        string // vacío = responsable de la bodega destino
	Notes           string
	Items           []TransferItemInput
	RequestedBy     string
}

// TransferUseCase flujo de transferencias entre bodegas con aceptación opcional.
type TransferUseCase struct {
	tx       TxRunner
	repos    Repos
	ledger   *StockLedgerService
	log      *logger.Logger
	observer Observer
	now      func() time.Time
}

func NewTransferUseCase(tx TxRunner, repos Repos, ledger *StockLedgerService, log *logger.Logger, observer Observer) *TransferUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &TransferUseCase{
		tx:       tx,
		repos:    repos,
		ledger:   ledger,
		log:      log.Component("stock_transfer"),
		observer: observer,
		now:      time.Now,
	}
}

func validateTransferInput(in CreateTransferInput) error {
	if in.TenantID == "" {
		return domain.Invalid("tenant_id es obligatorio")
	}
	if in.FromWarehouseID == "" || in.ToWarehouseID == "" {
		return domain.Invalid("bodega origen y destino son obligatorias")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return domain.Invalid("la bodega destino debe ser distinta del origen")
	}
	if in.RequestedBy == "" {
		return domain.Invalid("el solicitante es obligatorio")
	}
	if len(in.Items) == 0 {
		return domain.Invalid("la transferencia debe tener al menos un ítem")
	}
	seen := make(map[[2]string]bool, len(in.Items))
	for i, it := range in.Items {
		if it.ProductID == "" {
			return domain.Invalid("ítem %d: product_id es obligatorio", i+1)
		}
		if !it.Quantity.IsPositive() {
			return domain.Invalid("ítem %d: la cantidad debe ser mayor que cero", i+1)
		}
		if err := entity.CheckScale(fmt.Sprintf("ítem %d: quantity", i+1), it.Quantity); err != nil {
			return err
		}
		k := [2]string{it.ProductID, it.BatchID}
		if seen[k] {
			return domain.Invalid("ítem %d: producto y lote repetidos", i+1)
		}
		seen[k] = true
	}
	return nil
}

// Create registra la transferencia. Si no requiere aceptación se aplica en la misma
// transacción y queda completed.
func (uc *TransferUseCase) Create(ctx context.Context, in CreateTransferInput) (*entity.StockTransfer, error) {
	ctx, span := tracer.Start(ctx, "TransferUseCase.Create", trace.WithAttributes(attribute.String("tenant_id", in.TenantID)))
	defer span.End()

	if err := validateTransferInput(in); err != nil {
		return nil, err
	}

	var (
		out     *entity.StockTransfer
		results []*PostResult
	)
	err := uc.tx.Run(ctx, func(r Repos) error {
		from, err := loadWarehouse(ctx, r, in.TenantID, in.FromWarehouseID)
		if err != nil {
			return err
		}
		to, err := loadWarehouse(ctx, r, in.TenantID, in.ToWarehouseID)
		if err != nil {
			return err
		}

		now := uc.now().UTC()
		t := &entity.StockTransfer{
			ID:              uuid.New().String(),
			TenantID:        in.TenantID,
			FromWarehouseID: from.ID,
			ToWarehouseID:   to.ID,
			ToUserID:        in.ToUserID,
			Status:          entity.TransferPendingAcceptance,
			Notes:           in.Notes,
			CreatedBy:       in.RequestedBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if t.ToUserID == "" {
			t.ToUserID = to.Custodian()
		}
		for i, it := range in.Items {
			t.Items = append(t.Items, entity.StockTransferItem{
				ID:         uuid.New().String(),
				TransferID: t.ID,
				ProductID:  it.ProductID,
				BatchID:    it.BatchID,
				Quantity:   it.Quantity,
				Position:   i + 1,
			})
		}

		if err := uc.checkItems(ctx, r, t); err != nil {
			return err
		}

		requiresAcceptance := t.ToUserID != "" || (from.IsVehicle() && to.IsCentral())
		if !requiresAcceptance {
			t.Complete(in.RequestedBy, now)
		}
		if err := r.Transfers.Create(ctx, t); err != nil {
			return err
		}
		if !requiresAcceptance {
			if results, err = uc.apply(ctx, r, t, in.RequestedBy); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.ledger.report(results...)
	uc.observer.TransferTransition(out.Status)
	uc.log.Info().
		Str("tenant_id", out.TenantID).
		Str("transfer_id", out.ID).
		Str("status", string(out.Status)).
		Str("from_warehouse_id", out.FromWarehouseID).
		Str("to_warehouse_id", out.ToWarehouseID).
		Int("items", len(out.Items)).
		Msg("transferencia creada")
	return out, nil
}

// checkItems productos y lotes existentes; con StrictTransfers, saldo suficiente en origen.
func (uc *TransferUseCase) checkItems(ctx context.Context, r Repos, t *entity.StockTransfer) error {
	for _, it := range t.Items {
		p, err := r.Products.GetByID(ctx, t.TenantID, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
		if it.BatchID != "" {
			b, err := r.Batches.GetByID(ctx, t.TenantID, it.BatchID)
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("%w: lote %s", domain.ErrNotFound, it.BatchID)
			}
			if b.ProductID != it.ProductID {
				return domain.Invalid("el lote %s no pertenece al producto %s", it.BatchID, it.ProductID)
			}
		}
		if !uc.ledger.cfg.StrictTransfers {
			continue
		}
		bal, err := r.Balances.Get(ctx, entity.BalanceKey{
			TenantID: t.TenantID, WarehouseID: t.FromWarehouseID, ProductID: it.ProductID, BatchID: it.BatchID,
		})
		if err != nil {
			return err
		}
		available := decimal.Zero
		if bal != nil {
			available = bal.Quantity
		}
		if available.LessThan(it.Quantity) {
			return fmt.Errorf("%w: producto %s disponible %s, solicitado %s",
				domain.ErrInsufficientStock, it.ProductID, available.String(), it.Quantity.String())
		}
	}
	return nil
}

// apply registra un movimiento transfer por ítem, en orden de producto para bloquear siempre igual.
func (uc *TransferUseCase) apply(ctx context.Context, r Repos, t *entity.StockTransfer, actorID string) ([]*PostResult, error) {
	items := append([]entity.StockTransferItem(nil), t.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].BatchID < items[j].BatchID
	})

	strict := uc.ledger.cfg.StrictTransfers || uc.ledger.cfg.StrictMode
	results := make([]*PostResult, 0, len(items))
	for _, it := range items {
		res, err := uc.ledger.PostInTx(ctx, r, PostInput{
			TenantID:          t.TenantID,
			ProductID:         it.ProductID,
			WarehouseID:       t.FromWarehouseID,
			TargetWarehouseID: t.ToWarehouseID,
			BatchID:           it.BatchID,
			Kind:              entity.MovementTransfer,
			Quantity:          it.Quantity,
			Reference:         entity.TransferReference(t.ID),
			Notes:             t.Notes,
			IdempotencyKey:    "transfer:" + t.ID + ":" + it.ID,
			CreatedBy:         actorID,
			Strict:            &strict,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func authorizeRecipient(t *entity.StockTransfer, from *entity.Warehouse, actor Actor) error {
	if t.ToUserID != "" && actor.UserID == t.ToUserID {
		return nil
	}
	if actor.IsAdmin() {
		return nil
	}
	// el bodeguero recibe en bodegas sin responsable y devoluciones de vehículo
	if actor.Role == jwt.RoleStockKeeper && (t.ToUserID == "" || from.IsVehicle()) {
		return nil
	}
	return fmt.Errorf("%w: solo el destinatario puede responder la transferencia", domain.ErrForbidden)
}

// transition carga la transferencia bloqueada y aplica fn en una transacción.
func (uc *TransferUseCase) transition(ctx context.Context, tenantID, id, op string,
	fn func(r Repos, t *entity.StockTransfer) ([]*PostResult, error),
) (*entity.StockTransfer, error) {
	ctx, span := tracer.Start(ctx, "TransferUseCase."+op, trace.WithAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("transfer_id", id),
	))
	defer span.End()

	var (
		out     *entity.StockTransfer
		results []*PostResult
	)
	err := uc.tx.Run(ctx, func(r Repos) error {
		t, err := r.Transfers.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, id)
		}
		if t.Status.IsTerminal() {
			return domain.IllegalState("la transferencia ya está %s", t.Status)
		}
		if results, err = fn(r, t); err != nil {
			return err
		}
		if err := r.Transfers.UpdateStatus(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	uc.ledger.report(results...)
	uc.observer.TransferTransition(out.Status)
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("transfer_id", out.ID).
		Str("status", string(out.Status)).
		Msg("transferencia actualizada")
	return out, nil
}

// Accept aplica todos los ítems en una sola transacción.
func (uc *TransferUseCase) Accept(ctx context.Context, tenantID, id string, actor Actor) (*entity.StockTransfer, error) {
	return uc.transition(ctx, tenantID, id, "Accept", func(r Repos, t *entity.StockTransfer) ([]*PostResult, error) {
		from, err := r.Warehouses.GetByID(ctx, tenantID, t.FromWarehouseID)
		if err != nil {
			return nil, err
		}
		if from == nil {
			return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, t.FromWarehouseID)
		}
		if err := authorizeRecipient(t, from, actor); err != nil {
			return nil, err
		}
		if err := t.Accept(actor.UserID, uc.now().UTC()); err != nil {
			return nil, err
		}
		return uc.apply(ctx, r, t, actor.UserID)
	})
}

// Reject cierra la transferencia sin mover stock.
func (uc *TransferUseCase) Reject(ctx context.Context, tenantID, id string, actor Actor, reason string) (*entity.StockTransfer, error) {
	return uc.transition(ctx, tenantID, id, "Reject", func(r Repos, t *entity.StockTransfer) ([]*PostResult, error) {
		from, err := r.Warehouses.GetByID(ctx, tenantID, t.FromWarehouseID)
		if err != nil {
			return nil, err
		}
		if from == nil {
			return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, t.FromWarehouseID)
		}
		if err := authorizeRecipient(t, from, actor); err != nil {
			return nil, err
		}
		return nil, t.Reject(actor.UserID, reason, uc.now().UTC())
	})
}

// Cancel solo el solicitante o un admin.
func (uc *TransferUseCase) Cancel(ctx context.Context, tenantID, id string, actor Actor) (*entity.StockTransfer, error) {
	return uc.transition(ctx, tenantID, id, "Cancel", func(_ Repos, t *entity.StockTransfer) ([]*PostResult, error) {
		if actor.UserID != t.CreatedBy && !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: solo el solicitante puede cancelar", domain.ErrForbidden)
		}
		return nil, t.Cancel(actor.UserID, uc.now().UTC())
	})
}

func (uc *TransferUseCase) Get(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	t, err := uc.repos.Transfers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (uc *TransferUseCase) List(ctx context.Context, tenantID string, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
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
	return uc.repos.Transfers.List(ctx, tenantID, f)
}
