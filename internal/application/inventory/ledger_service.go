package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/stockledger-api/internal/application/inventory")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// LedgerConfig reglas del libro.
type LedgerConfig struct {
	StrictMode      bool
	StrictTransfers bool
	KitMaxDepth     int
}

// PostInput datos de un movimiento a registrar.
type PostInput struct {
	TenantID          string
	ProductID         string
	WarehouseID       string
	TargetWarehouseID string
	BatchID           string
	SerialID          string
	Kind              entity.MovementKind
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal // cero = costo del lote o del producto en entradas
	Reference         entity.Reference
	Notes             string
	IdempotencyKey    string
	CreatedBy         string
	// Strict sobrescribe la configuración para este movimiento; nil usa la del servicio.
	Strict *bool
}

// Anomaly saldo que quedó negativo por un movimiento en modo permisivo.
type Anomaly struct {
	Balance entity.WarehouseBalance
	EntryID string
}

// PostResult resultado de un registro ya aplicado (o repetido, si Replayed).
type PostResult struct {
	Entry          *entity.LedgerEntry
	Children       []*entity.LedgerEntry // movimientos de componentes de kit
	Balances       []entity.WarehouseBalance
	Anomalies      []Anomaly
	ProductStock   map[string]decimal.Decimal
	ExpiredBatchID string // lote vencido tocado por el movimiento; solo se avisa
	Replayed       bool
}

func (r *PostResult) merge(child *PostResult) {
	r.Children = append(r.Children, child.Entry)
	r.Children = append(r.Children, child.Children...)
	r.Balances = append(r.Balances, child.Balances...)
	r.Anomalies = append(r.Anomalies, child.Anomalies...)
	for id, q := range child.ProductStock {
		r.ProductStock[id] = q
	}
}

// StockLedgerService único punto de escritura del libro de stock. Cada movimiento, su efecto
// en los saldos y el agregado del producto se confirman juntos o no se confirma nada.
type StockLedgerService struct {
	tx       TxRunner
	repos    Repos
	cfg      LedgerConfig
	log      *logger.Logger
	observer Observer
	now      func() time.Time
}

func NewStockLedgerService(tx TxRunner, repos Repos, cfg LedgerConfig, log *logger.Logger, observer Observer) *StockLedgerService {
	if log == nil {
		log = logger.Nop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if cfg.KitMaxDepth < 1 {
		cfg.KitMaxDepth = 5
	}
	return &StockLedgerService{
		tx:       tx,
		repos:    repos,
		cfg:      cfg,
		log:      log.Component("stock_ledger"),
		observer: observer,
		now:      time.Now,
	}
}

// Post registra un movimiento en su propia transacción.
func (s *StockLedgerService) Post(ctx context.Context, in PostInput) (*PostResult, error) {
	ctx, span := tracer.Start(ctx, "StockLedgerService.Post", trace.WithAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("movement.kind", string(in.Kind)),
		attribute.String("product_id", in.ProductID),
	))
	defer span.End()

	entry := s.newEntry(in)
	if err := entry.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var res *PostResult
	err := s.tx.Run(ctx, func(r Repos) error {
		var err error
		res, err = s.post(ctx, r, entry, s.strictFor(in), 0)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("entry_id", res.Entry.ID),
		attribute.Bool("replayed", res.Replayed),
		attribute.Int("anomalies", len(res.Anomalies)),
	)
	s.report(res)
	return res, nil
}

// PostInTx registra el movimiento en la transacción del llamador. No publica logs ni
// métricas: el llamador llama a report después del Commit.
func (s *StockLedgerService) PostInTx(ctx context.Context, r Repos, in PostInput) (*PostResult, error) {
	entry := s.newEntry(in)
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return s.post(ctx, r, entry, s.strictFor(in), 0)
}

func (s *StockLedgerService) GetEntry(ctx context.Context, tenantID, id string) (*entity.LedgerEntry, error) {
	e, err := s.repos.Entries.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (s *StockLedgerService) ListEntries(ctx context.Context, tenantID string, f repository.EntryFilter) ([]*entity.LedgerEntry, error) {
	if tenantID == "" {
		return nil, domain.Invalid("tenant_id es obligatorio")
	}
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repos.Entries.List(ctx, tenantID, f)
}

func (s *StockLedgerService) ListBalances(ctx context.Context, tenantID string, f repository.BalanceFilter) ([]*entity.WarehouseBalance, error) {
	if tenantID == "" {
		return nil, domain.Invalid("tenant_id es obligatorio")
	}
	return s.repos.Balances.List(ctx, tenantID, f)
}

func (s *StockLedgerService) newEntry(in PostInput) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ID:                uuid.New().String(),
		TenantID:          in.TenantID,
		ProductID:         in.ProductID,
		WarehouseID:       in.WarehouseID,
		TargetWarehouseID: in.TargetWarehouseID,
		BatchID:           in.BatchID,
		SerialID:          in.SerialID,
		Kind:              in.Kind,
		Quantity:          in.Quantity,
		UnitCost:          in.UnitCost,
		Reference:         in.Reference.Normalized(),
		Notes:             in.Notes,
		IdempotencyKey:    in.IdempotencyKey,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         s.now().UTC(),
	}
}

func (s *StockLedgerService) strictFor(in PostInput) bool {
	if in.Strict != nil {
		return *in.Strict
	}
	if in.Kind == entity.MovementTransfer && s.cfg.StrictTransfers {
		return true
	}
	return s.cfg.StrictMode
}

// post orden dentro de la tx: lock del producto, inserción, saldos, kit, agregado.
func (s *StockLedgerService) post(ctx context.Context, r Repos, e *entity.LedgerEntry, strict bool, depth int) (*PostResult, error) {
	batch, err := s.checkRefs(ctx, r, e)
	if err != nil {
		return nil, err
	}

	locked, err := r.Products.LockForUpdate(ctx, e.TenantID, []string{e.ProductID})
	if err != nil {
		return nil, err
	}
	product := locked[e.ProductID]
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, e.ProductID)
	}

	if e.UnitCost.IsZero() && e.SignedQuantity().IsPositive() {
		if batch != nil && batch.UnitCost.IsPositive() {
			e.UnitCost = batch.UnitCost
		} else {
			e.UnitCost = product.CostPrice
		}
	}

	stored, inserted, err := r.Entries.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	if !inserted {
		if !stored.SamePayload(e) {
			return nil, fmt.Errorf("%w: la clave de idempotencia %q ya se usó con otro movimiento", domain.ErrConflict, e.IdempotencyKey)
		}
		return &PostResult{
			Entry:        stored,
			Replayed:     true,
			ProductStock: map[string]decimal.Decimal{product.ID: product.StockQty},
		}, nil
	}

	res := &PostResult{Entry: stored, ProductStock: map[string]decimal.Decimal{}}
	if batch != nil && batch.IsExpired(s.now()) {
		res.ExpiredBatchID = batch.ID
	}
	if err := s.apply(ctx, r, stored, strict, res); err != nil {
		return nil, err
	}
	if product.IsKit && inventory.ExplodesKit(stored.Kind) {
		if err := s.explodeKit(ctx, r, stored, product, strict, depth, res); err != nil {
			return nil, err
		}
	}

	qty, err := r.Products.RefreshStockQty(ctx, stored.TenantID, product.ID)
	if err != nil {
		return nil, err
	}
	res.ProductStock[product.ID] = qty
	return res, nil
}

func (s *StockLedgerService) apply(ctx context.Context, r Repos, e *entity.LedgerEntry, strict bool, res *PostResult) error {
	deltas := inventory.Deltas(e)
	inventory.SortDeltas(deltas)
	for _, d := range deltas {
		bal, err := r.Balances.Increment(ctx, d.Key, d.Delta)
		if err != nil {
			return err
		}
		res.Balances = append(res.Balances, *bal)
		if !d.Delta.IsNegative() || !bal.IsNegative() {
			continue
		}
		if strict {
			return fmt.Errorf("%w: bodega %s producto %s quedaría en %s",
				domain.ErrInsufficientStock, d.Key.WarehouseID, d.Key.ProductID, bal.Quantity.String())
		}
		res.Anomalies = append(res.Anomalies, Anomaly{Balance: *bal, EntryID: e.ID})
	}
	return nil
}

func (s *StockLedgerService) explodeKit(ctx context.Context, r Repos, parent *entity.LedgerEntry, kit *entity.Product, strict bool, depth int, res *PostResult) error {
	if depth+1 > s.cfg.KitMaxDepth {
		s.log.Warn().
			Str("tenant_id", parent.TenantID).
			Str("product_id", kit.ID).
			Str("entry_id", parent.ID).
			Int("max_depth", s.cfg.KitMaxDepth).
			Msg("kit anidado supera la profundidad máxima; componentes sin mover")
		return nil
	}
	components, err := r.Products.ListKitComponents(ctx, parent.TenantID, kit.ID)
	if err != nil {
		return err
	}
	lines := inventory.ExplodeKit(parent.Kind, parent.Quantity, components)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	for _, l := range lines {
		if err := entity.CheckScale("cantidad del componente "+l.ProductID, l.Quantity); err != nil {
			return err
		}
		child := &entity.LedgerEntry{
			ID:          uuid.New().String(),
			TenantID:    parent.TenantID,
			ProductID:   l.ProductID,
			WarehouseID: parent.WarehouseID,
			Kind:        l.Kind,
			Quantity:    l.Quantity,
			Reference:   entity.KitReference(kit.ID, kit.Name),
			Notes:       fmt.Sprintf("Automático: componente del kit %s (movimiento %s)", kit.Name, parent.ID),
			CreatedBy:   parent.CreatedBy,
			CreatedAt:   parent.CreatedAt,
		}
		childRes, err := s.post(ctx, r, child, strict, depth+1)
		if err != nil {
			return err
		}
		res.merge(childRes)
	}
	return nil
}

func (s *StockLedgerService) checkRefs(ctx context.Context, r Repos, e *entity.LedgerEntry) (*entity.Batch, error) {
	if err := checkWarehouse(ctx, r, e.TenantID, e.WarehouseID); err != nil {
		return nil, err
	}
	if e.Kind == entity.MovementTransfer {
		if err := checkWarehouse(ctx, r, e.TenantID, e.TargetWarehouseID); err != nil {
			return nil, err
		}
	}
	if e.BatchID == "" {
		return nil, nil
	}
	b, err := r.Batches.GetByID(ctx, e.TenantID, e.BatchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, e.BatchID)
	}
	if b.ProductID != e.ProductID {
		return nil, domain.Invalid("el lote %s no pertenece al producto %s", e.BatchID, e.ProductID)
	}
	return b, nil
}

func checkWarehouse(ctx context.Context, r Repos, tenantID, id string) error {
	_, err := loadWarehouse(ctx, r, tenantID, id)
	return err
}

func loadWarehouse(ctx context.Context, r Repos, tenantID, id string) (*entity.Warehouse, error) {
	w, err := r.Warehouses.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	if !w.Active {
		return nil, domain.Invalid("la bodega %s está inactiva", id)
	}
	return w, nil
}

// report publica logs y métricas de resultados ya confirmados.
func (s *StockLedgerService) report(results ...*PostResult) {
	for _, res := range results {
		if res == nil || res.Entry == nil {
			continue
		}
		s.observer.EntryPosted(res.Entry.Kind, res.Replayed)
		for _, c := range res.Children {
			s.observer.EntryPosted(c.Kind, false)
		}
		if res.ExpiredBatchID != "" {
			s.log.Warn().
				Str("tenant_id", res.Entry.TenantID).
				Str("batch_id", res.ExpiredBatchID).
				Str("product_id", res.Entry.ProductID).
				Str("entry_id", res.Entry.ID).
				Str("kind", string(res.Entry.Kind)).
				Msg("movimiento sobre lote vencido")
		}
		for _, a := range res.Anomalies {
			s.log.Warn().
				Str("tenant_id", a.Balance.TenantID).
				Str("warehouse_id", a.Balance.WarehouseID).
				Str("product_id", a.Balance.ProductID).
				Str("batch_id", a.Balance.BatchID).
				Str("quantity", a.Balance.Quantity.String()).
				Str("entry_id", a.EntryID).
				Msg("saldo negativo tras movimiento")
			s.observer.NegativeBalance(a.Balance)
		}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
