package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// ReferenceDTO documento que originó el movimiento.
type ReferenceDTO struct {
	Kind  string `json:"kind" validate:"omitempty,oneof=manual work_order stock_transfer inventory_count kit purchase_receipt"`
	ID    string `json:"id,omitempty" validate:"max=64"`
	Label string `json:"label,omitempty" validate:"max=120"`
}

// PostMovementRequest body para POST /api/stock/movements.
// quantity es positiva salvo en adjustment, donde es el delta con signo.
type PostMovementRequest struct {
	ProductID         string           `json:"product_id" validate:"required,uuid"`
	WarehouseID       string           `json:"warehouse_id" validate:"required,uuid"`
	TargetWarehouseID string           `json:"target_warehouse_id,omitempty" validate:"omitempty,uuid"`
	BatchID           string           `json:"batch_id,omitempty" validate:"omitempty,uuid"`
	SerialID          string           `json:"serial_id,omitempty" validate:"max=120"`
	Kind              string           `json:"kind" validate:"required,oneof=entry exit adjustment reservation return transfer"`
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference         *ReferenceDTO    `json:"reference,omitempty"`
	Notes             string           `json:"notes,omitempty" validate:"max=500"`
}

// ToPostInput arma la entrada del servicio; tenant y usuario vienen del token.
func (r PostMovementRequest) ToPostInput(tenantID, userID, idempotencyKey string) inventory.PostInput {
	in := inventory.PostInput{
		TenantID:          tenantID,
		ProductID:         r.ProductID,
		WarehouseID:       r.WarehouseID,
		TargetWarehouseID: r.TargetWarehouseID,
		BatchID:           r.BatchID,
		SerialID:          r.SerialID,
		Kind:              entity.MovementKind(r.Kind),
		Quantity:          r.Quantity,
		Notes:             r.Notes,
		IdempotencyKey:    idempotencyKey,
		CreatedBy:         userID,
	}
	if r.UnitCost != nil {
		in.UnitCost = *r.UnitCost
	}
	if r.Reference != nil {
		in.Reference = entity.Reference{
			Kind:  entity.ReferenceKind(r.Reference.Kind),
			ID:    r.Reference.ID,
			Label: r.Reference.Label,
		}
	}
	return in
}

// ListMovementsQuery filtros de GET /api/stock/movements.
type ListMovementsQuery struct {
	ProductID     string `query:"product_id" validate:"omitempty,uuid"`
	WarehouseID   string `query:"warehouse_id" validate:"omitempty,uuid"`
	Kind          string `query:"kind" validate:"omitempty,oneof=entry exit adjustment reservation return transfer"`
	ReferenceKind string `query:"reference_kind"`
	ReferenceID   string `query:"reference_id"`
	PageRequest
}

func (q ListMovementsQuery) ToFilter() repository.EntryFilter {
	return repository.EntryFilter{
		ProductID:     q.ProductID,
		WarehouseID:   q.WarehouseID,
		Kind:          entity.MovementKind(q.Kind),
		ReferenceKind: entity.ReferenceKind(q.ReferenceKind),
		ReferenceID:   q.ReferenceID,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
}

// ListBalancesQuery filtros de GET /api/stock/balances.
type ListBalancesQuery struct {
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	ProductID   string `query:"product_id" validate:"omitempty,uuid"`
	NonZero     bool   `query:"non_zero"`
}

func (q ListBalancesQuery) ToFilter() repository.BalanceFilter {
	return repository.BalanceFilter{WarehouseID: q.WarehouseID, ProductID: q.ProductID, NonZeroOnly: q.NonZero}
}

type LedgerEntryResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	WarehouseID       string          `json:"warehouse_id"`
	TargetWarehouseID string          `json:"target_warehouse_id,omitempty"`
	BatchID           string          `json:"batch_id,omitempty"`
	SerialID          string          `json:"serial_id,omitempty"`
	Kind              string          `json:"kind"`
	Quantity          decimal.Decimal `json:"quantity"`
	SignedQuantity    decimal.Decimal `json:"signed_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Reference         ReferenceDTO    `json:"reference"`
	Notes             string          `json:"notes,omitempty"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty"`
	CreatedBy         string          `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func ToLedgerEntryResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                e.ID,
		ProductID:         e.ProductID,
		WarehouseID:       e.WarehouseID,
		TargetWarehouseID: e.TargetWarehouseID,
		BatchID:           e.BatchID,
		SerialID:          e.SerialID,
		Kind:              string(e.Kind),
		Quantity:          e.Quantity,
		SignedQuantity:    e.SignedQuantity(),
		UnitCost:          e.UnitCost,
		Reference:         ReferenceDTO{Kind: string(e.Reference.Kind), ID: e.Reference.ID, Label: e.Reference.Label},
		Notes:             e.Notes,
		IdempotencyKey:    e.IdempotencyKey,
		CreatedBy:         e.CreatedBy,
		CreatedAt:         e.CreatedAt,
	}
}

func ToLedgerEntryResponses(entries []*entity.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToLedgerEntryResponse(e))
	}
	return out
}

type BalanceResponse struct {
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ToBalanceResponse(b entity.WarehouseBalance) BalanceResponse {
	return BalanceResponse{
		WarehouseID: b.WarehouseID,
		ProductID:   b.ProductID,
		BatchID:     b.BatchID,
		Quantity:    b.Quantity,
		UpdatedAt:   b.UpdatedAt,
	}
}

func ToBalanceResponses(balances []*entity.WarehouseBalance) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, ToBalanceResponse(*b))
	}
	return out
}

// AnomalyResponse saldo negativo aceptado en modo permisivo.
type AnomalyResponse struct {
	EntryID     string          `json:"entry_id"`
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type PostMovementResponse struct {
	Entry        LedgerEntryResponse        `json:"entry"`
	Children     []LedgerEntryResponse      `json:"children,omitempty"`
	Balances     []BalanceResponse          `json:"balances"`
	Anomalies    []AnomalyResponse          `json:"anomalies,omitempty"`
	ProductStock map[string]decimal.Decimal `json:"product_stock"`
	Replayed     bool                       `json:"replayed"`
}

func ToPostMovementResponse(res *inventory.PostResult) PostMovementResponse {
	out := PostMovementResponse{
		Entry:        ToLedgerEntryResponse(res.Entry),
		Children:     ToLedgerEntryResponses(res.Children),
		Balances:     make([]BalanceResponse, 0, len(res.Balances)),
		ProductStock: res.ProductStock,
		Replayed:     res.Replayed,
	}
	for _, b := range res.Balances {
		out.Balances = append(out.Balances, ToBalanceResponse(b))
	}
	for _, a := range res.Anomalies {
		out.Anomalies = append(out.Anomalies, AnomalyResponse{
			EntryID:     a.EntryID,
			WarehouseID: a.Balance.WarehouseID,
			ProductID:   a.Balance.ProductID,
			BatchID:     a.Balance.BatchID,
			Quantity:    a.Balance.Quantity,
		})
	}
	return out
}

type BalanceDriftResponse struct {
	WarehouseID    string          `json:"warehouse_id"`
	ProductID      string          `json:"product_id"`
	BatchID        string          `json:"batch_id,omitempty"`
	StoredQuantity decimal.Decimal `json:"stored_quantity"`
	LedgerQuantity decimal.Decimal `json:"ledger_quantity"`
}

type AggregateDriftResponse struct {
	ProductID        string          `json:"product_id"`
	StockQty         decimal.Decimal `json:"stock_qty"`
	BalancesQuantity decimal.Decimal `json:"balances_quantity"`
}

// AuditResponse resultado de GET /api/stock/audit.
type AuditResponse struct {
	WarehouseID     string                   `json:"warehouse_id,omitempty"`
	Consistent      bool                     `json:"consistent"`
	BalanceDrifts   []BalanceDriftResponse   `json:"balance_drifts"`
	AggregateDrifts []AggregateDriftResponse `json:"aggregate_drifts"`
}

func ToAuditResponse(r *inventory.AuditReport) AuditResponse {
	out := AuditResponse{
		WarehouseID:     r.WarehouseID,
		Consistent:      r.Consistent(),
		BalanceDrifts:   make([]BalanceDriftResponse, 0, len(r.BalanceDrifts)),
		AggregateDrifts: make([]AggregateDriftResponse, 0, len(r.AggregateDrifts)),
	}
	for _, d := range r.BalanceDrifts {
		out.BalanceDrifts = append(out.BalanceDrifts, BalanceDriftResponse(d))
	}
	for _, d := range r.AggregateDrifts {
		out.AggregateDrifts = append(out.AggregateDrifts, AggregateDriftResponse(d))
	}
	return out
}
