package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

type TransferItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	BatchID   string          `json:"batch_id,omitempty" validate:"omitempty,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body para POST /api/stock/transfers.
// to_user_id vacío = responsable de la bodega destino.
type CreateTransferRequest struct {
	FromWarehouseID string                `json:"from_warehouse_id" validate:"required,uuid"`
	ToWarehouseID   string                `json:"to_warehouse_id" validate:"required,uuid,nefield=FromWarehouseID"`
	ToUserID        string                `json:"to_user_id,omitempty"`
	Notes           string                `json:"notes,omitempty" validate:"max=500"`
	Items           []TransferItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

func (r CreateTransferRequest) ToInput(tenantID, userID string) inventory.CreateTransferInput {
	in := inventory.CreateTransferInput{
		TenantID:        tenantID,
		FromWarehouseID: r.FromWarehouseID,
		ToWarehouseID:   r.ToWarehouseID,
		ToUserID:        r.ToUserID,
		Notes:           r.Notes,
		RequestedBy:     userID,
		Items:           make([]inventory.TransferItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, inventory.TransferItemInput{
			ProductID: it.ProductID,
			BatchID:   it.BatchID,
			Quantity:  it.Quantity,
		})
	}
	return in
}

type RejectTransferRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListTransfersQuery filtros de GET /api/stock/transfers. mine=true lista lo pendiente del usuario.
type ListTransfersQuery struct {
	Status      string `query:"status" validate:"omitempty,oneof=pending_acceptance accepted completed rejected cancelled"`
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	Mine        bool   `query:"mine"`
	PageRequest
}

func (q ListTransfersQuery) ToFilter(userID string) repository.TransferFilter {
	f := repository.TransferFilter{
		Status:      entity.TransferStatus(q.Status),
		WarehouseID: q.WarehouseID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.Mine {
		f.ToUserID = userID
	}
	return f
}

type TransferItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	BatchID   string          `json:"batch_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type TransferResponse struct {
	ID              string                 `json:"id"`
	FromWarehouseID string                 `json:"from_warehouse_id"`
	ToWarehouseID   string                 `json:"to_warehouse_id"`
	ToUserID        string                 `json:"to_user_id,omitempty"`
	Status          string                 `json:"status"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedBy       string                 `json:"created_by"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	AcceptedBy      string                 `json:"accepted_by,omitempty"`
	AcceptedAt      *time.Time             `json:"accepted_at,omitempty"`
	RejectedBy      string                 `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time             `json:"rejected_at,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	CancelledBy     string                 `json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	Items           []TransferItemResponse `json:"items"`
}

func ToTransferResponse(t *entity.StockTransfer) TransferResponse {
	out := TransferResponse{
		ID:              t.ID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		ToUserID:        t.ToUserID,
		Status:          string(t.Status),
		Notes:           t.Notes,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		AcceptedBy:      t.AcceptedBy,
		AcceptedAt:      timePtr(t.AcceptedAt),
		RejectedBy:      t.RejectedBy,
		RejectedAt:      timePtr(t.RejectedAt),
		RejectionReason: t.RejectionReason,
		CancelledBy:     t.CancelledBy,
		CancelledAt:     timePtr(t.CancelledAt),
		Items:           make([]TransferItemResponse, 0, len(t.Items)),
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, TransferItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			BatchID:   it.BatchID,
			Quantity:  it.Quantity,
		})
	}
	return out
}

func ToTransferResponses(ts []*entity.StockTransfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, ToTransferResponse(t))
	}
	return out
}
