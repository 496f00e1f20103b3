package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

type OpenCountRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Reference   string `json:"reference,omitempty" validate:"max=120"`
}

type RecordCountRequest struct {
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Notes           string          `json:"notes,omitempty" validate:"max=500"`
}

// ListCountsQuery filtros de GET /api/stock/counts.
type ListCountsQuery struct {
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	Status      string `query:"status" validate:"omitempty,oneof=open completed cancelled"`
	PageRequest
}

func (q ListCountsQuery) ToFilter() repository.CountFilter {
	return repository.CountFilter{
		WarehouseID: q.WarehouseID,
		Status:      entity.CountStatus(q.Status),
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
}

// CountItemResponse en una toma abierta ExpectedQuantity y Discrepancy van vacíos (conteo ciego).
type CountItemResponse struct {
	ID                 string           `json:"id"`
	ProductID          string           `json:"product_id"`
	BatchID            string           `json:"batch_id,omitempty"`
	SerialID           string           `json:"serial_id,omitempty"`
	ExpectedQuantity   *decimal.Decimal `json:"expected_quantity,omitempty"`
	CountedQuantity    *decimal.Decimal `json:"counted_quantity,omitempty"`
	Discrepancy        *decimal.Decimal `json:"discrepancy,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	CountedAt          *time.Time       `json:"counted_at,omitempty"`
	AdjustmentQuantity *decimal.Decimal `json:"adjustment_quantity,omitempty"`
	AdjustmentEntryID  string           `json:"adjustment_entry_id,omitempty"`
}

type CountResponse struct {
	ID           string              `json:"id"`
	WarehouseID  string              `json:"warehouse_id"`
	Reference    string              `json:"reference,omitempty"`
	Status       string              `json:"status"`
	Blind        bool                `json:"blind"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedBy  string              `json:"completed_by,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	TotalItems   int                 `json:"total_items"`
	CountedItems int                 `json:"counted_items"`
	Items        []CountItemResponse `json:"items"`
}

// ToCountResponse oculta lo esperado mientras la toma está abierta.
func ToCountResponse(c *entity.InventoryCount) CountResponse {
	blind := c.Status == entity.CountOpen
	out := CountResponse{
		ID:           c.ID,
		WarehouseID:  c.WarehouseID,
		Reference:    c.Reference,
		Status:       string(c.Status),
		Blind:        blind,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		CompletedBy:  c.CompletedBy,
		CompletedAt:  timePtr(c.CompletedAt),
		CancelledAt:  timePtr(c.CancelledAt),
		TotalItems:   len(c.Items),
		CountedItems: c.CountedItems(),
		Items:        make([]CountItemResponse, 0, len(c.Items)),
	}
	for i := range c.Items {
		out.Items = append(out.Items, ToCountItemResponse(&c.Items[i], blind))
	}
	return out
}

func ToCountItemResponse(it *entity.InventoryCountItem, blind bool) CountItemResponse {
	out := CountItemResponse{
		ID:                 it.ID,
		ProductID:          it.ProductID,
		BatchID:            it.BatchID,
		SerialID:           it.SerialID,
		CountedQuantity:    it.CountedQuantity,
		Notes:              it.Notes,
		CountedAt:          timePtr(it.CountedAt),
		AdjustmentQuantity: it.AdjustmentQuantity,
		AdjustmentEntryID:  it.AdjustmentEntryID,
	}
	if blind {
		return out
	}
	expected := it.ExpectedQuantity
	out.ExpectedQuantity = &expected
	if diff, ok := it.Discrepancy(); ok {
		out.Discrepancy = &diff
	}
	return out
}

func ToCountResponses(list []*entity.InventoryCount) []CountResponse {
	out := make([]CountResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ToCountResponse(c))
	}
	return out
}
