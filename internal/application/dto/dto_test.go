package dto_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleCount(status entity.CountStatus) *entity.InventoryCount {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &entity.InventoryCount{
		ID:          "c1",
		WarehouseID: "wh-central",
		Status:      status,
		CreatedAt:   now,
		Items: []entity.InventoryCountItem{
			{ID: "i1", ProductID: "p-cable", ExpectedQuantity: decimal.NewFromInt(10), CountedQuantity: dec("7"), CountedAt: &now},
			{ID: "i2", ProductID: "p-router", ExpectedQuantity: decimal.NewFromInt(5)},
		},
	}
}

func TestToCountResponse_CiegoMientrasEstaAbierta(t *testing.T) {
	resp := dto.ToCountResponse(sampleCount(entity.CountOpen))

	assert.True(t, resp.Blind)
	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, 1, resp.CountedItems)
	for _, it := range resp.Items {
		assert.Nil(t, it.ExpectedQuantity, "ítem %s no debe exponer lo esperado", it.ID)
		assert.Nil(t, it.Discrepancy)
	}
	require.NotNil(t, resp.Items[0].CountedQuantity)
	assert.True(t, decimal.NewFromInt(7).Equal(*resp.Items[0].CountedQuantity))
}

func TestToCountResponse_CerradaMuestraDiferencias(t *testing.T) {
	resp := dto.ToCountResponse(sampleCount(entity.CountCompleted))

	assert.False(t, resp.Blind)
	require.NotNil(t, resp.Items[0].ExpectedQuantity)
	require.NotNil(t, resp.Items[0].Discrepancy)
	assert.True(t, decimal.NewFromInt(-3).Equal(*resp.Items[0].Discrepancy))
	assert.Nil(t, resp.Items[1].Discrepancy, "ítem sin contar no tiene diferencia")
	require.NotNil(t, resp.Items[1].ExpectedQuantity)
}

func TestPostMovementRequest_ToPostInput(t *testing.T) {
	cost := decimal.RequireFromString("12.5")
	req := dto.PostMovementRequest{
		ProductID:   "p-cable",
		WarehouseID: "wh-central",
		Kind:        "entry",
		Quantity:    decimal.NewFromInt(4),
		UnitCost:    &cost,
		Reference:   &dto.ReferenceDTO{Kind: "purchase_receipt", ID: "rc-1", Label: "Recepción 1"},
	}

	in := req.ToPostInput("t1", "u-keeper", "key-1")

	assert.Equal(t, "t1", in.TenantID)
	assert.Equal(t, "u-keeper", in.CreatedBy)
	assert.Equal(t, "key-1", in.IdempotencyKey)
	assert.Equal(t, entity.MovementEntry, in.Kind)
	assert.True(t, cost.Equal(in.UnitCost))
	assert.Equal(t, entity.ReferencePurchaseReceipt, in.Reference.Kind)
	assert.Nil(t, in.Strict)
}

func TestToPostMovementResponse(t *testing.T) {
	entry := &entity.LedgerEntry{ID: "e1", ProductID: "p-cable", WarehouseID: "wh-central", Kind: entity.MovementExit, Quantity: decimal.NewFromInt(3)}
	res := &inventory.PostResult{
		Entry: entry,
		Balances: []entity.WarehouseBalance{{
			BalanceKey: entity.BalanceKey{TenantID: "t1", WarehouseID: "wh-central", ProductID: "p-cable"},
			Quantity:   decimal.NewFromInt(-1),
		}},
		Anomalies: []inventory.Anomaly{{
			EntryID: "e1",
			Balance: entity.WarehouseBalance{
				BalanceKey: entity.BalanceKey{TenantID: "t1", WarehouseID: "wh-central", ProductID: "p-cable"},
				Quantity:   decimal.NewFromInt(-1),
			},
		}},
		ProductStock: map[string]decimal.Decimal{"p-cable": decimal.NewFromInt(-1)},
	}

	resp := dto.ToPostMovementResponse(res)

	assert.True(t, decimal.NewFromInt(-3).Equal(resp.Entry.SignedQuantity))
	require.Len(t, resp.Anomalies, 1)
	assert.Equal(t, "e1", resp.Anomalies[0].EntryID)
	assert.False(t, resp.Replayed)
}

func TestToAuditResponse(t *testing.T) {
	report := &inventory.AuditReport{
		TenantID: "t1",
		BalanceDrifts: []repository.BalanceDrift{
			{WarehouseID: "wh-central", ProductID: "p-cable", StoredQuantity: decimal.NewFromInt(5), LedgerQuantity: decimal.NewFromInt(4)},
		},
	}
	resp := dto.ToAuditResponse(report)

	assert.False(t, resp.Consistent)
	require.Len(t, resp.BalanceDrifts, 1)
	assert.Empty(t, resp.AggregateDrifts)
	assert.NotNil(t, resp.AggregateDrifts)

	assert.True(t, dto.ToAuditResponse(&inventory.AuditReport{}).Consistent)
}

func TestListTransfersQuery_Mine(t *testing.T) {
	q := dto.ListTransfersQuery{Status: "pending_acceptance", Mine: true}
	f := q.ToFilter("u-tech")
	assert.Equal(t, "u-tech", f.ToUserID)
	assert.Equal(t, entity.TransferPendingAcceptance, f.Status)

	q.Mine = false
	assert.Empty(t, q.ToFilter("u-tech").ToUserID)
}
