package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

func TestCountSheetRenderer_GeneraPDF(t *testing.T) {
	r := NewCountSheetRenderer()
	r.now = func() time.Time { return time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC) }

	sheet := inventory.CountSheet{
		Count: &entity.InventoryCount{
			ID:          "4f1c2a9e-1111-2222-3333-444455556666",
			WarehouseID: "wh-central",
			Reference:   "INV-2026-03",
			Status:      entity.CountOpen,
			CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			Items: []entity.InventoryCountItem{
				{ID: "i1", ProductID: "p-cable", ExpectedQuantity: decimal.NewFromInt(10)},
				{ID: "i2", ProductID: "p-router", BatchID: "lote-2026-001", ExpectedQuantity: decimal.NewFromInt(5)},
				{ID: "i3", ProductID: "p-sin-ficha", ExpectedQuantity: decimal.NewFromInt(1)},
			},
		},
		Warehouse: &entity.Warehouse{ID: "wh-central", Name: "Bodega Central", Type: entity.WarehouseFixed},
		Products: map[string]*entity.Product{
			"p-cable":  {ID: "p-cable", SKU: "CAB-001", Name: "Cable UTP Cat6"},
			"p-router": {ID: "p-router", SKU: "RTR-010", Name: "Router AC1200"},
		},
	}

	out, err := r.RenderCountSheet(context.Background(), sheet)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestCountSheetRenderer_SinBodega(t *testing.T) {
	_, err := NewCountSheetRenderer().RenderCountSheet(context.Background(), inventory.CountSheet{
		Count: &entity.InventoryCount{ID: "c1"},
	})
	assert.Error(t, err)
}

func TestWarehouseTypeLabel(t *testing.T) {
	assert.Equal(t, "técnico", warehouseTypeLabel(entity.WarehouseTechnician))
	assert.Equal(t, "vehículo", warehouseTypeLabel(entity.WarehouseVehicle))
	assert.Equal(t, "bodega fija", warehouseTypeLabel(entity.WarehouseFixed))
}
