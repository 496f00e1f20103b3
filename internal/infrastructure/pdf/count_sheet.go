// Package pdf genera la planilla de conteo ciego de una toma de inventario.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Bodega + tipo         │  Referencia + fecha + QR     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | SKU | Producto | Lote | Cantidad | Observación   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMAS: Contó / Verificó                                    │
//	└─────────────────────────────────────────────────────────────┘
//
// La planilla nunca muestra la cantidad esperada.
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ inventory.CountSheetRenderer = (*CountSheetRenderer)(nil)

// CountSheetRenderer implementa inventory.CountSheetRenderer con Maroto v2.
type CountSheetRenderer struct {
	now func() time.Time
}

func NewCountSheetRenderer() *CountSheetRenderer {
	return &CountSheetRenderer{now: time.Now}
}

// RenderCountSheet genera el PDF y devuelve sus bytes.
func (g *CountSheetRenderer) RenderCountSheet(_ context.Context, sheet inventory.CountSheet) ([]byte, error) {
	if sheet.Count == nil || sheet.Warehouse == nil {
		return nil, fmt.Errorf("pdf: planilla sin toma o sin bodega")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Toma de inventario", true).
		WithAuthor(sheet.Warehouse.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet.Count, sheet.Warehouse, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(sheet.Count.Items, sheet.Products)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(row.New(10))
	m.AddRows(signatureRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar planilla: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: bodega (izq) y referencia + fecha + QR con el id de la toma (der).
func headerRow(c *entity.InventoryCount, wh *entity.Warehouse, printedAt time.Time) core.Row {
	return row.New(26).Add(
		col.New(7).Add(
			text.New("TOMA DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Bodega: "+wh.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 10,
			}),
			text.New("Tipo: "+warehouseTypeLabel(wh.Type), props.Text{
				Size: 8, Top: 16, Color: colorGray,
			}),
		),
		col.New(3).Add(
			text.New(nonEmpty(c.Reference, shortID(c.ID)), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 2,
			}),
			text.New("Abierta: "+c.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
			text.New("Impresa: "+printedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
		col.New(2).Add(code.NewQr(c.ID, props.Rect{Percent: 90, Center: true})),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Lote", 1, align.Left),
		h("Cantidad", 2, align.Center),
		h("Observación", 2, align.Left),
	)
}

// itemRows una fila por ítem; las columnas de cantidad y observación quedan para escribir a mano.
func itemRows(items []entity.InventoryCountItem, products map[string]*entity.Product) []core.Row {
	out := make([]core.Row, 0, len(items))
	blank := func(size int) core.Col {
		return col.New(size).Add(text.New("__________", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray}))
	}
	for i, it := range items {
		sku, name := it.ProductID, it.ProductID
		if p := products[it.ProductID]; p != nil {
			sku, name = p.SKU, p.Name
		}
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", i+1), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(sku, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(nonEmpty(shortID(it.BatchID), "—"), props.Text{Size: 7, Top: 1, Left: 1})),
			blank(2),
			blank(2),
		))
	}
	return out
}

func signatureRow() core.Row {
	sig := func(label string) core.Col {
		return col.New(6).Add(
			text.New("______________________________", props.Text{Size: 9, Align: align.Center}),
			text.New(label, props.Text{Size: 8, Align: align.Center, Top: 5, Color: colorGray}),
		)
	}
	return row.New(14).Add(sig("Contó"), sig("Verificó"))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func warehouseTypeLabel(t entity.WarehouseType) string {
	switch t {
	case entity.WarehouseTechnician:
		return "técnico"
	case entity.WarehouseVehicle:
		return "vehículo"
	default:
		return "bodega fija"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
