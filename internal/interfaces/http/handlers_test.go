package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/inventory/inventorytest"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

const (
	whCentral = "11111111-0000-4000-8000-000000000001"
	whTech    = "11111111-0000-4000-8000-000000000002"
	pCable    = "22222222-0000-4000-8000-000000000001"

	userKeeper = "33333333-0000-4000-8000-000000000001"
	userTech   = "33333333-0000-4000-8000-000000000002"
	userSeller = "33333333-0000-4000-8000-000000000003"
)

type routeHit struct {
	method string
	route  string
	status int
}

type fakeRequestObserver struct {
	mu   sync.Mutex
	hits []routeHit
}

func (o *fakeRequestObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits = append(o.hits, routeHit{method: method, route: route, status: status})
}

type apiFixture struct {
	app   *fiber.App
	store *inventorytest.Store
	obs   *fakeRequestObserver
}

func newAPI(t *testing.T, cfg inventory.LedgerConfig) *apiFixture {
	t.Helper()
	store := inventorytest.NewStore()
	store.AddWarehouse(entity.Warehouse{ID: whCentral, TenantID: testTenantID, Name: "Central", Type: entity.WarehouseFixed, Active: true})
	store.AddWarehouse(entity.Warehouse{ID: whTech, TenantID: testTenantID, Name: "Técnico", Type: entity.WarehouseTechnician, UserID: userTech, Active: true})
	store.AddProduct(entity.Product{ID: pCable, TenantID: testTenantID, SKU: "CAB-01", Name: "Cable", CostPrice: decimal.RequireFromString("2.5")})

	repos := store.Repos()
	ledger := inventory.NewStockLedgerService(store, repos, cfg, logger.Nop(), nil)

	obs := &fakeRequestObserver{}
	app := fiber.New()
	app.Use(apphttp.RequestMetrics(obs))
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:    ledger,
		Transfers: inventory.NewTransferUseCase(store, repos, ledger, logger.Nop(), nil),
		Counts:    inventory.NewInventoryCountUseCase(store, repos, ledger, pdf.NewCountSheetRenderer(), logger.Nop(), nil),
		Audit:     inventory.NewBalanceAuditUseCase(repos),
		Log:       logger.Nop(),
		JWTSecret: testJWTSecret,
		JWTIssuer: testIssuer,
	})
	return &apiFixture{app: app, store: store, obs: obs}
}

func permissive() inventory.LedgerConfig {
	return inventory.LedgerConfig{StrictTransfers: true, KitMaxDepth: 5}
}

// do lanza la petición; body puede ser nil, un string (JSON crudo) o cualquier valor serializable.
func (f *apiFixture) do(t *testing.T, method, path, auth string, body any, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, raw).Code
}

func (f *apiFixture) entry(t *testing.T, wh, qty string) {
	t.Helper()
	status, body := f.do(t, http.MethodPost, "/api/stock/movements", tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper), map[string]any{
		"product_id": pCable, "warehouse_id": wh, "kind": "entry", "quantity": qty,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
}

func (f *apiFixture) balance(wh string) decimal.Decimal {
	return f.store.Balance(entity.BalanceKey{TenantID: testTenantID, WarehouseID: wh, ProductID: pCable})
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestPostMovement_EntradaEIdempotencia(t *testing.T) {
	f := newAPI(t, permissive())
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)
	body := map[string]any{
		"product_id":   pCable,
		"warehouse_id": whCentral,
		"kind":         "entry",
		"quantity":     "10",
		"reference":    map[string]any{"kind": "purchase_receipt", "id": "OC-77"},
	}

	status, raw := f.do(t, http.MethodPost, "/api/stock/movements", keeper, body, apphttp.HeaderIdempotencyKey, "oc-77-1")
	require.Equal(t, http.StatusCreated, status, string(raw))
	first := decode[dto.PostMovementResponse](t, raw)
	assert.False(t, first.Replayed)
	assert.Equal(t, userKeeper, first.Entry.CreatedBy)
	require.Len(t, first.Balances, 1)
	assert.True(t, first.Balances[0].Quantity.Equal(decimal.NewFromInt(10)))

	// mismo Idempotency-Key: devuelve el original sin mover saldos
	status, raw = f.do(t, http.MethodPost, "/api/stock/movements", keeper, body, apphttp.HeaderIdempotencyKey, "oc-77-1")
	require.Equal(t, http.StatusOK, status, string(raw))
	replay := decode[dto.PostMovementResponse](t, raw)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Entry.ID, replay.Entry.ID)
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(10)))

	status, raw = f.do(t, http.MethodGet, "/api/stock/balances?warehouse_id="+whCentral, keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	balances := decode[[]dto.BalanceResponse](t, raw)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Quantity.Equal(decimal.NewFromInt(10)))

	status, raw = f.do(t, http.MethodGet, "/api/stock/movements?product_id="+pCable, keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	list := decode[dto.ListResponse[dto.LedgerEntryResponse]](t, raw)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 50, list.Page.Limit)

	status, raw = f.do(t, http.MethodGet, "/api/stock/movements/"+first.Entry.ID, keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	got := decode[dto.LedgerEntryResponse](t, raw)
	assert.Equal(t, "OC-77", got.Reference.ID)
}

func TestPostMovement_Validaciones(t *testing.T) {
	f := newAPI(t, permissive())
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)

	cases := []struct {
		name     string
		body     any
		code     string
		contains string
	}{
		{"JSON malformado", `{"product_id":`, "INVALID_BODY", ""},
		{"sin producto", map[string]any{"warehouse_id": whCentral, "kind": "entry", "quantity": "1"}, "VALIDATION", "product_id"},
		{"producto no UUID", map[string]any{"product_id": "abc", "warehouse_id": whCentral, "kind": "entry", "quantity": "1"}, "VALIDATION", "product_id"},
		{"tipo desconocido", map[string]any{"product_id": pCable, "warehouse_id": whCentral, "kind": "robo", "quantity": "1"}, "VALIDATION", "kind"},
		{"cantidad cero", map[string]any{"product_id": pCable, "warehouse_id": whCentral, "kind": "entry", "quantity": "0"}, "VALIDATION", ""},
		{"transferencia sin destino", map[string]any{"product_id": pCable, "warehouse_id": whCentral, "kind": "transfer", "quantity": "1"}, "VALIDATION", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := f.do(t, http.MethodPost, "/api/stock/movements", keeper, tc.body)
			assert.Equal(t, http.StatusBadRequest, status, string(raw))
			assert.Equal(t, tc.code, errorCode(t, raw))
			if tc.contains != "" {
				assert.Contains(t, string(raw), tc.contains)
			}
		})
	}
	assert.Empty(t, f.store.Entries())
}

func TestPostMovement_StockInsuficienteEnModoEstricto(t *testing.T) {
	f := newAPI(t, inventory.LedgerConfig{StrictMode: true, StrictTransfers: true, KitMaxDepth: 5})
	f.entry(t, whCentral, "3")

	status, raw := f.do(t, http.MethodPost, "/api/stock/movements", tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper), map[string]any{
		"product_id": pCable, "warehouse_id": whCentral, "kind": "exit", "quantity": "5",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, raw))
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(3)))
	assert.Len(t, f.store.Entries(), 1)
}

func TestPostMovement_ConflictoDeConcurrenciaEsReintentable(t *testing.T) {
	f := newAPI(t, permissive())
	f.store.FailOn("balances.increment", 1, fmt.Errorf("%w: deadlock detectado", domain.ErrRetryable))

	status, raw := f.do(t, http.MethodPost, "/api/stock/movements", tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper), map[string]any{
		"product_id": pCable, "warehouse_id": whCentral, "kind": "entry", "quantity": "4",
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "RETRYABLE", errorCode(t, raw))
	assert.Empty(t, f.store.Entries())

	f.entry(t, whCentral, "4")
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(4)))
}

func TestPostMovement_PermisivoReportaAnomalia(t *testing.T) {
	f := newAPI(t, permissive())

	status, raw := f.do(t, http.MethodPost, "/api/stock/movements", tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper), map[string]any{
		"product_id": pCable, "warehouse_id": whCentral, "kind": "exit", "quantity": "2",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	res := decode[dto.PostMovementResponse](t, raw)
	require.Len(t, res.Anomalies, 1)
	assert.True(t, res.Anomalies[0].Quantity.Equal(decimal.NewFromInt(-2)))
}

func TestGetMovement_NoEncontrado(t *testing.T) {
	f := newAPI(t, permissive())
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)

	for _, id := range []string{"no-es-uuid", "44444444-0000-4000-8000-000000000000"} {
		status, raw := f.do(t, http.MethodGet, "/api/stock/movements/"+id, keeper, nil)
		assert.Equal(t, http.StatusNotFound, status, id)
		assert.Equal(t, "NOT_FOUND", errorCode(t, raw))
	}
}

func TestRutas_SinToken401(t *testing.T) {
	f := newAPI(t, permissive())
	status, raw := f.do(t, http.MethodGet, "/api/stock/balances", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, raw))
}

// ──────────────────────────────────────────────────────────────────────────────
// Transferencias
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_FlujoConAceptacion(t *testing.T) {
	f := newAPI(t, permissive())
	f.entry(t, whCentral, "10")
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)
	tech := tokenFor(t, userTech, pkgjwt.RoleTechnician)

	status, raw := f.do(t, http.MethodPost, "/api/stock/transfers", keeper, map[string]any{
		"from_warehouse_id": whCentral,
		"to_warehouse_id":   whTech,
		"items":             []map[string]any{{"product_id": pCable, "quantity": "4"}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[dto.TransferResponse](t, raw)
	assert.Equal(t, string(entity.TransferPendingAcceptance), created.Status)
	assert.Equal(t, userTech, created.ToUserID)
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(10)), "pendiente no mueve saldos")

	status, raw = f.do(t, http.MethodGet, "/api/stock/transfers?mine=true", tech, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	mine := decode[dto.ListResponse[dto.TransferResponse]](t, raw)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, created.ID, mine.Items[0].ID)

	// un vendedor cualquiera no puede aceptar
	status, raw = f.do(t, http.MethodPost, "/api/stock/transfers/"+created.ID+"/accept", tokenFor(t, userSeller, pkgjwt.RoleSeller), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, raw))

	status, raw = f.do(t, http.MethodPost, "/api/stock/transfers/"+created.ID+"/accept", tech, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	accepted := decode[dto.TransferResponse](t, raw)
	assert.Equal(t, string(entity.TransferAccepted), accepted.Status)
	assert.Equal(t, userTech, accepted.AcceptedBy)
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(6)))
	assert.True(t, f.balance(whTech).Equal(decimal.NewFromInt(4)))

	// segunda aceptación: estado terminal, ningún movimiento extra
	status, raw = f.do(t, http.MethodPost, "/api/stock/transfers/"+created.ID+"/accept", tech, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ILLEGAL_STATE", errorCode(t, raw))
	assert.Len(t, f.store.EntriesByReference(entity.ReferenceStockTransfer, created.ID), 1)
}

func TestTransfer_RechazoRequiereMotivo(t *testing.T) {
	f := newAPI(t, permissive())
	f.entry(t, whCentral, "5")
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)
	tech := tokenFor(t, userTech, pkgjwt.RoleTechnician)

	status, raw := f.do(t, http.MethodPost, "/api/stock/transfers", keeper, map[string]any{
		"from_warehouse_id": whCentral,
		"to_warehouse_id":   whTech,
		"items":             []map[string]any{{"product_id": pCable, "quantity": "1"}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.TransferResponse](t, raw).ID

	status, raw = f.do(t, http.MethodPost, "/api/stock/transfers/"+id+"/reject", tech, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "reason")

	status, raw = f.do(t, http.MethodPost, "/api/stock/transfers/"+id+"/reject", tech, map[string]any{"reason": "llegó dañado"})
	require.Equal(t, http.StatusOK, status, string(raw))
	rejected := decode[dto.TransferResponse](t, raw)
	assert.Equal(t, string(entity.TransferRejected), rejected.Status)
	assert.Equal(t, "llegó dañado", rejected.RejectionReason)
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(5)))
}

func TestTransfer_MismaBodegaEsInvalida(t *testing.T) {
	f := newAPI(t, permissive())
	status, raw := f.do(t, http.MethodPost, "/api/stock/transfers", tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper), map[string]any{
		"from_warehouse_id": whCentral,
		"to_warehouse_id":   whCentral,
		"items":             []map[string]any{{"product_id": pCable, "quantity": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "to_warehouse_id")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tomas de inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestCount_ConteoCiegoYCierre(t *testing.T) {
	f := newAPI(t, permissive())
	f.entry(t, whCentral, "10")
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)

	status, raw := f.do(t, http.MethodPost, "/api/stock/counts", keeper, map[string]any{"warehouse_id": whCentral, "reference": "cierre mensual"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	opened := decode[dto.CountResponse](t, raw)
	assert.True(t, opened.Blind)
	require.Len(t, opened.Items, 1)
	assert.NotContains(t, string(raw), "expected_quantity", "conteo ciego")

	status, raw = f.do(t, http.MethodPost, "/api/stock/counts", keeper, map[string]any{"warehouse_id": whCentral})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(t, raw))

	itemPath := "/api/stock/counts/" + opened.ID + "/items/" + opened.Items[0].ID
	status, raw = f.do(t, http.MethodPut, itemPath, keeper, map[string]any{"counted_quantity": "-1"})
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	status, raw = f.do(t, http.MethodPut, itemPath, keeper, map[string]any{"counted_quantity": "8", "notes": "2 rollos dañados"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.NotContains(t, string(raw), "expected_quantity")

	status, raw = f.do(t, http.MethodGet, "/api/stock/counts/"+opened.ID, keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, 1, decode[dto.CountResponse](t, raw).CountedItems)

	status, raw = f.do(t, http.MethodPost, "/api/stock/counts/"+opened.ID+"/complete", keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	done := decode[dto.CountResponse](t, raw)
	assert.Equal(t, string(entity.CountCompleted), done.Status)
	assert.False(t, done.Blind)
	require.Len(t, done.Items, 1)
	require.NotNil(t, done.Items[0].ExpectedQuantity)
	assert.True(t, done.Items[0].ExpectedQuantity.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, done.Items[0].AdjustmentQuantity)
	assert.True(t, done.Items[0].AdjustmentQuantity.Equal(decimal.NewFromInt(-2)))
	assert.True(t, f.balance(whCentral).Equal(decimal.NewFromInt(8)))

	status, raw = f.do(t, http.MethodPost, "/api/stock/counts/"+opened.ID+"/cancel", keeper, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ILLEGAL_STATE", errorCode(t, raw))
}

func TestCount_ListadoCiegoYFiltros(t *testing.T) {
	f := newAPI(t, permissive())
	f.entry(t, whCentral, "6")
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)

	status, raw := f.do(t, http.MethodPost, "/api/stock/counts", keeper, map[string]any{"warehouse_id": whCentral})
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.CountResponse](t, raw).ID

	status, raw = f.do(t, http.MethodGet, "/api/stock/counts?status=open&warehouse_id="+whCentral, keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	list := decode[dto.ListResponse[dto.CountResponse]](t, raw)
	require.Len(t, list.Items, 1)
	assert.Equal(t, id, list.Items[0].ID)
	assert.True(t, list.Items[0].Blind)
	assert.Equal(t, 1, list.Items[0].TotalItems)
	assert.Equal(t, 50, list.Page.Limit)
	assert.NotContains(t, string(raw), "expected_quantity", "conteo ciego")

	status, raw = f.do(t, http.MethodGet, "/api/stock/counts?status=completed", keeper, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Empty(t, decode[dto.ListResponse[dto.CountResponse]](t, raw).Items)

	status, raw = f.do(t, http.MethodGet, "/api/stock/counts?status=archivada", keeper, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, raw))
}

func TestCount_PlanillaPDF(t *testing.T) {
	f := newAPI(t, permissive())
	f.entry(t, whCentral, "4")
	keeper := tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper)

	status, raw := f.do(t, http.MethodPost, "/api/stock/counts", keeper, map[string]any{"warehouse_id": whCentral})
	require.Equal(t, http.StatusCreated, status, string(raw))
	id := decode[dto.CountResponse](t, raw).ID

	req := httptest.NewRequest(http.MethodGet, "/api/stock/counts/"+id+"/sheet.pdf", nil)
	req.Header.Set("Authorization", keeper)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdfBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestAudit_SoloAdminOBodeguero(t *testing.T) {
	f := newAPI(t, permissive())
	f.entry(t, whCentral, "7")

	status, raw := f.do(t, http.MethodGet, "/api/stock/audit", tokenFor(t, userSeller, pkgjwt.RoleSeller), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, raw))

	status, raw = f.do(t, http.MethodGet, "/api/stock/audit?warehouse_id="+whCentral, tokenFor(t, userKeeper, pkgjwt.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	report := decode[dto.AuditResponse](t, raw)
	assert.True(t, report.Consistent)
	assert.Empty(t, report.BalanceDrifts)
	assert.Empty(t, report.AggregateDrifts)
}

func TestRequestMetrics_UsaPatronDeRuta(t *testing.T) {
	f := newAPI(t, permissive())
	status, _ := f.do(t, http.MethodGet, "/api/stock/transfers/44444444-0000-4000-8000-000000000000", tokenFor(t, userKeeper, pkgjwt.RoleStockKeeper), nil)
	require.Equal(t, http.StatusNotFound, status)

	f.obs.mu.Lock()
	defer f.obs.mu.Unlock()
	require.Len(t, f.obs.hits, 1)
	assert.Equal(t, routeHit{method: http.MethodGet, route: "/api/stock/transfers/:id", status: http.StatusNotFound}, f.obs.hits[0])
}
