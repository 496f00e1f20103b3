package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/inventory/inventorytest"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

const (
	tenant     = "t1"
	whCentral  = "wh-central"
	whBranch   = "wh-branch"
	whTech     = "wh-tech"
	whVan      = "wh-van"
	whInactive = "wh-inactive"

	userAdmin  = "u-admin"
	userKeeper = "u-keeper"
	userTech   = "u-tech"
	userDriver = "u-driver"

	pCable  = "p-cable"
	pRouter = "p-router"
	pOnt    = "p-ont"
	pKit    = "p-kit"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func key(wh, product string) entity.BalanceKey {
	return entity.BalanceKey{TenantID: tenant, WarehouseID: wh, ProductID: product}
}

type recordingObserver struct {
	mu          sync.Mutex
	posted      map[entity.MovementKind]int
	replayed    int
	negatives   int
	transitions map[entity.TransferStatus]int
	discrepancy int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		posted:      map[entity.MovementKind]int{},
		transitions: map[entity.TransferStatus]int{},
	}
}

func (o *recordingObserver) EntryPosted(kind entity.MovementKind, replayed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if replayed {
		o.replayed++
		return
	}
	o.posted[kind]++
}

func (o *recordingObserver) NegativeBalance(entity.WarehouseBalance) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.negatives++
}

func (o *recordingObserver) TransferTransition(status entity.TransferStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions[status]++
}

func (o *recordingObserver) CountDiscrepancies(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discrepancy += n
}

type fixture struct {
	store     *inventorytest.Store
	obs       *recordingObserver
	ledger    *inventory.StockLedgerService
	transfers *inventory.TransferUseCase
	counts    *inventory.InventoryCountUseCase
	audit     *inventory.BalanceAuditUseCase
}

func defaultConfig() inventory.LedgerConfig {
	return inventory.LedgerConfig{StrictMode: false, StrictTransfers: true, KitMaxDepth: 5}
}

func newFixture(t *testing.T, cfg inventory.LedgerConfig) *fixture {
	t.Helper()
	store := inventorytest.NewStore()
	for _, w := range []entity.Warehouse{
		{ID: whCentral, TenantID: tenant, Name: "Central", Type: entity.WarehouseFixed, Active: true},
		{ID: whBranch, TenantID: tenant, Name: "Sucursal", Type: entity.WarehouseFixed, Active: true},
		{ID: whTech, TenantID: tenant, Name: "Técnico", Type: entity.WarehouseTechnician, UserID: userTech, Active: true},
		{ID: whVan, TenantID: tenant, Name: "Camioneta", Type: entity.WarehouseVehicle, VehicleDriverID: userDriver, Active: true},
		{ID: whInactive, TenantID: tenant, Name: "Cerrada", Type: entity.WarehouseFixed, Active: false},
	} {
		store.AddWarehouse(w)
	}
	for _, p := range []entity.Product{
		{ID: pCable, TenantID: tenant, SKU: "CAB-01", Name: "Cable", CostPrice: d("2.5")},
		{ID: pRouter, TenantID: tenant, SKU: "ROU-01", Name: "Router", CostPrice: d("40")},
		{ID: pOnt, TenantID: tenant, SKU: "ONT-01", Name: "ONT", CostPrice: d("30")},
		{ID: pKit, TenantID: tenant, SKU: "KIT-01", Name: "Kit instalación"},
	} {
		store.AddProduct(p)
	}
	store.AddKit(pKit,
		entity.KitComponent{KitID: pKit, ChildID: pCable, Quantity: d("2")},
		entity.KitComponent{KitID: pKit, ChildID: pRouter, Quantity: d("1")},
	)

	obs := newRecordingObserver()
	repos := store.Repos()
	ledger := inventory.NewStockLedgerService(store, repos, cfg, logger.Nop(), obs)
	return &fixture{
		store:     store,
		obs:       obs,
		ledger:    ledger,
		transfers: inventory.NewTransferUseCase(store, repos, ledger, logger.Nop(), obs),
		counts:    inventory.NewInventoryCountUseCase(store, repos, ledger, nil, logger.Nop(), obs),
		audit:     inventory.NewBalanceAuditUseCase(repos),
	}
}

func (f *fixture) post(t *testing.T, kind entity.MovementKind, wh, product, qty string) *inventory.PostResult {
	t.Helper()
	res, err := f.ledger.Post(context.Background(), inventory.PostInput{
		TenantID: tenant, ProductID: product, WarehouseID: wh,
		Kind: kind, Quantity: d(qty), CreatedBy: userKeeper,
	})
	require.NoError(t, err)
	return res
}

// requireConsistent el libro, los saldos y stock_qty cuadran.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	report, err := f.audit.Verify(context.Background(), tenant, "")
	require.NoError(t, err)
	require.True(t, report.Consistent(), "desvíos: %+v %+v", report.BalanceDrifts, report.AggregateDrifts)
}
