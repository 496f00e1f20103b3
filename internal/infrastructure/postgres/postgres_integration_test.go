package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
)

// Un solo contenedor por paquete; cada test usa su propio tenant.
var (
	sharedOnce      sync.Once
	sharedPool      *pgxpool.Pool
	sharedContainer testcontainers.Container
	sharedErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if sharedPool != nil {
		sharedPool.Close()
	}
	if sharedContainer != nil {
		_ = sharedContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func startPostgres() (*pgxpool.Pool, error) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, err
	}
	sharedContainer = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}
	pool, err := postgres.NewPoolFromDSN(ctx, dsn)
	if err != nil {
		return nil, err
	}
	mg, err := postgres.NewMigrator(pool, nil)
	if err != nil {
		return nil, err
	}
	if err := mg.Up(); err != nil {
		return nil, err
	}
	return pool, nil
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida con -short")
	}
	sharedOnce.Do(func() { sharedPool, sharedErr = startPostgres() })
	if sharedErr != nil {
		t.Skipf("PostgreSQL no disponible: %v", sharedErr)
	}
	return sharedPool
}

type pgFixture struct {
	pool     *pgxpool.Pool
	tenant   string
	central  string
	branch   string
	product  string
	ledger   *inventory.StockLedgerService
	counts   *inventory.InventoryCountUseCase
	audit    *inventory.BalanceAuditUseCase
	txRunner *postgres.TxRunner
}

func newPgFixture(t *testing.T, cfg inventory.LedgerConfig) *pgFixture {
	t.Helper()
	pool := testPool(t)
	ctx := context.Background()
	f := &pgFixture{
		pool:    pool,
		tenant:  "tenant-" + uuid.NewString()[:8],
		central: uuid.NewString(),
		branch:  uuid.NewString(),
		product: uuid.NewString(),
	}
	seeder := postgres.NewCatalogSeeder(pool)
	for _, w := range []entity.Warehouse{
		{ID: f.central, TenantID: f.tenant, Name: "Central", Type: entity.WarehouseFixed, Active: true},
		{ID: f.branch, TenantID: f.tenant, Name: "Sucursal", Type: entity.WarehouseFixed, Active: true},
	} {
		require.NoError(t, seeder.UpsertWarehouse(ctx, &w))
	}
	require.NoError(t, seeder.UpsertProduct(ctx, &entity.Product{
		ID: f.product, TenantID: f.tenant, SKU: "CAB-001", Name: "Cable UTP", CostPrice: decimal.RequireFromString("1.5"),
	}))

	repos := postgres.NewRepos(pool)
	f.txRunner = postgres.NewTxRunner(pool)
	f.ledger = inventory.NewStockLedgerService(f.txRunner, repos, cfg, nil, nil)
	f.counts = inventory.NewInventoryCountUseCase(f.txRunner, repos, f.ledger, nil, nil, nil)
	f.audit = inventory.NewBalanceAuditUseCase(repos)
	return f
}

func (f *pgFixture) post(ctx context.Context, kind entity.MovementKind, wh, qty string) (*inventory.PostResult, error) {
	return f.ledger.Post(ctx, inventory.PostInput{
		TenantID:    f.tenant,
		ProductID:   f.product,
		WarehouseID: wh,
		Kind:        kind,
		Quantity:    decimal.RequireFromString(qty),
		CreatedBy:   "u-test",
	})
}

func (f *pgFixture) balance(t *testing.T, wh string) decimal.Decimal {
	t.Helper()
	b, err := postgres.NewBalanceRepository(f.pool).Get(context.Background(), entity.BalanceKey{
		TenantID: f.tenant, WarehouseID: wh, ProductID: f.product,
	})
	require.NoError(t, err)
	if b == nil {
		return decimal.Zero
	}
	return b.Quantity
}

func (f *pgFixture) requireConsistent(t *testing.T) {
	t.Helper()
	report, err := f.audit.Verify(context.Background(), f.tenant, "")
	require.NoError(t, err)
	require.True(t, report.Consistent(), "drift: %+v %+v", report.BalanceDrifts, report.AggregateDrifts)
}

func TestPostgres_MovimientosYAgregado(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{StrictMode: true})
	ctx := context.Background()

	_, err := f.post(ctx, entity.MovementEntry, f.central, "10")
	require.NoError(t, err)
	_, err = f.post(ctx, entity.MovementExit, f.central, "4")
	require.NoError(t, err)
	res, err := f.ledger.Post(ctx, inventory.PostInput{
		TenantID:          f.tenant,
		ProductID:         f.product,
		WarehouseID:       f.central,
		TargetWarehouseID: f.branch,
		Kind:              entity.MovementTransfer,
		Quantity:          decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(4).Equal(f.balance(t, f.central)))
	assert.True(t, decimal.NewFromInt(2).Equal(f.balance(t, f.branch)))
	assert.True(t, decimal.NewFromInt(6).Equal(res.ProductStock[f.product]))

	p, err := postgres.NewProductRepository(f.pool).GetByID(ctx, f.tenant, f.product)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(p.StockQty))

	entry, err := f.ledger.GetEntry(ctx, f.tenant, res.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, f.branch, entry.TargetWarehouseID)
	f.requireConsistent(t)
}

func TestPostgres_SalidaSinStockEnModoEstricto(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{StrictMode: true})
	ctx := context.Background()

	_, err := f.post(ctx, entity.MovementEntry, f.central, "3")
	require.NoError(t, err)
	_, err = f.post(ctx, entity.MovementExit, f.central, "5")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, decimal.NewFromInt(3).Equal(f.balance(t, f.central)))
	f.requireConsistent(t)
}

func TestPostgres_SalidasConcurrentesNoSobregiran(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{StrictMode: true})
	ctx := context.Background()
	_, err := f.post(ctx, entity.MovementEntry, f.central, "5")
	require.NoError(t, err)

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.post(ctx, entity.MovementExit, f.central, "1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, workers-5, fail)
	assert.True(t, f.balance(t, f.central).IsZero())
	f.requireConsistent(t)
}

func TestPostgres_EntradasConcurrentes(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.post(ctx, entity.MovementEntry, f.central, "1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, decimal.NewFromInt(20).Equal(f.balance(t, f.central)))
	f.requireConsistent(t)
}

func TestPostgres_Idempotencia(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()
	in := inventory.PostInput{
		TenantID:       f.tenant,
		ProductID:      f.product,
		WarehouseID:    f.central,
		Kind:           entity.MovementEntry,
		Quantity:       decimal.NewFromInt(7),
		IdempotencyKey: "recepcion-123",
	}

	first, err := f.ledger.Post(ctx, in)
	require.NoError(t, err)
	second, err := f.ledger.Post(ctx, in)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.True(t, decimal.NewFromInt(7).Equal(f.balance(t, f.central)))

	in.Quantity = decimal.NewFromInt(8)
	_, err = f.ledger.Post(ctx, in)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPostgres_LibroSoloInsercion(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()
	res, err := f.post(ctx, entity.MovementEntry, f.central, "1")
	require.NoError(t, err)

	_, err = f.pool.Exec(ctx, `UPDATE ledger_entries SET quantity = 99 WHERE id = $1`, res.Entry.ID)
	assert.Error(t, err)
	_, err = f.pool.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, res.Entry.ID)
	assert.Error(t, err)
}

func TestPostgres_GetOrCreateSinLoteEsUnico(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()
	key := entity.BalanceKey{TenantID: f.tenant, WarehouseID: f.branch, ProductID: f.product}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := postgres.NewBalanceRepository(f.pool).GetOrCreate(ctx, key)
			assert.NoError(t, err)
			if b != nil {
				assert.True(t, b.Quantity.IsZero())
			}
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT count(*) FROM warehouse_balances WHERE tenant_id = $1 AND warehouse_id = $2 AND batch_id IS NULL`,
		f.tenant, f.branch).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestPostgres_AuditoriaDetectaDescuadre(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()
	_, err := f.post(ctx, entity.MovementEntry, f.central, "4")
	require.NoError(t, err)

	_, err = f.pool.Exec(ctx, `UPDATE warehouse_balances SET quantity = quantity + 1 WHERE tenant_id = $1`, f.tenant)
	require.NoError(t, err)

	report, err := f.audit.Verify(ctx, f.tenant, f.central)
	require.NoError(t, err)
	require.False(t, report.Consistent())
	require.Len(t, report.BalanceDrifts, 1)
	assert.True(t, decimal.NewFromInt(5).Equal(report.BalanceDrifts[0].StoredQuantity))
	assert.True(t, decimal.NewFromInt(4).Equal(report.BalanceDrifts[0].LedgerQuantity))
	require.Len(t, report.AggregateDrifts, 1)
	assert.Equal(t, f.product, report.AggregateDrifts[0].ProductID)
}

func TestPostgres_UnaTomaAbiertaPorBodega(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()
	_, err := f.post(ctx, entity.MovementEntry, f.central, "6")
	require.NoError(t, err)

	c, err := f.counts.Open(ctx, f.tenant, f.central, "INV-1", "u-test")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	_, err = f.counts.Open(ctx, f.tenant, f.central, "INV-2", "u-test")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.counts.RecordCount(ctx, f.tenant, c.ID, c.Items[0].ID, decimal.NewFromInt(4), "rotos")
	require.NoError(t, err)
	done, err := f.counts.Complete(ctx, f.tenant, c.ID, "u-test")
	require.NoError(t, err)
	assert.Equal(t, entity.CountCompleted, done.Status)
	assert.True(t, decimal.NewFromInt(4).Equal(f.balance(t, f.central)))
	f.requireConsistent(t)
}

func TestPostgres_TxRunnerRevierteEnError(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{})
	ctx := context.Background()

	boom := fmt.Errorf("falla después de incrementar")
	err := f.txRunner.Run(ctx, func(r inventory.Repos) error {
		_, err := r.Balances.Increment(ctx, entity.BalanceKey{
			TenantID: f.tenant, WarehouseID: f.central, ProductID: f.product,
		}, decimal.NewFromInt(3))
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, f.balance(t, f.central).IsZero())
}

func TestPostgres_KitExplotaComponentes(t *testing.T) {
	f := newPgFixture(t, inventory.LedgerConfig{KitMaxDepth: 5})
	ctx := context.Background()

	kitID := uuid.NewString()
	seeder := postgres.NewCatalogSeeder(f.pool)
	require.NoError(t, seeder.UpsertProduct(ctx, &entity.Product{
		ID: kitID, TenantID: f.tenant, SKU: "KIT-" + kitID[:8], Name: "Kit instalación", IsKit: true,
	}))
	require.NoError(t, seeder.UpsertKitItem(ctx, entity.KitComponent{KitID: kitID, ChildID: f.product, Quantity: decimal.NewFromInt(2)}))

	res, err := f.ledger.Post(ctx, inventory.PostInput{
		TenantID:    f.tenant,
		ProductID:   kitID,
		WarehouseID: f.central,
		Kind:        entity.MovementEntry,
		Quantity:    decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	require.Len(t, res.Children, 1)
	assert.Equal(t, entity.ReferenceKit, res.Children[0].Reference.Kind)
	assert.True(t, decimal.NewFromInt(6).Equal(f.balance(t, f.central)))
	assert.True(t, decimal.NewFromInt(6).Equal(res.ProductStock[f.product]))
	assert.True(t, decimal.NewFromInt(3).Equal(res.ProductStock[kitID]))
	f.requireConsistent(t)
}
