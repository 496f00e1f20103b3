package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// catalogFile estructura del archivo de carga (yaml o json).
type catalogFile struct {
	Tenant     string           `mapstructure:"tenant"`
	Warehouses []warehouseSeed  `mapstructure:"warehouses"`
	Products   []productSeed    `mapstructure:"products"`
	Opening    []openingBalance `mapstructure:"opening_balances"`
}

type warehouseSeed struct {
	ID              string `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	Type            string `mapstructure:"type"`
	UserID          string `mapstructure:"user_id"`
	VehicleDriverID string `mapstructure:"vehicle_driver_id"`
	Inactive        bool   `mapstructure:"inactive"`
}

type productSeed struct {
	ID         string          `mapstructure:"id"`
	SKU        string          `mapstructure:"sku"`
	Name       string          `mapstructure:"name"`
	CostPrice  string          `mapstructure:"cost_price"`
	Components []componentSeed `mapstructure:"components"`
}

type componentSeed struct {
	ProductID string `mapstructure:"product_id"`
	Quantity  string `mapstructure:"quantity"`
}

// openingBalance con receipt_id el saldo queda referenciado a la recepción de compra.
type openingBalance struct {
	WarehouseID   string `mapstructure:"warehouse_id"`
	ProductID     string `mapstructure:"product_id"`
	Quantity      string `mapstructure:"quantity"`
	UnitCost      string `mapstructure:"unit_cost"`
	ReceiptID     string `mapstructure:"receipt_id"`
	ReceiptNumber string `mapstructure:"receipt_number"`
}

func main() {
	var (
		file   string
		tenant string
		userID string
	)
	flag.StringVar(&file, "file", "catalog.yaml", "archivo de catálogo (yaml o json)")
	flag.StringVar(&tenant, "tenant", "", "tenant destino (por defecto el del archivo)")
	flag.StringVar(&userID, "user", "", "usuario que figura como autor de los saldos iniciales")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	cat, err := loadCatalog(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("leer catálogo")
	}
	if tenant != "" {
		cat.Tenant = tenant
	}
	if cat.Tenant == "" {
		log.Fatal().Msg("tenant es obligatorio (-tenant o campo tenant)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := seedCatalog(ctx, postgres.NewCatalogSeeder(pool), cat); err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().
		Str("tenant", cat.Tenant).
		Int("warehouses", len(cat.Warehouses)).
		Int("products", len(cat.Products)).
		Msg("catálogo cargado")

	ledger := inventory.NewStockLedgerService(
		postgres.NewTxRunner(pool),
		postgres.NewRepos(pool),
		inventory.LedgerConfig{
			StrictMode:      cfg.Ledger.StrictMode,
			StrictTransfers: cfg.Ledger.StrictTransfers,
			KitMaxDepth:     cfg.Ledger.KitMaxDepth,
		},
		log,
		inventory.NopObserver{},
	)

	var posted, replayed, failed int
	for _, ob := range cat.Opening {
		res, err := postOpening(ctx, ledger, cat.Tenant, userID, ob)
		switch {
		case err != nil:
			failed++
			log.Error().Err(err).
				Str("warehouse_id", ob.WarehouseID).
				Str("product_id", ob.ProductID).
				Msg("saldo inicial rechazado")
		case res.Replayed:
			replayed++
		default:
			posted++
		}
	}
	log.Info().Int("posted", posted).Int("replayed", replayed).Int("failed", failed).Msg("saldos iniciales")
	if failed > 0 {
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalogFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cat catalogFile
	if err := v.Unmarshal(&cat); err != nil {
		return nil, fmt.Errorf("decodificar: %w", err)
	}
	return &cat, nil
}

func seedCatalog(ctx context.Context, s *postgres.CatalogSeeder, cat *catalogFile) error {
	for _, w := range cat.Warehouses {
		err := s.UpsertWarehouse(ctx, &entity.Warehouse{
			ID:              w.ID,
			TenantID:        cat.Tenant,
			Name:            w.Name,
			Type:            entity.WarehouseType(w.Type),
			UserID:          w.UserID,
			VehicleDriverID: w.VehicleDriverID,
			Active:          !w.Inactive,
		})
		if err != nil {
			return err
		}
	}
	// primero todos los productos: un kit puede listar hijos declarados después
	for _, p := range cat.Products {
		cost, err := parseDecimal(p.CostPrice)
		if err != nil {
			return fmt.Errorf("producto %s cost_price: %w", p.SKU, err)
		}
		err = s.UpsertProduct(ctx, &entity.Product{
			ID:        p.ID,
			TenantID:  cat.Tenant,
			SKU:       p.SKU,
			Name:      p.Name,
			CostPrice: cost,
			IsKit:     len(p.Components) > 0,
		})
		if err != nil {
			return err
		}
	}
	for _, p := range cat.Products {
		for _, c := range p.Components {
			qty, err := parseDecimal(c.Quantity)
			if err != nil || !qty.IsPositive() {
				return fmt.Errorf("kit %s componente %s: cantidad inválida %q", p.SKU, c.ProductID, c.Quantity)
			}
			if c.ProductID == p.ID {
				return fmt.Errorf("kit %s no puede contenerse a sí mismo", p.SKU)
			}
			if err := s.UpsertKitItem(ctx, entity.KitComponent{KitID: p.ID, ChildID: c.ProductID, Quantity: qty}); err != nil {
				return err
			}
		}
	}
	return nil
}

// postOpening registra el saldo inicial como entrada. La clave de idempotencia
// permite volver a ejecutar la carga sin duplicar stock.
func postOpening(ctx context.Context, ledger *inventory.StockLedgerService, tenant, userID string, ob openingBalance) (*inventory.PostResult, error) {
	in, err := openingInput(tenant, userID, ob)
	if err != nil {
		return nil, err
	}
	res, err := ledger.Post(ctx, in)
	if errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("saldo inicial ya registrado con otra cantidad: %w", err)
	}
	return res, err
}

func openingInput(tenant, userID string, ob openingBalance) (inventory.PostInput, error) {
	qty, err := parseDecimal(ob.Quantity)
	if err != nil {
		return inventory.PostInput{}, fmt.Errorf("%w: quantity %q", domain.ErrInvalidInput, ob.Quantity)
	}
	cost, err := parseDecimal(ob.UnitCost)
	if err != nil {
		return inventory.PostInput{}, fmt.Errorf("%w: unit_cost %q", domain.ErrInvalidInput, ob.UnitCost)
	}
	ref := entity.ManualReference("saldo inicial")
	if ob.ReceiptID != "" {
		number := ob.ReceiptNumber
		if number == "" {
			number = ob.ReceiptID
		}
		ref = entity.PurchaseReceiptReference(ob.ReceiptID, number)
	}
	return inventory.PostInput{
		TenantID:       tenant,
		ProductID:      ob.ProductID,
		WarehouseID:    ob.WarehouseID,
		Kind:           entity.MovementEntry,
		Quantity:       qty,
		UnitCost:       cost,
		Reference:      ref,
		Notes:          "carga inicial",
		IdempotencyKey: "seed:" + ob.WarehouseID + ":" + ob.ProductID,
		CreatedBy:      userID,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
