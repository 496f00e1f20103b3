package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.StockLedgerService
	Transfers *inventory.TransferUseCase
	Counts    *inventory.InventoryCountUseCase
	Audit     *inventory.BalanceAuditUseCase
	Log       *logger.Logger
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	stock := api.Group("/stock")

	// Movimientos, saldos y auditoría
	ledgerHandler := NewLedgerHandler(deps.Ledger, deps.Audit, log)
	stock.Post("/movements", ledgerHandler.PostMovement)
	stock.Get("/movements", ledgerHandler.ListMovements)
	stock.Get("/movements/:id", ledgerHandler.GetMovement)
	stock.Get("/balances", ledgerHandler.ListBalances)
	stock.Get("/audit", RequireRole(jwt.RoleAdmin, jwt.RoleStockKeeper), ledgerHandler.Audit)

	// Transferencias
	transfers := stock.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers, log)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/accept", transferHandler.Accept)
	transfers.Post("/:id/reject", transferHandler.Reject)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Tomas de inventario
	counts := stock.Group("/counts")
	countHandler := NewCountHandler(deps.Counts, log)
	counts.Post("/", countHandler.Open)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.GetByID)
	counts.Put("/:id/items/:itemId", countHandler.RecordCount)
	counts.Post("/:id/complete", countHandler.Complete)
	counts.Post("/:id/cancel", countHandler.Cancel)
	counts.Get("/:id/sheet.pdf", countHandler.Sheet)
}
