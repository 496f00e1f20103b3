package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// HeaderIdempotencyKey reintentos con la misma clave devuelven el movimiento original.
const HeaderIdempotencyKey = "Idempotency-Key"

// LedgerHandler movimientos, saldos y auditoría del libro de stock (protegido).
type LedgerHandler struct {
	ledger *inventory.StockLedgerService
	audit  *inventory.BalanceAuditUseCase
	log    *logger.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(ledger *inventory.StockLedgerService, audit *inventory.BalanceAuditUseCase, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, audit: audit, log: log.Component("http_ledger")}
}

// PostMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  Un movimiento repetido con el mismo Idempotency-Key no vuelve a mover saldos (replayed=true).
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                       false  "clave de idempotencia"
// @Param        body             body    dto.PostMovementRequest      true   "movimiento"
// @Success      201  {object}  dto.PostMovementResponse
// @Success      200  {object}  dto.PostMovementResponse  "repetición idempotente"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *LedgerHandler) PostMovement(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.PostMovementRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	key := c.Get(HeaderIdempotencyKey)
	if len(key) > 120 {
		return respondError(c, h.log, domain.Invalid("Idempotency-Key: máximo 120 caracteres"))
	}
	res, err := h.ledger.Post(c.UserContext(), in.ToPostInput(tenantID, userID, key))
	if err != nil {
		return respondError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.ToPostMovementResponse(res))
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.LedgerEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{id} [get]
func (h *LedgerHandler) GetMovement(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	e, err := h.ledger.GetEntry(c.UserContext(), tenantID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToLedgerEntryResponse(e))
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Movimientos del libro, más recientes primero. No calcula saldo acumulado; el saldo vigente está en /api/stock/balances.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id      query  string  false  "producto"
// @Param        warehouse_id    query  string  false  "bodega (origen o destino)"
// @Param        kind            query  string  false  "tipo de movimiento"
// @Param        reference_kind  query  string  false  "tipo de documento"
// @Param        reference_id    query  string  false  "documento"
// @Param        limit           query  int     false  "límite (default 50)"
// @Param        offset          query  int     false  "desplazamiento"
// @Success      200  {object}  dto.ListResponse[dto.LedgerEntryResponse]
// @Router       /api/stock/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var q dto.ListMovementsQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	q.DefaultPage()
	entries, err := h.ledger.ListEntries(c.UserContext(), tenantID, q.ToFilter())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.LedgerEntryResponse]{
		Items: dto.ToLedgerEntryResponses(entries),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// ListBalances godoc
// @Summary      Saldos por bodega, producto y lote
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "bodega"
// @Param        product_id    query  string  false  "producto"
// @Param        non_zero      query  bool    false  "omitir saldos en cero"
// @Success      200  {array}   dto.BalanceResponse
// @Router       /api/stock/balances [get]
func (h *LedgerHandler) ListBalances(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var q dto.ListBalancesQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	balances, err := h.ledger.ListBalances(c.UserContext(), tenantID, q.ToFilter())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToBalanceResponses(balances))
}

// Audit godoc
// @Summary      Verificar saldos contra el libro
// @Description  Recalcula cada saldo desde los movimientos y cada stock_qty desde los saldos.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "limitar a una bodega"
// @Success      200  {object}  dto.AuditResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/audit [get]
func (h *LedgerHandler) Audit(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	warehouseID := c.Query("warehouse_id")
	if warehouseID != "" {
		if _, err := uuid.Parse(warehouseID); err != nil {
			return respondError(c, h.log, domain.Invalid("warehouse_id: debe ser un UUID"))
		}
	}
	report, err := h.audit.Verify(c.UserContext(), tenantID, warehouseID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if !report.Consistent() {
		h.log.Warn().
			Str("tenant_id", tenantID).
			Int("balance_drifts", len(report.BalanceDrifts)).
			Int("aggregate_drifts", len(report.AggregateDrifts)).
			Msg("auditoría de saldos con diferencias")
	}
	return c.JSON(dto.ToAuditResponse(report))
}
