package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// CountHandler tomas de inventario (conteo ciego) (protegido).
type CountHandler struct {
	uc  *inventory.InventoryCountUseCase
	log *logger.Logger
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *inventory.InventoryCountUseCase, log *logger.Logger) *CountHandler {
	return &CountHandler{uc: uc, log: log.Component("http_count")}
}

// Open godoc
// @Summary      Abrir toma de inventario
// @Description  Toma una foto de los saldos de la bodega. Solo una toma abierta por bodega.
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenCountRequest  true  "bodega y referencia"
// @Success      201   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/counts [post]
func (h *CountHandler) Open(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.OpenCountRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	count, err := h.uc.Open(c.UserContext(), tenantID, in.WarehouseID, in.Reference, userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCountResponse(count))
}

// List godoc
// @Summary      Listar tomas de inventario
// @Description  Las tomas abiertas se devuelven en modo ciego.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "bodega"
// @Param        status        query  string  false  "open, completed o cancelled"
// @Param        limit         query  int     false  "límite (default 50)"
// @Param        offset        query  int     false  "desplazamiento"
// @Success      200  {object}  dto.ListResponse[dto.CountResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var q dto.ListCountsQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	q.DefaultPage()
	list, err := h.uc.List(c.UserContext(), tenantID, q.ToFilter())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.CountResponse]{
		Items: dto.ToCountResponses(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener toma de inventario
// @Description  Mientras está abierta no se exponen cantidades esperadas ni diferencias.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la toma"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/counts/{id} [get]
func (h *CountHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	count, err := h.uc.Get(c.UserContext(), tenantID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToCountResponse(count))
}

// RecordCount godoc
// @Summary      Registrar cantidad contada de un ítem
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                  true  "ID de la toma"
// @Param        itemId  path  string                  true  "ID del ítem"
// @Param        body    body  dto.RecordCountRequest  true  "cantidad contada (>= 0)"
// @Success      200  {object}  dto.CountItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/counts/{id}/items/{itemId} [put]
func (h *CountHandler) RecordCount(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.RecordCountRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	item, err := h.uc.RecordCount(c.UserContext(), tenantID, id, itemID, in.CountedQuantity, in.Notes)
	if err != nil {
		return respondError(c, h.log, err)
	}
	// la toma sigue abierta: respuesta ciega
	return c.JSON(dto.ToCountItemResponse(item, true))
}

// Complete godoc
// @Summary      Cerrar toma de inventario
// @Description  Registra un ajuste por cada ítem contado con diferencia. Todo o nada.
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la toma"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/counts/{id}/complete [post]
func (h *CountHandler) Complete(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	count, err := h.uc.Complete(c.UserContext(), tenantID, id, userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToCountResponse(count))
}

// Cancel godoc
// @Summary      Cancelar toma de inventario
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la toma"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/counts/{id}/cancel [post]
func (h *CountHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	count, err := h.uc.Cancel(c.UserContext(), tenantID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToCountResponse(count))
}

// Sheet godoc
// @Summary      Planilla PDF para el conteo
// @Tags         counts
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la toma"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/counts/{id}/sheet.pdf [get]
func (h *CountHandler) Sheet(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	pdf, err := h.uc.RenderSheet(c.UserContext(), tenantID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=toma-%s.pdf", id))
	return c.Send(pdf)
}
