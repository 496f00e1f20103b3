package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// TransferHandler transferencias entre bodegas (protegido).
type TransferHandler struct {
	uc  *inventory.TransferUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log.Component("http_transfer")}
}

// Create godoc
// @Summary      Crear transferencia
// @Description  Sin destinatario queda completed de inmediato; con destinatario queda pending_acceptance.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino e ítems"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	t, err := h.uc.Create(c.UserContext(), in.ToInput(tenantID, userID))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t))
}

// List godoc
// @Summary      Listar transferencias
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "estado"
// @Param        warehouse_id  query  string  false  "bodega origen o destino"
// @Param        mine          query  bool    false  "solo las dirigidas al usuario del token"
// @Param        limit         query  int     false  "límite (default 50)"
// @Param        offset        query  int     false  "desplazamiento"
// @Success      200  {object}  dto.ListResponse[dto.TransferResponse]
// @Router       /api/stock/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	var q dto.ListTransfersQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	q.DefaultPage()
	list, err := h.uc.List(c.UserContext(), tenantID, q.ToFilter(GetUserID(c)))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.TransferResponse]{
		Items: dto.ToTransferResponses(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener transferencia
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	t, err := h.uc.Get(c.UserContext(), tenantID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// Accept godoc
// @Summary      Aceptar transferencia
// @Description  Solo el destinatario, admin o bodeguero. Registra todos los ítems en una sola transacción.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/transfers/{id}/accept [post]
func (h *TransferHandler) Accept(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	t, err := h.uc.Accept(c.UserContext(), tenantID, id, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// Reject godoc
// @Summary      Rechazar transferencia
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la transferencia"
// @Param        body  body  dto.RejectTransferRequest  true  "motivo"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.RejectTransferRequest
	if err := bindBody(c, &in); err != nil {
		return respondError(c, h.log, err)
	}
	t, err := h.uc.Reject(c.UserContext(), tenantID, id, actorFrom(c), in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}

// Cancel godoc
// @Summary      Cancelar transferencia pendiente
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	t, err := h.uc.Cancel(c.UserContext(), tenantID, id, actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}
