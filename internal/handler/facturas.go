package handler

import (
	"net/http"

	"aguabill/internal/dto"
	"aguabill/internal/middleware"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

type FacturasHandler struct{ svc service.FacturaService }

func NewFacturasHandler(svc service.FacturaService) *FacturasHandler {
	return &FacturasHandler{svc: svc}
}

// Crear godoc
// @Summary Liquida deudas o conceptos libres de un cliente
// @Description Las deudas deben ser las mas antiguas impagas del cliente, consecutivas y sin huecos. La suma de pagos debe igualar el total.
// @Tags facturas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearFacturaRequest true "Factura"
// @Success 201 {object} dto.FacturaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/facturas [post]
func (h *FacturasHandler) Crear(c *gin.Context) {
	var req dto.CrearFacturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearFactura(c.Request.Context(), middleware.UsuarioID(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FacturasHandler) Listar(c *gin.Context) {
	var filter dto.FacturaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarFacturas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FacturasHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerFactura(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anular godoc
// @Summary Anula una factura y devuelve sus deudas a impagas
// @Tags facturas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la factura"
// @Success 200 {object} dto.FacturaResponse
// @Router /v1/facturas/{id} [delete]
func (h *FacturasHandler) Anular(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.AnularFactura(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
