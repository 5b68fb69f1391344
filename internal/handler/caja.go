package handler

import (
	"net/http"

	"aguabill/internal/dto"
	"aguabill/internal/middleware"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre una caja para el usuario autenticado
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.CajaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cajas [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), middleware.UsuarioID(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajaHandler) Listar(c *gin.Context) {
	var filter dto.CajaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarCajas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerCaja(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Cierra la caja con el saldo del reporte del dia
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Success 200 {object} dto.CajaResponse
// @Router /v1/cajas/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarEgreso godoc
// @Summary Registra un egreso manual de caja
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Param body body dto.EgresoRequest true "Egreso"
// @Success 201 {object} dto.EgresoResponse
// @Router /v1/cajas/{id}/egresos [post]
func (h *CajaHandler) RegistrarEgreso(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.EgresoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarEgreso(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajaHandler) ListarEgresos(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var filter dto.ReporteCajaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarEgresos(c.Request.Context(), id, filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Daily report ─────────────────────────────────────────────────────────────

// GenerarReporteDiario godoc
// @Summary Recalcula el reporte diario de la caja (idempotente)
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Param body body dto.ReporteDiarioRequest true "Fecha"
// @Success 200 {object} dto.ReporteDiarioResponse
// @Router /v1/cajas/{id}/reporte-diario [post]
func (h *CajaHandler) GenerarReporteDiario(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ReporteDiarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerarReporteDiario(c.Request.Context(), id, req.Fecha)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) ObtenerReporteDiario(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerReporteDiario(c.Request.Context(), id, c.Query("fecha"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmarReporte godoc
// @Summary Confirma el reporte del dia y encola su PDF
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Param body body dto.ReporteDiarioRequest true "Fecha"
// @Success 200 {object} dto.ReporteDiarioResponse
// @Router /v1/cajas/{id}/reporte-diario/confirmar [post]
func (h *CajaHandler) ConfirmarReporte(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ReporteDiarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ConfirmarReporte(c.Request.Context(), id, req.Fecha)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReporteCaja godoc
// @Summary Detalle de ingresos por factura y concepto en un rango
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Param desde query string true "YYYY-MM-DD"
// @Param hasta query string true "YYYY-MM-DD"
// @Success 200 {object} dto.ReporteCajaResponse
// @Router /v1/cajas/{id}/reporte [get]
func (h *CajaHandler) ReporteCaja(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var filter dto.ReporteCajaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ReporteCaja(c.Request.Context(), id, filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
