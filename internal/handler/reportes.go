package handler

import (
	"context"
	"net/http"
	"path/filepath"

	"aguabill/internal/dto"
	"aguabill/internal/infra"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ReportesHandler serves the read-only views and their PDF renditions.
// PDFs are rendered on demand into pdfStoragePath.
type ReportesHandler struct {
	reportes       service.ReporteService
	facturas       service.FacturaService
	cajas          service.CajaService
	territorio     service.TerritorioService
	pdfStoragePath string
}

func NewReportesHandler(
	reportes service.ReporteService,
	facturas service.FacturaService,
	cajas service.CajaService,
	territorio service.TerritorioService,
	pdfStoragePath string,
) *ReportesHandler {
	return &ReportesHandler{
		reportes:       reportes,
		facturas:       facturas,
		cajas:          cajas,
		territorio:     territorio,
		pdfStoragePath: pdfStoragePath,
	}
}

func (h *ReportesHandler) empresa(ctx context.Context) *dto.EmpresaResponse {
	e, err := h.territorio.ObtenerEmpresa(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("empresa no configurada")
		return nil
	}
	return e
}

// ResumenDeudas godoc
// @Summary Resumen de deuda impaga por cliente
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param calle_id query string false "ID de calle"
// @Param zona_id query string false "ID de zona"
// @Success 200 {object} dto.ResumenDeudasResponse
// @Router /v1/reportes/deudas [get]
func (h *ReportesHandler) ResumenDeudas(c *gin.Context) {
	var filter dto.ResumenDeudasFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.reportes.ResumenDeudasImpagas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) HistorialDeudas(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.reportes.HistorialDeudas(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recibo godoc
// @Summary Recibo del ultimo periodo del cliente (formato=pdf para descargar)
// @Tags reportes
// @Produce json,application/pdf
// @Security BearerAuth
// @Param id path string true "ID del cliente"
// @Param formato query string false "json | pdf"
// @Success 200 {object} dto.ReciboResponse
// @Router /v1/clientes/{id}/recibo [get]
func (h *ReportesHandler) Recibo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	resp, err := h.reportes.Recibo(ctx, id)
	if err != nil {
		responderError(c, err)
		return
	}
	if c.Query("formato") != "pdf" {
		c.JSON(http.StatusOK, resp)
		return
	}
	path, err := infra.GenerateReciboPDF(resp, h.empresa(ctx), filepath.Join(h.pdfStoragePath, "recibos"))
	if err != nil {
		responderError(c, err)
		return
	}
	enviarPDF(c, path, filepath.Base(path))
}

// Ticket godoc
// @Summary Descarga el ticket PDF de una factura
// @Tags facturas
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID de la factura"
// @Success 200 {file} file
// @Router /v1/facturas/{id}/ticket [get]
func (h *ReportesHandler) Ticket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	f, err := h.facturas.ObtenerFactura(ctx, id)
	if err != nil {
		responderError(c, err)
		return
	}
	path, err := infra.GenerateTicketPDF(f, h.empresa(ctx), h.pdfStoragePath)
	if err != nil {
		responderError(c, err)
		return
	}
	enviarPDF(c, path, filepath.Base(path))
}

// ReporteCajaPDF godoc
// @Summary Descarga el reporte de caja en PDF
// @Tags caja
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID de la caja"
// @Param desde query string true "YYYY-MM-DD"
// @Param hasta query string true "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /v1/cajas/{id}/reporte/pdf [get]
func (h *ReportesHandler) ReporteCajaPDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var filter dto.ReporteCajaFilter
	if !bindQuery(c, &filter) {
		return
	}
	ctx := c.Request.Context()
	resp, err := h.cajas.ReporteCaja(ctx, id, filter)
	if err != nil {
		responderError(c, err)
		return
	}
	path, err := infra.GenerateReporteCajaPDF(resp, h.empresa(ctx), h.pdfStoragePath)
	if err != nil {
		responderError(c, err)
		return
	}
	enviarPDF(c, path, filepath.Base(path))
}
