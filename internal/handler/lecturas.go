package handler

import (
	"net/http"

	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

type LecturasHandler struct {
	svc        service.LecturaService
	generacion service.GeneracionService
}

func NewLecturasHandler(svc service.LecturaService, generacion service.GeneracionService) *LecturasHandler {
	return &LecturasHandler{svc: svc, generacion: generacion}
}

// Registrar godoc
// @Summary Registra la lectura de un periodo y genera su deuda
// @Description Calcula consumo y cargos con la tarifa vigente y recalcula en cascada las lecturas posteriores impagas.
// @Tags lecturas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarLecturaRequest true "Lectura"
// @Success 201 {object} dto.LecturaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/lecturas [post]
func (h *LecturasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarLecturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarLectura(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LecturasHandler) Listar(c *gin.Context) {
	var filter dto.LecturaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarLecturas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LecturasHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerLectura(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary Corrige el valor leido de una lectura impaga
// @Tags lecturas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la lectura"
// @Param body body dto.ActualizarLecturaRequest true "Nuevo valor"
// @Success 200 {object} dto.LecturaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/lecturas/{id} [put]
func (h *LecturasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarLecturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarLectura(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LecturasHandler) Recalcular(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RecalcularLectura(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LecturasHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarLectura(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Generación para clientes sin medidor ─────────────────────────────────────

// Generar godoc
// @Summary Genera las lecturas del periodo para todos los clientes sin medidor
// @Tags lecturas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.GenerarLecturasRequest true "Periodo y fechas"
// @Success 201 {object} dto.GeneracionResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/generaciones [post]
func (h *LecturasHandler) Generar(c *gin.Context) {
	var req dto.GenerarLecturasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.generacion.Generar(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LecturasHandler) ListarGeneraciones(c *gin.Context) {
	resp, err := h.generacion.ListarGeneraciones(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LecturasHandler) ObtenerGeneracion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.generacion.ObtenerGeneracion(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnularGeneracion godoc
// @Summary Anula una generacion y elimina sus lecturas impagas
// @Tags lecturas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la generacion"
// @Success 200 {object} map[string]int
// @Router /v1/generaciones/{id} [delete]
func (h *LecturasHandler) AnularGeneracion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.generacion.Anular(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lecturas_eliminadas": n})
}
