package handler

import (
	"net/http"

	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

// TarifasHandler serves the tariff catalog: customer categories and cash
// concepts.
type TarifasHandler struct{ svc service.TarifaService }

func NewTarifasHandler(svc service.TarifaService) *TarifasHandler { return &TarifasHandler{svc: svc} }

// ── Categorías ───────────────────────────────────────────────────────────────

// ListarCategorias godoc
// @Summary Lista categorias tarifarias
// @Tags tarifas
// @Produce json
// @Security BearerAuth
// @Param todas query bool false "Incluir inactivas"
// @Success 200 {array} dto.CategoriaResponse
// @Router /v1/categorias [get]
func (h *TarifasHandler) ListarCategorias(c *gin.Context) {
	resp, err := h.svc.ListarCategorias(c.Request.Context(), c.Query("todas") != "true")
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearCategoria godoc
// @Summary Crea una categoria tarifaria
// @Tags tarifas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CategoriaRequest true "Categoria"
// @Success 201 {object} dto.CategoriaResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/categorias [post]
func (h *TarifasHandler) CrearCategoria(c *gin.Context) {
	var req dto.CategoriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearCategoria(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TarifasHandler) ActualizarCategoria(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CategoriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarCategoria(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TarifasHandler) DesactivarCategoria(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DesactivarCategoria(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Conceptos de caja ────────────────────────────────────────────────────────

// ListarConceptos godoc
// @Summary Lista conceptos de caja
// @Tags tarifas
// @Produce json
// @Security BearerAuth
// @Param tipo query string false "ingreso | egreso"
// @Success 200 {array} dto.ConceptoResponse
// @Router /v1/conceptos [get]
func (h *TarifasHandler) ListarConceptos(c *gin.Context) {
	resp, err := h.svc.ListarConceptos(c.Request.Context(), c.Query("tipo"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TarifasHandler) CrearConcepto(c *gin.Context) {
	var req dto.ConceptoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearConcepto(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TarifasHandler) ActualizarConcepto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ConceptoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarConcepto(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EliminarConcepto godoc
// @Summary Elimina un concepto de caja (los reservados no se pueden eliminar)
// @Tags tarifas
// @Security BearerAuth
// @Param id path string true "ID del concepto"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/conceptos/{id} [delete]
func (h *TarifasHandler) EliminarConcepto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarConcepto(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
