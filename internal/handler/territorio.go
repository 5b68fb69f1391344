package handler

import (
	"net/http"

	"aguabill/internal/apierror"
	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TerritorioHandler serves zones, street types, streets and the company record.
type TerritorioHandler struct{ svc service.TerritorioService }

func NewTerritorioHandler(svc service.TerritorioService) *TerritorioHandler {
	return &TerritorioHandler{svc: svc}
}

func (h *TerritorioHandler) ListarZonas(c *gin.Context) {
	resp, err := h.svc.ListarZonas(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TerritorioHandler) CrearZona(c *gin.Context) {
	var req dto.ZonaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearZona(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TerritorioHandler) ActualizarZona(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ZonaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarZona(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TerritorioHandler) ListarVias(c *gin.Context) {
	resp, err := h.svc.ListarVias(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TerritorioHandler) CrearVia(c *gin.Context) {
	var req dto.ViaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearVia(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TerritorioHandler) ActualizarVia(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ViaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarVia(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarCalles godoc
// @Summary Lista calles, opcionalmente de una via
// @Tags territorio
// @Produce json
// @Security BearerAuth
// @Param via_id query string false "ID de la via"
// @Success 200 {array} dto.CalleResponse
// @Router /v1/calles [get]
func (h *TerritorioHandler) ListarCalles(c *gin.Context) {
	var viaID *uuid.UUID
	if v := c.Query("via_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("via_id inválido"))
			return
		}
		viaID = &id
	}
	resp, err := h.svc.ListarCalles(c.Request.Context(), viaID)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TerritorioHandler) CrearCalle(c *gin.Context) {
	var req dto.CalleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearCalle(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TerritorioHandler) ActualizarCalle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CalleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarCalle(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Empresa ──────────────────────────────────────────────────────────────────

func (h *TerritorioHandler) ObtenerEmpresa(c *gin.Context) {
	resp, err := h.svc.ObtenerEmpresa(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GuardarEmpresa godoc
// @Summary Crea o actualiza los datos de la empresa
// @Tags empresa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EmpresaRequest true "Empresa"
// @Success 200 {object} dto.EmpresaResponse
// @Router /v1/empresa [put]
func (h *TerritorioHandler) GuardarEmpresa(c *gin.Context) {
	var req dto.EmpresaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GuardarEmpresa(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
