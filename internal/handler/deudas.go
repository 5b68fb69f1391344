package handler

import (
	"net/http"

	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

type DeudasHandler struct{ svc service.DeudaService }

func NewDeudasHandler(svc service.DeudaService) *DeudasHandler { return &DeudasHandler{svc: svc} }

// Crear godoc
// @Summary Crea una deuda manual con la tarifa plana de la categoria
// @Tags deudas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearDeudaRequest true "Cliente y periodo"
// @Success 201 {object} dto.DeudaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/deudas [post]
func (h *DeudasHandler) Crear(c *gin.Context) {
	var req dto.CrearDeudaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearDeudaManual(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DeudasHandler) Listar(c *gin.Context) {
	var filter dto.DeudaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarDeudas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeudasHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerDeuda(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary Reemplaza el detalle por concepto de una deuda impaga
// @Tags deudas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la deuda"
// @Param body body dto.ActualizarDeudaRequest true "Detalle"
// @Success 200 {object} dto.DeudaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/deudas/{id} [put]
func (h *DeudasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarDeudaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarDeuda(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeudasHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarDeuda(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CrearLectura godoc
// @Summary Vincula una lectura placeholder a una deuda que no tiene
// @Tags deudas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la deuda"
// @Success 201 {object} dto.LecturaResponse
// @Router /v1/deudas/{id}/lectura [post]
func (h *DeudasHandler) CrearLectura(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CrearLecturaParaDeuda(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
