package handler

import (
	"net/http"
	"strconv"

	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

type ImportacionHandler struct{ svc service.ImportacionService }

func NewImportacionHandler(svc service.ImportacionService) *ImportacionHandler {
	return &ImportacionHandler{svc: svc}
}

// ImportarLecturas godoc
// @Summary Importa lecturas historicas (las existentes se omiten)
// @Description Las filas con errores se informan en el lote; el resto se inserta en una sola transaccion.
// @Tags importacion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ImportarLecturasRequest true "Filas"
// @Success 201 {object} dto.ImportacionResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/importaciones/lecturas [post]
func (h *ImportacionHandler) ImportarLecturas(c *gin.Context) {
	var req dto.ImportarLecturasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ImportarLecturas(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ImportarDeudas godoc
// @Summary Importa deudas por rango de meses ("DE ENERO A DICIEMBRE")
// @Tags importacion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ImportarDeudasRequest true "Filas"
// @Success 201 {object} dto.ImportacionResponse
// @Router /v1/importaciones/deudas [post]
func (h *ImportacionHandler) ImportarDeudas(c *gin.Context) {
	var req dto.ImportarDeudasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ImportarDeudas(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ImportacionHandler) ListarLotes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.ListarLotes(c.Request.Context(), limit)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ImportacionHandler) ObtenerLote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerLote(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
