package handler

import (
	"net/http"
	"strconv"

	"aguabill/internal/apierror"
	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientesHandler struct{ svc service.ClienteService }

func NewClientesHandler(svc service.ClienteService) *ClientesHandler {
	return &ClientesHandler{svc: svc}
}

// Crear godoc
// @Summary Registra un cliente (el codigo se asigna automaticamente)
// @Tags clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ClienteRequest true "Cliente"
// @Success 201 {object} dto.ClienteResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/clientes [post]
func (h *ClientesHandler) Crear(c *gin.Context) {
	var req dto.ClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearCliente(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClientesHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarCliente(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientesHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerCliente(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Lista clientes con filtros y paginacion
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param q query string false "Codigo, documento o nombre"
// @Param estado query string false "activo | inactivo | suspendido"
// @Param calle_id query string false "ID de calle"
// @Param zona_id query string false "ID de zona"
// @Param medidor query string false "si | no"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamaño de pagina"
// @Success 200 {object} dto.ClienteListResponse
// @Router /v1/clientes [get]
func (h *ClientesHandler) Listar(c *gin.Context) {
	var filter dto.ClienteFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarClientes(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConsultarPadron godoc
// @Summary Consulta un DNI o RUC en el padron nacional
// @Tags clientes
// @Produce json
// @Security BearerAuth
// @Param tipo path int true "1 DNI, 6 RUC"
// @Param numero path string true "Numero de documento"
// @Success 200 {object} dto.PadronResponse
// @Failure 404 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/padron/{tipo}/{numero} [get]
func (h *ClientesHandler) ConsultarPadron(c *gin.Context) {
	tipo, err := strconv.Atoi(c.Param("tipo"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Tipo de documento inválido"))
		return
	}
	resp, err := h.svc.ConsultarPadron(c.Request.Context(), tipo, c.Param("numero"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Public debt lookup ───────────────────────────────────────────────────────

// ConsultaDeuda godoc
// @Summary Consulta publica de deuda por codigo y documento (sin autenticacion)
// @Tags consulta
// @Produce json
// @Param codigo path string true "Codigo de cliente"
// @Param documento query string false "Numero de documento del titular"
// @Success 200 {object} dto.ConsultaDeudaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 429 {object} apierror.APIError
// @Router /v1/consulta/{codigo} [get]
func (h *ClientesHandler) ConsultaDeuda(c *gin.Context) {
	resp, err := h.svc.ConsultaDeuda(c.Request.Context(), c.Param("codigo"), c.Query("documento"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
