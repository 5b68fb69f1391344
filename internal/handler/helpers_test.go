package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aguabill/internal/dto"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func responder(err error) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { responderError(c, err) })
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestResponderError_Estados(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validacion", &service.Error{Kind: service.KindValidacion, Mensaje: "mal"}, http.StatusUnprocessableEntity},
		{"conflicto", &service.Error{Kind: service.KindConflicto, Mensaje: "ya pagada"}, http.StatusConflict},
		{"no encontrado", &service.Error{Kind: service.KindNoEncontrado, Mensaje: "no existe"}, http.StatusNotFound},
		{"registro gorm", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"no disponible", &service.Error{Kind: service.KindNoDisponible}, http.StatusServiceUnavailable},
		{"configuracion", &service.Error{Kind: service.KindConfiguracion, Mensaje: "falta 003"}, http.StatusInternalServerError},
		{"interno", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, responder(tt.err).Code)
		})
	}
}

func TestResponderError_CampoDeValidacion(t *testing.T) {
	w := responder(&service.Error{Kind: service.KindValidacion, Campo: "pagos", Mensaje: "La suma de pagos no coincide"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	assert.Equal(t, "La suma de pagos no coincide", fields["pagos"])
	assert.Equal(t, "pagos", body["campo"])
	assert.Equal(t, "La suma de pagos no coincide", body["detail"])
}

func TestResponderError_ValidacionGlobalSinCampos(t *testing.T) {
	w := responder(&service.Error{Kind: service.KindValidacion, Mensaje: "Debes registrar el mes consecutivo"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Debes registrar el mes consecutivo", body["detail"])
	assert.NotContains(t, body, "campo")
	assert.NotContains(t, body, "fields")
}

func TestResponderError_ConfiguracionMuestraElMensaje(t *testing.T) {
	w := responder(&service.Error{Kind: service.KindConfiguracion, Mensaje: "Faltan los conceptos de caja reservados: 003"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Faltan los conceptos de caja reservados: 003")
}

func TestResponderError_InternoNoFiltraDetalle(t *testing.T) {
	w := responder(errors.New("pq: connection refused"))

	assert.NotContains(t, w.Body.String(), "connection refused")
}

// ── Login ────────────────────────────────────────────────────────────────────

type authFijo struct {
	service.AuthService
	password string
}

func (a authFijo) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Password != a.password {
		return nil, service.ErrCredenciales
	}
	return &dto.LoginResponse{AccessToken: "a", RefreshToken: "r", TokenType: "bearer",
		User: dto.UsuarioResponse{ID: uuid.NewString(), Username: req.Username}}, nil
}

func doLogin(svc service.AuthService, body interface{}) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/login", NewAuthHandler(svc).Login)
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_Handler(t *testing.T) {
	svc := authFijo{password: "password123"}

	w := doLogin(svc, dto.LoginRequest{Username: "admin", Password: "password123"})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)

	assert.Equal(t, http.StatusUnauthorized, doLogin(svc, dto.LoginRequest{Username: "admin", Password: "wrongpass"}).Code)

	// DTO validation: password must be >= 4 chars
	w = doLogin(svc, dto.LoginRequest{Username: "u", Password: "12"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var ve map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ve))
	fields, ok := ve["fields"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	assert.Equal(t, "Valor por debajo del minimo permitido", fields["password"])

	assert.Equal(t, http.StatusBadRequest, doLogin(svc, "no es un objeto").Code)
}
