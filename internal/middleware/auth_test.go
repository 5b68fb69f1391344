package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func signToken(t *testing.T, rol, typ string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.New().String(), "username": "testuser", "rol": rol, "typ": typ,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UsuarioID(c).String(), "rol": GetClaims(c).Rol})
	})
	r.GET("/admin", RequireRole("administrador"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"sin token", "", http.StatusUnauthorized},
		{"token valido", signToken(t, "cajero", "access", time.Hour), http.StatusOK},
		{"token expirado", signToken(t, "cajero", "access", -time.Second), http.StatusUnauthorized},
		{"token de refresco", signToken(t, "cajero", "refresh", time.Hour), http.StatusUnauthorized},
		{"token basura", "this.is.garbage", http.StatusUnauthorized},
	}
	r := ginTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(r, "/protected", tt.token).Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := ginTestRouter()

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", signToken(t, "cajero", "access", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", signToken(t, "administrador", "access", time.Hour)).Code)
}

func TestUsuarioID_SinClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, uuid.Nil, UsuarioID(c))
}
