package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"aguabill/internal/apierror"
	"aguabill/internal/middleware"
	"aguabill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON / form name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramID parses the :name path parameter as a UUID.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// usuarioActual returns the authenticated user, nil on public routes.
func usuarioActual(c *gin.Context) *uuid.UUID {
	id := middleware.UsuarioID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// responderError maps a service error to its HTTP status. Internal errors
// are logged and never shown to the client.
func responderError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindValidacion:
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCampo(campo(err), mensaje(err, "Datos invalidos")))
	case service.KindConflicto:
		c.JSON(http.StatusConflict, apierror.New(mensaje(err, "Conflicto con datos existentes")))
	case service.KindNoEncontrado:
		c.JSON(http.StatusNotFound, apierror.New(mensaje(err, "Recurso no encontrado")))
	case service.KindNoDisponible:
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("dependency unavailable")
		c.JSON(http.StatusServiceUnavailable, apierror.New(mensaje(err, "Servicio no disponible")))
	case service.KindConfiguracion:
		// Missing reserved concepts: the message names the codes.
		log.Error().Err(err).Str("path", c.FullPath()).Msg("configuration error")
		c.JSON(http.StatusInternalServerError, apierror.New(mensaje(err, "Configuracion incompleta")))
	default:
		_ = c.Error(err)
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

func campo(err error) string {
	var se *service.Error
	if errors.As(err, &se) {
		return se.Campo
	}
	return ""
}

func mensaje(err error, porDefecto string) string {
	var se *service.Error
	if errors.As(err, &se) && se.Mensaje != "" {
		return se.Mensaje
	}
	return porDefecto
}

// enviarPDF streams a generated file as an attachment.
func enviarPDF(c *gin.Context, path, nombre string) {
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, nombre)
}
