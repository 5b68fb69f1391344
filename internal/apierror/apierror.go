// Package apierror holds the JSON bodies of 4xx/5xx responses. Messages are
// Spanish and written for the operator at the counter; database errors and
// other internal causes never reach them.
package apierror

// APIError is the body of every non-validation error.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError is the 422 body. Campo names the field a billing rule
// rejected (periodo, lectura_actual, pagos...) and is empty when the rule
// applies to the whole request. Fields maps each rejected field to its message.
type ValidationError struct {
	Detail string            `json:"detail"`
	Campo  string            `json:"campo,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

const detalleValidacion = "Error de validacion"

// NewValidation builds the body from validator failures: JSON field name to
// the failed tag.
func NewValidation(tags map[string]string) *ValidationError {
	fields := make(map[string]string, len(tags))
	for campo, tag := range tags {
		fields[campo] = mensajeTag(tag)
	}
	return &ValidationError{Detail: detalleValidacion, Fields: fields}
}

// NewCampo reports a rule violation on one field.
func NewCampo(campo, msg string) *ValidationError {
	v := &ValidationError{Detail: msg, Campo: campo}
	if campo != "" {
		v.Fields = map[string]string{campo: msg}
	}
	return v
}

var mensajesTag = map[string]string{
	"required": "Campo obligatorio",
	"uuid":     "Identificador invalido",
	"min":      "Valor por debajo del minimo permitido",
	"max":      "Valor por encima del maximo permitido",
	"gt":       "Debe ser mayor que cero",
	"gte":      "Valor por debajo del minimo permitido",
	"oneof":    "Valor no permitido",
	"len":      "Longitud incorrecta",
	"numeric":  "Debe contener solo digitos",
	"email":    "Correo electronico invalido",
	"datetime": "Fecha invalida, use AAAA-MM-DD",
}

func mensajeTag(tag string) string {
	if m, ok := mensajesTag[tag]; ok {
		return m
	}
	return "Valor invalido (" + tag + ")"
}
