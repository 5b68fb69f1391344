package apierror

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation_TraduceEtiquetas(t *testing.T) {
	v := NewValidation(map[string]string{"cliente_id": "uuid", "periodo": "required", "notas": "excludes"})

	assert.Equal(t, "Error de validacion", v.Detail)
	assert.Empty(t, v.Campo)
	assert.Equal(t, "Identificador invalido", v.Fields["cliente_id"])
	assert.Equal(t, "Campo obligatorio", v.Fields["periodo"])
	assert.Equal(t, "Valor invalido (excludes)", v.Fields["notas"])
}

func TestNewCampo(t *testing.T) {
	v := NewCampo("lectura_actual", "La lectura no puede ser menor que la anterior.")

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"detail": "La lectura no puede ser menor que la anterior.",
		"campo": "lectura_actual",
		"fields": {"lectura_actual": "La lectura no puede ser menor que la anterior."}
	}`, string(raw))
}

func TestNewCampo_Global(t *testing.T) {
	raw, err := json.Marshal(NewCampo("", "Debes registrar el mes consecutivo"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"detail": "Debes registrar el mes consecutivo"}`, string(raw))
}
