package service

import (
	"context"
	"testing"

	"aguabill/internal/dto"
	"aguabill/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidar_ConceptosReservados(t *testing.T) {
	e := nuevoEntorno()
	require.NoError(t, e.tarifas.Validar(context.Background()))

	sinFijo := NewTarifaService(e.categorias, &memConceptos{rows: []model.ConceptoCaja{e.agua, e.desague}}, CodigosPorDefecto)
	err := sinFijo.Validar(context.Background())

	assert.Equal(t, KindConfiguracion, KindOf(err))
	assert.Contains(t, err.Error(), "003")
}

func TestCargoFijo(t *testing.T) {
	e := nuevoEntorno()

	v, err := e.tarifas.CargoFijo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.00", v.StringFixed(2))
}

func TestEliminarConcepto_Reservado(t *testing.T) {
	e := nuevoEntorno()

	err := e.tarifas.EliminarConcepto(context.Background(), e.fijo.ID)

	assert.Equal(t, KindConflicto, KindOf(err))
}

func TestCrearCategoria(t *testing.T) {
	e := nuevoEntorno()
	maximo := 20

	c, err := e.tarifas.CrearCategoria(context.Background(), dto.CategoriaRequest{
		Nombre:        "Comercial",
		PrecioAgua:    dec("3.00"),
		TarifaExceso:  dec("4.50"),
		ConsumoMaximo: &maximo,
		TieneMedidor:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "02", c.Codigo)

	_, err = e.tarifas.CrearCategoria(context.Background(), dto.CategoriaRequest{Nombre: "Comercial"})
	assert.Equal(t, KindConflicto, KindOf(err))
}

func TestCrearCategoria_MaximoSinMedidor(t *testing.T) {
	e := nuevoEntorno()
	maximo := 20

	_, err := e.tarifas.CrearCategoria(context.Background(), dto.CategoriaRequest{
		Nombre:        "Social plana",
		ConsumoMaximo: &maximo,
	})

	assert.Equal(t, KindValidacion, KindOf(err))
}
