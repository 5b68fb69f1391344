package service

import (
	"context"
	"testing"
	"time"

	"aguabill/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerar_SoloClientesSinMedidor(t *testing.T) {
	e := nuevoEntorno()
	a := e.cliente("00001", e.sinMedid)
	b := e.cliente("00002", e.sinMedid)
	medido := e.cliente("00003", e.medida)
	generico := e.cliente("00000", e.sinMedid)
	_, err := e.registrar(b, "2025-01", "0")
	require.NoError(t, err)

	resp, err := e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{Periodo: "2025-01"})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.TotalGenerado)
	assert.Equal(t, 1, resp.Omitidos)
	assert.Equal(t, notasGeneracionPorDefecto, *resp.Notas)

	ene := mes(2025, time.January)
	require.NotNil(t, e.lecturas.porPeriodo(a.ID, ene))
	assert.Nil(t, e.lecturas.porPeriodo(medido.ID, ene))
	assert.Nil(t, e.lecturas.porPeriodo(generico.ID, ene))
	d := e.deudaDe(a, ene)
	require.NotNil(t, d)
	assert.Equal(t, "15.00", d.Monto.StringFixed(2))
}

func TestGenerar_OmitePeriodoPagado(t *testing.T) {
	e := nuevoEntorno()
	a := e.cliente("00001", e.sinMedid)
	ene := mes(2025, time.January)
	require.NoError(t, e.deudas.CreateTx(nil, newDeudaPagada(a.ID, ene)))

	resp, err := e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{Periodo: "2025-01"})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.TotalGenerado)
	assert.Equal(t, 1, resp.Omitidos)
	assert.Nil(t, e.lecturas.porPeriodo(a.ID, ene))
}

func TestGenerar_UnaVezPorPeriodo(t *testing.T) {
	e := nuevoEntorno()
	e.cliente("00001", e.sinMedid)

	_, err := e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{Periodo: "2025-01"})
	require.NoError(t, err)
	_, err = e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{Periodo: "2025-01"})

	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "periodo", svcErr.Campo)
}

func TestGenerar_FechasDeLaGeneracion(t *testing.T) {
	e := nuevoEntorno()
	a := e.cliente("00001", e.sinMedid)
	vence := "2025-02-15"

	resp, err := e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{
		Periodo:       "2025-01",
		FechasLectura: dto.FechasLectura{FechaVencimiento: &vence},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.FechaVencimiento)
	assert.Equal(t, vence, *resp.FechaVencimiento)
	l := e.lecturas.porPeriodo(a.ID, mes(2025, time.January))
	require.NotNil(t, l.FechaVencimiento)
	assert.Equal(t, vence, l.FechaVencimiento.Format("2006-01-02"))
}

func TestAnularGeneracion(t *testing.T) {
	e := nuevoEntorno()
	a := e.cliente("00001", e.sinMedid)
	b := e.cliente("00002", e.sinMedid)
	resp, err := e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{Periodo: "2025-01"})
	require.NoError(t, err)
	require.Equal(t, 2, resp.TotalGenerado)

	ene := mes(2025, time.January)
	pagada := e.lecturas.porPeriodo(b.ID, ene)
	require.NoError(t, e.lecturas.UpdatePagadaTx(nil, pagada.ID, true))
	require.NoError(t, e.deudas.UpdatePagadaTx(nil, e.deudaDe(b, ene).ID, true))

	n, err := e.generacion.Anular(context.Background(), resp.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Nil(t, e.lecturas.porPeriodo(a.ID, ene))
	assert.Nil(t, e.deudaDe(a, ene))
	assert.NotNil(t, e.lecturas.porPeriodo(b.ID, ene))
	assert.Empty(t, e.generaciones.rows)

	// The period can be generated again.
	_, err = e.generacion.Generar(context.Background(), nil, dto.GenerarLecturasRequest{Periodo: "2025-01"})
	assert.NoError(t, err)
}
