package service

import (
	"context"
	"testing"
	"time"

	"aguabill/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevoDeudaService(e *entorno) DeudaService {
	return NewDeudaService(e.deudas, e.lecturas, e.clientes, e.conceptos, e.ledger, e.tarifas)
}

// ── CrearDeudaManual ─────────────────────────────────────────────────────────

func TestCrearDeudaManual_TarifaPlanaConLectura(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00010", e.sinMedid)

	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)

	assert.Equal(t, "15.00", d.Monto.StringFixed(2))
	assert.Len(t, d.Detalles, 3)
	require.NotNil(t, d.LecturaID)
	require.NotNil(t, d.Descripcion)
	assert.Equal(t, "Deuda del periodo 2025-03", *d.Descripcion)

	l := e.lecturas.porPeriodo(c.ID, mes(2025, time.March))
	require.NotNil(t, l)
	assert.Equal(t, *d.LecturaID, l.ID)
	assert.Equal(t, "15.00", l.Total.StringFixed(2))
}

func TestCrearDeudaManual_Duplicada(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00011", e.sinMedid)
	req := dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"}

	_, err := svc.CrearDeudaManual(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.CrearDeudaManual(context.Background(), req)

	assert.Equal(t, KindConflicto, KindOf(err))
}

func TestCrearDeudaManual_PeriodoInvalido(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00012", e.sinMedid)

	_, err := nuevoDeudaService(e).CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "marzo"})

	assert.Equal(t, KindValidacion, KindOf(err))
}

// ── ActualizarDeuda ──────────────────────────────────────────────────────────

func TestActualizarDeuda_MontoEsLaSuma(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00013", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)

	desc := "Ajuste por reclamo"
	act, err := svc.ActualizarDeuda(context.Background(), d.ID, dto.ActualizarDeudaRequest{
		Descripcion: &desc,
		Detalles: []dto.DeudaDetalleRequest{
			{ConceptoID: e.agua.ID.String(), Monto: dec("8.00")},
			{ConceptoID: e.fijo.ID.String(), Monto: dec("3.00")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "11.00", act.Monto.StringFixed(2))
	assert.Len(t, act.Detalles, 2)
	assert.Equal(t, "Ajuste por reclamo", *act.Descripcion)
	assert.Equal(t, "11.00", e.deudas.rows[d.ID].Monto.StringFixed(2))
}

func TestActualizarDeuda_ConceptoDesconocido(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00014", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)

	_, err = svc.ActualizarDeuda(context.Background(), d.ID, dto.ActualizarDeudaRequest{
		Detalles: []dto.DeudaDetalleRequest{{ConceptoID: uuid.NewString(), Monto: dec("1.00")}},
	})

	assert.Equal(t, KindValidacion, KindOf(err))
}

func TestActualizarDeuda_Pagada(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00015", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)
	e.deudas.rows[d.ID].Pagada = true

	_, err = svc.ActualizarDeuda(context.Background(), d.ID, dto.ActualizarDeudaRequest{
		Detalles: []dto.DeudaDetalleRequest{{ConceptoID: e.agua.ID.String(), Monto: dec("1.00")}},
	})

	assert.Equal(t, KindConflicto, KindOf(err))
}

// ── EliminarDeuda ────────────────────────────────────────────────────────────

func TestEliminarDeuda_ConLecturaBorraAmbas(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00016", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)

	require.NoError(t, svc.EliminarDeuda(context.Background(), d.ID))

	assert.Nil(t, e.deudaDe(c, mes(2025, time.March)))
	assert.Nil(t, e.lecturas.porPeriodo(c.ID, mes(2025, time.March)))
}

func TestEliminarDeuda_Pagada(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00017", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)
	e.deudas.rows[d.ID].Pagada = true

	err = svc.EliminarDeuda(context.Background(), d.ID)

	assert.Equal(t, KindConflicto, KindOf(err))
	assert.NotNil(t, e.deudaDe(c, mes(2025, time.March)))
}

func TestEliminarDeuda_Inexistente(t *testing.T) {
	err := nuevoDeudaService(nuevoEntorno()).EliminarDeuda(context.Background(), uuid.New())

	assert.Equal(t, KindNoEncontrado, KindOf(err))
}

// ── CrearLecturaParaDeuda ────────────────────────────────────────────────────

func TestCrearLecturaParaDeuda_YaVinculada(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00018", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)

	_, err = svc.CrearLecturaParaDeuda(context.Background(), d.ID)

	assert.Equal(t, KindValidacion, KindOf(err))
}

func TestCrearLecturaParaDeuda_VinculaPlaceholder(t *testing.T) {
	e := nuevoEntorno()
	svc := nuevoDeudaService(e)
	c := e.cliente("00019", e.sinMedid)
	d, err := svc.CrearDeudaManual(context.Background(), dto.CrearDeudaRequest{ClienteID: c.ID.String(), Periodo: "2025-03"})
	require.NoError(t, err)

	// Detach the reading as a legacy import would leave it.
	delete(e.lecturas.rows, *d.LecturaID)
	e.deudas.rows[d.ID].LecturaID = nil

	l, err := svc.CrearLecturaParaDeuda(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, "2025-03", l.Periodo)
	require.NotNil(t, e.deudas.rows[d.ID].LecturaID)
	assert.Equal(t, l.ID, *e.deudas.rows[d.ID].LecturaID)
}
