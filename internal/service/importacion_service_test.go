package service

import (
	"context"
	"testing"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memLotes struct {
	rows []model.ImportacionLote
}

var _ repository.ImportacionRepository = (*memLotes)(nil)

func (r *memLotes) CreateTx(_ *gorm.DB, l *model.ImportacionLote) error {
	r.rows = append(r.rows, *l)
	return nil
}

func (r *memLotes) FindByID(_ context.Context, id uuid.UUID) (*model.ImportacionLote, error) {
	for _, l := range r.rows {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLotes) List(_ context.Context, limit int) ([]model.ImportacionLote, error) {
	if len(r.rows) > limit {
		return r.rows[:limit], nil
	}
	return r.rows, nil
}

func (r *memLotes) DB() *gorm.DB { return nil }

func nuevaImportacion(e *entorno, perfil string) (ImportacionService, *memLotes) {
	lotes := &memLotes{}
	return NewImportacionService(lotes, e.lecturas, e.deudas, e.clientes, e.conceptos, CodigosPorDefecto, perfil), lotes
}

// ── ImportarLecturas ─────────────────────────────────────────────────────────

func TestImportarLecturas_OmiteExistentesYReportaErrores(t *testing.T) {
	e := nuevoEntorno()
	svc, lotes := nuevaImportacion(e, PerfilEstricto)
	c := e.cliente("00001", e.medida)
	_, err := e.registrar(c, "2025-01", "60")
	require.NoError(t, err)
	antes, _ := e.lecturas.FindByIDTx(nil, e.lecturas.delCliente(c.ID)[0].ID)

	resp, err := svc.ImportarLecturas(context.Background(), nil, dto.ImportarLecturasRequest{Filas: []dto.FilaLectura{
		{Codigo: "00001", Periodo: "2024-11", LecturaActual: dec("40"), Consumo: dec("8"), Deuda: dec("20")},
		{Codigo: "00001", Periodo: "2024-12", LecturaActual: dec("50"), Consumo: dec("10"), Pago: dec("25")},
		{Codigo: "00001", Periodo: "2025-01", LecturaActual: dec("99"), Deuda: dec("5")},
		{Codigo: "00001", Periodo: "2024-12", LecturaActual: dec("50")},
		{Codigo: "99999", Periodo: "2024-12", LecturaActual: dec("1")},
	}})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Filas)
	assert.Equal(t, 2, resp.Insertados)
	assert.Equal(t, 1, resp.Omitidos)
	require.Len(t, resp.Errores, 2)
	assert.Equal(t, 4, resp.Errores[0].Fila)
	assert.Equal(t, "Cliente no encontrado", resp.Errores[1].Mensaje)
	require.Len(t, lotes.rows, 1)
	assert.Equal(t, resp.LoteID, lotes.rows[0].ID.String())

	// The existing reading is untouched.
	despues, _ := e.lecturas.FindByIDTx(nil, antes.ID)
	assert.Equal(t, antes, despues)

	nov := e.lecturas.porPeriodo(c.ID, mes(2024, time.November))
	require.NotNil(t, nov)
	assert.Equal(t, "32.000", nov.LecturaAnterior.StringFixed(3))
	assert.Equal(t, "24.00", nov.Total.StringFixed(2))
	assert.False(t, nov.Pagada)

	dic := e.lecturas.porPeriodo(c.ID, mes(2024, time.December))
	require.NotNil(t, dic)
	assert.True(t, dic.Pagada)
	assert.Equal(t, "25.00", dic.TotalAgua.StringFixed(2))

	for _, p := range []time.Time{mes(2024, time.November), mes(2024, time.December)} {
		d := e.deudaDe(c, p)
		require.NotNil(t, d)
		assert.True(t, e.deudas.sumaDetalles(d.ID).Equal(d.Monto))
	}
	assert.True(t, e.deudaDe(c, mes(2024, time.December)).Pagada)
}

func TestImportarLecturas_DesagueDeLaFila(t *testing.T) {
	e := nuevoEntorno()
	svc, _ := nuevaImportacion(e, PerfilEstricto)
	c := e.cliente("00001", e.medida)
	desague := decimal.Zero

	_, err := svc.ImportarLecturas(context.Background(), nil, dto.ImportarLecturasRequest{Filas: []dto.FilaLectura{
		{Codigo: "00001", Periodo: "2024-11", LecturaActual: dec("40"), Deuda: dec("20"), Desague: &desague},
	}})
	require.NoError(t, err)

	d := e.deudaDe(c, mes(2024, time.November))
	require.NotNil(t, d)
	assert.Equal(t, "23.00", d.Monto.StringFixed(2))
	assert.Len(t, d.Detalles, 2)
}

func TestImportarLecturas_PerfilEstrictoSinCargoFijo(t *testing.T) {
	e := nuevoEntorno()
	e.conceptos.rows = e.conceptos.rows[:2]
	svc, _ := nuevaImportacion(e, PerfilEstricto)
	e.cliente("00001", e.medida)

	_, err := svc.ImportarLecturas(context.Background(), nil, dto.ImportarLecturasRequest{Filas: []dto.FilaLectura{
		{Codigo: "00001", Periodo: "2024-11", LecturaActual: dec("40"), Deuda: dec("20")},
	}})

	assert.Equal(t, KindConfiguracion, KindOf(err))
	assert.Empty(t, e.lecturas.rows)
}

func TestImportarLecturas_PerfilToleranteSinCargoFijo(t *testing.T) {
	e := nuevoEntorno()
	e.conceptos.rows = e.conceptos.rows[:2]
	svc, _ := nuevaImportacion(e, PerfilTolerante)
	c := e.cliente("00001", e.medida)

	resp, err := svc.ImportarLecturas(context.Background(), nil, dto.ImportarLecturasRequest{Filas: []dto.FilaLectura{
		{Codigo: "00001", Periodo: "2024-11", LecturaActual: dec("40"), Deuda: dec("20")},
	}})
	require.NoError(t, err)

	assert.Equal(t, PerfilTolerante, resp.Perfil)
	d := e.deudaDe(c, mes(2024, time.November))
	require.NotNil(t, d)
	assert.Equal(t, "21.00", d.Monto.StringFixed(2))
	assert.Len(t, d.Detalles, 2)
}

func TestImportarLecturas_SinConceptoDeAgua(t *testing.T) {
	e := nuevoEntorno()
	e.conceptos.rows = e.conceptos.rows[1:]
	svc, _ := nuevaImportacion(e, PerfilTolerante)

	_, err := svc.ImportarLecturas(context.Background(), nil, dto.ImportarLecturasRequest{Filas: []dto.FilaLectura{{Codigo: "00001", Periodo: "2024-11"}}})

	assert.Equal(t, KindConfiguracion, KindOf(err))
}

// ── ImportarDeudas ───────────────────────────────────────────────────────────

func TestImportarDeudas_ExpandeElRango(t *testing.T) {
	e := nuevoEntorno()
	svc, _ := nuevaImportacion(e, PerfilEstricto)
	c := e.cliente("00001", e.medida)
	_, err := e.registrar(c, "2024-02", "10")
	require.NoError(t, err)

	resp, err := svc.ImportarDeudas(context.Background(), nil, dto.ImportarDeudasRequest{Filas: []dto.FilaDeudaRango{
		{Codigo: "00001", Anio: 2024, Meses: "DE ENERO A MARZO", Total: dec("30")},
		{Codigo: "00001", Anio: 2024, Meses: "", Total: dec("10")},
		{Codigo: "00001", Anio: 2024, Meses: "DE MARZO A ENERO", Total: dec("10")},
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Insertados)
	assert.Equal(t, 1, resp.Omitidos)
	require.Len(t, resp.Errores, 2)
	assert.Equal(t, 2, resp.Errores[0].Fila)
	assert.Contains(t, resp.Errores[1].Mensaje, "Error al generar periodos")

	for _, m := range []time.Month{time.January, time.March} {
		d := e.deudaDe(c, mes(2024, m))
		require.NotNil(t, d)
		assert.Equal(t, "14.00", d.Monto.StringFixed(2))
		assert.Nil(t, d.LecturaID)
		assert.True(t, e.deudas.sumaDetalles(d.ID).Equal(d.Monto))
	}
	// February keeps the debt produced by its reading.
	feb := e.deudaDe(c, mes(2024, time.February))
	require.NotNil(t, feb)
	assert.NotNil(t, feb.LecturaID)
}

func TestObtenerLote(t *testing.T) {
	e := nuevoEntorno()
	svc, _ := nuevaImportacion(e, PerfilEstricto)

	resp, err := svc.ImportarDeudas(context.Background(), nil, dto.ImportarDeudasRequest{Filas: []dto.FilaDeudaRango{
		{Codigo: "12345", Anio: 2024, Meses: "DE ENERO A ENERO", Total: dec("1")},
	}})
	require.NoError(t, err)

	lote, err := svc.ObtenerLote(context.Background(), uuid.MustParse(resp.LoteID))
	require.NoError(t, err)
	require.Len(t, lote.Errores, 1)
	assert.Equal(t, "12345", lote.Errores[0].Codigo)

	_, err = svc.ObtenerLote(context.Background(), uuid.New())
	assert.Equal(t, KindNoEncontrado, KindOf(err))
}
