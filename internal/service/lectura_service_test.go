package service

import (
	"context"
	"testing"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Tarificar ────────────────────────────────────────────────────────────────

func TestTarificar_Medido(t *testing.T) {
	cat := model.Categoria{PrecioAgua: dec("2.50"), PrecioDesague: dec("1.00"), TieneMedidor: true}

	c := Tarificar(cat, dec("10.000"), dec("15.000"), dec("3.00"))

	assert.True(t, c.Consumo.Equal(dec("5.000")))
	assert.True(t, c.Agua.Equal(dec("12.50")))
	assert.True(t, c.Desague.Equal(dec("1.00")))
	assert.True(t, c.CargoFijo.Equal(dec("3.00")))
	assert.Equal(t, "16.50", c.Total.StringFixed(2))
}

func TestTarificar_Exceso(t *testing.T) {
	maximo := 20
	cat := model.Categoria{
		PrecioAgua:    dec("2.00"),
		TarifaExceso:  dec("3.00"),
		ConsumoMaximo: &maximo,
		TieneMedidor:  true,
	}

	c := Tarificar(cat, decimal.Zero, dec("25"), decimal.Zero)

	assert.Equal(t, "55.00", c.Agua.StringFixed(2))
	assert.Equal(t, "55.00", c.Total.StringFixed(2))
}

func TestTarificar_ExcesoBajoElMaximo(t *testing.T) {
	maximo := 20
	cat := model.Categoria{PrecioAgua: dec("2.00"), TarifaExceso: dec("3.00"), ConsumoMaximo: &maximo, TieneMedidor: true}

	c := Tarificar(cat, dec("100"), dec("112"), decimal.Zero)

	assert.Equal(t, "24.00", c.Agua.StringFixed(2))
}

func TestTarificar_SinMedidorIgnoraLaLectura(t *testing.T) {
	cat := model.Categoria{PrecioAgua: dec("10.00"), PrecioDesague: dec("2.00")}

	c := Tarificar(cat, dec("40"), dec("999"), dec("3.00"))

	assert.True(t, c.Consumo.IsZero())
	assert.True(t, c.LecturaAnterior.IsZero())
	assert.Equal(t, "10.00", c.Agua.StringFixed(2))
	assert.Equal(t, "15.00", c.Total.StringFixed(2))
}

// ── RegistrarLectura ─────────────────────────────────────────────────────────

func TestRegistrarLectura_ConsumoDesdeLaAnterior(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)

	primera, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	assert.Equal(t, "10.000", primera.Consumo.StringFixed(3))
	assert.True(t, primera.LecturaAnterior.IsZero())

	segunda, err := e.registrar(c, "2025-02", "15")
	require.NoError(t, err)
	assert.Equal(t, "10.000", segunda.LecturaAnterior.StringFixed(3))
	assert.Equal(t, "5.000", segunda.Consumo.StringFixed(3))
	assert.Equal(t, "12.50", segunda.TotalAgua.StringFixed(2))
	assert.Equal(t, "16.50", segunda.Total.StringFixed(2))
}

func TestRegistrarLectura_SincronizaLaDeuda(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)

	l, err := e.registrar(c, "2025-01", "4")
	require.NoError(t, err)

	d := e.deudaDe(c, mes(2025, time.January))
	require.NotNil(t, d)
	require.NotNil(t, d.LecturaID)
	assert.Equal(t, l.ID, *d.LecturaID)
	assert.True(t, d.Monto.Equal(l.Total))
	assert.True(t, e.deudas.sumaDetalles(d.ID).Equal(d.Monto))
	assert.Len(t, d.Detalles, 3)
}

func TestRegistrarLectura_OmiteDetallesEnCero(t *testing.T) {
	e := nuevoEntorno()
	e.medida.PrecioDesague = decimal.Zero
	c := e.cliente("00001", e.medida)

	_, err := e.registrar(c, "2025-01", "0")
	require.NoError(t, err)

	d := e.deudaDe(c, mes(2025, time.January))
	require.NotNil(t, d)
	require.Len(t, d.Detalles, 1)
	assert.Equal(t, e.fijo.ID, d.Detalles[0].ConceptoID)
	assert.Equal(t, "3.00", d.Monto.StringFixed(2))
}

func TestRegistrarLectura_PeriodoDuplicado(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)

	_, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-01", "12")

	require.Error(t, err)
	assert.Equal(t, KindValidacion, KindOf(err))
}

func TestRegistrarLectura_MesNoConsecutivo(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)

	_, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-03", "20")

	require.Error(t, err)
	assert.Equal(t, KindValidacion, KindOf(err))
	assert.Contains(t, err.Error(), "mes consecutivo")
}

func TestRegistrarLectura_MenorQueLaAnterior(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)

	_, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-02", "8")

	require.Error(t, err)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "lectura_actual", svcErr.Campo)
	assert.Empty(t, e.lecturas.delCliente(c.ID)[1:])
}

func TestRegistrarLectura_SinMedidorTarifaPlana(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00002", e.sinMedid)

	l, err := e.registrar(c, "2025-01", "999")
	require.NoError(t, err)

	assert.True(t, l.Consumo.IsZero())
	assert.Equal(t, "10.00", l.TotalAgua.StringFixed(2))
	assert.Equal(t, "15.00", l.Total.StringFixed(2))
	assert.False(t, l.TieneMedidor)
}

func TestRegistrarLectura_FaltaConceptoReservado(t *testing.T) {
	e := nuevoEntorno()
	e.conceptos.rows = e.conceptos.rows[:2]
	c := e.cliente("00001", e.medida)

	_, err := e.registrar(c, "2025-01", "10")

	require.Error(t, err)
	assert.Equal(t, KindConfiguracion, KindOf(err))
	assert.Contains(t, err.Error(), "003")
	assert.Empty(t, e.lecturas.rows)
}

func TestRegistrarLectura_ClienteInexistente(t *testing.T) {
	e := nuevoEntorno()

	_, err := e.ledger.RegistrarLectura(context.Background(), dto.RegistrarLecturaRequest{
		ClienteID:     uuid.New().String(),
		Periodo:       "2025-01",
		LecturaActual: dec("1"),
	})

	assert.Equal(t, KindNoEncontrado, KindOf(err))
}

// ── Cascade ──────────────────────────────────────────────────────────────────

func TestActualizarLectura_CascadaHaciaAdelante(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)
	ene, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-02", "15")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-03", "20")
	require.NoError(t, err)

	resp, err := e.ledger.ActualizarLectura(context.Background(), ene.ID, dto.ActualizarLecturaRequest{LecturaActual: dec("12")})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Recalculadas)

	list := e.lecturas.delCliente(c.ID)
	require.Len(t, list, 3)
	assert.Equal(t, "12.000", list[0].Consumo.StringFixed(3))
	assert.Equal(t, "12.000", list[1].LecturaAnterior.StringFixed(3))
	assert.Equal(t, "3.000", list[1].Consumo.StringFixed(3))
	assert.Equal(t, "5.000", list[2].Consumo.StringFixed(3))

	for _, l := range list {
		d := e.deudaDe(c, l.Periodo)
		require.NotNil(t, d)
		assert.True(t, d.Monto.Equal(l.Total), "deuda %s", l.Periodo.Format("2006-01"))
		assert.True(t, e.deudas.sumaDetalles(d.ID).Equal(d.Monto))
	}
}

func TestRecalcularLectura_PagadaEsUnMuro(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)
	ene, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	feb, err := e.registrar(c, "2025-02", "15")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-03", "20")
	require.NoError(t, err)

	require.NoError(t, e.lecturas.UpdatePagadaTx(nil, feb.ID, true))
	require.NoError(t, e.deudas.UpdatePagadaTx(nil, e.deudaDe(c, mes(2025, time.February)).ID, true))
	antes := e.lecturas.delCliente(c.ID)

	e.medida.PrecioAgua = dec("3.00")
	resp, err := e.ledger.RecalcularLectura(context.Background(), ene.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Recalculadas)

	despues := e.lecturas.delCliente(c.ID)
	assert.Equal(t, "30.00", despues[0].TotalAgua.StringFixed(2))
	assert.Equal(t, antes[1], despues[1])
	assert.Equal(t, antes[2], despues[2])
}

func TestActualizarLectura_ConPosteriorPagada(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)
	ene, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	feb, err := e.registrar(c, "2025-02", "15")
	require.NoError(t, err)
	require.NoError(t, e.lecturas.UpdatePagadaTx(nil, feb.ID, true))

	_, err = e.ledger.ActualizarLectura(context.Background(), ene.ID, dto.ActualizarLecturaRequest{LecturaActual: dec("11")})

	assert.Equal(t, KindConflicto, KindOf(err))
}

func TestActualizarLectura_Pagada(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)
	ene, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	require.NoError(t, e.lecturas.UpdatePagadaTx(nil, ene.ID, true))

	_, err = e.ledger.ActualizarLectura(context.Background(), ene.ID, dto.ActualizarLecturaRequest{LecturaActual: dec("11")})

	assert.Equal(t, KindConflicto, KindOf(err))
}

// ── EliminarLectura ──────────────────────────────────────────────────────────

func TestEliminarLectura_EncadenaDesdeLaAnterior(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)
	_, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	feb, err := e.registrar(c, "2025-02", "15")
	require.NoError(t, err)
	_, err = e.registrar(c, "2025-03", "20")
	require.NoError(t, err)

	require.NoError(t, e.ledger.EliminarLectura(context.Background(), feb.ID))

	assert.Nil(t, e.deudaDe(c, mes(2025, time.February)))
	list := e.lecturas.delCliente(c.ID)
	require.Len(t, list, 2)
	assert.Equal(t, "10.000", list[1].LecturaAnterior.StringFixed(3))
	assert.Equal(t, "10.000", list[1].Consumo.StringFixed(3))
	// Full pricing on the re-chained reading: 10 m3 x 2.50 + 1.00 + 3.00.
	assert.Equal(t, "29.00", list[1].Total.StringFixed(2))
	assert.Equal(t, "29.00", e.deudaDe(c, mes(2025, time.March)).Monto.StringFixed(2))
}

func TestEliminarLectura_Pagada(t *testing.T) {
	e := nuevoEntorno()
	c := e.cliente("00001", e.medida)
	ene, err := e.registrar(c, "2025-01", "10")
	require.NoError(t, err)
	require.NoError(t, e.lecturas.UpdatePagadaTx(nil, ene.ID, true))

	err = e.ledger.EliminarLectura(context.Background(), ene.ID)

	assert.Equal(t, KindConflicto, KindOf(err))
	assert.Len(t, e.lecturas.rows, 1)
}
