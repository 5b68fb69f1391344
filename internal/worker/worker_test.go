package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aguabill/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	backoffBase = time.Millisecond
}

// ── withRetry ────────────────────────────────────────────────────────────────

func TestWithRetry_ExitoTrasFallos(t *testing.T) {
	llamadas := 0
	attempts, err := withRetry(context.Background(), 3, func(int) error {
		llamadas++
		if llamadas < 3 {
			return errors.New("transitorio")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_AgotaIntentos(t *testing.T) {
	attempts, err := withRetry(context.Background(), 3, func(int) error { return errors.New("siempre") })

	assert.EqualError(t, err, "siempre")
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_ErrorPermanenteNoReintenta(t *testing.T) {
	base := errors.New("payload roto")
	attempts, err := withRetry(context.Background(), 3, func(int) error { return permanente(base) })

	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts, err := withRetry(ctx, 3, func(int) error {
		cancel()
		return errors.New("transitorio")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestPermanente_Nil(t *testing.T) {
	assert.NoError(t, permanente(nil))
}

// ── ComprobanteWorker ────────────────────────────────────────────────────────

type facturasFijas map[uuid.UUID]*dto.FacturaResponse

func (f facturasFijas) ObtenerFactura(_ context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return nil, errors.New("factura no encontrada")
}

type sinEmpresa struct{}

func (sinEmpresa) ObtenerEmpresa(context.Context) (*dto.EmpresaResponse, error) {
	return nil, errors.New("empresa no configurada")
}

func payload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestComprobanteWorker_GeneraTicket(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()
	facturas := facturasFijas{id: {
		ID: id, Codigo: "0000007", Cliente: "Rosa", Fecha: "2025-03-31", Estado: "activa",
		Total: decimal.RequireFromString("15.00"),
		Pagos: []dto.FacturaPagoResponse{{Metodo: "efectivo", Total: decimal.RequireFromString("15.00")}},
	}}
	w := NewComprobanteWorker(facturas, sinEmpresa{}, dir)

	err := w.Process(context.Background(), payload(t, ComprobanteJobPayload{FacturaID: id.String()}))
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "ticket_0000007.pdf"))
	assert.NoError(t, statErr)
}

func TestComprobanteWorker_ErroresPermanentes(t *testing.T) {
	w := NewComprobanteWorker(facturasFijas{}, nil, t.TempDir())

	for _, raw := range []json.RawMessage{
		json.RawMessage(`{`),
		payload(t, ComprobanteJobPayload{FacturaID: "no-es-uuid"}),
		payload(t, ComprobanteJobPayload{FacturaID: uuid.NewString()}),
	} {
		err := w.Process(context.Background(), raw)
		var perm *permanentError
		assert.ErrorAs(t, err, &perm, string(raw))
	}
}

// ── Reporte cron ─────────────────────────────────────────────────────────────

type generadorContado struct{ llamadas int }

func (g *generadorContado) GenerarReportesAbiertos(context.Context, time.Time) (int, error) {
	g.llamadas++
	return 0, nil
}

func TestStartReporteCron_SpecInvalido(t *testing.T) {
	_, err := StartReporteCron(context.Background(), "no es cron", time.UTC, &generadorContado{})
	assert.Error(t, err)
}

func TestStartReporteCron_SeDetieneConElContexto(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := StartReporteCron(ctx, "55 23 * * *", time.UTC, &generadorContado{})
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	cancel()
}
