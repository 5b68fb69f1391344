package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFalla = errors.New("registry down")

func fallar(context.Context) error { return errFalla }
func exito(context.Context) error  { return nil }

// breakerConReloj returns a breaker whose clock only moves with avanzar.
func breakerConReloj(cfg BreakerConfig) (*CircuitBreaker, func(time.Duration)) {
	cb := NewCircuitBreaker(cfg)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	cb.ahora = func() time.Time { return now }
	return cb, func(d time.Duration) { now = now.Add(d) }
}

func TestCircuitBreaker_SuspendeTrasFallosConsecutivos(t *testing.T) {
	cb, _ := breakerConReloj(BreakerConfig{MaxFallos: 3, Pausa: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fallar), errFalla)
	}
	assert.Equal(t, BreakerSuspendido, cb.State())

	llamado := false
	err := cb.Execute(ctx, func(context.Context) error { llamado = true; return nil })
	assert.ErrorIs(t, err, ErrPadronSuspendido)
	assert.False(t, llamado)

	r := cb.Resumen()
	assert.Equal(t, "suspendido", r.Estado)
	assert.Equal(t, 3, r.Fallos)
	require.NotNil(t, r.ReintentoEn)
}

func TestCircuitBreaker_ExitoReiniciaElConteo(t *testing.T) {
	cb, _ := breakerConReloj(BreakerConfig{MaxFallos: 2})
	ctx := context.Background()

	_ = cb.Execute(ctx, fallar)
	_ = cb.Execute(ctx, exito)
	_ = cb.Execute(ctx, fallar)

	assert.Equal(t, BreakerDisponible, cb.State())
}

func TestCircuitBreaker_PruebaRestableceConExitos(t *testing.T) {
	cb, avanzar := breakerConReloj(BreakerConfig{MaxFallos: 1, ExitosParaCerrar: 2, Pausa: time.Minute})
	ctx := context.Background()

	_ = cb.Execute(ctx, fallar)
	avanzar(59 * time.Second)
	assert.Equal(t, BreakerSuspendido, cb.State())
	avanzar(time.Second)
	assert.Equal(t, BreakerEnPrueba, cb.State())

	assert.NoError(t, cb.Execute(ctx, exito))
	assert.Equal(t, BreakerEnPrueba, cb.State())
	assert.NoError(t, cb.Execute(ctx, exito))
	assert.Equal(t, BreakerDisponible, cb.State())
	assert.Nil(t, cb.Resumen().ReintentoEn)
}

func TestCircuitBreaker_PruebaFallidaVuelveASuspender(t *testing.T) {
	cb, avanzar := breakerConReloj(BreakerConfig{MaxFallos: 1, Pausa: time.Minute})
	ctx := context.Background()

	_ = cb.Execute(ctx, fallar)
	avanzar(time.Minute)
	_ = cb.Execute(ctx, fallar)

	assert.Equal(t, "suspendido", cb.State().String())
}

func TestCircuitBreaker_UnaSolaConsultaDePrueba(t *testing.T) {
	cb, avanzar := breakerConReloj(BreakerConfig{MaxFallos: 1, Pausa: time.Minute})
	ctx := context.Background()
	_ = cb.Execute(ctx, fallar)
	avanzar(time.Minute)

	var concurrente error
	err := cb.Execute(ctx, func(context.Context) error {
		concurrente = cb.Execute(ctx, exito)
		return nil
	})

	assert.NoError(t, err)
	assert.ErrorIs(t, concurrente, ErrPadronSuspendido)
}

func TestCircuitBreaker_CancelacionDelLlamadorNoCuenta(t *testing.T) {
	cb, _ := breakerConReloj(BreakerConfig{MaxFallos: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, BreakerDisponible, cb.State())
}
