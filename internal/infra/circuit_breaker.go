package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Registry breaker ─────────────────────────────────────────────────────────
// Guards the DNI/RUC registry. After MaxFallos consecutive failures lookups
// are suspended for Pausa; the next call after the pause is a single probe
// and ExitosParaCerrar good probes restore normal lookups.
//
//   disponible → suspendido → en_prueba → disponible
//                    ↑______________|  (probe failed)

// EstadoBreaker is the registry availability seen by customer registration.
type EstadoBreaker int

const (
	BreakerDisponible EstadoBreaker = iota
	BreakerSuspendido
	BreakerEnPrueba
)

func (s EstadoBreaker) String() string {
	switch s {
	case BreakerDisponible:
		return "disponible"
	case BreakerSuspendido:
		return "suspendido"
	case BreakerEnPrueba:
		return "en_prueba"
	default:
		return "desconocido"
	}
}

// ErrPadronSuspendido is returned without calling the registry while lookups
// are suspended or another call is already probing it.
var ErrPadronSuspendido = errors.New("padron: consultas suspendidas temporalmente")

type BreakerConfig struct {
	MaxFallos        int
	ExitosParaCerrar int
	Pausa            time.Duration
}

// DefaultBreakerConfig is used when the registry client is built without one.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFallos: 5, ExitosParaCerrar: 2, Pausa: 30 * time.Second}
}

// ResumenBreaker is the breaker state reported by /health.
type ResumenBreaker struct {
	Estado      string     `json:"estado"`
	Fallos      int        `json:"fallos"`
	ReintentoEn *time.Time `json:"reintento_en,omitempty"`
}

type CircuitBreaker struct {
	cfg   BreakerConfig
	ahora func() time.Time

	mu           sync.Mutex
	estado       EstadoBreaker
	fallos       int
	exitos       int
	suspendidoEn time.Time
	sondeando    bool
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.MaxFallos <= 0 {
		cfg.MaxFallos = def.MaxFallos
	}
	if cfg.ExitosParaCerrar <= 0 {
		cfg.ExitosParaCerrar = def.ExitosParaCerrar
	}
	if cfg.Pausa <= 0 {
		cfg.Pausa = def.Pausa
	}
	return &CircuitBreaker{cfg: cfg, ahora: time.Now}
}

// estadoLocked must be called with mu held.
func (cb *CircuitBreaker) estadoLocked() EstadoBreaker {
	if cb.estado == BreakerSuspendido && cb.ahora().Sub(cb.suspendidoEn) >= cb.cfg.Pausa {
		cb.estado = BreakerEnPrueba
		cb.exitos = 0
	}
	return cb.estado
}

func (cb *CircuitBreaker) State() EstadoBreaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.estadoLocked()
}

func (cb *CircuitBreaker) Resumen() ResumenBreaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	r := ResumenBreaker{Estado: cb.estadoLocked().String(), Fallos: cb.fallos}
	if cb.estado == BreakerSuspendido {
		t := cb.suspendidoEn.Add(cb.cfg.Pausa)
		r.ReintentoEn = &t
	}
	return r
}

// Execute runs one registry call. A call cancelled by its own caller says
// nothing about the registry and leaves the counters untouched.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	sonda, err := cb.admitir()
	if err != nil {
		return err
	}

	err = fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if sonda {
		cb.sondeando = false
	}
	switch {
	case err == nil:
		cb.registrarExito()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
	default:
		cb.registrarFallo(err)
	}
	return err
}

func (cb *CircuitBreaker) admitir() (sonda bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.estadoLocked() {
	case BreakerSuspendido:
		return false, ErrPadronSuspendido
	case BreakerEnPrueba:
		if cb.sondeando {
			return false, ErrPadronSuspendido
		}
		cb.sondeando = true
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) registrarFallo(err error) {
	cb.fallos++
	switch cb.estado {
	case BreakerDisponible:
		if cb.fallos >= cb.cfg.MaxFallos {
			cb.suspender()
			log.Warn().Err(err).Int("fallos", cb.fallos).Dur("pausa", cb.cfg.Pausa).
				Msg("padron: consultas de DNI/RUC suspendidas")
		}
	case BreakerEnPrueba:
		cb.suspender()
		log.Warn().Err(err).Msg("padron: la consulta de prueba fallo, se mantiene la suspension")
	}
}

func (cb *CircuitBreaker) registrarExito() {
	switch cb.estado {
	case BreakerDisponible:
		cb.fallos = 0
	case BreakerEnPrueba:
		cb.exitos++
		if cb.exitos >= cb.cfg.ExitosParaCerrar {
			cb.estado = BreakerDisponible
			cb.fallos, cb.exitos = 0, 0
			log.Info().Msg("padron: consultas de DNI/RUC restablecidas")
		}
	}
}

func (cb *CircuitBreaker) suspender() {
	cb.estado = BreakerSuspendido
	cb.suspendidoEn = cb.ahora()
	cb.exitos = 0
}
