package middleware

import (
	"net/http"
	"sync"
	"time"

	"aguabill/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ─────────────────────────────────────────────────────

type ventana struct {
	count     int
	windowEnd time.Time
}

// limitador counts requests per key (client IP) inside fixed windows.
type limitador struct {
	nombre string
	limit  int
	window time.Duration

	mu       sync.Mutex
	entradas map[string]*ventana
}

func nuevoLimitador(nombre string, limit int, window time.Duration) *limitador {
	l := &limitador{nombre: nombre, limit: limit, window: window, entradas: make(map[string]*ventana)}
	registrarLimitador(l)
	return l
}

// permitir records one hit for key and reports whether it is within the limit
// together with the end of the current window.
func (l *limitador) permitir(key string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.entradas[key]
	if !ok || now.After(v.windowEnd) {
		v = &ventana{windowEnd: now.Add(l.window)}
		l.entradas[key] = v
	}
	v.count++
	return v.count <= l.limit, v.windowEnd
}

func (l *limitador) purgar(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, v := range l.entradas {
		if now.After(v.windowEnd) {
			delete(l.entradas, k)
			n++
		}
	}
	return n
}

func (l *limitador) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.permitir(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", fin.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return nuevoLimitador("login", 20, time.Minute).
		handler("Demasiados intentos de login. Intente en 1 minuto.")
}

// ConsultaRateLimiter protects the public debt lookup, which takes a
// customer code and document number and must not be enumerable.
func ConsultaRateLimiter() gin.HandlerFunc {
	return nuevoLimitador("consulta", 30, time.Minute).
		handler("Demasiadas consultas. Intente nuevamente en un momento.")
}

// RateLimiter returns a general-purpose fixed-window rate limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return nuevoLimitador("api", limit, window).
		handler("Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

var (
	limitadores   []*limitador
	limitadoresMu sync.Mutex
	purgeOnce     sync.Once
)

func registrarLimitador(l *limitador) {
	limitadoresMu.Lock()
	limitadores = append(limitadores, l)
	limitadoresMu.Unlock()
	purgeOnce.Do(func() { go purgeExpiredEntries() })
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		limitadoresMu.Lock()
		lista := append([]*limitador(nil), limitadores...)
		limitadoresMu.Unlock()

		for _, l := range lista {
			if n := l.purgar(now); n > 0 {
				log.Debug().Str("limitador", l.nombre).Int("purgadas", n).Msg("rate limiter purged")
			}
		}
	}
}
