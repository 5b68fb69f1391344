package handler

import (
	"context"
	"net/http"
	"time"

	"aguabill/internal/apierror"
	"aguabill/internal/infra"
	"aguabill/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// padronCB may be nil when the registry lookup is disabled.
func Health(db *gorm.DB, rdb *redis.Client, padronCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dlq map[string]int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			dlq = worker.DLQLengths(ctx, rdb)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
			"dlq":   dlq,
		}
		// An open breaker degrades customer lookups but not the service.
		if padronCB != nil {
			body["padron"] = padronCB.Resumen()
		}
		c.JSON(status, body)
	}
}

// ── Dead letter queues ───────────────────────────────────────────────────────

type JobsHandler struct{ rdb *redis.Client }

func NewJobsHandler(rdb *redis.Client) *JobsHandler { return &JobsHandler{rdb: rdb} }

func colaValida(q string) bool {
	for _, known := range worker.Queues {
		if q == known {
			return true
		}
	}
	return false
}

// ListarDLQ godoc
// @Summary Lista los jobs fallidos de una cola
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param cola query string true "jobs:comprobantes | jobs:recibos | jobs:reportes | jobs:email"
// @Success 200 {array} worker.DLQEntry
// @Router /v1/jobs/dlq [get]
func (h *JobsHandler) ListarDLQ(c *gin.Context) {
	q := c.Query("cola")
	if !colaValida(q) {
		c.JSON(http.StatusBadRequest, apierror.New("Cola desconocida"))
		return
	}
	entries, err := worker.ListDLQ(c.Request.Context(), h.rdb, q, 100)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Reencolar godoc
// @Summary Devuelve los jobs fallidos de una cola a su cola original
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param cola query string true "Cola"
// @Success 200 {object} map[string]int
// @Router /v1/jobs/dlq/reencolar [post]
func (h *JobsHandler) Reencolar(c *gin.Context) {
	q := c.Query("cola")
	if !colaValida(q) {
		c.JSON(http.StatusBadRequest, apierror.New("Cola desconocida"))
		return
	}
	n, err := worker.Reencolar(c.Request.Context(), h.rdb, q)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reencolados": n})
}
