package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueComprobantes = "jobs:comprobantes"
	QueueRecibos      = "jobs:recibos"
	QueueReportes     = "jobs:reportes"
	QueueEmail        = "jobs:email"
)

// Queues lists every queue consumed by the pool, in BRPOP priority order.
var Queues = []string{QueueComprobantes, QueueReportes, QueueEmail, QueueRecibos}

const (
	JobComprobante = "comprobante"
	JobRecibos     = "recibos"
	JobReporteCaja = "reporte_caja"
	JobEmail       = "email"
)

// maxAttempts is how many times a job runs before it lands in the DLQ.
const maxAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ComprobanteJobPayload asks for the payment ticket PDF of an invoice.
type ComprobanteJobPayload struct {
	FacturaID string `json:"factura_id"`
}

// RecibosJobPayload asks for the receipts of every reading of a period.
type RecibosJobPayload struct {
	Periodo string `json:"periodo"` // YYYY-MM
}

// ReporteCajaJobPayload asks for the daily report PDF of a drawer.
type ReporteCajaJobPayload struct {
	CajaID string `json:"caja_id"`
	Fecha  string `json:"fecha"` // YYYY-MM-DD
}

// Processor runs one job payload. Returning an error schedules a retry
// unless the error is marked permanent.
type Processor interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Handlers maps a job type to its processor.
type Handlers map[string]Processor

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) EnqueueComprobante(ctx context.Context, payload ComprobanteJobPayload) error {
	return d.enqueue(ctx, QueueComprobantes, JobComprobante, payload)
}

func (d *Dispatcher) EnqueueRecibos(ctx context.Context, payload RecibosJobPayload) error {
	return d.enqueue(ctx, QueueRecibos, JobRecibos, payload)
}

func (d *Dispatcher) EnqueueReporteCaja(ctx context.Context, payload ReporteCajaJobPayload) error {
	return d.enqueue(ctx, QueueReportes, JobReporteCaja, payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	log.Debug().Str("queue", queue).Str("type", jobType).Msg("job enqueued")
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, so idle workers cost nothing. The returned
// WaitGroup is released once every worker has seen ctx cancelled.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers Handlers) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(ctx, rdb, id, handlers)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return &wg
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handlers Handlers) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, Queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "desconocido", json.RawMessage(fmt.Sprintf("%q", raw)), err.Error(), 0)
		return
	}
	p, ok := handlers[job.Type]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for job type")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "tipo de job sin handler", 0)
		return
	}

	start := time.Now()
	attempts, err := withRetry(ctx, maxAttempts, func(attempt int) error {
		if attempt > 0 {
			log.Warn().Str("type", job.Type).Int("attempt", attempt+1).Msg("retrying job")
		}
		return p.Process(ctx, job.Payload)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Str("type", job.Type).Int("attempts", attempts).Msg("job failed")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	log.Info().
		Str("type", job.Type).
		Str("queue", queue).
		Dur("elapsed", time.Since(start)).
		Msg("job processed")
}
