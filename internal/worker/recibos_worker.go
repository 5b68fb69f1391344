package worker

// recibos_worker.go
// Renders the monthly receipt of every customer billed in a period. Receipts
// are built concurrently with a bounded errgroup; a failing customer is
// logged and does not stop the batch.

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/infra"
	"aguabill/internal/model"
	"aguabill/internal/periodo"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// LecturasPeriodo lists the readings billed for a period.
type LecturasPeriodo interface {
	ListByPeriodo(ctx context.Context, periodo time.Time, soloSinMedidor bool) ([]model.Lectura, error)
}

// ReciboSource builds the receipt view of one customer.
type ReciboSource interface {
	Recibo(ctx context.Context, clienteID uuid.UUID) (*dto.ReciboResponse, error)
}

type RecibosWorker struct {
	lecturas       LecturasPeriodo
	recibos        ReciboSource
	empresa        EmpresaSource
	pdfStoragePath string
	concurrencia   int
}

func NewRecibosWorker(lecturas LecturasPeriodo, recibos ReciboSource, empresa EmpresaSource, pdfStoragePath string) *RecibosWorker {
	return &RecibosWorker{
		lecturas:       lecturas,
		recibos:        recibos,
		empresa:        empresa,
		pdfStoragePath: pdfStoragePath,
		concurrencia:   4,
	}
}

func (w *RecibosWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload RecibosJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return permanente(err)
	}
	p, err := periodo.Parse(payload.Periodo)
	if err != nil {
		return permanente(fmt.Errorf("recibos_worker: %w", err))
	}

	lecturas, err := w.lecturas.ListByPeriodo(ctx, p, false)
	if err != nil {
		return err
	}
	empresa := empresaOpcional(ctx, w.empresa)
	dir := filepath.Join(w.pdfStoragePath, "recibos", payload.Periodo)

	var generados, fallidos atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrencia)
	for _, l := range lecturas {
		clienteID := l.ClienteID
		g.Go(func() error {
			recibo, err := w.recibos.Recibo(gctx, clienteID)
			if err == nil {
				_, err = infra.GenerateReciboPDF(recibo, empresa, dir)
			}
			if err != nil {
				fallidos.Add(1)
				log.Warn().Err(err).Str("cliente", clienteID.String()).Msg("recibos_worker: receipt failed")
				return nil
			}
			generados.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info().
		Str("periodo", payload.Periodo).
		Int32("generados", generados.Load()).
		Int32("fallidos", fallidos.Load()).
		Msg("recibos_worker: batch done")
	return nil
}
