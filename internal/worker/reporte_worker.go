package worker

// reporte_worker.go
// Renders the daily cash report PDF of a drawer and mails it to the
// company address when one is configured.

import (
	"context"
	"encoding/json"
	"fmt"

	"aguabill/internal/dto"
	"aguabill/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReporteCajaSource builds the per-invoice income listing of a drawer.
type ReporteCajaSource interface {
	ReporteCaja(ctx context.Context, cajaID uuid.UUID, filter dto.ReporteCajaFilter) (*dto.ReporteCajaResponse, error)
}

type ReporteCajaWorker struct {
	cajas          ReporteCajaSource
	empresa        EmpresaSource
	dispatcher     *Dispatcher
	pdfStoragePath string
}

func NewReporteCajaWorker(cajas ReporteCajaSource, empresa EmpresaSource, dispatcher *Dispatcher, pdfStoragePath string) *ReporteCajaWorker {
	return &ReporteCajaWorker{cajas: cajas, empresa: empresa, dispatcher: dispatcher, pdfStoragePath: pdfStoragePath}
}

func (w *ReporteCajaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReporteCajaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return permanente(err)
	}
	cajaID, err := uuid.Parse(payload.CajaID)
	if err != nil {
		return permanente(fmt.Errorf("reporte_worker: caja_id invalido %q", payload.CajaID))
	}

	reporte, err := w.cajas.ReporteCaja(ctx, cajaID, dto.ReporteCajaFilter{Desde: payload.Fecha, Hasta: payload.Fecha})
	if err != nil {
		return permanente(fmt.Errorf("reporte_worker: %w", err))
	}
	empresa := empresaOpcional(ctx, w.empresa)

	path, err := infra.GenerateReporteCajaPDF(reporte, empresa, w.pdfStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("caja", payload.CajaID).Str("fecha", payload.Fecha).Str("pdf", path).Msg("reporte_worker: report generated")

	if w.dispatcher == nil || empresa == nil || empresa.Email == nil || *empresa.Email == "" {
		return nil
	}
	job := EmailJobPayload{
		ToEmail: *empresa.Email,
		Subject: fmt.Sprintf("Reporte de caja %s", payload.Fecha),
		Body:    fmt.Sprintf("Adjunto el reporte de caja del %s.\nTotal ingresos: S/ %s", payload.Fecha, reporte.Total.StringFixed(2)),
		PDFPath: path,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Msg("reporte_worker: failed to enqueue email")
	}
	return nil
}
