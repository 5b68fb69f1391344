package worker

// comprobante_worker.go
// Renders the payment ticket PDF of each settled invoice.

import (
	"context"
	"encoding/json"
	"fmt"

	"aguabill/internal/dto"
	"aguabill/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FacturaSource loads an invoice in its response shape.
type FacturaSource interface {
	ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
}

// EmpresaSource loads the operating utility printed on every document.
type EmpresaSource interface {
	ObtenerEmpresa(ctx context.Context) (*dto.EmpresaResponse, error)
}

type ComprobanteWorker struct {
	facturas       FacturaSource
	empresa        EmpresaSource
	pdfStoragePath string
}

func NewComprobanteWorker(facturas FacturaSource, empresa EmpresaSource, pdfStoragePath string) *ComprobanteWorker {
	return &ComprobanteWorker{facturas: facturas, empresa: empresa, pdfStoragePath: pdfStoragePath}
}

func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComprobanteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return permanente(err)
	}
	id, err := uuid.Parse(payload.FacturaID)
	if err != nil {
		return permanente(fmt.Errorf("comprobante_worker: factura_id invalido %q", payload.FacturaID))
	}

	factura, err := w.facturas.ObtenerFactura(ctx, id)
	if err != nil {
		return permanente(fmt.Errorf("comprobante_worker: factura %s: %w", payload.FacturaID, err))
	}

	path, err := infra.GenerateTicketPDF(factura, empresaOpcional(ctx, w.empresa), w.pdfStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("factura", factura.Codigo).Str("pdf", path).Msg("comprobante_worker: ticket generated")
	return nil
}

// empresaOpcional returns nil when the company row is not configured yet;
// documents are still rendered with a generic header.
func empresaOpcional(ctx context.Context, src EmpresaSource) *dto.EmpresaResponse {
	if src == nil {
		return nil
	}
	e, err := src.ObtenerEmpresa(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("empresa no configurada")
		return nil
	}
	return e
}
