package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"
	"aguabill/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	EstadoFacturaActiva  = "activa"
	EstadoFacturaAnulada = "anulada"
)

// FacturaService settles unpaid debts or free concepts into invoices and
// posts the payments to the cash drawers.
type FacturaService interface {
	CrearFactura(ctx context.Context, usuarioID uuid.UUID, req dto.CrearFacturaRequest) (*dto.FacturaResponse, error)
	// AnularFactura is idempotent: cancelling a cancelled invoice is a no-op.
	AnularFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	ListarFacturas(ctx context.Context, filter dto.FacturaFilter) (*dto.FacturaListResponse, error)
}

type facturaService struct {
	facturas       repository.FacturaRepository
	deudas         repository.DeudaRepository
	clientes       repository.ClienteRepository
	conceptos      repository.ConceptoRepository
	cajas          repository.CajaRepository
	ledger         LecturaService
	cache          CacheConsulta
	dispatcher     *worker.Dispatcher
	codigoGenerico string
}

func NewFacturaService(
	facturas repository.FacturaRepository,
	deudas repository.DeudaRepository,
	clientes repository.ClienteRepository,
	conceptos repository.ConceptoRepository,
	cajas repository.CajaRepository,
	ledger LecturaService,
	cache CacheConsulta,
	dispatcher *worker.Dispatcher,
	codigoGenerico string,
) FacturaService {
	return &facturaService{
		facturas:       facturas,
		deudas:         deudas,
		clientes:       clientes,
		conceptos:      conceptos,
		cajas:          cajas,
		ledger:         ledger,
		cache:          cache,
		dispatcher:     dispatcher,
		codigoGenerico: codigoGenerico,
	}
}

// lineaCobro is an amount owed to one cash concept.
type lineaCobro struct {
	ConceptoID uuid.UUID
	Monto      decimal.Decimal
}

// repartirPagos splits the payments over the concept lines in order, so the
// chunks of payment i always add up to pagos[i] while lines remain.
func repartirPagos(lineas []lineaCobro, pagos []decimal.Decimal) [][]lineaCobro {
	pendientes := make([]lineaCobro, 0, len(lineas))
	for _, l := range lineas {
		if l.Monto.IsPositive() {
			pendientes = append(pendientes, l)
		}
	}

	out := make([][]lineaCobro, len(pagos))
	i := 0
	for p, total := range pagos {
		resto := total
		for resto.IsPositive() && i < len(pendientes) {
			tramo := decimal.Min(resto, pendientes[i].Monto)
			out[p] = append(out[p], lineaCobro{ConceptoID: pendientes[i].ConceptoID, Monto: tramo})
			resto = resto.Sub(tramo)
			pendientes[i].Monto = pendientes[i].Monto.Sub(tramo)
			if !pendientes[i].Monto.IsPositive() {
				i++
			}
		}
	}
	return out
}

// validarOrdenPago checks that the selected debts (sorted by period) start
// at the earliest unpaid period and leave no gaps.
func validarOrdenPago(deudas []model.Deuda, primerImpago *time.Time) error {
	if len(deudas) == 0 {
		return nil
	}
	if primerImpago != nil && !deudas[0].Periodo.Equal(*primerImpago) {
		return errValidacion("deudas", fmt.Sprintf("Debes pagar empezando desde %s.", primerImpago.Format("01-2006")))
	}
	for i := 1; i < len(deudas); i++ {
		if periodo.MesesEntre(deudas[i-1].Periodo, deudas[i].Periodo) != 1 {
			return errValidacion("deudas", "Las deudas deben pagarse en meses consecutivos.")
		}
	}
	return nil
}

func mapFactura(f model.Factura) dto.FacturaResponse {
	resp := dto.FacturaResponse{
		ID:             f.ID,
		Codigo:         f.Codigo,
		ClienteID:      f.ClienteID,
		NombreOpcional: f.NombreOpcional,
		NumeroOpcional: f.NumeroOpcional,
		Fecha:          f.Fecha.Format(layoutFecha),
		Total:          f.Total,
		Referencia:     f.Referencia,
		Notas:          f.Notas,
		Estado:         f.Estado,
		Deudas:         make([]dto.FacturaDeudaResponse, 0, len(f.Deudas)),
		Conceptos:      make([]dto.FacturaConceptoResponse, 0, len(f.Conceptos)),
		Pagos:          make([]dto.FacturaPagoResponse, 0, len(f.Pagos)),
	}
	if f.Cliente != nil {
		resp.Cliente = f.Cliente.NombreCompleto
	}
	for _, fd := range f.Deudas {
		item := dto.FacturaDeudaResponse{DeudaID: fd.DeudaID, Total: fd.Total}
		if fd.Deuda != nil {
			item.Periodo = periodo.Clave(fd.Deuda.Periodo)
		}
		resp.Deudas = append(resp.Deudas, item)
	}
	for _, fc := range f.Conceptos {
		item := dto.FacturaConceptoResponse{ConceptoID: fc.ConceptoID, Descripcion: fc.Descripcion, Total: fc.Total}
		if fc.Concepto != nil {
			item.Codigo = fc.Concepto.Codigo
			item.Concepto = fc.Concepto.Nombre
		}
		resp.Conceptos = append(resp.Conceptos, item)
	}
	for _, p := range f.Pagos {
		resp.Pagos = append(resp.Pagos, dto.FacturaPagoResponse{
			ID: p.ID, CajaID: p.CajaID, Metodo: p.Metodo, Total: p.Total, Referencia: p.Referencia,
		})
	}
	return resp
}

// ── CrearFactura ──────────────────────────────────────────────────────────────

func (s *facturaService) CrearFactura(ctx context.Context, usuarioID uuid.UUID, req dto.CrearFacturaRequest) (*dto.FacturaResponse, error) {
	if len(req.Deudas) > 0 && len(req.Conceptos) > 0 {
		return nil, errValidacion("", "Una factura cobra deudas o conceptos, no ambos.")
	}
	if len(req.Deudas) == 0 && len(req.Conceptos) == 0 {
		return nil, errValidacion("", "Debe incluir deudas o conceptos para registrar la factura.")
	}

	cliente, err := s.resolverCliente(ctx, req.ClienteID)
	if err != nil {
		return nil, err
	}

	fecha := time.Now()
	if req.Fecha != nil {
		f, err := parseFecha(req.Fecha)
		if err != nil {
			return nil, errValidacion("fecha", "Fecha invalida")
		}
		if f != nil {
			fecha = *f
		}
	}

	cajasPago, err := s.resolverCajas(ctx, usuarioID, req.Pagos)
	if err != nil {
		return nil, err
	}

	var conceptosLibres map[uuid.UUID]model.ConceptoCaja
	if len(req.Conceptos) > 0 {
		if conceptosLibres, err = s.cargarConceptos(ctx, req.Conceptos); err != nil {
			return nil, err
		}
	}

	deudaIDs, err := idsUnicos("deudas", req.Deudas)
	if err != nil {
		return nil, err
	}

	pagos := make([]decimal.Decimal, 0, len(req.Pagos))
	totalPagos := decimal.Zero
	for _, p := range req.Pagos {
		pagos = append(pagos, p.Total.Round(2))
		totalPagos = totalPagos.Add(p.Total.Round(2))
	}

	factura := &model.Factura{
		ClienteID:      cliente.ID,
		NombreOpcional: req.NombreOpcional,
		NumeroOpcional: req.NumeroOpcional,
		Fecha:          fecha,
		Referencia:     req.Referencia,
		Notas:          req.Notas,
		Estado:         EstadoFacturaActiva,
	}

	txErr := runTx(ctx, s.facturas.DB(), func(tx *gorm.DB) error {
		var (
			lineas []lineaCobro
			deudas []model.Deuda
			total  = decimal.Zero
		)

		if len(deudaIDs) > 0 {
			var err error
			deudas, err = s.deudas.ListByIDsTx(tx, deudaIDs)
			if err != nil {
				return err
			}
			if len(deudas) != len(deudaIDs) {
				return errNoEncontrado("Deuda no encontrada")
			}
			for _, d := range deudas {
				if d.ClienteID != cliente.ID {
					return errValidacion("deudas", fmt.Sprintf("La deuda de %s no pertenece al cliente.", periodo.Clave(d.Periodo)))
				}
				if d.Pagada {
					return errConflicto(fmt.Sprintf("La deuda de %s ya esta pagada.", periodo.Clave(d.Periodo)))
				}
				suma := decimal.Zero
				for _, det := range d.Detalles {
					suma = suma.Add(det.Monto)
					lineas = append(lineas, lineaCobro{ConceptoID: det.ConceptoID, Monto: det.Monto})
				}
				if !suma.Equal(d.Monto) {
					return errValidacion("deudas", fmt.Sprintf("Los detalles de la deuda de %s no cuadran con su monto.", periodo.Clave(d.Periodo)))
				}
				total = total.Add(d.Monto)
			}
			primero, err := s.deudas.PrimerPeriodoImpagoTx(tx, cliente.ID)
			if err != nil {
				return err
			}
			if err := validarOrdenPago(deudas, primero); err != nil {
				return err
			}
		} else {
			for _, c := range req.Conceptos {
				id := uuid.MustParse(c.ConceptoID)
				monto := c.Total.Round(2)
				lineas = append(lineas, lineaCobro{ConceptoID: id, Monto: monto})
				total = total.Add(monto)
			}
		}

		if !totalPagos.Equal(total.Round(2)) {
			return errValidacion("pagos", fmt.Sprintf("Los pagos (%s) no cuadran con el total (%s)", totalPagos.StringFixed(2), total.StringFixed(2)))
		}

		codigo, err := s.facturas.NextCodigo(ctx, tx)
		if err != nil {
			return err
		}
		factura.Codigo = codigo
		factura.Total = total.Round(2)
		if err := s.facturas.CreateTx(tx, factura); err != nil {
			return err
		}

		for i := range deudas {
			d := &deudas[i]
			fd := model.FacturaDeuda{FacturaID: factura.ID, DeudaID: d.ID, Total: d.Monto, Deuda: d}
			if err := s.facturas.CreateDeudaTx(tx, &fd); err != nil {
				return err
			}
			if err := s.deudas.UpdatePagadaTx(tx, d.ID, true); err != nil {
				return err
			}
			d.Pagada = true
			if d.LecturaID != nil {
				if err := s.ledger.MarcarPagadaTx(tx, *d.LecturaID, true); err != nil {
					return err
				}
			}
			factura.Deudas = append(factura.Deudas, fd)
		}

		for _, c := range req.Conceptos {
			concepto := conceptosLibres[uuid.MustParse(c.ConceptoID)]
			fc := model.FacturaConcepto{
				FacturaID:   factura.ID,
				ConceptoID:  concepto.ID,
				Descripcion: c.Descripcion,
				Total:       c.Total.Round(2),
				Concepto:    &concepto,
			}
			if err := s.facturas.CreateConceptoTx(tx, &fc); err != nil {
				return err
			}
			factura.Conceptos = append(factura.Conceptos, fc)
		}

		tramos := repartirPagos(lineas, pagos)
		for i, p := range req.Pagos {
			cajaID := cajasPago[i]
			pago := model.FacturaPago{
				FacturaID:  factura.ID,
				CajaID:     &cajaID,
				Metodo:     p.Metodo,
				Total:      pagos[i],
				Referencia: p.Referencia,
			}
			if err := s.facturas.CreatePagoTx(tx, &pago); err != nil {
				return err
			}
			for _, t := range tramos[i] {
				mov := model.MovimientoCaja{
					CajaID:        cajaID,
					ConceptoID:    t.ConceptoID,
					Metodo:        p.Metodo,
					Total:         t.Monto,
					Referencia:    p.Referencia,
					FacturaPagoID: &pago.ID,
				}
				if err := s.cajas.CreateMovimientoTx(tx, &mov); err != nil {
					return err
				}
			}
			factura.Pagos = append(factura.Pagos, pago)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("factura", factura.Codigo).
		Str("cliente", cliente.Codigo).
		Str("total", factura.Total.StringFixed(2)).
		Int("deudas", len(factura.Deudas)).
		Msg("factura creada")

	s.invalidarConsulta(ctx, cliente.Codigo)
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueComprobante(ctx, worker.ComprobanteJobPayload{FacturaID: factura.ID.String()})
	}

	factura.Cliente = cliente
	resp := mapFactura(*factura)
	return &resp, nil
}

func (s *facturaService) resolverCliente(ctx context.Context, clienteID *string) (*model.Cliente, error) {
	if clienteID == nil || *clienteID == "" {
		cliente, err := s.clientes.FindByCodigo(ctx, s.codigoGenerico)
		if err != nil {
			if repository.EsNoEncontrado(err) {
				return nil, errNoEncontrado(fmt.Sprintf("No existe el cliente genérico con código '%s'.", s.codigoGenerico))
			}
			return nil, err
		}
		return cliente, nil
	}
	id, err := parseUUID("cliente_id", *clienteID)
	if err != nil {
		return nil, err
	}
	cliente, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	return cliente, nil
}

// resolverCajas returns the drawer of each payment: the one requested or the
// operator's open drawer.
func (s *facturaService) resolverCajas(ctx context.Context, usuarioID uuid.UUID, pagos []dto.PagoRequest) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(pagos))
	var propia *model.Caja
	for i, p := range pagos {
		if p.CajaID != nil && *p.CajaID != "" {
			id, err := parseUUID("caja_id", *p.CajaID)
			if err != nil {
				return nil, err
			}
			caja, err := s.cajas.FindByID(ctx, id)
			if err != nil {
				return nil, noEncontrado(err, "Caja no encontrada")
			}
			if caja.Estado != EstadoCajaAbierta {
				return nil, errValidacion("caja_id", "La caja indicada no esta abierta.")
			}
			out[i] = caja.ID
			continue
		}
		if propia == nil {
			caja, err := s.cajas.FindAbiertaPorUsuario(ctx, usuarioID)
			if err != nil {
				if repository.EsNoEncontrado(err) {
					return nil, errValidacion("caja_id", "No hay una caja abierta para registrar el pago.")
				}
				return nil, err
			}
			propia = caja
		}
		out[i] = propia.ID
	}
	return out, nil
}

func (s *facturaService) cargarConceptos(ctx context.Context, lineas []dto.FacturaConceptoRequest) (map[uuid.UUID]model.ConceptoCaja, error) {
	ids := make([]uuid.UUID, 0, len(lineas))
	for _, l := range lineas {
		id, err := parseUUID("concepto_id", l.ConceptoID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	list, err := s.conceptos.ObtenerPorIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.ConceptoCaja, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	for _, id := range ids {
		c, ok := out[id]
		if !ok {
			return nil, errValidacion("concepto_id", "Concepto no encontrado")
		}
		if c.Tipo != TipoConceptoIngreso {
			return nil, errValidacion("concepto_id", fmt.Sprintf("El concepto %s no es de ingreso.", c.Codigo))
		}
	}
	return out, nil
}

func idsUnicos(campo string, raw []string) ([]uuid.UUID, error) {
	vistos := make(map[uuid.UUID]bool, len(raw))
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := parseUUID(campo, s)
		if err != nil {
			return nil, err
		}
		if vistos[id] {
			continue
		}
		vistos[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (s *facturaService) invalidarConsulta(ctx context.Context, codigo string) {
	if s.cache != nil {
		s.cache.Invalidar(ctx, codigo)
	}
}

// ── AnularFactura ─────────────────────────────────────────────────────────────

// AnularFactura un-pays every settled debt and its reading without repricing.
// Payments and cash movements stay; aggregations skip cancelled invoices.
func (s *facturaService) AnularFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	yaAnulada := false
	txErr := runTx(ctx, s.facturas.DB(), func(tx *gorm.DB) error {
		f, err := s.facturas.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Factura no encontrada")
		}
		if f.Estado == EstadoFacturaAnulada {
			yaAnulada = true
			return nil
		}
		for _, fd := range f.Deudas {
			d, err := s.deudas.FindByIDTx(tx, fd.DeudaID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if err := s.deudas.UpdatePagadaTx(tx, d.ID, false); err != nil {
				return err
			}
			if d.LecturaID != nil {
				if err := s.ledger.MarcarPagadaTx(tx, *d.LecturaID, false); err != nil {
					return err
				}
			}
		}
		return s.facturas.UpdateEstadoTx(tx, f.ID, EstadoFacturaAnulada)
	})
	if txErr != nil {
		return nil, txErr
	}

	f, err := s.facturas.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !yaAnulada {
		log.Info().Str("factura", f.Codigo).Msg("factura anulada")
		if f.Cliente != nil {
			s.invalidarConsulta(ctx, f.Cliente.Codigo)
		}
	}
	resp := mapFactura(*f)
	return &resp, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *facturaService) ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	f, err := s.facturas.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Factura no encontrada")
	}
	resp := mapFactura(*f)
	return &resp, nil
}

func (s *facturaService) ListarFacturas(ctx context.Context, filter dto.FacturaFilter) (*dto.FacturaListResponse, error) {
	list, total, err := s.facturas.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.FacturaResponse, 0, len(list))
	for _, f := range list {
		data = append(data, mapFactura(f))
	}
	return &dto.FacturaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
