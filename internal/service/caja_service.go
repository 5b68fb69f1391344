package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"
	"aguabill/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	EstadoCajaAbierta = "abierta"
	EstadoCajaCerrada = "cerrada"
)

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	ObtenerCaja(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error)
	ListarCajas(ctx context.Context, filter dto.CajaFilter) (*dto.CajaListResponse, error)
	// Cerrar refreshes today's report and closes the drawer with its balance.
	Cerrar(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error)

	RegistrarEgreso(ctx context.Context, cajaID uuid.UUID, req dto.EgresoRequest) (*dto.EgresoResponse, error)
	ListarEgresos(ctx context.Context, cajaID uuid.UUID, filter dto.ReporteCajaFilter) ([]dto.EgresoResponse, error)

	// GenerarReporteDiario recomputes the snapshot of one drawer for one day.
	// fecha is "2006-01-02"; empty means today.
	GenerarReporteDiario(ctx context.Context, cajaID uuid.UUID, fecha string) (*dto.ReporteDiarioResponse, error)
	// GenerarReportesAbiertos runs GenerarReporteDiario for every open drawer.
	GenerarReportesAbiertos(ctx context.Context, fecha time.Time) (int, error)
	ConfirmarReporte(ctx context.Context, cajaID uuid.UUID, fecha string) (*dto.ReporteDiarioResponse, error)
	ObtenerReporteDiario(ctx context.Context, cajaID uuid.UUID, fecha string) (*dto.ReporteDiarioResponse, error)
	// ReporteCaja lists income per invoice and concept for a date range.
	ReporteCaja(ctx context.Context, cajaID uuid.UUID, filter dto.ReporteCajaFilter) (*dto.ReporteCajaResponse, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	facturas   repository.FacturaRepository
	tarifas    TarifaService
	dispatcher *worker.Dispatcher
	loc        *time.Location
}

func NewCajaService(
	repo repository.CajaRepository,
	facturas repository.FacturaRepository,
	tarifas TarifaService,
	dispatcher *worker.Dispatcher,
	loc *time.Location,
) CajaService {
	if loc == nil {
		loc = time.UTC
	}
	return &cajaService{repo: repo, facturas: facturas, tarifas: tarifas, dispatcher: dispatcher, loc: loc}
}

func mapCaja(c model.Caja) dto.CajaResponse {
	resp := dto.CajaResponse{
		ID:            c.ID,
		UsuarioID:     c.UsuarioID,
		FechaApertura: c.FechaApertura.Format(time.RFC3339),
		SaldoInicial:  c.SaldoInicial,
		SaldoCierre:   c.SaldoCierre,
		Estado:        c.Estado,
	}
	if c.FechaCierre != nil {
		t := c.FechaCierre.Format(time.RFC3339)
		resp.FechaCierre = &t
	}
	return resp
}

func mapReporteDiario(r model.ReporteCajaDiario) dto.ReporteDiarioResponse {
	return dto.ReporteDiarioResponse{
		ID:            r.ID,
		CajaID:        r.CajaID,
		Fecha:         r.Fecha.Format(layoutFecha),
		SaldoInicial:  r.SaldoInicial,
		TotalIngresos: r.TotalIngresos,
		TotalEgresos:  r.TotalEgresos,
		SaldoCierre:   r.SaldoCierre,
		Confirmado:    r.Confirmado,
	}
}

// dia resolves a "2006-01-02" date (empty = today) to the date key stored in
// the report and the [inicio, fin) instant range of that local day.
func (s *cajaService) dia(fecha string) (clave, inicio, fin time.Time, err error) {
	var d time.Time
	if fecha == "" {
		d = time.Now().In(s.loc)
	} else {
		d, err = time.ParseInLocation(layoutFecha, fecha, s.loc)
		if err != nil {
			return clave, inicio, fin, errValidacion("fecha", "Fecha invalida")
		}
	}
	clave = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	inicio = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	fin = inicio.AddDate(0, 0, 1)
	return clave, inicio, fin, nil
}

func (s *cajaService) rango(filter dto.ReporteCajaFilter) (time.Time, time.Time, error) {
	_, inicio, _, err := s.dia(filter.Desde)
	if err != nil {
		return inicio, inicio, err
	}
	_, _, fin, err := s.dia(filter.Hasta)
	if err != nil {
		return inicio, fin, err
	}
	if !fin.After(inicio) {
		return inicio, fin, errValidacion("hasta", "La fecha final debe ser posterior a la inicial.")
	}
	return inicio, fin, nil
}

func (s *cajaService) cargarCaja(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Caja no encontrada")
	}
	return caja, nil
}

// ── Abrir / Cerrar ────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	if existing, err := s.repo.FindAbiertaPorUsuario(ctx, usuarioID); err == nil && existing != nil {
		return nil, errConflicto("Ya tienes una caja abierta")
	} else if err != nil && !repository.EsNoEncontrado(err) {
		return nil, err
	}

	caja := &model.Caja{
		UsuarioID:     usuarioID,
		FechaApertura: time.Now(),
		SaldoInicial:  req.SaldoInicial.Round(2),
		Estado:        EstadoCajaAbierta,
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		return nil, err
	}
	log.Info().Str("caja", caja.ID.String()).Str("usuario", usuarioID.String()).Msg("caja abierta")
	resp := mapCaja(*caja)
	return &resp, nil
}

func (s *cajaService) Cerrar(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error) {
	caja, err := s.cargarCaja(ctx, id)
	if err != nil {
		return nil, err
	}
	if caja.Estado != EstadoCajaAbierta {
		return nil, errConflicto("La caja ya está cerrada")
	}
	rep, err := s.GenerarReporteDiario(ctx, id, "")
	if err != nil {
		return nil, err
	}

	ahora := time.Now()
	caja.SaldoCierre = rep.SaldoCierre
	caja.FechaCierre = &ahora
	caja.Estado = EstadoCajaCerrada
	if err := s.repo.Update(ctx, caja); err != nil {
		return nil, err
	}
	log.Info().Str("caja", caja.ID.String()).Str("saldo_cierre", caja.SaldoCierre.StringFixed(2)).Msg("caja cerrada")
	resp := mapCaja(*caja)
	return &resp, nil
}

func (s *cajaService) ObtenerCaja(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error) {
	caja, err := s.cargarCaja(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapCaja(*caja)
	return &resp, nil
}

func (s *cajaService) ListarCajas(ctx context.Context, filter dto.CajaFilter) (*dto.CajaListResponse, error) {
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CajaResponse, 0, len(list))
	for _, c := range list {
		data = append(data, mapCaja(c))
	}
	return &dto.CajaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Egresos ───────────────────────────────────────────────────────────────────

func (s *cajaService) RegistrarEgreso(ctx context.Context, cajaID uuid.UUID, req dto.EgresoRequest) (*dto.EgresoResponse, error) {
	caja, err := s.cargarCaja(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	if caja.Estado != EstadoCajaAbierta {
		return nil, errValidacion("caja_id", "La caja no está abierta.")
	}
	e := &model.EgresoCaja{
		CajaID:     caja.ID,
		Metodo:     req.Metodo,
		Total:      req.Total.Round(2),
		Referencia: req.Referencia,
		Notas:      req.Notas,
	}
	if err := s.repo.CreateEgreso(ctx, e); err != nil {
		return nil, err
	}
	resp := mapEgreso(*e)
	return &resp, nil
}

func mapEgreso(e model.EgresoCaja) dto.EgresoResponse {
	return dto.EgresoResponse{
		ID:         e.ID,
		CajaID:     e.CajaID,
		Metodo:     e.Metodo,
		Total:      e.Total,
		Referencia: e.Referencia,
		Notas:      e.Notas,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}

func (s *cajaService) ListarEgresos(ctx context.Context, cajaID uuid.UUID, filter dto.ReporteCajaFilter) ([]dto.EgresoResponse, error) {
	desde, hasta, err := s.rango(filter)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListEgresos(ctx, cajaID, desde, hasta)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EgresoResponse, 0, len(list))
	for _, e := range list {
		out = append(out, mapEgreso(e))
	}
	return out, nil
}

// ── Reporte diario ────────────────────────────────────────────────────────────

// GenerarReporteDiario: the opening balance is the previous day's closing for
// this drawer, or the drawer's base balance when that day has no report.
// Running it twice for the same day yields the same row.
func (s *cajaService) GenerarReporteDiario(ctx context.Context, cajaID uuid.UUID, fecha string) (*dto.ReporteDiarioResponse, error) {
	caja, err := s.cargarCaja(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	clave, inicio, fin, err := s.dia(fecha)
	if err != nil {
		return nil, err
	}
	rep, err := s.generar(ctx, caja, clave, inicio, fin)
	if err != nil {
		return nil, err
	}
	resp := mapReporteDiario(*rep)
	return &resp, nil
}

func (s *cajaService) generar(ctx context.Context, caja *model.Caja, clave, inicio, fin time.Time) (*model.ReporteCajaDiario, error) {
	saldoInicial := caja.SaldoInicial
	previo, err := s.repo.FindReporte(ctx, caja.ID, clave.AddDate(0, 0, -1))
	switch {
	case err == nil:
		saldoInicial = previo.SaldoCierre
	case !repository.EsNoEncontrado(err):
		return nil, err
	}

	ingresos, err := s.repo.SumIngresos(ctx, caja.ID, inicio, fin)
	if err != nil {
		return nil, err
	}
	egresos, err := s.repo.SumEgresos(ctx, caja.ID, inicio, fin)
	if err != nil {
		return nil, err
	}

	rep := &model.ReporteCajaDiario{
		CajaID:        caja.ID,
		Fecha:         clave,
		SaldoInicial:  saldoInicial,
		TotalIngresos: ingresos,
		TotalEgresos:  egresos,
		SaldoCierre:   saldoInicial.Add(ingresos).Sub(egresos),
	}
	if err := s.repo.UpsertReporte(ctx, rep); err != nil {
		return nil, err
	}
	log.Debug().
		Str("caja", caja.ID.String()).
		Str("fecha", clave.Format(layoutFecha)).
		Str("saldo_cierre", rep.SaldoCierre.StringFixed(2)).
		Msg("reporte diario generado")
	return rep, nil
}

func (s *cajaService) GenerarReportesAbiertos(ctx context.Context, fecha time.Time) (int, error) {
	cajas, err := s.repo.ListAbiertas(ctx)
	if err != nil {
		return 0, err
	}
	clave, inicio, fin, err := s.dia(fecha.In(s.loc).Format(layoutFecha))
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range cajas {
		if _, err := s.generar(ctx, &cajas[i], clave, inicio, fin); err != nil {
			log.Error().Err(err).Str("caja", cajas[i].ID.String()).Msg("reporte diario: fallo al generar")
			continue
		}
		n++
	}
	return n, nil
}

// ConfirmarReporte regenerates the day, marks it confirmed and queues the
// PDF for the company mailbox.
func (s *cajaService) ConfirmarReporte(ctx context.Context, cajaID uuid.UUID, fecha string) (*dto.ReporteDiarioResponse, error) {
	resp, err := s.GenerarReporteDiario(ctx, cajaID, fecha)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarcarConfirmado(ctx, resp.ID); err != nil {
		return nil, err
	}
	resp.Confirmado = true
	log.Info().Str("caja", cajaID.String()).Str("fecha", resp.Fecha).Msg("caja del dia confirmada")

	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReporteCaja(ctx, worker.ReporteCajaJobPayload{
			CajaID: cajaID.String(),
			Fecha:  resp.Fecha,
		})
	}
	return resp, nil
}

func (s *cajaService) ObtenerReporteDiario(ctx context.Context, cajaID uuid.UUID, fecha string) (*dto.ReporteDiarioResponse, error) {
	clave, _, _, err := s.dia(fecha)
	if err != nil {
		return nil, err
	}
	rep, err := s.repo.FindReporte(ctx, cajaID, clave)
	if err != nil {
		return nil, noEncontrado(err, "No existe reporte para esa fecha")
	}
	resp := mapReporteDiario(*rep)
	return &resp, nil
}

// ── Reporte de caja ───────────────────────────────────────────────────────────

func (s *cajaService) ReporteCaja(ctx context.Context, cajaID uuid.UUID, filter dto.ReporteCajaFilter) (*dto.ReporteCajaResponse, error) {
	if _, err := s.cargarCaja(ctx, cajaID); err != nil {
		return nil, err
	}
	desde, hasta, err := s.rango(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListMovimientosReporte(ctx, cajaID, desde, hasta)
	if err != nil {
		return nil, err
	}
	egresos, err := s.repo.SumEgresos(ctx, cajaID, desde, hasta)
	if err != nil {
		return nil, err
	}

	facturaIDs := make([]uuid.UUID, 0)
	vistas := make(map[uuid.UUID]bool)
	for _, r := range rows {
		if !vistas[r.FacturaID] {
			vistas[r.FacturaID] = true
			facturaIDs = append(facturaIDs, r.FacturaID)
		}
	}
	periodos, err := s.facturas.PeriodosPorFactura(ctx, facturaIDs)
	if err != nil {
		return nil, err
	}

	resp := armarReporteCaja(rows, periodos, s.tarifas.Codigos())
	resp.CajaID = cajaID
	resp.Desde = filter.Desde
	resp.Hasta = filter.Hasta
	resp.Titulo = etiquetaReporte(filter.Desde, filter.Hasta)
	resp.TotalEgresos = egresos
	return resp, nil
}

// armarReporteCaja folds the movements into one line per (invoice, concept),
// plus totals per concept and per payment method. The period label is only
// set on the reserved billing concepts.
func armarReporteCaja(rows []repository.MovimientoReporteRow, periodos map[uuid.UUID][]time.Time, reservados CodigosReservados) *dto.ReporteCajaResponse {
	type claveLinea struct {
		factura uuid.UUID
		codigo  string
	}
	lineas := make([]dto.LineaReporteConcepto, 0)
	indice := make(map[claveLinea]int)
	porConcepto := make(map[string]*dto.TotalPorConcepto)
	porMetodo := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, r := range rows {
		k := claveLinea{factura: r.FacturaID, codigo: r.ConceptoCodigo}
		i, ok := indice[k]
		if !ok {
			linea := dto.LineaReporteConcepto{
				FacturaCodigo: r.FacturaCodigo,
				Fecha:         r.FacturaFecha.Format(layoutFecha),
				Cliente:       r.Cliente,
				Codigo:        r.ConceptoCodigo,
				Concepto:      r.ConceptoNombre,
				Total:         decimal.Zero,
			}
			if ps := periodos[r.FacturaID]; len(ps) > 0 && reservados.Contiene(r.ConceptoCodigo) {
				linea.Periodos = periodo.FormatearRango(ps[0], ps[len(ps)-1])
			}
			lineas = append(lineas, linea)
			i = len(lineas) - 1
			indice[k] = i
		}
		lineas[i].Total = lineas[i].Total.Add(r.Total)

		tc, ok := porConcepto[r.ConceptoCodigo]
		if !ok {
			tc = &dto.TotalPorConcepto{Codigo: r.ConceptoCodigo, Concepto: r.ConceptoNombre}
			porConcepto[r.ConceptoCodigo] = tc
		}
		tc.Total = tc.Total.Add(r.Total)
		porMetodo[r.Metodo] = porMetodo[r.Metodo].Add(r.Total)
		total = total.Add(r.Total)
	}

	resp := &dto.ReporteCajaResponse{
		Lineas:      lineas,
		PorConcepto: make([]dto.TotalPorConcepto, 0, len(porConcepto)),
		PorMetodo:   make([]dto.TotalPorMetodo, 0, len(porMetodo)),
		Total:       total,
	}
	for _, tc := range porConcepto {
		resp.PorConcepto = append(resp.PorConcepto, *tc)
	}
	sort.Slice(resp.PorConcepto, func(i, j int) bool { return resp.PorConcepto[i].Codigo < resp.PorConcepto[j].Codigo })
	for metodo, t := range porMetodo {
		resp.PorMetodo = append(resp.PorMetodo, dto.TotalPorMetodo{Metodo: metodo, Total: t})
	}
	sort.Slice(resp.PorMetodo, func(i, j int) bool { return resp.PorMetodo[i].Metodo < resp.PorMetodo[j].Metodo })
	return resp
}

// etiquetaReporte is the title printed on the cash report PDF.
func etiquetaReporte(desde, hasta string) string {
	if desde == hasta {
		return fmt.Sprintf("Reporte diario - %s", desde)
	}
	return fmt.Sprintf("Reporte entre %s y %s", desde, hasta)
}
