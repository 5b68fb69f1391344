package service

import (
	"context"
	"sort"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReporteService builds the read-only views consumed by document rendering.
type ReporteService interface {
	ResumenDeudasImpagas(ctx context.Context, filter dto.ResumenDeudasFilter) (*dto.ResumenDeudasResponse, error)
	HistorialDeudas(ctx context.Context, clienteID uuid.UUID) (*dto.HistorialDeudasResponse, error)
	// Recibo is the latest reading of the customer plus every older unpaid
	// debt, grouped by year.
	Recibo(ctx context.Context, clienteID uuid.UUID) (*dto.ReciboResponse, error)
}

type reporteService struct {
	clientes repository.ClienteRepository
	lecturas repository.LecturaRepository
	deudas   repository.DeudaRepository
}

func NewReporteService(
	clientes repository.ClienteRepository,
	lecturas repository.LecturaRepository,
	deudas repository.DeudaRepository,
) ReporteService {
	return &reporteService{clientes: clientes, lecturas: lecturas, deudas: deudas}
}

func (s *reporteService) ResumenDeudasImpagas(ctx context.Context, filter dto.ResumenDeudasFilter) (*dto.ResumenDeudasResponse, error) {
	rows, err := s.deudas.ResumenImpagas(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ResumenDeudasResponse{
		Data:  make([]dto.ResumenDeudaCliente, 0, len(rows)),
		Total: decimal.Zero,
	}
	for _, r := range rows {
		resp.Data = append(resp.Data, dto.ResumenDeudaCliente{
			ClienteID:      r.ClienteID,
			Codigo:         r.Codigo,
			NombreCompleto: r.NombreCompleto,
			Direccion:      r.Direccion,
			Desde:          periodo.Formatear(r.Desde),
			Hasta:          periodo.Formatear(r.Hasta),
			Meses:          r.Meses,
			Total:          r.Total,
		})
		resp.Total = resp.Total.Add(r.Total)
	}
	return resp, nil
}

func (s *reporteService) HistorialDeudas(ctx context.Context, clienteID uuid.UUID) (*dto.HistorialDeudasResponse, error) {
	c, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	deudas, err := s.deudas.ListByCliente(ctx, clienteID, false)
	if err != nil {
		return nil, err
	}

	porAnio := make(map[int]*dto.HistorialAnio)
	resp := &dto.HistorialDeudasResponse{Cliente: mapCliente(*c)}
	for _, d := range deudas {
		a, ok := porAnio[d.Periodo.Year()]
		if !ok {
			a = &dto.HistorialAnio{Anio: d.Periodo.Year()}
			porAnio[d.Periodo.Year()] = a
		}
		a.Total = a.Total.Add(d.Monto)
		resp.Total = resp.Total.Add(d.Monto)
		if d.Pagada {
			a.Pagado = a.Pagado.Add(d.Monto)
			resp.Pagado = resp.Pagado.Add(d.Monto)
		}
	}
	resp.Pendiente = resp.Total.Sub(resp.Pagado)

	resp.Anios = make([]dto.HistorialAnio, 0, len(porAnio))
	for _, a := range porAnio {
		a.Pendiente = a.Total.Sub(a.Pagado)
		resp.Anios = append(resp.Anios, *a)
	}
	sort.Slice(resp.Anios, func(i, j int) bool { return resp.Anios[i].Anio < resp.Anios[j].Anio })
	return resp, nil
}

func (s *reporteService) Recibo(ctx context.Context, clienteID uuid.UUID) (*dto.ReciboResponse, error) {
	c, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	resp := &dto.ReciboResponse{Cliente: mapCliente(*c), DeudasAnteriores: []dto.DeudaAnteriorAnio{}}

	ultima, err := s.lecturas.FindUltima(ctx, clienteID)
	if err != nil {
		if repository.EsNoEncontrado(err) {
			return nil, errNoEncontrado("El cliente no tiene lecturas registradas.")
		}
		return nil, err
	}
	l := mapLectura(*ultima, 0)
	resp.Lectura = &l

	impagas, err := s.deudas.ListByCliente(ctx, clienteID, true)
	if err != nil {
		return nil, err
	}
	resp.DeudasAnteriores, resp.TotalAnterior = agruparAnteriores(impagas, ultima.Periodo)
	resp.TotalPagar = ultima.Total.Add(resp.TotalAnterior)
	return resp, nil
}

// agruparAnteriores groups the unpaid debts older than corte by year, newest
// year first. deudas must be sorted by period ascending.
func agruparAnteriores(deudas []model.Deuda, corte time.Time) ([]dto.DeudaAnteriorAnio, decimal.Decimal) {
	type grupo struct {
		desde, hasta time.Time
		meses        int
		total        decimal.Decimal
	}
	grupos := make(map[int]*grupo)
	total := decimal.Zero
	for _, d := range deudas {
		if !d.Periodo.Before(corte) {
			continue
		}
		g, ok := grupos[d.Periodo.Year()]
		if !ok {
			g = &grupo{desde: d.Periodo}
			grupos[d.Periodo.Year()] = g
		}
		g.hasta = d.Periodo
		g.meses++
		g.total = g.total.Add(d.Monto)
		total = total.Add(d.Monto)
	}

	out := make([]dto.DeudaAnteriorAnio, 0, len(grupos))
	for anio, g := range grupos {
		rango := periodo.NombreMes(g.desde.Month())
		if g.hasta.Month() != g.desde.Month() {
			rango += " - " + periodo.NombreMes(g.hasta.Month())
		}
		out = append(out, dto.DeudaAnteriorAnio{Anio: anio, Rango: rango, Meses: g.meses, Total: g.total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Anio > out[j].Anio })
	return out, total
}
