package service

import (
	"context"
	"fmt"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"
	"aguabill/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const notasGeneracionPorDefecto = "Generación automática para clientes sin medidor"

// GeneracionService bills one flat-rate reading per period for every active
// customer without a meter.
type GeneracionService interface {
	Generar(ctx context.Context, usuarioID *uuid.UUID, req dto.GenerarLecturasRequest) (*dto.GeneracionResponse, error)
	// Anular removes the unpaid generated readings of the period together
	// with their debts and the generation record.
	Anular(ctx context.Context, id uuid.UUID) (int, error)
	ObtenerGeneracion(ctx context.Context, id uuid.UUID) (*dto.GeneracionResponse, error)
	ListarGeneraciones(ctx context.Context) ([]dto.GeneracionResponse, error)
}

type generacionService struct {
	generaciones   repository.GeneracionRepository
	lecturas       repository.LecturaRepository
	deudas         repository.DeudaRepository
	clientes       repository.ClienteRepository
	ledger         LecturaService
	tarifas        TarifaService
	dispatcher     *worker.Dispatcher
	codigoGenerico string
}

func NewGeneracionService(
	generaciones repository.GeneracionRepository,
	lecturas repository.LecturaRepository,
	deudas repository.DeudaRepository,
	clientes repository.ClienteRepository,
	ledger LecturaService,
	tarifas TarifaService,
	dispatcher *worker.Dispatcher,
	codigoGenerico string,
) GeneracionService {
	return &generacionService{
		generaciones:   generaciones,
		lecturas:       lecturas,
		deudas:         deudas,
		clientes:       clientes,
		ledger:         ledger,
		tarifas:        tarifas,
		dispatcher:     dispatcher,
		codigoGenerico: codigoGenerico,
	}
}

func mapGeneracion(g model.GeneracionLecturas, omitidos int) dto.GeneracionResponse {
	return dto.GeneracionResponse{
		ID:               g.ID,
		Periodo:          periodo.Clave(g.Periodo),
		FechaEmision:     formatFecha(g.FechaEmision),
		FechaVencimiento: formatFecha(g.FechaVencimiento),
		FechaCorte:       formatFecha(g.FechaCorte),
		TotalGenerado:    g.TotalGenerado,
		Omitidos:         omitidos,
		Notas:            g.Notas,
		CreatedAt:        g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *generacionService) Generar(ctx context.Context, usuarioID *uuid.UUID, req dto.GenerarLecturasRequest) (*dto.GeneracionResponse, error) {
	p, err := periodo.Parse(req.Periodo)
	if err != nil {
		return nil, errValidacion("periodo", err.Error())
	}
	reservados, err := s.tarifas.Reservados(ctx)
	if err != nil {
		return nil, err
	}
	clientes, err := s.clientes.ListSinMedidor(ctx, s.codigoGenerico)
	if err != nil {
		return nil, err
	}

	g := &model.GeneracionLecturas{Periodo: p, UsuarioID: usuarioID, Notas: req.Notas}
	if g.Notas == nil || *g.Notas == "" {
		g.Notas = ptr(notasGeneracionPorDefecto)
	}
	// The generation shares the date fields of its readings.
	fechas := &model.Lectura{}
	if err := aplicarFechas(fechas, req.FechasLectura); err != nil {
		return nil, err
	}
	g.FechaEmision, g.FechaVencimiento, g.FechaCorte = fechas.FechaEmision, fechas.FechaVencimiento, fechas.FechaCorte

	var existentes, pagadas int
	txErr := runTx(ctx, s.generaciones.DB(), func(tx *gorm.DB) error {
		existe, err := s.generaciones.ExistePeriodoTx(tx, p)
		if err != nil {
			return err
		}
		if existe {
			return errValidacion("periodo", fmt.Sprintf("Ya se generaron lecturas para %s.", periodo.Clave(p)))
		}

		for i := range clientes {
			c := &clientes[i]
			tieneLectura, err := s.lecturas.ExisteTx(tx, c.ID, p)
			if err != nil {
				return err
			}
			if tieneLectura {
				existentes++
				continue
			}
			pagada, err := s.deudas.ExistePagadaTx(tx, c.ID, p)
			if err != nil {
				return err
			}
			if pagada {
				pagadas++
				continue
			}
			l := &model.Lectura{
				Periodo:          p,
				FechaEmision:     g.FechaEmision,
				FechaVencimiento: g.FechaVencimiento,
				FechaCorte:       g.FechaCorte,
			}
			if _, err := s.ledger.RegistrarLecturaTx(ctx, tx, c, l, reservados); err != nil {
				return fmt.Errorf("cliente %s: %w", c.Codigo, err)
			}
			g.TotalGenerado++
		}
		return s.generaciones.CreateTx(tx, g)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("periodo", periodo.Clave(p)).
		Int("generadas", g.TotalGenerado).
		Int("omitidas_existentes", existentes).
		Int("omitidas_pagadas", pagadas).
		Msg("generación de lecturas completada")

	if s.dispatcher != nil && g.TotalGenerado > 0 {
		if err := s.dispatcher.EnqueueRecibos(ctx, worker.RecibosJobPayload{Periodo: periodo.Clave(p)}); err != nil {
			log.Warn().Err(err).Str("periodo", periodo.Clave(p)).Msg("no se pudo encolar la emisión de recibos")
		}
	}

	resp := mapGeneracion(*g, existentes+pagadas)
	return &resp, nil
}

// Readings of customers without a meter carry no consumption chain, so
// deleting them needs no cascade.
func (s *generacionService) Anular(ctx context.Context, id uuid.UUID) (int, error) {
	var eliminadas int
	var clave string
	txErr := runTx(ctx, s.generaciones.DB(), func(tx *gorm.DB) error {
		g, err := s.generaciones.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Generación no encontrada")
		}
		clave = periodo.Clave(g.Periodo)

		lecturas, err := s.lecturas.ListGeneradasTx(tx, g.Periodo)
		if err != nil {
			return err
		}
		for _, l := range lecturas {
			d, err := s.deudas.FindByLecturaTx(tx, l.ID)
			switch {
			case repository.EsNoEncontrado(err):
			case err != nil:
				return err
			case d.Pagada:
				continue
			default:
				if err := s.deudas.DeleteTx(tx, d.ID); err != nil {
					return err
				}
			}
			if err := s.lecturas.DeleteTx(tx, l.ID); err != nil {
				return err
			}
			eliminadas++
		}
		return s.generaciones.DeleteTx(tx, g.ID)
	})
	if txErr != nil {
		return 0, txErr
	}
	log.Info().Str("periodo", clave).Int("lecturas_eliminadas", eliminadas).Msg("generación anulada")
	return eliminadas, nil
}

func (s *generacionService) ObtenerGeneracion(ctx context.Context, id uuid.UUID) (*dto.GeneracionResponse, error) {
	g, err := s.generaciones.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Generación no encontrada")
	}
	resp := mapGeneracion(*g, 0)
	return &resp, nil
}

func (s *generacionService) ListarGeneraciones(ctx context.Context) ([]dto.GeneracionResponse, error) {
	list, err := s.generaciones.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GeneracionResponse, 0, len(list))
	for _, g := range list {
		out = append(out, mapGeneracion(g, 0))
	}
	return out, nil
}
