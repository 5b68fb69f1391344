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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const descripcionDeudaConsumo = "Deuda por consumo de agua/desagüe"

// LecturaService is the billing ledger engine. Every mutation runs in one
// transaction: persist, debt sync and forward cascade succeed or fail together.
type LecturaService interface {
	// RegistrarLectura runs the full pipeline for a new reading.
	RegistrarLectura(ctx context.Context, req dto.RegistrarLecturaRequest) (*dto.LecturaResponse, error)
	// RegistrarLecturaTx runs the pipeline inside the caller's transaction,
	// without the interactive validations. Returns the cascade depth.
	RegistrarLecturaTx(ctx context.Context, tx *gorm.DB, cliente *model.Cliente, l *model.Lectura, reservados *ConceptosReservados) (int, error)
	// VincularLecturaPlaceholder persists l as given: no compute, no debt
	// sync and no cascade.
	VincularLecturaPlaceholder(ctx context.Context, tx *gorm.DB, l *model.Lectura) error
	// MarcarPagadaTx flips the paid flag through the placeholder write path.
	MarcarPagadaTx(tx *gorm.DB, lecturaID uuid.UUID, pagada bool) error
	ActualizarLectura(ctx context.Context, id uuid.UUID, req dto.ActualizarLecturaRequest) (*dto.LecturaResponse, error)
	// RecalcularLectura reprices the reading with the current tariff and cascades.
	RecalcularLectura(ctx context.Context, id uuid.UUID) (*dto.LecturaResponse, error)
	EliminarLectura(ctx context.Context, id uuid.UUID) error
	EliminarLecturaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ObtenerLectura(ctx context.Context, id uuid.UUID) (*dto.LecturaResponse, error)
	ListarLecturas(ctx context.Context, filter dto.LecturaFilter) (*dto.LecturaListResponse, error)
}

type lecturaService struct {
	lecturas repository.LecturaRepository
	deudas   repository.DeudaRepository
	clientes repository.ClienteRepository
	tarifas  TarifaService
}

func NewLecturaService(
	lecturas repository.LecturaRepository,
	deudas repository.DeudaRepository,
	clientes repository.ClienteRepository,
	tarifas TarifaService,
) LecturaService {
	return &lecturaService{lecturas: lecturas, deudas: deudas, clientes: clientes, tarifas: tarifas}
}

func mapLectura(l model.Lectura, recalculadas int) dto.LecturaResponse {
	return dto.LecturaResponse{
		ID:               l.ID,
		ClienteID:        l.ClienteID,
		Periodo:          periodo.Clave(l.Periodo),
		FechaEmision:     formatFecha(l.FechaEmision),
		FechaVencimiento: formatFecha(l.FechaVencimiento),
		FechaCorte:       formatFecha(l.FechaCorte),
		LecturaAnterior:  l.LecturaAnterior,
		LecturaActual:    l.LecturaActual,
		Consumo:          l.Consumo,
		TotalAgua:        l.TotalAgua,
		TotalDesague:     l.TotalDesague,
		TotalCargoFijo:   l.TotalCargoFijo,
		Total:            l.Total,
		Pagada:           l.Pagada,
		TieneMedidor:     l.TieneMedidor,
		Recalculadas:     recalculadas,
	}
}

func aplicarFechas(l *model.Lectura, f dto.FechasLectura) error {
	var err error
	if f.FechaEmision != nil {
		if l.FechaEmision, err = parseFecha(f.FechaEmision); err != nil {
			return errValidacion("fecha_emision", "Fecha invalida")
		}
	}
	if f.FechaVencimiento != nil {
		if l.FechaVencimiento, err = parseFecha(f.FechaVencimiento); err != nil {
			return errValidacion("fecha_vencimiento", "Fecha invalida")
		}
	}
	if f.FechaCorte != nil {
		if l.FechaCorte, err = parseFecha(f.FechaCorte); err != nil {
			return errValidacion("fecha_corte", "Fecha invalida")
		}
	}
	return nil
}

// cargarCliente loads the customer with its tariff category.
func (s *lecturaService) cargarCliente(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	cliente, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	if cliente.Categoria == nil {
		cat, err := s.tarifas.Categoria(ctx, cliente.CategoriaID)
		if err != nil {
			return nil, err
		}
		cliente.Categoria = cat
	}
	return cliente, nil
}

// ── Pipeline ──────────────────────────────────────────────────────────────────

// calcular fills the consumption and charge fields of l from anterior.
func calcular(cliente *model.Cliente, l *model.Lectura, anterior, cargoFijo decimal.Decimal) {
	c := Tarificar(*cliente.Categoria, anterior, l.LecturaActual, cargoFijo)
	l.LecturaAnterior = c.LecturaAnterior
	l.Consumo = c.Consumo
	l.TotalAgua = c.Agua
	l.TotalDesague = c.Desague
	l.TotalCargoFijo = c.CargoFijo
	l.Total = c.Total
	l.TieneMedidor = cliente.TieneMedidor
}

// lecturaPrevia returns the current value of the latest reading before p, or zero.
func (s *lecturaService) lecturaPrevia(tx *gorm.DB, clienteID uuid.UUID, p time.Time) (decimal.Decimal, error) {
	prev, err := s.lecturas.FindAnteriorTx(tx, clienteID, p)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return prev.LecturaActual, nil
}

// recalcularTx prices l against the preceding reading and persists the computed fields.
func (s *lecturaService) recalcularTx(tx *gorm.DB, cliente *model.Cliente, l *model.Lectura, reservados *ConceptosReservados) error {
	anterior := decimal.Zero
	if cliente.Categoria.TieneMedidor {
		var err error
		if anterior, err = s.lecturaPrevia(tx, l.ClienteID, l.Periodo); err != nil {
			return err
		}
	}
	calcular(cliente, l, anterior, reservados.CargoFijo.Total)
	if err := s.lecturas.UpdateCalculoTx(tx, l); err != nil {
		return err
	}
	return s.sincronizarDeudaTx(tx, l, reservados)
}

func (s *lecturaService) RegistrarLecturaTx(ctx context.Context, tx *gorm.DB, cliente *model.Cliente, l *model.Lectura, reservados *ConceptosReservados) (int, error) {
	l.ClienteID = cliente.ID
	l.Periodo = periodo.Normalizar(l.Periodo)

	existe, err := s.lecturas.ExisteTx(tx, cliente.ID, l.Periodo)
	if err != nil {
		return 0, err
	}
	if existe {
		return 0, errValidacion("periodo", "Ya existe una lectura registrada para este cliente en el mismo mes.")
	}

	anterior := decimal.Zero
	if cliente.Categoria.TieneMedidor {
		if anterior, err = s.lecturaPrevia(tx, cliente.ID, l.Periodo); err != nil {
			return 0, err
		}
	}
	calcular(cliente, l, anterior, reservados.CargoFijo.Total)

	if err := s.lecturas.CreateTx(tx, l); err != nil {
		if repository.EsViolacionUnica(err) {
			return 0, errValidacion("periodo", "Ya existe una lectura registrada para este cliente en el mismo mes.")
		}
		return 0, err
	}
	if err := s.sincronizarDeudaTx(tx, l, reservados); err != nil {
		return 0, err
	}
	return s.cascadaTx(tx, cliente, l.Periodo, l.LecturaActual, reservados)
}

// sincronizarDeudaTx makes the period's Deuda mirror the reading: get-or-create,
// amount = total, details regenerated for every non-zero charge.
func (s *lecturaService) sincronizarDeudaTx(tx *gorm.DB, l *model.Lectura, reservados *ConceptosReservados) error {
	p := periodo.Normalizar(l.Periodo)
	d, err := s.deudas.FindByClientePeriodoTx(tx, l.ClienteID, p)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		d = &model.Deuda{
			ClienteID:   l.ClienteID,
			Periodo:     p,
			Descripcion: ptr(descripcionDeudaConsumo),
			Monto:       l.Total,
			LecturaID:   &l.ID,
		}
		if err := s.deudas.CreateTx(tx, d); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if d.Pagada {
			return errConflicto(fmt.Sprintf("No se puede modificar la lectura de %s porque ya está pagada.", periodo.Clave(p)))
		}
		d.LecturaID = &l.ID
		d.Monto = l.Total
		if err := s.deudas.UpdateTx(tx, d); err != nil {
			return err
		}
	}

	var detalles []model.DeudaDetalle
	for _, linea := range []struct {
		concepto model.ConceptoCaja
		monto    decimal.Decimal
	}{
		{reservados.Agua, l.TotalAgua},
		{reservados.Desague, l.TotalDesague},
		{reservados.CargoFijo, l.TotalCargoFijo},
	} {
		if linea.monto.GreaterThan(decimal.Zero) {
			detalles = append(detalles, model.DeudaDetalle{ConceptoID: linea.concepto.ID, Monto: linea.monto})
		}
	}
	return s.deudas.ReemplazarDetallesTx(tx, d.ID, detalles)
}

// cascadaTx recomputes every reading after desde in ascending order, chaining
// each one's previous value from the one before. A paid reading is a hard
// wall: it and everything after it stay untouched.
func (s *lecturaService) cascadaTx(tx *gorm.DB, cliente *model.Cliente, desde time.Time, anterior decimal.Decimal, reservados *ConceptosReservados) (int, error) {
	posteriores, err := s.lecturas.ListPosterioresTx(tx, cliente.ID, desde)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range posteriores {
		l := &posteriores[i]
		if l.Pagada {
			break
		}
		calcular(cliente, l, anterior, reservados.CargoFijo.Total)
		if err := s.lecturas.UpdateCalculoTx(tx, l); err != nil {
			return n, err
		}
		if err := s.sincronizarDeudaTx(tx, l, reservados); err != nil {
			return n, err
		}
		anterior = l.LecturaActual
		n++
	}
	return n, nil
}

// validarRangoTx keeps a metered reading between its neighbours.
func (s *lecturaService) validarRangoTx(tx *gorm.DB, clienteID uuid.UUID, p time.Time, valor decimal.Decimal) error {
	prev, err := s.lecturas.FindAnteriorTx(tx, clienteID, p)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && valor.LessThan(prev.LecturaActual) {
		return errValidacion("lectura_actual", fmt.Sprintf("La lectura no puede ser menor que la de %s (%s).",
			periodo.Clave(prev.Periodo), prev.LecturaActual.StringFixed(3)))
	}
	next, err := s.lecturas.FindSiguienteTx(tx, clienteID, p)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && valor.GreaterThan(next.LecturaActual) {
		return errValidacion("lectura_actual", fmt.Sprintf("La lectura no puede ser mayor que la de %s (%s).",
			periodo.Clave(next.Periodo), next.LecturaActual.StringFixed(3)))
	}
	return nil
}

func (s *lecturaService) validarPosteriorPagadaTx(tx *gorm.DB, clienteID uuid.UUID, p time.Time, msg string) error {
	pagada, err := s.lecturas.ExistePosteriorPagadaTx(tx, clienteID, p)
	if err != nil {
		return err
	}
	if pagada {
		return errConflicto(msg)
	}
	return nil
}

// ── RegistrarLectura ──────────────────────────────────────────────────────────

func (s *lecturaService) RegistrarLectura(ctx context.Context, req dto.RegistrarLecturaRequest) (*dto.LecturaResponse, error) {
	p, err := periodo.Parse(req.Periodo)
	if err != nil {
		return nil, errValidacion("periodo", err.Error())
	}
	clienteID, err := parseUUID("cliente_id", req.ClienteID)
	if err != nil {
		return nil, err
	}
	cliente, err := s.cargarCliente(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	reservados, err := s.tarifas.Reservados(ctx)
	if err != nil {
		return nil, err
	}

	l := &model.Lectura{ClienteID: cliente.ID, Periodo: p, LecturaActual: req.LecturaActual}
	if err := aplicarFechas(l, req.FechasLectura); err != nil {
		return nil, err
	}

	var cascada int
	txErr := runTx(ctx, s.lecturas.DB(), func(tx *gorm.DB) error {
		if cliente.TieneMedidor {
			existe, err := s.lecturas.ExisteTx(tx, cliente.ID, p)
			if err != nil {
				return err
			}
			if existe {
				return errValidacion("periodo", "Ya existe una lectura registrada para este cliente en el mismo mes.")
			}
			if err := s.validarRangoTx(tx, cliente.ID, p, req.LecturaActual); err != nil {
				return err
			}
			if err := s.validarPosteriorPagadaTx(tx, cliente.ID, p, "No se puede editar porque existen lecturas posteriores ya pagadas."); err != nil {
				return err
			}
			prev, err := s.lecturas.FindAnteriorTx(tx, cliente.ID, p)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				esperado := periodo.Siguiente(prev.Periodo)
				if !esperado.Equal(p) {
					return errValidacion("periodo", "Debes registrar el mes consecutivo. El siguiente mes esperado es: "+periodo.Formatear(esperado))
				}
			}
		}
		var err error
		cascada, err = s.RegistrarLecturaTx(ctx, tx, cliente, l, reservados)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("cliente", cliente.Codigo).
		Str("periodo", periodo.Clave(p)).
		Str("total", l.Total.StringFixed(2)).
		Int("cascada", cascada).
		Msg("lectura registrada")

	resp := mapLectura(*l, cascada)
	return &resp, nil
}

func (s *lecturaService) VincularLecturaPlaceholder(_ context.Context, tx *gorm.DB, l *model.Lectura) error {
	l.Periodo = periodo.Normalizar(l.Periodo)
	return s.lecturas.CreateTx(tx, l)
}

func (s *lecturaService) MarcarPagadaTx(tx *gorm.DB, lecturaID uuid.UUID, pagada bool) error {
	return s.lecturas.UpdatePagadaTx(tx, lecturaID, pagada)
}

// ── ActualizarLectura / RecalcularLectura ────────────────────────────────────

func (s *lecturaService) ActualizarLectura(ctx context.Context, id uuid.UUID, req dto.ActualizarLecturaRequest) (*dto.LecturaResponse, error) {
	reservados, err := s.tarifas.Reservados(ctx)
	if err != nil {
		return nil, err
	}

	var l *model.Lectura
	var cascada int
	txErr := runTx(ctx, s.lecturas.DB(), func(tx *gorm.DB) error {
		var err error
		l, err = s.lecturas.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Lectura no encontrada")
		}
		if l.Pagada {
			return errConflicto(fmt.Sprintf("No se puede modificar la lectura de %s porque ya está pagada.", periodo.Clave(l.Periodo)))
		}
		if err := s.validarPosteriorPagadaTx(tx, l.ClienteID, l.Periodo, "No se puede editar porque existen lecturas posteriores ya pagadas."); err != nil {
			return err
		}
		cliente, err := s.cargarCliente(ctx, l.ClienteID)
		if err != nil {
			return err
		}
		if cliente.TieneMedidor {
			if err := s.validarRangoTx(tx, l.ClienteID, l.Periodo, req.LecturaActual); err != nil {
				return err
			}
		}

		l.LecturaActual = req.LecturaActual
		if err := aplicarFechas(l, req.FechasLectura); err != nil {
			return err
		}
		if err := s.lecturas.UpdateFechasTx(tx, l); err != nil {
			return err
		}
		if err := s.recalcularTx(tx, cliente, l, reservados); err != nil {
			return err
		}
		cascada, err = s.cascadaTx(tx, cliente, l.Periodo, l.LecturaActual, reservados)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("lectura_id", id.String()).Int("cascada", cascada).Msg("lectura actualizada")
	resp := mapLectura(*l, cascada)
	return &resp, nil
}

func (s *lecturaService) RecalcularLectura(ctx context.Context, id uuid.UUID) (*dto.LecturaResponse, error) {
	reservados, err := s.tarifas.Reservados(ctx)
	if err != nil {
		return nil, err
	}

	var l *model.Lectura
	var cascada int
	txErr := runTx(ctx, s.lecturas.DB(), func(tx *gorm.DB) error {
		var err error
		l, err = s.lecturas.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Lectura no encontrada")
		}
		if l.Pagada {
			return errConflicto(fmt.Sprintf("No se puede modificar la lectura de %s porque ya está pagada.", periodo.Clave(l.Periodo)))
		}
		cliente, err := s.cargarCliente(ctx, l.ClienteID)
		if err != nil {
			return err
		}
		if err := s.recalcularTx(tx, cliente, l, reservados); err != nil {
			return err
		}
		cascada, err = s.cascadaTx(tx, cliente, l.Periodo, l.LecturaActual, reservados)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("lectura_id", id.String()).Int("cascada", cascada).Msg("lectura recalculada")
	resp := mapLectura(*l, cascada)
	return &resp, nil
}

// ── EliminarLectura ───────────────────────────────────────────────────────────

func (s *lecturaService) EliminarLectura(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.lecturas.DB(), func(tx *gorm.DB) error {
		return s.EliminarLecturaTx(ctx, tx, id)
	})
}

// EliminarLecturaTx deletes an unpaid reading with its debt and re-chains the
// later readings from the one preceding the deleted period.
func (s *lecturaService) EliminarLecturaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	l, err := s.lecturas.FindByIDTx(tx, id)
	if err != nil {
		return noEncontrado(err, "Lectura no encontrada")
	}
	if l.Pagada {
		return errConflicto("No se puede eliminar una lectura que ya esta pagada.")
	}
	if err := s.validarPosteriorPagadaTx(tx, l.ClienteID, l.Periodo, "No se puede eliminar porque existen lecturas posteriores ya pagadas."); err != nil {
		return err
	}

	d, err := s.deudas.FindByLecturaTx(tx, l.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return err
	default:
		if d.Pagada {
			return errConflicto("No se puede eliminar una lectura cuya deuda ya esta pagada.")
		}
		if err := s.deudas.DeleteTx(tx, d.ID); err != nil {
			return err
		}
	}

	if err := s.lecturas.DeleteTx(tx, l.ID); err != nil {
		return err
	}

	posteriores, err := s.lecturas.ListPosterioresTx(tx, l.ClienteID, l.Periodo)
	if err != nil {
		return err
	}
	cascada := 0
	if len(posteriores) > 0 {
		cliente, err := s.cargarCliente(ctx, l.ClienteID)
		if err != nil {
			return err
		}
		reservados, err := s.tarifas.Reservados(ctx)
		if err != nil {
			return err
		}
		anterior := decimal.Zero
		if cliente.Categoria.TieneMedidor {
			if anterior, err = s.lecturaPrevia(tx, l.ClienteID, l.Periodo); err != nil {
				return err
			}
		}
		if cascada, err = s.cascadaTx(tx, cliente, l.Periodo, anterior, reservados); err != nil {
			return err
		}
	}

	log.Info().
		Str("lectura_id", id.String()).
		Str("periodo", periodo.Clave(l.Periodo)).
		Int("cascada", cascada).
		Msg("lectura eliminada")
	return nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *lecturaService) ObtenerLectura(ctx context.Context, id uuid.UUID) (*dto.LecturaResponse, error) {
	l, err := s.lecturas.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Lectura no encontrada")
	}
	resp := mapLectura(*l, 0)
	return &resp, nil
}

func (s *lecturaService) ListarLecturas(ctx context.Context, filter dto.LecturaFilter) (*dto.LecturaListResponse, error) {
	list, total, err := s.lecturas.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.LecturaResponse, 0, len(list))
	for _, l := range list {
		data = append(data, mapLectura(l, 0))
	}
	return &dto.LecturaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
