package service

import (
	"context"
	"errors"
	"fmt"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeudaService covers debts created outside the reading pipeline and manual
// edits of their detail lines.
type DeudaService interface {
	// CrearDeudaManual bills the flat category tariff for a period through a
	// placeholder reading.
	CrearDeudaManual(ctx context.Context, req dto.CrearDeudaRequest) (*dto.DeudaResponse, error)
	ActualizarDeuda(ctx context.Context, id uuid.UUID, req dto.ActualizarDeudaRequest) (*dto.DeudaResponse, error)
	EliminarDeuda(ctx context.Context, id uuid.UUID) error
	// CrearLecturaParaDeuda links a placeholder reading to a debt that has none.
	CrearLecturaParaDeuda(ctx context.Context, id uuid.UUID) (*dto.LecturaResponse, error)
	ObtenerDeuda(ctx context.Context, id uuid.UUID) (*dto.DeudaResponse, error)
	ListarDeudas(ctx context.Context, filter dto.DeudaFilter) (*dto.DeudaListResponse, error)
}

type deudaService struct {
	deudas    repository.DeudaRepository
	lecturas  repository.LecturaRepository
	clientes  repository.ClienteRepository
	conceptos repository.ConceptoRepository
	ledger    LecturaService
	tarifas   TarifaService
}

func NewDeudaService(
	deudas repository.DeudaRepository,
	lecturas repository.LecturaRepository,
	clientes repository.ClienteRepository,
	conceptos repository.ConceptoRepository,
	ledger LecturaService,
	tarifas TarifaService,
) DeudaService {
	return &deudaService{
		deudas:    deudas,
		lecturas:  lecturas,
		clientes:  clientes,
		conceptos: conceptos,
		ledger:    ledger,
		tarifas:   tarifas,
	}
}

func mapDeuda(d model.Deuda) dto.DeudaResponse {
	resp := dto.DeudaResponse{
		ID:          d.ID,
		ClienteID:   d.ClienteID,
		Periodo:     periodo.Clave(d.Periodo),
		Descripcion: d.Descripcion,
		Monto:       d.Monto,
		Pagada:      d.Pagada,
		LecturaID:   d.LecturaID,
		Detalles:    make([]dto.DeudaDetalleResponse, 0, len(d.Detalles)),
	}
	for _, det := range d.Detalles {
		item := dto.DeudaDetalleResponse{ID: det.ID, ConceptoID: det.ConceptoID, Monto: det.Monto}
		if det.Concepto != nil {
			item.Codigo = det.Concepto.Codigo
			item.Concepto = det.Concepto.Nombre
		}
		resp.Detalles = append(resp.Detalles, item)
	}
	return resp
}

// ── CrearDeudaManual ──────────────────────────────────────────────────────────

func (s *deudaService) CrearDeudaManual(ctx context.Context, req dto.CrearDeudaRequest) (*dto.DeudaResponse, error) {
	p, err := periodo.Parse(req.Periodo)
	if err != nil {
		return nil, errValidacion("periodo", err.Error())
	}
	clienteID, err := parseUUID("cliente_id", req.ClienteID)
	if err != nil {
		return nil, err
	}
	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, noEncontrado(err, "El cliente no existe.")
	}
	if cliente.Categoria == nil {
		if cliente.Categoria, err = s.tarifas.Categoria(ctx, cliente.CategoriaID); err != nil {
			return nil, err
		}
	}
	reservados, err := s.tarifas.Reservados(ctx)
	if err != nil {
		return nil, err
	}

	agua := cliente.Categoria.PrecioAgua
	desague := cliente.Categoria.PrecioDesague
	cargoFijo := reservados.CargoFijo.Total
	total := agua.Add(desague).Add(cargoFijo)

	descripcion := fmt.Sprintf("Deuda del periodo %s", periodo.Clave(p))
	if req.Descripcion != nil && *req.Descripcion != "" {
		descripcion = *req.Descripcion
	}

	var deuda *model.Deuda
	txErr := runTx(ctx, s.deudas.DB(), func(tx *gorm.DB) error {
		_, err := s.deudas.FindByClientePeriodoTx(tx, cliente.ID, p)
		if err == nil {
			return errConflicto("Ya existe una deuda para este cliente y periodo.")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		lectura := &model.Lectura{
			ClienteID:      cliente.ID,
			Periodo:        p,
			LecturaActual:  decimal.Zero,
			TieneMedidor:   cliente.TieneMedidor,
			TotalAgua:      agua,
			TotalDesague:   desague,
			TotalCargoFijo: cargoFijo,
			Total:          total,
		}
		if err := s.ledger.VincularLecturaPlaceholder(ctx, tx, lectura); err != nil {
			if repository.EsViolacionUnica(err) {
				return errConflicto("Ya existe una lectura para este cliente y periodo.")
			}
			return err
		}

		deuda = &model.Deuda{
			ClienteID:   cliente.ID,
			Periodo:     p,
			Descripcion: &descripcion,
			Monto:       total,
			LecturaID:   &lectura.ID,
		}
		if err := s.deudas.CreateTx(tx, deuda); err != nil {
			if repository.EsViolacionUnica(err) {
				return errConflicto("Ya existe una deuda para este cliente y periodo.")
			}
			return err
		}
		deuda.Detalles = []model.DeudaDetalle{
			{ConceptoID: reservados.Agua.ID, Monto: agua, Concepto: &reservados.Agua},
			{ConceptoID: reservados.Desague.ID, Monto: desague, Concepto: &reservados.Desague},
			{ConceptoID: reservados.CargoFijo.ID, Monto: cargoFijo, Concepto: &reservados.CargoFijo},
		}
		return s.deudas.ReemplazarDetallesTx(tx, deuda.ID, deuda.Detalles)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("cliente", cliente.Codigo).Str("periodo", periodo.Clave(p)).Msg("deuda manual creada")
	resp := mapDeuda(*deuda)
	return &resp, nil
}

// ── ActualizarDeuda ───────────────────────────────────────────────────────────

// ActualizarDeuda replaces the detail lines; the amount becomes their sum.
func (s *deudaService) ActualizarDeuda(ctx context.Context, id uuid.UUID, req dto.ActualizarDeudaRequest) (*dto.DeudaResponse, error) {
	ids := make([]uuid.UUID, 0, len(req.Detalles))
	for _, det := range req.Detalles {
		cid, err := parseUUID("concepto_id", det.ConceptoID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, cid)
	}
	conceptos, err := s.conceptos.ObtenerPorIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	porID := make(map[uuid.UUID]model.ConceptoCaja, len(conceptos))
	for _, c := range conceptos {
		porID[c.ID] = c
	}

	detalles := make([]model.DeudaDetalle, 0, len(req.Detalles))
	monto := decimal.Zero
	for i, det := range req.Detalles {
		c, ok := porID[ids[i]]
		if !ok {
			return nil, errValidacion("concepto_id", "Concepto no encontrado")
		}
		detalles = append(detalles, model.DeudaDetalle{ConceptoID: c.ID, Monto: det.Monto.Round(2), Concepto: &c})
		monto = monto.Add(det.Monto.Round(2))
	}

	var deuda *model.Deuda
	txErr := runTx(ctx, s.deudas.DB(), func(tx *gorm.DB) error {
		var err error
		deuda, err = s.deudas.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Deuda no encontrada")
		}
		if deuda.Pagada {
			return errConflicto("No se puede modificar una deuda que ya esta pagada.")
		}
		if req.Descripcion != nil {
			deuda.Descripcion = req.Descripcion
		}
		deuda.Monto = monto
		if err := s.deudas.UpdateTx(tx, deuda); err != nil {
			return err
		}
		deuda.Detalles = detalles
		return s.deudas.ReemplazarDetallesTx(tx, deuda.ID, deuda.Detalles)
	})
	if txErr != nil {
		return nil, txErr
	}
	resp := mapDeuda(*deuda)
	return &resp, nil
}

// ── EliminarDeuda ─────────────────────────────────────────────────────────────

// EliminarDeuda removes an unpaid debt. When a reading backs it, the reading
// deletion pipeline runs instead so later periods are re-chained.
func (s *deudaService) EliminarDeuda(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.deudas.DB(), func(tx *gorm.DB) error {
		deuda, err := s.deudas.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Deuda no encontrada")
		}
		if deuda.Pagada {
			return errConflicto("No se puede eliminar una deuda que ya esta pagada.")
		}
		if deuda.LecturaID != nil {
			return s.ledger.EliminarLecturaTx(ctx, tx, *deuda.LecturaID)
		}
		return s.deudas.DeleteTx(tx, deuda.ID)
	})
}

// ── CrearLecturaParaDeuda ────────────────────────────────────────────────────

func (s *deudaService) CrearLecturaParaDeuda(ctx context.Context, id uuid.UUID) (*dto.LecturaResponse, error) {
	var lectura *model.Lectura
	txErr := runTx(ctx, s.deudas.DB(), func(tx *gorm.DB) error {
		deuda, err := s.deudas.FindByIDTx(tx, id)
		if err != nil {
			return noEncontrado(err, "Deuda no encontrada")
		}
		if deuda.LecturaID != nil {
			return errValidacion("", "Esta deuda ya tiene una lectura vinculada.")
		}
		existe, err := s.lecturas.ExisteTx(tx, deuda.ClienteID, deuda.Periodo)
		if err != nil {
			return err
		}
		if existe {
			return errConflicto("Ya existe una lectura para este cliente y periodo.")
		}
		cliente, err := s.clientes.FindByID(ctx, deuda.ClienteID)
		if err != nil {
			return noEncontrado(err, "Cliente no encontrado")
		}

		lectura = &model.Lectura{
			ClienteID:     deuda.ClienteID,
			Periodo:       deuda.Periodo,
			LecturaActual: decimal.Zero,
			Pagada:        deuda.Pagada,
			TieneMedidor:  cliente.TieneMedidor,
		}
		if err := s.ledger.VincularLecturaPlaceholder(ctx, tx, lectura); err != nil {
			return err
		}
		deuda.LecturaID = &lectura.ID
		return s.deudas.UpdateTx(tx, deuda)
	})
	if txErr != nil {
		return nil, txErr
	}
	resp := mapLectura(*lectura, 0)
	return &resp, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *deudaService) ObtenerDeuda(ctx context.Context, id uuid.UUID) (*dto.DeudaResponse, error) {
	d, err := s.deudas.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Deuda no encontrada")
	}
	resp := mapDeuda(*d)
	return &resp, nil
}

func (s *deudaService) ListarDeudas(ctx context.Context, filter dto.DeudaFilter) (*dto.DeudaListResponse, error) {
	list, total, err := s.deudas.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.DeudaResponse, 0, len(list))
	for _, d := range list {
		data = append(data, mapDeuda(d))
	}
	return &dto.DeudaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
