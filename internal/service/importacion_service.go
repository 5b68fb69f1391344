package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Import profiles. Only the tolerant profile bills a missing fixed-charge
// concept as zero; water and sewer concepts are required by both.
const (
	PerfilEstricto  = "estricto"
	PerfilTolerante = "tolerante"
)

const (
	tipoImportLecturas = "lecturas"
	tipoImportDeudas   = "deudas"

	descripcionDeudaImportada = "Deuda importada desde Excel"
)

// ImportacionService bulk-loads readings and debts bypassing the ledger
// pipeline. Rows hitting the per-period unique indexes are skipped, never
// upserted; per-row errors are collected and the rest of the batch goes on.
type ImportacionService interface {
	ImportarLecturas(ctx context.Context, usuarioID *uuid.UUID, req dto.ImportarLecturasRequest) (*dto.ImportacionResponse, error)
	ImportarDeudas(ctx context.Context, usuarioID *uuid.UUID, req dto.ImportarDeudasRequest) (*dto.ImportacionResponse, error)
	ObtenerLote(ctx context.Context, id uuid.UUID) (*dto.ImportacionResponse, error)
	ListarLotes(ctx context.Context, limit int) ([]dto.ImportacionResponse, error)
}

type importacionService struct {
	lotes     repository.ImportacionRepository
	lecturas  repository.LecturaRepository
	deudas    repository.DeudaRepository
	clientes  repository.ClienteRepository
	conceptos repository.ConceptoRepository
	codigos   CodigosReservados
	perfil    string
}

func NewImportacionService(
	lotes repository.ImportacionRepository,
	lecturas repository.LecturaRepository,
	deudas repository.DeudaRepository,
	clientes repository.ClienteRepository,
	conceptos repository.ConceptoRepository,
	codigos CodigosReservados,
	perfil string,
) ImportacionService {
	if perfil != PerfilTolerante {
		perfil = PerfilEstricto
	}
	return &importacionService{
		lotes:     lotes,
		lecturas:  lecturas,
		deudas:    deudas,
		clientes:  clientes,
		conceptos: conceptos,
		codigos:   codigos,
		perfil:    perfil,
	}
}

// conceptosImportacion resolves the reserved concepts under the configured
// profile. CargoFijo is nil when the tolerant profile found no row for it.
type conceptosImportacion struct {
	agua      model.ConceptoCaja
	desague   model.ConceptoCaja
	cargoFijo *model.ConceptoCaja
}

func (c conceptosImportacion) montoCargoFijo() decimal.Decimal {
	if c.cargoFijo == nil {
		return decimal.Zero
	}
	return c.cargoFijo.Total.Round(2)
}

// detalles builds one line per non-zero charge.
func (c conceptosImportacion) detalles(deudaID uuid.UUID, agua, desague, cargoFijo decimal.Decimal) []model.DeudaDetalle {
	var out []model.DeudaDetalle
	if agua.GreaterThan(decimal.Zero) {
		out = append(out, model.DeudaDetalle{DeudaID: deudaID, ConceptoID: c.agua.ID, Monto: agua})
	}
	if desague.GreaterThan(decimal.Zero) {
		out = append(out, model.DeudaDetalle{DeudaID: deudaID, ConceptoID: c.desague.ID, Monto: desague})
	}
	if c.cargoFijo != nil && cargoFijo.GreaterThan(decimal.Zero) {
		out = append(out, model.DeudaDetalle{DeudaID: deudaID, ConceptoID: c.cargoFijo.ID, Monto: cargoFijo})
	}
	return out
}

func (s *importacionService) cargarConceptos(ctx context.Context) (*conceptosImportacion, error) {
	list, err := s.conceptos.ObtenerPorCodigos(ctx, s.codigos.Lista())
	if err != nil {
		return nil, err
	}
	porCodigo := make(map[string]model.ConceptoCaja, len(list))
	for _, c := range list {
		porCodigo[c.Codigo] = c
	}

	agua, okAgua := porCodigo[s.codigos.Agua]
	desague, okDesague := porCodigo[s.codigos.Desague]
	if !okAgua || !okDesague {
		return nil, errConfiguracion(fmt.Sprintf("Faltan los conceptos de caja reservados %s y %s.", s.codigos.Agua, s.codigos.Desague))
	}
	out := &conceptosImportacion{agua: agua, desague: desague}
	if cf, ok := porCodigo[s.codigos.CargoFijo]; ok {
		out.cargoFijo = &cf
	} else if s.perfil == PerfilEstricto {
		return nil, errConfiguracion(fmt.Sprintf("No existe el concepto de cargo fijo con código '%s'.", s.codigos.CargoFijo))
	} else {
		log.Warn().Str("codigo", s.codigos.CargoFijo).Msg("importación sin concepto de cargo fijo, se usará cero")
	}
	return out, nil
}

// clientesPorCodigo loads every customer referenced by the batch.
func (s *importacionService) clientesPorCodigo(ctx context.Context, codigos []string) (map[string]model.Cliente, error) {
	list, err := s.clientes.FindByCodigos(ctx, codigos)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Cliente, len(list))
	for _, c := range list {
		out[c.Codigo] = c
	}
	return out, nil
}

func claveFila(clienteID uuid.UUID, p time.Time) string {
	return clienteID.String() + "|" + periodo.Clave(p)
}

// ── ImportarLecturas ──────────────────────────────────────────────────────────

// ImportarLecturas writes readings as given (no compute, no cascade) plus one
// Deuda per inserted reading. A row with a payment is imported as paid.
func (s *importacionService) ImportarLecturas(ctx context.Context, usuarioID *uuid.UUID, req dto.ImportarLecturasRequest) (*dto.ImportacionResponse, error) {
	conceptos, err := s.cargarConceptos(ctx)
	if err != nil {
		return nil, err
	}
	codigos := make([]string, 0, len(req.Filas))
	for _, f := range req.Filas {
		codigos = append(codigos, f.Codigo)
	}
	clientes, err := s.clientesPorCodigo(ctx, codigos)
	if err != nil {
		return nil, err
	}

	var errores []dto.ErrorFilaImportacion
	vistas := make(map[string]bool, len(req.Filas))
	lecturas := make([]model.Lectura, 0, len(req.Filas))
	for i, f := range req.Filas {
		fila := i + 1
		c, ok := clientes[f.Codigo]
		if !ok {
			errores = append(errores, dto.ErrorFilaImportacion{Fila: fila, Codigo: f.Codigo, Mensaje: "Cliente no encontrado"})
			continue
		}
		p, err := periodo.Parse(f.Periodo)
		if err != nil {
			errores = append(errores, dto.ErrorFilaImportacion{Fila: fila, Codigo: f.Codigo, Mensaje: err.Error()})
			continue
		}
		if vistas[claveFila(c.ID, p)] {
			errores = append(errores, dto.ErrorFilaImportacion{Fila: fila, Codigo: f.Codigo, Mensaje: "Periodo repetido en el archivo"})
			continue
		}
		vistas[claveFila(c.ID, p)] = true
		lecturas = append(lecturas, lecturaImportada(c, p, f, conceptos.montoCargoFijo()))
	}

	resp := &dto.ImportacionResponse{Tipo: tipoImportLecturas, Perfil: s.perfil, Filas: len(req.Filas)}
	txErr := runTx(ctx, s.lotes.DB(), func(tx *gorm.DB) error {
		insertadas, err := s.lecturas.InsertIgnorandoTx(tx, lecturas)
		if err != nil {
			return err
		}
		ok := make(map[uuid.UUID]bool, len(insertadas))
		for _, id := range insertadas {
			ok[id] = true
		}

		var deudas []model.Deuda
		porDeuda := make(map[uuid.UUID]model.Lectura)
		for _, l := range lecturas {
			if !ok[l.ID] {
				continue
			}
			lecturaID := l.ID
			d := model.Deuda{
				ID:          uuid.New(),
				ClienteID:   l.ClienteID,
				Periodo:     l.Periodo,
				Descripcion: ptr(descripcionDeudaConsumo),
				Monto:       l.Total,
				Pagada:      l.Pagada,
				LecturaID:   &lecturaID,
			}
			deudas = append(deudas, d)
			porDeuda[d.ID] = l
		}
		deudasOK, err := s.deudas.InsertIgnorandoTx(tx, deudas)
		if err != nil {
			return err
		}
		var detalles []model.DeudaDetalle
		for _, id := range deudasOK {
			l := porDeuda[id]
			detalles = append(detalles, conceptos.detalles(id, l.TotalAgua, l.TotalDesague, l.TotalCargoFijo)...)
		}
		if err := s.deudas.InsertDetallesTx(tx, detalles); err != nil {
			return err
		}

		resp.Insertados = len(insertadas)
		resp.Omitidos = len(lecturas) - len(insertadas)
		return s.registrarLote(tx, usuarioID, resp, errores)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("tipo", resp.Tipo).
		Str("perfil", resp.Perfil).
		Int("filas", resp.Filas).
		Int("insertados", resp.Insertados).
		Int("omitidos", resp.Omitidos).
		Int("errores", len(resp.Errores)).
		Msg("importación completada")
	return resp, nil
}

func lecturaImportada(c model.Cliente, p time.Time, f dto.FilaLectura, cargoFijo decimal.Decimal) model.Lectura {
	anterior := decimal.Zero
	if f.Consumo.GreaterThan(decimal.Zero) {
		anterior = f.LecturaActual.Sub(f.Consumo)
	}
	agua := f.Deuda
	pagada := false
	if f.Pago.GreaterThan(decimal.Zero) {
		agua = f.Pago
		pagada = true
	}
	desague := decimal.Zero
	if f.Desague != nil {
		desague = *f.Desague
	} else if c.Categoria != nil {
		desague = c.Categoria.PrecioDesague
	}
	agua = agua.Round(2)
	desague = desague.Round(2)

	return model.Lectura{
		ID:              uuid.New(),
		ClienteID:       c.ID,
		Periodo:         p,
		LecturaActual:   f.LecturaActual.Round(3),
		LecturaAnterior: anterior.Round(3),
		Consumo:         f.Consumo.Round(3),
		TotalAgua:       agua,
		TotalDesague:    desague,
		TotalCargoFijo:  cargoFijo,
		Total:           agua.Add(desague).Add(cargoFijo),
		Pagada:          pagada,
		TieneMedidor:    c.TieneMedidor,
	}
}

// ── ImportarDeudas ────────────────────────────────────────────────────────────

// ImportarDeudas expands each month-range row into monthly debts. The row
// total is the water charge of the whole range, split evenly per month.
func (s *importacionService) ImportarDeudas(ctx context.Context, usuarioID *uuid.UUID, req dto.ImportarDeudasRequest) (*dto.ImportacionResponse, error) {
	conceptos, err := s.cargarConceptos(ctx)
	if err != nil {
		return nil, err
	}
	codigos := make([]string, 0, len(req.Filas))
	for _, f := range req.Filas {
		codigos = append(codigos, f.Codigo)
	}
	clientes, err := s.clientesPorCodigo(ctx, codigos)
	if err != nil {
		return nil, err
	}

	var errores []dto.ErrorFilaImportacion
	vistas := make(map[string]bool)
	var deudas []model.Deuda
	detallesPorDeuda := make(map[uuid.UUID][]model.DeudaDetalle)
	for i, f := range req.Filas {
		fila := i + 1
		if f.Meses == "" {
			errores = append(errores, dto.ErrorFilaImportacion{Fila: fila, Codigo: f.Codigo, Mensaje: "Campo 'Meses' vacío"})
			continue
		}
		c, ok := clientes[f.Codigo]
		if !ok {
			errores = append(errores, dto.ErrorFilaImportacion{Fila: fila, Codigo: f.Codigo, Mensaje: "Cliente no encontrado"})
			continue
		}
		periodos, err := periodo.Rango(f.Anio, f.Meses)
		if err != nil {
			errores = append(errores, dto.ErrorFilaImportacion{Fila: fila, Codigo: f.Codigo, Mensaje: "Error al generar periodos: " + err.Error()})
			continue
		}

		agua := f.Total.Div(decimal.NewFromInt(int64(len(periodos)))).Round(2)
		desague := decimal.Zero
		if c.Categoria != nil {
			desague = c.Categoria.PrecioDesague.Round(2)
		}
		cargoFijo := conceptos.montoCargoFijo()
		monto := agua.Add(desague).Add(cargoFijo)

		for _, p := range periodos {
			if vistas[claveFila(c.ID, p)] {
				continue
			}
			vistas[claveFila(c.ID, p)] = true
			d := model.Deuda{
				ID:          uuid.New(),
				ClienteID:   c.ID,
				Periodo:     p,
				Descripcion: ptr(descripcionDeudaImportada),
				Monto:       monto,
			}
			deudas = append(deudas, d)
			detallesPorDeuda[d.ID] = conceptos.detalles(d.ID, agua, desague, cargoFijo)
		}
	}

	resp := &dto.ImportacionResponse{Tipo: tipoImportDeudas, Perfil: s.perfil, Filas: len(req.Filas)}
	txErr := runTx(ctx, s.lotes.DB(), func(tx *gorm.DB) error {
		insertadas, err := s.deudas.InsertIgnorandoTx(tx, deudas)
		if err != nil {
			return err
		}
		var detalles []model.DeudaDetalle
		for _, id := range insertadas {
			detalles = append(detalles, detallesPorDeuda[id]...)
		}
		if err := s.deudas.InsertDetallesTx(tx, detalles); err != nil {
			return err
		}
		resp.Insertados = len(insertadas)
		resp.Omitidos = len(deudas) - len(insertadas)
		return s.registrarLote(tx, usuarioID, resp, errores)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("tipo", resp.Tipo).
		Str("perfil", resp.Perfil).
		Int("filas", resp.Filas).
		Int("insertados", resp.Insertados).
		Int("omitidos", resp.Omitidos).
		Int("errores", len(resp.Errores)).
		Msg("importación completada")
	return resp, nil
}

// ── Lotes ─────────────────────────────────────────────────────────────────────

func (s *importacionService) registrarLote(tx *gorm.DB, usuarioID *uuid.UUID, resp *dto.ImportacionResponse, errores []dto.ErrorFilaImportacion) error {
	if errores == nil {
		errores = []dto.ErrorFilaImportacion{}
	}
	raw, err := json.Marshal(errores)
	if err != nil {
		return err
	}
	lote := &model.ImportacionLote{
		ID:         uuid.New(),
		Tipo:       resp.Tipo,
		Perfil:     resp.Perfil,
		UsuarioID:  usuarioID,
		Filas:      resp.Filas,
		Insertados: resp.Insertados,
		Omitidos:   resp.Omitidos,
		Errores:    datatypes.JSON(raw),
	}
	if err := s.lotes.CreateTx(tx, lote); err != nil {
		return err
	}
	resp.LoteID = lote.ID.String()
	resp.Errores = errores
	return nil
}

func mapLote(l model.ImportacionLote) dto.ImportacionResponse {
	resp := dto.ImportacionResponse{
		LoteID:     l.ID.String(),
		Tipo:       l.Tipo,
		Perfil:     l.Perfil,
		Filas:      l.Filas,
		Insertados: l.Insertados,
		Omitidos:   l.Omitidos,
		Errores:    []dto.ErrorFilaImportacion{},
	}
	if len(l.Errores) > 0 {
		if err := json.Unmarshal(l.Errores, &resp.Errores); err != nil {
			log.Warn().Err(err).Str("lote_id", resp.LoteID).Msg("errores de importación ilegibles")
		}
	}
	return resp
}

func (s *importacionService) ObtenerLote(ctx context.Context, id uuid.UUID) (*dto.ImportacionResponse, error) {
	l, err := s.lotes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Lote de importación no encontrado")
	}
	resp := mapLote(*l)
	return &resp, nil
}

func (s *importacionService) ListarLotes(ctx context.Context, limit int) ([]dto.ImportacionResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.lotes.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ImportacionResponse, 0, len(list))
	for _, l := range list {
		out = append(out, mapLote(l))
	}
	return out, nil
}
