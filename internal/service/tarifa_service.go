package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TipoConceptoIngreso = "ingreso"
	TipoConceptoEgreso  = "egreso"
)

// CodigosReservados are the cash concept codes the billing engine posts to.
type CodigosReservados struct {
	Agua      string
	Desague   string
	CargoFijo string
}

// CodigosPorDefecto is the standard reserved set.
var CodigosPorDefecto = CodigosReservados{Agua: "001", Desague: "002", CargoFijo: "003"}

func (c CodigosReservados) Lista() []string { return []string{c.Agua, c.Desague, c.CargoFijo} }

func (c CodigosReservados) Contiene(codigo string) bool {
	return codigo == c.Agua || codigo == c.Desague || codigo == c.CargoFijo
}

// ConceptosReservados holds the current rows of the reserved concepts.
type ConceptosReservados struct {
	Agua      model.ConceptoCaja
	Desague   model.ConceptoCaja
	CargoFijo model.ConceptoCaja
}

// Cargos is the priced result of one reading.
type Cargos struct {
	LecturaAnterior decimal.Decimal
	Consumo         decimal.Decimal
	Agua            decimal.Decimal
	Desague         decimal.Decimal
	CargoFijo       decimal.Decimal
	Total           decimal.Decimal
}

// Tarificar prices a reading under cat. For metered categories consumo is
// actual - anterior; categories without a meter bill the flat water price
// with zero consumption.
func Tarificar(cat model.Categoria, anterior, actual, cargoFijo decimal.Decimal) Cargos {
	c := Cargos{
		Desague:   cat.PrecioDesague.Round(2),
		CargoFijo: cargoFijo.Round(2),
	}
	if cat.TieneMedidor {
		c.LecturaAnterior = anterior.Round(3)
		c.Consumo = actual.Sub(anterior).Round(3)
		if cat.ConsumoMaximo != nil {
			maximo := decimal.NewFromInt(int64(*cat.ConsumoMaximo))
			base := decimal.Min(c.Consumo, maximo)
			exceso := decimal.Max(decimal.Zero, c.Consumo.Sub(maximo))
			c.Agua = base.Mul(cat.PrecioAgua).Add(exceso.Mul(cat.TarifaExceso))
		} else {
			c.Agua = c.Consumo.Mul(cat.PrecioAgua)
		}
	} else {
		c.LecturaAnterior = decimal.Zero
		c.Consumo = decimal.Zero
		c.Agua = cat.PrecioAgua
	}
	c.Agua = c.Agua.Round(2)
	c.Total = c.Agua.Add(c.Desague).Add(c.CargoFijo)
	return c
}

// TarifaService is the tariff catalog: categories, cash concepts and the
// reserved concepts consumed by the billing engine.
type TarifaService interface {
	// Validar fails with KindConfiguracion when a reserved concept is missing.
	Validar(ctx context.Context) error
	Codigos() CodigosReservados
	Reservados(ctx context.Context) (*ConceptosReservados, error)
	CargoFijo(ctx context.Context) (decimal.Decimal, error)
	Categoria(ctx context.Context, id uuid.UUID) (*model.Categoria, error)

	CrearCategoria(ctx context.Context, req dto.CategoriaRequest) (dto.CategoriaResponse, error)
	ListarCategorias(ctx context.Context, soloActivas bool) ([]dto.CategoriaResponse, error)
	ActualizarCategoria(ctx context.Context, id uuid.UUID, req dto.CategoriaRequest) (dto.CategoriaResponse, error)
	DesactivarCategoria(ctx context.Context, id uuid.UUID) error

	CrearConcepto(ctx context.Context, req dto.ConceptoRequest) (dto.ConceptoResponse, error)
	ListarConceptos(ctx context.Context, tipo string) ([]dto.ConceptoResponse, error)
	ActualizarConcepto(ctx context.Context, id uuid.UUID, req dto.ConceptoRequest) (dto.ConceptoResponse, error)
	EliminarConcepto(ctx context.Context, id uuid.UUID) error
}

type tarifaService struct {
	categorias repository.CategoriaRepository
	conceptos  repository.ConceptoRepository
	codigos    CodigosReservados
}

func NewTarifaService(categorias repository.CategoriaRepository, conceptos repository.ConceptoRepository, codigos CodigosReservados) TarifaService {
	return &tarifaService{categorias: categorias, conceptos: conceptos, codigos: codigos}
}

func (s *tarifaService) Codigos() CodigosReservados { return s.codigos }

func (s *tarifaService) Validar(ctx context.Context) error {
	_, err := s.Reservados(ctx)
	return err
}

func (s *tarifaService) Reservados(ctx context.Context) (*ConceptosReservados, error) {
	list, err := s.conceptos.ObtenerPorCodigos(ctx, s.codigos.Lista())
	if err != nil {
		return nil, err
	}
	porCodigo := make(map[string]model.ConceptoCaja, len(list))
	for _, c := range list {
		porCodigo[c.Codigo] = c
	}
	var faltantes []string
	for _, codigo := range s.codigos.Lista() {
		if _, ok := porCodigo[codigo]; !ok {
			faltantes = append(faltantes, codigo)
		}
	}
	if len(faltantes) > 0 {
		return nil, errConfiguracion(fmt.Sprintf("Faltan los conceptos de caja reservados: %s", strings.Join(faltantes, ", ")))
	}
	return &ConceptosReservados{
		Agua:      porCodigo[s.codigos.Agua],
		Desague:   porCodigo[s.codigos.Desague],
		CargoFijo: porCodigo[s.codigos.CargoFijo],
	}, nil
}

func (s *tarifaService) CargoFijo(ctx context.Context) (decimal.Decimal, error) {
	c, err := s.conceptos.ObtenerPorCodigo(ctx, s.codigos.CargoFijo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, errConfiguracion(fmt.Sprintf("No existe el concepto de cargo fijo con código '%s'.", s.codigos.CargoFijo))
		}
		return decimal.Zero, err
	}
	return c.Total, nil
}

func (s *tarifaService) Categoria(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	c, err := s.categorias.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Categoría no encontrada")
	}
	return c, nil
}

// ── Categorias ───────────────────────────────────────────────────────────────

func mapCategoria(c model.Categoria) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:            c.ID,
		Codigo:        c.Codigo,
		Nombre:        c.Nombre,
		Descripcion:   c.Descripcion,
		ConsumoMinimo: c.ConsumoMinimo,
		ConsumoMaximo: c.ConsumoMaximo,
		TarifaExceso:  c.TarifaExceso,
		PrecioAgua:    c.PrecioAgua,
		PrecioDesague: c.PrecioDesague,
		TieneMedidor:  c.TieneMedidor,
		Activo:        c.Activo,
	}
}

func validarCategoria(req dto.CategoriaRequest) error {
	if req.ConsumoMaximo != nil && req.ConsumoMinimo != nil && *req.ConsumoMinimo > *req.ConsumoMaximo {
		return errValidacion("consumo_minimo", "El consumo mínimo no puede ser mayor al máximo.")
	}
	if req.ConsumoMaximo != nil && !req.TieneMedidor {
		return errValidacion("consumo_maximo", "El consumo máximo solo aplica a categorías con medidor.")
	}
	return nil
}

func (s *tarifaService) CrearCategoria(ctx context.Context, req dto.CategoriaRequest) (dto.CategoriaResponse, error) {
	if err := validarCategoria(req); err != nil {
		return dto.CategoriaResponse{}, err
	}
	existing, err := s.categorias.ObtenerPorNombre(ctx, req.Nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CategoriaResponse{}, err
	}
	if existing != nil {
		return dto.CategoriaResponse{}, errConflicto("Ya existe una categoría con ese nombre.")
	}

	codigo, err := s.categorias.SiguienteCodigo(ctx)
	if err != nil {
		return dto.CategoriaResponse{}, err
	}
	c := &model.Categoria{
		Codigo:        codigo,
		Nombre:        req.Nombre,
		Descripcion:   req.Descripcion,
		ConsumoMinimo: req.ConsumoMinimo,
		ConsumoMaximo: req.ConsumoMaximo,
		TarifaExceso:  req.TarifaExceso,
		PrecioAgua:    req.PrecioAgua,
		PrecioDesague: req.PrecioDesague,
		TieneMedidor:  req.TieneMedidor,
		Activo:        true,
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}
	if err := s.categorias.Crear(ctx, c); err != nil {
		return dto.CategoriaResponse{}, err
	}
	return mapCategoria(*c), nil
}

func (s *tarifaService) ListarCategorias(ctx context.Context, soloActivas bool) ([]dto.CategoriaResponse, error) {
	list, err := s.categorias.Listar(ctx, soloActivas)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategoria(c))
	}
	return result, nil
}

// ActualizarCategoria changes the tariff prospectively: readings keep their
// totals until they are recomputed.
func (s *tarifaService) ActualizarCategoria(ctx context.Context, id uuid.UUID, req dto.CategoriaRequest) (dto.CategoriaResponse, error) {
	if err := validarCategoria(req); err != nil {
		return dto.CategoriaResponse{}, err
	}
	c, err := s.Categoria(ctx, id)
	if err != nil {
		return dto.CategoriaResponse{}, err
	}
	if req.Nombre != c.Nombre {
		existing, err := s.categorias.ObtenerPorNombre(ctx, req.Nombre)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoriaResponse{}, err
		}
		if existing != nil && existing.ID != id {
			return dto.CategoriaResponse{}, errConflicto("Ya existe una categoría con ese nombre.")
		}
	}
	c.Nombre = req.Nombre
	c.Descripcion = req.Descripcion
	c.ConsumoMinimo = req.ConsumoMinimo
	c.ConsumoMaximo = req.ConsumoMaximo
	c.TarifaExceso = req.TarifaExceso
	c.PrecioAgua = req.PrecioAgua
	c.PrecioDesague = req.PrecioDesague
	c.TieneMedidor = req.TieneMedidor
	if req.Activo != nil {
		c.Activo = *req.Activo
	}
	if err := s.categorias.Actualizar(ctx, c); err != nil {
		return dto.CategoriaResponse{}, err
	}
	log.Info().Str("categoria", c.Codigo).Msg("tarifa actualizada")
	return mapCategoria(*c), nil
}

func (s *tarifaService) DesactivarCategoria(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Categoria(ctx, id); err != nil {
		return err
	}
	return s.categorias.Desactivar(ctx, id)
}

// ── Conceptos ────────────────────────────────────────────────────────────────

func mapConcepto(c model.ConceptoCaja) dto.ConceptoResponse {
	return dto.ConceptoResponse{ID: c.ID, Codigo: c.Codigo, Nombre: c.Nombre, Tipo: c.Tipo, Total: c.Total}
}

func (s *tarifaService) CrearConcepto(ctx context.Context, req dto.ConceptoRequest) (dto.ConceptoResponse, error) {
	codigo, err := s.conceptos.SiguienteCodigo(ctx)
	if err != nil {
		return dto.ConceptoResponse{}, err
	}
	c := &model.ConceptoCaja{Codigo: codigo, Nombre: req.Nombre, Tipo: req.Tipo, Total: req.Total}
	if err := s.conceptos.Crear(ctx, c); err != nil {
		return dto.ConceptoResponse{}, err
	}
	return mapConcepto(*c), nil
}

func (s *tarifaService) ListarConceptos(ctx context.Context, tipo string) ([]dto.ConceptoResponse, error) {
	list, err := s.conceptos.Listar(ctx, tipo)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ConceptoResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapConcepto(c))
	}
	return result, nil
}

func (s *tarifaService) ActualizarConcepto(ctx context.Context, id uuid.UUID, req dto.ConceptoRequest) (dto.ConceptoResponse, error) {
	c, err := s.conceptos.ObtenerPorID(ctx, id)
	if err != nil {
		return dto.ConceptoResponse{}, noEncontrado(err, "Concepto no encontrado")
	}
	if s.codigos.Contiene(c.Codigo) && req.Tipo != TipoConceptoIngreso {
		return dto.ConceptoResponse{}, errValidacion("tipo", "Los conceptos reservados deben ser de ingreso.")
	}
	c.Nombre = req.Nombre
	c.Tipo = req.Tipo
	c.Total = req.Total
	if err := s.conceptos.Actualizar(ctx, c); err != nil {
		return dto.ConceptoResponse{}, err
	}
	return mapConcepto(*c), nil
}

func (s *tarifaService) EliminarConcepto(ctx context.Context, id uuid.UUID) error {
	c, err := s.conceptos.ObtenerPorID(ctx, id)
	if err != nil {
		return noEncontrado(err, "Concepto no encontrado")
	}
	if s.codigos.Contiene(c.Codigo) {
		return errConflicto(fmt.Sprintf("El concepto '%s' es reservado y no se puede eliminar.", c.Codigo))
	}
	enUso, err := s.conceptos.EnUso(ctx, id)
	if err != nil {
		return err
	}
	if enUso {
		return errConflicto("El concepto tiene movimientos registrados y no se puede eliminar.")
	}
	return s.conceptos.Eliminar(ctx, id)
}
