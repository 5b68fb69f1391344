package service

import (
	"context"
	"strings"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/repository"

	"github.com/google/uuid"
)

// TerritorioService manages the address catalog and the company profile.
type TerritorioService interface {
	CrearZona(ctx context.Context, req dto.ZonaRequest) (dto.ZonaResponse, error)
	ListarZonas(ctx context.Context) ([]dto.ZonaResponse, error)
	ActualizarZona(ctx context.Context, id uuid.UUID, req dto.ZonaRequest) (dto.ZonaResponse, error)

	CrearVia(ctx context.Context, req dto.ViaRequest) (dto.ViaResponse, error)
	ListarVias(ctx context.Context) ([]dto.ViaResponse, error)
	ActualizarVia(ctx context.Context, id uuid.UUID, req dto.ViaRequest) (dto.ViaResponse, error)

	CrearCalle(ctx context.Context, req dto.CalleRequest) (dto.CalleResponse, error)
	ListarCalles(ctx context.Context, viaID *uuid.UUID) ([]dto.CalleResponse, error)
	ActualizarCalle(ctx context.Context, id uuid.UUID, req dto.CalleRequest) (dto.CalleResponse, error)

	ObtenerEmpresa(ctx context.Context) (*dto.EmpresaResponse, error)
	GuardarEmpresa(ctx context.Context, req dto.EmpresaRequest) (*dto.EmpresaResponse, error)
}

type territorioService struct {
	repo     repository.TerritorioRepository
	empresas repository.EmpresaRepository
}

func NewTerritorioService(repo repository.TerritorioRepository, empresas repository.EmpresaRepository) TerritorioService {
	return &territorioService{repo: repo, empresas: empresas}
}

func mapZona(z model.Zona) dto.ZonaResponse {
	return dto.ZonaResponse{ID: z.ID, Codigo: z.Codigo, Nombre: z.Nombre}
}

func mapVia(v model.Via) dto.ViaResponse {
	return dto.ViaResponse{ID: v.ID, Codigo: v.Codigo, Nombre: v.Nombre}
}

func mapCalle(c model.Calle) dto.CalleResponse {
	resp := dto.CalleResponse{ID: c.ID, Codigo: c.Codigo, ViaID: c.ViaID, Nombre: c.Nombre, NombreCompleto: c.Nombre}
	if c.Via != nil {
		resp.Via = c.Via.Nombre
		resp.NombreCompleto = c.Via.Nombre + " " + c.Nombre
	}
	return resp
}

func mapEmpresa(e model.Empresa) *dto.EmpresaResponse {
	return &dto.EmpresaResponse{
		ID:        e.ID,
		Nombre:    e.Nombre,
		RUC:       e.RUC,
		Direccion: e.Direccion,
		Telefono:  e.Telefono,
		Email:     e.Email,
	}
}

// ── Zonas ────────────────────────────────────────────────────────────────────

func (s *territorioService) CrearZona(ctx context.Context, req dto.ZonaRequest) (dto.ZonaResponse, error) {
	codigo, err := s.repo.SiguienteCodigoZona(ctx)
	if err != nil {
		return dto.ZonaResponse{}, err
	}
	z := &model.Zona{Codigo: codigo, Nombre: strings.TrimSpace(req.Nombre)}
	if err := s.repo.CrearZona(ctx, z); err != nil {
		return dto.ZonaResponse{}, err
	}
	return mapZona(*z), nil
}

func (s *territorioService) ListarZonas(ctx context.Context) ([]dto.ZonaResponse, error) {
	list, err := s.repo.ListarZonas(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ZonaResponse, 0, len(list))
	for _, z := range list {
		result = append(result, mapZona(z))
	}
	return result, nil
}

func (s *territorioService) ActualizarZona(ctx context.Context, id uuid.UUID, req dto.ZonaRequest) (dto.ZonaResponse, error) {
	z, err := s.repo.ObtenerZona(ctx, id)
	if err != nil {
		return dto.ZonaResponse{}, noEncontrado(err, "Zona no encontrada")
	}
	z.Nombre = strings.TrimSpace(req.Nombre)
	if err := s.repo.ActualizarZona(ctx, z); err != nil {
		return dto.ZonaResponse{}, err
	}
	return mapZona(*z), nil
}

// ── Vias ─────────────────────────────────────────────────────────────────────

func (s *territorioService) CrearVia(ctx context.Context, req dto.ViaRequest) (dto.ViaResponse, error) {
	codigo, err := s.repo.SiguienteCodigoVia(ctx)
	if err != nil {
		return dto.ViaResponse{}, err
	}
	v := &model.Via{Codigo: codigo, Nombre: strings.TrimSpace(req.Nombre)}
	if err := s.repo.CrearVia(ctx, v); err != nil {
		if repository.EsViolacionUnica(err) {
			return dto.ViaResponse{}, errConflicto("Ya existe una vía con ese código.")
		}
		return dto.ViaResponse{}, err
	}
	return mapVia(*v), nil
}

func (s *territorioService) ListarVias(ctx context.Context) ([]dto.ViaResponse, error) {
	list, err := s.repo.ListarVias(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ViaResponse, 0, len(list))
	for _, v := range list {
		result = append(result, mapVia(v))
	}
	return result, nil
}

func (s *territorioService) ActualizarVia(ctx context.Context, id uuid.UUID, req dto.ViaRequest) (dto.ViaResponse, error) {
	v, err := s.repo.ObtenerVia(ctx, id)
	if err != nil {
		return dto.ViaResponse{}, noEncontrado(err, "Vía no encontrada")
	}
	v.Nombre = strings.TrimSpace(req.Nombre)
	if err := s.repo.ActualizarVia(ctx, v); err != nil {
		return dto.ViaResponse{}, err
	}
	return mapVia(*v), nil
}

// ── Calles ───────────────────────────────────────────────────────────────────

func (s *territorioService) CrearCalle(ctx context.Context, req dto.CalleRequest) (dto.CalleResponse, error) {
	viaID, err := parseUUID("via_id", req.ViaID)
	if err != nil {
		return dto.CalleResponse{}, err
	}
	via, err := s.repo.ObtenerVia(ctx, viaID)
	if err != nil {
		if repository.EsNoEncontrado(err) {
			return dto.CalleResponse{}, errValidacion("via_id", "La vía no existe.")
		}
		return dto.CalleResponse{}, err
	}
	codigo, err := s.repo.SiguienteCodigoCalle(ctx)
	if err != nil {
		return dto.CalleResponse{}, err
	}
	c := &model.Calle{Codigo: codigo, ViaID: via.ID, Nombre: strings.TrimSpace(req.Nombre)}
	if err := s.repo.CrearCalle(ctx, c); err != nil {
		return dto.CalleResponse{}, err
	}
	c.Via = via
	return mapCalle(*c), nil
}

func (s *territorioService) ListarCalles(ctx context.Context, viaID *uuid.UUID) ([]dto.CalleResponse, error) {
	list, err := s.repo.ListarCalles(ctx, viaID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CalleResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCalle(c))
	}
	return result, nil
}

func (s *territorioService) ActualizarCalle(ctx context.Context, id uuid.UUID, req dto.CalleRequest) (dto.CalleResponse, error) {
	c, err := s.repo.ObtenerCalle(ctx, id)
	if err != nil {
		return dto.CalleResponse{}, noEncontrado(err, "Calle no encontrada")
	}
	viaID, err := parseUUID("via_id", req.ViaID)
	if err != nil {
		return dto.CalleResponse{}, err
	}
	if viaID != c.ViaID {
		via, err := s.repo.ObtenerVia(ctx, viaID)
		if err != nil {
			if repository.EsNoEncontrado(err) {
				return dto.CalleResponse{}, errValidacion("via_id", "La vía no existe.")
			}
			return dto.CalleResponse{}, err
		}
		c.ViaID = via.ID
		c.Via = via
	}
	c.Nombre = strings.TrimSpace(req.Nombre)
	if err := s.repo.ActualizarCalle(ctx, c); err != nil {
		return dto.CalleResponse{}, err
	}
	return mapCalle(*c), nil
}

// ── Empresa ──────────────────────────────────────────────────────────────────

func (s *territorioService) ObtenerEmpresa(ctx context.Context) (*dto.EmpresaResponse, error) {
	e, err := s.empresas.Obtener(ctx)
	if err != nil {
		return nil, noEncontrado(err, "La empresa no está configurada.")
	}
	return mapEmpresa(*e), nil
}

// GuardarEmpresa updates the single company row, creating it on first use.
func (s *territorioService) GuardarEmpresa(ctx context.Context, req dto.EmpresaRequest) (*dto.EmpresaResponse, error) {
	e, err := s.empresas.Obtener(ctx)
	if err != nil {
		if !repository.EsNoEncontrado(err) {
			return nil, err
		}
		e = &model.Empresa{}
	}
	e.Nombre = strings.TrimSpace(req.Nombre)
	e.RUC = req.RUC
	e.Direccion = req.Direccion
	e.Telefono = req.Telefono
	e.Email = req.Email
	if err := s.empresas.Guardar(ctx, e); err != nil {
		return nil, err
	}
	return mapEmpresa(*e), nil
}
