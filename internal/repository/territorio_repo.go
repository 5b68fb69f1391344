package repository

import (
	"context"

	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerritorioRepository stores the address catalog: zones, street types and streets.
type TerritorioRepository interface {
	CrearZona(ctx context.Context, z *model.Zona) error
	ListarZonas(ctx context.Context) ([]model.Zona, error)
	ObtenerZona(ctx context.Context, id uuid.UUID) (*model.Zona, error)
	ActualizarZona(ctx context.Context, z *model.Zona) error
	SiguienteCodigoZona(ctx context.Context) (string, error)

	CrearVia(ctx context.Context, v *model.Via) error
	ListarVias(ctx context.Context) ([]model.Via, error)
	ObtenerVia(ctx context.Context, id uuid.UUID) (*model.Via, error)
	ActualizarVia(ctx context.Context, v *model.Via) error
	SiguienteCodigoVia(ctx context.Context) (string, error)

	CrearCalle(ctx context.Context, c *model.Calle) error
	ListarCalles(ctx context.Context, viaID *uuid.UUID) ([]model.Calle, error)
	ObtenerCalle(ctx context.Context, id uuid.UUID) (*model.Calle, error)
	ActualizarCalle(ctx context.Context, c *model.Calle) error
	SiguienteCodigoCalle(ctx context.Context) (string, error)
}

type territorioRepository struct{ db *gorm.DB }

func NewTerritorioRepository(db *gorm.DB) TerritorioRepository {
	return &territorioRepository{db: db}
}

// ── Zonas ────────────────────────────────────────────────────────────────────

func (r *territorioRepository) CrearZona(ctx context.Context, z *model.Zona) error {
	return r.db.WithContext(ctx).Create(z).Error
}

func (r *territorioRepository) ListarZonas(ctx context.Context) ([]model.Zona, error) {
	var list []model.Zona
	err := r.db.WithContext(ctx).Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *territorioRepository) ObtenerZona(ctx context.Context, id uuid.UUID) (*model.Zona, error) {
	var z model.Zona
	if err := r.db.WithContext(ctx).First(&z, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *territorioRepository) ActualizarZona(ctx context.Context, z *model.Zona) error {
	return r.db.WithContext(ctx).Save(z).Error
}

func (r *territorioRepository) SiguienteCodigoZona(ctx context.Context) (string, error) {
	return siguienteCodigo(r.db.WithContext(ctx), "zonas", 4)
}

// ── Vias ─────────────────────────────────────────────────────────────────────

func (r *territorioRepository) CrearVia(ctx context.Context, v *model.Via) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *territorioRepository) ListarVias(ctx context.Context) ([]model.Via, error) {
	var list []model.Via
	err := r.db.WithContext(ctx).Order("codigo asc").Find(&list).Error
	return list, err
}

func (r *territorioRepository) ObtenerVia(ctx context.Context, id uuid.UUID) (*model.Via, error) {
	var v model.Via
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *territorioRepository) ActualizarVia(ctx context.Context, v *model.Via) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *territorioRepository) SiguienteCodigoVia(ctx context.Context) (string, error) {
	return siguienteCodigo(r.db.WithContext(ctx), "vias", 2)
}

// ── Calles ───────────────────────────────────────────────────────────────────

func (r *territorioRepository) CrearCalle(ctx context.Context, c *model.Calle) error {
	return r.db.WithContext(ctx).Omit("Via").Create(c).Error
}

func (r *territorioRepository) ListarCalles(ctx context.Context, viaID *uuid.UUID) ([]model.Calle, error) {
	var list []model.Calle
	q := r.db.WithContext(ctx).Preload("Via")
	if viaID != nil {
		q = q.Where("via_id = ?", *viaID)
	}
	err := q.Order("codigo asc").Find(&list).Error
	return list, err
}

func (r *territorioRepository) ObtenerCalle(ctx context.Context, id uuid.UUID) (*model.Calle, error) {
	var c model.Calle
	if err := r.db.WithContext(ctx).Preload("Via").First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *territorioRepository) ActualizarCalle(ctx context.Context, c *model.Calle) error {
	return r.db.WithContext(ctx).Omit("Via").Save(c).Error
}

func (r *territorioRepository) SiguienteCodigoCalle(ctx context.Context) (string, error) {
	return siguienteCodigo(r.db.WithContext(ctx), "calles", 4)
}
