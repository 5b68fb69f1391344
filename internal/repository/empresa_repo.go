package repository

import (
	"context"

	"aguabill/internal/model"

	"gorm.io/gorm"
)

// EmpresaRepository holds the single company profile of the tenant.
type EmpresaRepository interface {
	Obtener(ctx context.Context) (*model.Empresa, error)
	Guardar(ctx context.Context, e *model.Empresa) error
}

type empresaRepository struct{ db *gorm.DB }

func NewEmpresaRepository(db *gorm.DB) EmpresaRepository { return &empresaRepository{db: db} }

func (r *empresaRepository) Obtener(ctx context.Context) (*model.Empresa, error) {
	var e model.Empresa
	if err := r.db.WithContext(ctx).Order("created_at asc").First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *empresaRepository) Guardar(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Save(e).Error
}
