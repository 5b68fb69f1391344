package repository

import (
	"context"

	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImportacionRepository interface {
	CreateTx(tx *gorm.DB, l *model.ImportacionLote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ImportacionLote, error)
	List(ctx context.Context, limit int) ([]model.ImportacionLote, error)
	DB() *gorm.DB
}

type importacionRepo struct{ db *gorm.DB }

func NewImportacionRepository(db *gorm.DB) ImportacionRepository { return &importacionRepo{db: db} }

func (r *importacionRepo) DB() *gorm.DB { return r.db }

func (r *importacionRepo) CreateTx(tx *gorm.DB, l *model.ImportacionLote) error {
	return tx.Create(l).Error
}

func (r *importacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ImportacionLote, error) {
	var l model.ImportacionLote
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *importacionRepo) List(ctx context.Context, limit int) ([]model.ImportacionLote, error) {
	var list []model.ImportacionLote
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
