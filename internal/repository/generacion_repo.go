package repository

import (
	"context"
	"time"

	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GeneracionRepository interface {
	CreateTx(tx *gorm.DB, g *model.GeneracionLecturas) error
	ExistePeriodoTx(tx *gorm.DB, periodo time.Time) (bool, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.GeneracionLecturas, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GeneracionLecturas, error)
	List(ctx context.Context) ([]model.GeneracionLecturas, error)
	DB() *gorm.DB
}

type generacionRepo struct{ db *gorm.DB }

func NewGeneracionRepository(db *gorm.DB) GeneracionRepository { return &generacionRepo{db: db} }

func (r *generacionRepo) DB() *gorm.DB { return r.db }

func (r *generacionRepo) CreateTx(tx *gorm.DB, g *model.GeneracionLecturas) error {
	return tx.Create(g).Error
}

func (r *generacionRepo) ExistePeriodoTx(tx *gorm.DB, periodo time.Time) (bool, error) {
	var n int64
	err := tx.Model(&model.GeneracionLecturas{}).Where("periodo = ?", periodo).Count(&n).Error
	return n > 0, err
}

func (r *generacionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.GeneracionLecturas, error) {
	var g model.GeneracionLecturas
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", id).Error
	return &g, err
}

func (r *generacionRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.GeneracionLecturas{}, "id = ?", id).Error
}

func (r *generacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.GeneracionLecturas, error) {
	var g model.GeneracionLecturas
	err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error
	return &g, err
}

func (r *generacionRepo) List(ctx context.Context) ([]model.GeneracionLecturas, error) {
	var list []model.GeneracionLecturas
	err := r.db.WithContext(ctx).Order("periodo DESC").Find(&list).Error
	return list, err
}
