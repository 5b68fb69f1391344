package repository

import (
	"context"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LecturaRepository is the storage contract of the billing engine.
// Methods ending in Tx must be called with the open transaction; the ones
// that lock use SELECT ... FOR UPDATE.
type LecturaRepository interface {
	CreateTx(tx *gorm.DB, l *model.Lectura) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Lectura, error)
	ExisteTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (bool, error)
	// FindAnteriorTx returns the latest reading strictly before periodo.
	FindAnteriorTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (*model.Lectura, error)
	// FindSiguienteTx returns the earliest reading strictly after periodo.
	FindSiguienteTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (*model.Lectura, error)
	// ListPosterioresTx locks and returns later readings in ascending order.
	ListPosterioresTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) ([]model.Lectura, error)
	ExistePosteriorPagadaTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (bool, error)
	// UpdateCalculoTx persists the reading value and the computed fields only.
	UpdateCalculoTx(tx *gorm.DB, l *model.Lectura) error
	UpdateFechasTx(tx *gorm.DB, l *model.Lectura) error
	UpdatePagadaTx(tx *gorm.DB, id uuid.UUID, pagada bool) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// InsertIgnorandoTx inserts the batch skipping rows that hit the
	// (cliente_id, periodo) unique index and returns the ids actually written.
	InsertIgnorandoTx(tx *gorm.DB, lecturas []model.Lectura) ([]uuid.UUID, error)
	// ListGeneradasTx locks the unpaid readings of customers without a meter.
	ListGeneradasTx(tx *gorm.DB, periodo time.Time) ([]model.Lectura, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.Lectura, error)
	FindUltima(ctx context.Context, clienteID uuid.UUID) (*model.Lectura, error)
	ListByPeriodo(ctx context.Context, periodo time.Time, soloSinMedidor bool) ([]model.Lectura, error)
	List(ctx context.Context, filter dto.LecturaFilter) ([]model.Lectura, int64, error)
	DB() *gorm.DB
}

type lecturaRepo struct{ db *gorm.DB }

func NewLecturaRepository(db *gorm.DB) LecturaRepository { return &lecturaRepo{db: db} }

func (r *lecturaRepo) DB() *gorm.DB { return r.db }

func (r *lecturaRepo) CreateTx(tx *gorm.DB, l *model.Lectura) error {
	return tx.Omit(clause.Associations).Create(l).Error
}

func (r *lecturaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Lectura, error) {
	var l model.Lectura
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *lecturaRepo) ExisteTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (bool, error) {
	var n int64
	err := tx.Model(&model.Lectura{}).
		Where("cliente_id = ? AND periodo = ?", clienteID, periodo).
		Count(&n).Error
	return n > 0, err
}

func (r *lecturaRepo) FindAnteriorTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (*model.Lectura, error) {
	var l model.Lectura
	err := tx.Where("cliente_id = ? AND periodo < ?", clienteID, periodo).
		Order("periodo DESC").First(&l).Error
	return &l, err
}

func (r *lecturaRepo) FindSiguienteTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (*model.Lectura, error) {
	var l model.Lectura
	err := tx.Where("cliente_id = ? AND periodo > ?", clienteID, periodo).
		Order("periodo ASC").First(&l).Error
	return &l, err
}

func (r *lecturaRepo) ListPosterioresTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) ([]model.Lectura, error) {
	var list []model.Lectura
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cliente_id = ? AND periodo > ?", clienteID, periodo).
		Order("periodo ASC").Find(&list).Error
	return list, err
}

func (r *lecturaRepo) ExistePosteriorPagadaTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (bool, error) {
	var n int64
	err := tx.Model(&model.Lectura{}).
		Where("cliente_id = ? AND periodo > ? AND pagada = true", clienteID, periodo).
		Count(&n).Error
	return n > 0, err
}

func (r *lecturaRepo) UpdateCalculoTx(tx *gorm.DB, l *model.Lectura) error {
	return tx.Model(&model.Lectura{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"lectura_actual":   l.LecturaActual,
		"lectura_anterior": l.LecturaAnterior,
		"consumo":          l.Consumo,
		"total_agua":       l.TotalAgua,
		"total_desague":    l.TotalDesague,
		"total_cargo_fijo": l.TotalCargoFijo,
		"total":            l.Total,
		"tiene_medidor":    l.TieneMedidor,
	}).Error
}

func (r *lecturaRepo) UpdateFechasTx(tx *gorm.DB, l *model.Lectura) error {
	return tx.Model(&model.Lectura{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"fecha_emision":     l.FechaEmision,
		"fecha_vencimiento": l.FechaVencimiento,
		"fecha_corte":       l.FechaCorte,
	}).Error
}

func (r *lecturaRepo) UpdatePagadaTx(tx *gorm.DB, id uuid.UUID, pagada bool) error {
	return tx.Model(&model.Lectura{}).Where("id = ?", id).Update("pagada", pagada).Error
}

func (r *lecturaRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Lectura{}, "id = ?", id).Error
}

func (r *lecturaRepo) InsertIgnorandoTx(tx *gorm.DB, lecturas []model.Lectura) ([]uuid.UUID, error) {
	if len(lecturas) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(lecturas))
	for i := range lecturas {
		if lecturas[i].ID == uuid.Nil {
			lecturas[i].ID = uuid.New()
		}
		ids[i] = lecturas[i].ID
	}
	err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(lecturas, 500).Error
	if err != nil {
		return nil, err
	}
	var insertadas []uuid.UUID
	err = tx.Model(&model.Lectura{}).Where("id IN ?", ids).Pluck("id", &insertadas).Error
	return insertadas, err
}

func (r *lecturaRepo) ListGeneradasTx(tx *gorm.DB, periodo time.Time) ([]model.Lectura, error) {
	var list []model.Lectura
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("periodo = ? AND pagada = false AND tiene_medidor = false", periodo).
		Find(&list).Error
	return list, err
}

func (r *lecturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Lectura, error) {
	var l model.Lectura
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *lecturaRepo) FindUltima(ctx context.Context, clienteID uuid.UUID) (*model.Lectura, error) {
	var l model.Lectura
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Order("periodo DESC").First(&l).Error
	return &l, err
}

func (r *lecturaRepo) ListByPeriodo(ctx context.Context, periodo time.Time, soloSinMedidor bool) ([]model.Lectura, error) {
	var list []model.Lectura
	q := r.db.WithContext(ctx).Preload("Cliente").Where("periodo = ?", periodo)
	if soloSinMedidor {
		q = q.Where("tiene_medidor = false")
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *lecturaRepo) List(ctx context.Context, filter dto.LecturaFilter) ([]model.Lectura, int64, error) {
	var lecturas []model.Lectura
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Lectura{})
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Periodo != "" {
		q = q.Where("to_char(periodo, 'YYYY-MM') = ?", filter.Periodo)
	}
	switch filter.Pagada {
	case "true":
		q = q.Where("pagada = true")
	case "false":
		q = q.Where("pagada = false")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("periodo DESC").Limit(filter.Limit).Offset(offset).Find(&lecturas).Error
	return lecturas, total, err
}
