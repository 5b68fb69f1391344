package repository

import (
	"context"
	"fmt"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FacturaRepository interface {
	// NextCodigo draws the next 7-digit invoice code from facturas_codigo_seq.
	NextCodigo(ctx context.Context, tx *gorm.DB) (string, error)
	CreateTx(tx *gorm.DB, f *model.Factura) error
	CreateDeudaTx(tx *gorm.DB, fd *model.FacturaDeuda) error
	CreateConceptoTx(tx *gorm.DB, fc *model.FacturaConcepto) error
	CreatePagoTx(tx *gorm.DB, p *model.FacturaPago) error
	// FindByIDTx locks the invoice and loads its debt links.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Factura, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error)
	List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, int64, error)
	// PeriodosPorFactura returns the settled debt periods of each invoice, ascending.
	PeriodosPorFactura(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]time.Time, error)
	DB() *gorm.DB
}

type facturaRepo struct{ db *gorm.DB }

func NewFacturaRepository(db *gorm.DB) FacturaRepository { return &facturaRepo{db: db} }

func (r *facturaRepo) DB() *gorm.DB { return r.db }

func (r *facturaRepo) NextCodigo(ctx context.Context, tx *gorm.DB) (string, error) {
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('facturas_codigo_seq')").Scan(&num).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%07d", num), nil
}

func (r *facturaRepo) CreateTx(tx *gorm.DB, f *model.Factura) error {
	return tx.Omit(clause.Associations).Create(f).Error
}

func (r *facturaRepo) CreateDeudaTx(tx *gorm.DB, fd *model.FacturaDeuda) error {
	return tx.Omit(clause.Associations).Create(fd).Error
}

func (r *facturaRepo) CreateConceptoTx(tx *gorm.DB, fc *model.FacturaConcepto) error {
	return tx.Omit(clause.Associations).Create(fc).Error
}

func (r *facturaRepo) CreatePagoTx(tx *gorm.DB, p *model.FacturaPago) error {
	return tx.Create(p).Error
}

func (r *facturaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&f, "id = ?", id).Error
	if err != nil {
		return &f, err
	}
	err = tx.Where("factura_id = ?", id).Find(&f.Deudas).Error
	return &f, err
}

func (r *facturaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Factura{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *facturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := r.db.WithContext(ctx).
		Preload("Cliente").Preload("Deudas.Deuda").Preload("Conceptos.Concepto").Preload("Pagos").
		First(&f, "id = ?", id).Error
	return &f, err
}

func (r *facturaRepo) List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, int64, error) {
	var facturas []model.Factura
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Factura{})
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Desde != "" {
		q = q.Where("fecha >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("fecha <= ?", filter.Hasta)
	}
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Cliente").Preload("Deudas.Deuda").Preload("Conceptos.Concepto").Preload("Pagos").
		Order("codigo DESC").Offset(offset).Limit(filter.Limit).
		Find(&facturas).Error
	return facturas, total, err
}

func (r *facturaRepo) PeriodosPorFactura(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]time.Time, error) {
	out := make(map[uuid.UUID][]time.Time, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		FacturaID uuid.UUID
		Periodo   time.Time
	}
	err := r.db.WithContext(ctx).Table("factura_deudas fd").
		Select("fd.factura_id, d.periodo").
		Joins("JOIN deudas d ON d.id = fd.deuda_id").
		Where("fd.factura_id IN ?", ids).
		Order("d.periodo ASC").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FacturaID] = append(out[row.FacturaID], row.Periodo)
	}
	return out, nil
}
