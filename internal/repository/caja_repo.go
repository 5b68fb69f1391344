package repository

import (
	"context"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovimientoReporteRow is one cash movement joined with its invoice, for the
// drawer cash report. Movements of cancelled invoices are never returned.
type MovimientoReporteRow struct {
	FacturaID      uuid.UUID
	FacturaCodigo  string
	FacturaFecha   time.Time
	Cliente        string
	ConceptoCodigo string
	ConceptoNombre string
	Metodo         string
	Total          decimal.Decimal
}

type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	FindAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Caja, error)
	ListAbiertas(ctx context.Context) ([]model.Caja, error)
	List(ctx context.Context, filter dto.CajaFilter) ([]model.Caja, int64, error)
	Update(ctx context.Context, c *model.Caja) error

	// Movements are created, never updated.
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	CreateEgreso(ctx context.Context, e *model.EgresoCaja) error
	ListEgresos(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) ([]model.EgresoCaja, error)

	// SumIngresos adds the income movements in [desde, hasta), leaving out
	// movements whose invoice was cancelled.
	SumIngresos(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error)
	SumEgresos(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error)
	ListMovimientosReporte(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) ([]MovimientoReporteRow, error)

	FindReporte(ctx context.Context, cajaID uuid.UUID, fecha time.Time) (*model.ReporteCajaDiario, error)
	FindUltimoReporte(ctx context.Context, cajaID uuid.UUID) (*model.ReporteCajaDiario, error)
	// UpsertReporte writes the snapshot keyed by (caja_id, fecha) without
	// touching the confirmado flag of an existing row.
	UpsertReporte(ctx context.Context, r *model.ReporteCajaDiario) error
	MarcarConfirmado(ctx context.Context, id uuid.UUID) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) FindAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).
		Where("usuario_id = ? AND estado = 'abierta'", usuarioID).
		Order("fecha_apertura DESC").First(&c).Error
	return &c, err
}

func (r *cajaRepo) ListAbiertas(ctx context.Context) ([]model.Caja, error) {
	var list []model.Caja
	err := r.db.WithContext(ctx).Where("estado = 'abierta'").Find(&list).Error
	return list, err
}

func (r *cajaRepo) List(ctx context.Context, filter dto.CajaFilter) ([]model.Caja, int64, error) {
	var list []model.Caja
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Caja{})
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("fecha_apertura DESC").Offset(offset).Limit(filter.Limit).Find(&list).Error
	return list, total, err
}

func (r *cajaRepo) Update(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Omit(clause.Associations).Create(m).Error
}

func (r *cajaRepo) CreateEgreso(ctx context.Context, e *model.EgresoCaja) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *cajaRepo) ListEgresos(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) ([]model.EgresoCaja, error) {
	var list []model.EgresoCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ? AND created_at >= ? AND created_at < ?", cajaID, desde, hasta).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *cajaRepo) SumIngresos(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(m.total), 0) AS total
		FROM movimientos_caja m
		JOIN conceptos_caja c ON c.id = m.concepto_id
		LEFT JOIN factura_pagos p ON p.id = m.factura_pago_id
		LEFT JOIN facturas f ON f.id = p.factura_id
		WHERE m.caja_id = ? AND m.created_at >= ? AND m.created_at < ?
		  AND c.tipo = 'ingreso'
		  AND (f.id IS NULL OR f.estado <> 'anulada')`,
		cajaID, desde, hasta).Scan(&out).Error
	return out.Total, err
}

func (r *cajaRepo) SumEgresos(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&model.EgresoCaja{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("caja_id = ? AND created_at >= ? AND created_at < ?", cajaID, desde, hasta).
		Scan(&out).Error
	return out.Total, err
}

func (r *cajaRepo) ListMovimientosReporte(ctx context.Context, cajaID uuid.UUID, desde, hasta time.Time) ([]MovimientoReporteRow, error) {
	var rows []MovimientoReporteRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT f.id AS factura_id, f.codigo AS factura_codigo, f.fecha AS factura_fecha,
		       COALESCE(f.nombre_opcional, cl.nombre_completo) AS cliente,
		       c.codigo AS concepto_codigo, c.nombre AS concepto_nombre,
		       m.metodo, m.total
		FROM movimientos_caja m
		JOIN conceptos_caja c ON c.id = m.concepto_id
		JOIN factura_pagos p ON p.id = m.factura_pago_id
		JOIN facturas f ON f.id = p.factura_id
		JOIN clientes cl ON cl.id = f.cliente_id
		WHERE m.caja_id = ? AND m.created_at >= ? AND m.created_at < ?
		  AND f.estado <> 'anulada'
		ORDER BY f.codigo ASC, c.codigo ASC`,
		cajaID, desde, hasta).Scan(&rows).Error
	return rows, err
}

func (r *cajaRepo) FindReporte(ctx context.Context, cajaID uuid.UUID, fecha time.Time) (*model.ReporteCajaDiario, error) {
	var rep model.ReporteCajaDiario
	err := r.db.WithContext(ctx).Where("caja_id = ? AND fecha = ?", cajaID, fecha).First(&rep).Error
	return &rep, err
}

func (r *cajaRepo) FindUltimoReporte(ctx context.Context, cajaID uuid.UUID) (*model.ReporteCajaDiario, error) {
	var rep model.ReporteCajaDiario
	err := r.db.WithContext(ctx).Where("caja_id = ?", cajaID).Order("fecha DESC").First(&rep).Error
	return &rep, err
}

func (r *cajaRepo) UpsertReporte(ctx context.Context, rep *model.ReporteCajaDiario) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "caja_id"}, {Name: "fecha"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"saldo_inicial", "total_ingresos", "total_egresos", "saldo_cierre", "updated_at",
		}),
	}).Create(rep).Error
	if err != nil {
		return err
	}
	// On conflict the row keeps its original id and confirmado flag.
	var guardado model.ReporteCajaDiario
	err = r.db.WithContext(ctx).
		Where("caja_id = ? AND fecha = ?", rep.CajaID, rep.Fecha).
		First(&guardado).Error
	if err != nil {
		return err
	}
	*rep = guardado
	return nil
}

func (r *cajaRepo) MarcarConfirmado(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ReporteCajaDiario{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"confirmado": true, "updated_at": time.Now()}).Error
}
