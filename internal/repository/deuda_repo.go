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

// ResumenImpagaRow aggregates the unpaid debts of one customer.
type ResumenImpagaRow struct {
	ClienteID      uuid.UUID
	Codigo         string
	NombreCompleto string
	Direccion      *string
	Desde          time.Time
	Hasta          time.Time
	Meses          int
	Total          decimal.Decimal
}

type DeudaRepository interface {
	CreateTx(tx *gorm.DB, d *model.Deuda) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Deuda, error)
	FindByClientePeriodoTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (*model.Deuda, error)
	FindByLecturaTx(tx *gorm.DB, lecturaID uuid.UUID) (*model.Deuda, error)
	// UpdateTx persists lectura_id, descripcion and monto.
	UpdateTx(tx *gorm.DB, d *model.Deuda) error
	UpdatePagadaTx(tx *gorm.DB, id uuid.UUID, pagada bool) error
	// DeleteTx removes the debt and its details.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// ReemplazarDetallesTx deletes every detail of the debt and inserts the given ones.
	ReemplazarDetallesTx(tx *gorm.DB, deudaID uuid.UUID, detalles []model.DeudaDetalle) error
	// ListByIDsTx locks the given debts and returns them with their details.
	ListByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Deuda, error)
	// PrimerPeriodoImpagoTx returns the earliest unpaid period of the customer,
	// or nil when everything is paid.
	PrimerPeriodoImpagoTx(tx *gorm.DB, clienteID uuid.UUID) (*time.Time, error)
	ExistePagadaTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (bool, error)
	// InsertIgnorandoTx inserts the batch skipping (cliente_id, periodo)
	// conflicts and returns the ids actually written.
	InsertIgnorandoTx(tx *gorm.DB, deudas []model.Deuda) ([]uuid.UUID, error)
	InsertDetallesTx(tx *gorm.DB, detalles []model.DeudaDetalle) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Deuda, error)
	List(ctx context.Context, filter dto.DeudaFilter) ([]model.Deuda, int64, error)
	// ListByCliente returns the customer's debts in ascending period order.
	ListByCliente(ctx context.Context, clienteID uuid.UUID, soloImpagas bool) ([]model.Deuda, error)
	ResumenImpagas(ctx context.Context, filter dto.ResumenDeudasFilter) ([]ResumenImpagaRow, error)
	DB() *gorm.DB
}

type deudaRepo struct{ db *gorm.DB }

func NewDeudaRepository(db *gorm.DB) DeudaRepository { return &deudaRepo{db: db} }

func (r *deudaRepo) DB() *gorm.DB { return r.db }

func (r *deudaRepo) CreateTx(tx *gorm.DB, d *model.Deuda) error {
	return tx.Omit(clause.Associations).Create(d).Error
}

func (r *deudaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Deuda, error) {
	var d model.Deuda
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", id).Error
	if err != nil {
		return &d, err
	}
	err = tx.Where("deuda_id = ?", id).Find(&d.Detalles).Error
	return &d, err
}

func (r *deudaRepo) FindByClientePeriodoTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (*model.Deuda, error) {
	var d model.Deuda
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cliente_id = ? AND periodo = ?", clienteID, periodo).
		First(&d).Error
	return &d, err
}

func (r *deudaRepo) FindByLecturaTx(tx *gorm.DB, lecturaID uuid.UUID) (*model.Deuda, error) {
	var d model.Deuda
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lectura_id = ?", lecturaID).First(&d).Error
	return &d, err
}

func (r *deudaRepo) UpdateTx(tx *gorm.DB, d *model.Deuda) error {
	return tx.Model(&model.Deuda{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"lectura_id":  d.LecturaID,
		"descripcion": d.Descripcion,
		"monto":       d.Monto,
	}).Error
}

func (r *deudaRepo) UpdatePagadaTx(tx *gorm.DB, id uuid.UUID, pagada bool) error {
	return tx.Model(&model.Deuda{}).Where("id = ?", id).Update("pagada", pagada).Error
}

func (r *deudaRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("deuda_id = ?", id).Delete(&model.DeudaDetalle{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Deuda{}, "id = ?", id).Error
}

func (r *deudaRepo) ReemplazarDetallesTx(tx *gorm.DB, deudaID uuid.UUID, detalles []model.DeudaDetalle) error {
	if err := tx.Where("deuda_id = ?", deudaID).Delete(&model.DeudaDetalle{}).Error; err != nil {
		return err
	}
	if len(detalles) == 0 {
		return nil
	}
	for i := range detalles {
		detalles[i].DeudaID = deudaID
	}
	return tx.Omit(clause.Associations).Create(&detalles).Error
}

func (r *deudaRepo) ListByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.Deuda, error) {
	var list []model.Deuda
	if len(ids) == 0 {
		return list, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("periodo ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	for i := range list {
		if err := tx.Where("deuda_id = ?", list[i].ID).Find(&list[i].Detalles).Error; err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *deudaRepo) PrimerPeriodoImpagoTx(tx *gorm.DB, clienteID uuid.UUID) (*time.Time, error) {
	var d model.Deuda
	err := tx.Where("cliente_id = ? AND pagada = false", clienteID).Order("periodo ASC").First(&d).Error
	if EsNoEncontrado(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d.Periodo, nil
}

func (r *deudaRepo) ExistePagadaTx(tx *gorm.DB, clienteID uuid.UUID, periodo time.Time) (bool, error) {
	var n int64
	err := tx.Model(&model.Deuda{}).
		Where("cliente_id = ? AND periodo = ? AND pagada = true", clienteID, periodo).
		Count(&n).Error
	return n > 0, err
}

func (r *deudaRepo) InsertIgnorandoTx(tx *gorm.DB, deudas []model.Deuda) ([]uuid.UUID, error) {
	if len(deudas) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(deudas))
	for i := range deudas {
		if deudas[i].ID == uuid.Nil {
			deudas[i].ID = uuid.New()
		}
		ids[i] = deudas[i].ID
	}
	err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(deudas, 500).Error
	if err != nil {
		return nil, err
	}
	var insertadas []uuid.UUID
	err = tx.Model(&model.Deuda{}).Where("id IN ?", ids).Pluck("id", &insertadas).Error
	return insertadas, err
}

func (r *deudaRepo) InsertDetallesTx(tx *gorm.DB, detalles []model.DeudaDetalle) error {
	if len(detalles) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).CreateInBatches(detalles, 500).Error
}

func (r *deudaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Deuda, error) {
	var d model.Deuda
	err := r.db.WithContext(ctx).Preload("Detalles.Concepto").First(&d, "id = ?", id).Error
	return &d, err
}

func (r *deudaRepo) List(ctx context.Context, filter dto.DeudaFilter) ([]model.Deuda, int64, error) {
	var deudas []model.Deuda
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Deuda{})
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Anio != 0 {
		q = q.Where("EXTRACT(YEAR FROM periodo) = ?", filter.Anio)
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
	err := q.Preload("Detalles.Concepto").
		Order("periodo DESC").Limit(filter.Limit).Offset(offset).
		Find(&deudas).Error
	return deudas, total, err
}

func (r *deudaRepo) ListByCliente(ctx context.Context, clienteID uuid.UUID, soloImpagas bool) ([]model.Deuda, error) {
	var list []model.Deuda
	q := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID)
	if soloImpagas {
		q = q.Where("pagada = false")
	}
	err := q.Order("periodo ASC").Find(&list).Error
	return list, err
}

func (r *deudaRepo) ResumenImpagas(ctx context.Context, filter dto.ResumenDeudasFilter) ([]ResumenImpagaRow, error) {
	var rows []ResumenImpagaRow
	q := r.db.WithContext(ctx).Table("deudas d").
		Select(`c.id AS cliente_id, c.codigo, c.nombre_completo, c.direccion,
			MIN(d.periodo) AS desde, MAX(d.periodo) AS hasta,
			COUNT(*) AS meses, SUM(d.monto) AS total`).
		Joins("JOIN clientes c ON c.id = d.cliente_id").
		Where("d.pagada = false")
	if filter.CalleID != "" {
		q = q.Where("c.calle_id = ?", filter.CalleID)
	}
	if filter.ZonaID != "" {
		q = q.Where("c.zona_id = ?", filter.ZonaID)
	}
	err := q.Group("c.id, c.codigo, c.nombre_completo, c.direccion").
		Order("c.codigo ASC").Scan(&rows).Error
	return rows, err
}
