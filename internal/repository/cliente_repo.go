package repository

import (
	"context"

	"aguabill/internal/dto"
	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClienteRepository interface {
	CreateTx(tx *gorm.DB, c *model.Cliente) error
	UpdateTx(tx *gorm.DB, c *model.Cliente) error
	SaveMedidorTx(tx *gorm.DB, m *model.Medidor) error
	DeleteMedidorTx(tx *gorm.DB, clienteID uuid.UUID) error
	// NextCodigo returns the next 5-digit customer code.
	NextCodigo(ctx context.Context, tx *gorm.DB) (string, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindByCodigo(ctx context.Context, codigo string) (*model.Cliente, error)
	FindByCodigoYDocumento(ctx context.Context, codigo, documento string) (*model.Cliente, error)
	FindByCodigos(ctx context.Context, codigos []string) ([]model.Cliente, error)
	ExisteDocumento(ctx context.Context, documento string, excluir uuid.UUID) (bool, error)
	ExisteMedidor(ctx context.Context, codigo string, excluirCliente uuid.UUID) (bool, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error)
	// ListSinMedidor returns active customers without a meter, with their
	// category, leaving out the generic payer.
	ListSinMedidor(ctx context.Context, codigoGenerico string) ([]model.Cliente, error)
	DB() *gorm.DB
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) DB() *gorm.DB { return r.db }

func (r *clienteRepo) CreateTx(tx *gorm.DB, c *model.Cliente) error {
	return tx.Omit(clause.Associations).Create(c).Error
}

func (r *clienteRepo) UpdateTx(tx *gorm.DB, c *model.Cliente) error {
	return tx.Omit(clause.Associations).Save(c).Error
}

func (r *clienteRepo) SaveMedidorTx(tx *gorm.DB, m *model.Medidor) error {
	return tx.Save(m).Error
}

func (r *clienteRepo) DeleteMedidorTx(tx *gorm.DB, clienteID uuid.UUID) error {
	return tx.Where("cliente_id = ?", clienteID).Delete(&model.Medidor{}).Error
}

func (r *clienteRepo) NextCodigo(ctx context.Context, tx *gorm.DB) (string, error) {
	return siguienteCodigo(conn(r.db, tx).WithContext(ctx), "clientes", 5)
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).
		Preload("Categoria").Preload("Medidor").Preload("Calle.Via").Preload("Zona").
		First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Preload("Categoria").Where("codigo = ?", codigo).First(&c).Error
	return &c, err
}

func (r *clienteRepo) FindByCodigoYDocumento(ctx context.Context, codigo, documento string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).
		Where("codigo = ? AND numero_documento = ?", codigo, documento).
		First(&c).Error
	return &c, err
}

func (r *clienteRepo) FindByCodigos(ctx context.Context, codigos []string) ([]model.Cliente, error) {
	var list []model.Cliente
	if len(codigos) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Preload("Categoria").Where("codigo IN ?", codigos).Find(&list).Error
	return list, err
}

func (r *clienteRepo) ExisteDocumento(ctx context.Context, documento string, excluir uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Cliente{}).
		Where("numero_documento = ? AND id <> ?", documento, excluir).
		Count(&n).Error
	return n > 0, err
}

func (r *clienteRepo) ExisteMedidor(ctx context.Context, codigo string, excluirCliente uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Medidor{}).
		Where("codigo = ? AND cliente_id <> ?", codigo, excluirCliente).
		Count(&n).Error
	return n > 0, err
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Cliente{})

	if filter.Buscar != "" {
		like := "%" + filter.Buscar + "%"
		q = q.Where("codigo = ? OR numero_documento = ? OR nombre_completo ILIKE ?", filter.Buscar, filter.Buscar, like)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.CalleID != "" {
		q = q.Where("calle_id = ?", filter.CalleID)
	}
	if filter.ZonaID != "" {
		q = q.Where("zona_id = ?", filter.ZonaID)
	}
	switch filter.Medidor {
	case "si":
		q = q.Where("tiene_medidor = true")
	case "no":
		q = q.Where("tiene_medidor = false")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Categoria").Preload("Medidor").
		Order("codigo ASC").Limit(filter.Limit).Offset(offset).
		Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) ListSinMedidor(ctx context.Context, codigoGenerico string) ([]model.Cliente, error) {
	var list []model.Cliente
	err := r.db.WithContext(ctx).Preload("Categoria").
		Where("tiene_medidor = false AND estado = 'activo' AND codigo <> ?", codigoGenerico).
		Order("codigo ASC").Find(&list).Error
	return list, err
}
