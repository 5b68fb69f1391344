package repository

import (
	"context"

	"aguabill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConceptoRepository manages cash concepts. Codes "001", "002" and "003" are
// reserved by the billing engine.
type ConceptoRepository interface {
	Crear(ctx context.Context, c *model.ConceptoCaja) error
	Listar(ctx context.Context, tipo string) ([]model.ConceptoCaja, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ConceptoCaja, error)
	ObtenerPorCodigo(ctx context.Context, codigo string) (*model.ConceptoCaja, error)
	ObtenerPorCodigos(ctx context.Context, codigos []string) ([]model.ConceptoCaja, error)
	ObtenerPorIDs(ctx context.Context, ids []uuid.UUID) ([]model.ConceptoCaja, error)
	Actualizar(ctx context.Context, c *model.ConceptoCaja) error
	Eliminar(ctx context.Context, id uuid.UUID) error
	// EnUso reports whether any debt detail, invoice line or cash movement
	// references the concept.
	EnUso(ctx context.Context, id uuid.UUID) (bool, error)
	SiguienteCodigo(ctx context.Context) (string, error)
}

type conceptoRepository struct{ db *gorm.DB }

func NewConceptoRepository(db *gorm.DB) ConceptoRepository {
	return &conceptoRepository{db: db}
}

func (r *conceptoRepository) Crear(ctx context.Context, c *model.ConceptoCaja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *conceptoRepository) Listar(ctx context.Context, tipo string) ([]model.ConceptoCaja, error) {
	var list []model.ConceptoCaja
	q := r.db.WithContext(ctx)
	if tipo != "" {
		q = q.Where("tipo = ?", tipo)
	}
	err := q.Order("codigo asc").Find(&list).Error
	return list, err
}

func (r *conceptoRepository) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ConceptoCaja, error) {
	var c model.ConceptoCaja
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conceptoRepository) ObtenerPorCodigo(ctx context.Context, codigo string) (*model.ConceptoCaja, error) {
	var c model.ConceptoCaja
	if err := r.db.WithContext(ctx).Where("codigo = ?", codigo).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conceptoRepository) ObtenerPorCodigos(ctx context.Context, codigos []string) ([]model.ConceptoCaja, error) {
	var list []model.ConceptoCaja
	err := r.db.WithContext(ctx).Where("codigo IN ?", codigos).Order("codigo asc").Find(&list).Error
	return list, err
}

func (r *conceptoRepository) ObtenerPorIDs(ctx context.Context, ids []uuid.UUID) ([]model.ConceptoCaja, error) {
	var list []model.ConceptoCaja
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *conceptoRepository) Actualizar(ctx context.Context, c *model.ConceptoCaja) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *conceptoRepository) Eliminar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ConceptoCaja{}, "id = ?", id).Error
}

func (r *conceptoRepository) EnUso(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT (SELECT COUNT(*) FROM deuda_detalles WHERE concepto_id = @id)
		     + (SELECT COUNT(*) FROM factura_conceptos WHERE concepto_id = @id)
		     + (SELECT COUNT(*) FROM movimientos_caja WHERE concepto_id = @id)`,
		map[string]interface{}{"id": id}).Scan(&n).Error
	return n > 0, err
}

func (r *conceptoRepository) SiguienteCodigo(ctx context.Context) (string, error) {
	return siguienteCodigo(r.db.WithContext(ctx), "conceptos_caja", 3)
}
