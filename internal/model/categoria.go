package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categoria is a tariff plan. Prices are per m³ when TieneMedidor is true and
// a flat monthly amount otherwise. ConsumoMaximo, when set, switches metered
// pricing to the excess scheme (m³ above the threshold billed at TarifaExceso).
type Categoria struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo        string          `gorm:"type:varchar(2);uniqueIndex;not null"`
	Nombre        string          `gorm:"not null"`
	Descripcion   *string
	ConsumoMinimo *int
	ConsumoMaximo *int
	TarifaExceso  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PrecioAgua    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioDesague decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TieneMedidor  bool            `gorm:"not null"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides GORM's default singular → plural logic for Spanish names.
func (Categoria) TableName() string { return "categorias" }

// ConceptoCaja is a billing/income/outflow category. Codes "001", "002" and
// "003" are bound to water, sewer and fixed charge by the billing engine.
// Tipo: "ingreso" | "egreso"
type ConceptoCaja struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo    string          `gorm:"type:varchar(3);uniqueIndex;not null"`
	Nombre    string          `gorm:"type:varchar(150);not null"`
	Tipo      string          `gorm:"type:varchar(15);not null;default:'ingreso'"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ConceptoCaja) TableName() string { return "conceptos_caja" }
