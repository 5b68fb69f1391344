package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deuda is the amount owed by a Cliente for one period; (ClienteID, Periodo)
// is unique. LecturaID is the optional reading that produced it. Monto always
// equals the sum of Detalles after a sync. A paid Deuda is immutable.
type Deuda struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_deuda_cliente_periodo"`
	Periodo     time.Time       `gorm:"type:date;not null;uniqueIndex:idx_deuda_cliente_periodo"`
	Descripcion *string         `gorm:"type:varchar(255)"`
	Monto       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Pagada      bool            `gorm:"not null;default:false;index"`
	LecturaID   *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	CreatedAt   time.Time

	Detalles []DeudaDetalle `gorm:"foreignKey:DeudaID"`
	Cliente  *Cliente       `gorm:"foreignKey:ClienteID"`
}

func (Deuda) TableName() string { return "deudas" }

// DeudaDetalle is one concept line of a Deuda (water, sewer, fixed charge, ...).
type DeudaDetalle struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DeudaID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	ConceptoID uuid.UUID       `gorm:"type:uuid;not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Concepto *ConceptoCaja `gorm:"foreignKey:ConceptoID"`
}

func (DeudaDetalle) TableName() string { return "deuda_detalles" }
