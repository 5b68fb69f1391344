package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lectura is the measurement for one Cliente in one billing period.
// Periodo is always the first day of the month; (ClienteID, Periodo) is unique.
// The computed fields are written only by the billing engine.
type Lectura struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_lectura_cliente_periodo"`
	Periodo          time.Time       `gorm:"type:date;not null;uniqueIndex:idx_lectura_cliente_periodo"`
	FechaEmision     *time.Time      `gorm:"type:date"`
	FechaVencimiento *time.Time      `gorm:"type:date"`
	FechaCorte       *time.Time      `gorm:"type:date"`
	LecturaActual    decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	LecturaAnterior  decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	Consumo          decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	TotalAgua        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalDesague     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalCargoFijo   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Pagada           bool            `gorm:"not null;default:false;index"`
	TieneMedidor     bool            `gorm:"not null;default:false"`
	CreatedAt        time.Time

	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
}

func (Lectura) TableName() string { return "lecturas" }

// GeneracionLecturas records the batch generation of flat-rate readings for
// customers without a meter. Only one per period.
type GeneracionLecturas struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Periodo          time.Time  `gorm:"type:date;uniqueIndex;not null"`
	FechaEmision     *time.Time `gorm:"type:date"`
	FechaVencimiento *time.Time `gorm:"type:date"`
	FechaCorte       *time.Time `gorm:"type:date"`
	UsuarioID        *uuid.UUID `gorm:"type:uuid"`
	TotalGenerado    int        `gorm:"not null;default:0"`
	Notas            *string
	CreatedAt        time.Time
}

func (GeneracionLecturas) TableName() string { return "generaciones_lecturas" }
