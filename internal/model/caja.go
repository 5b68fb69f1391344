package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caja is a cash drawer. SaldoInicial is the base opening balance used when
// no previous daily report exists.
// Estado: "abierta" | "cerrada"
type Caja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	FechaApertura time.Time       `gorm:"not null"`
	FechaCierre   *time.Time
	SaldoInicial  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	SaldoCierre   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Estado        string          `gorm:"type:varchar(10);not null;default:'abierta'"`
}

func (Caja) TableName() string { return "cajas" }

// MovimientoCaja is an income posting produced by an invoice payment.
// Movements are never modified or deleted; movements of cancelled invoices
// are filtered out when aggregating.
type MovimientoCaja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ConceptoID    uuid.UUID       `gorm:"type:uuid;not null"`
	Metodo        string          `gorm:"type:varchar(10);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Referencia    *string         `gorm:"type:varchar(100)"`
	FacturaPagoID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt     time.Time       `gorm:"index"`

	Concepto    *ConceptoCaja `gorm:"foreignKey:ConceptoID"`
	FacturaPago *FacturaPago  `gorm:"foreignKey:FacturaPagoID"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

// EgresoCaja is a manual outflow (bank deposit, petty cash, ...).
type EgresoCaja struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Metodo     string          `gorm:"type:varchar(10);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Referencia *string         `gorm:"type:varchar(100)"`
	Notas      *string
	CreatedAt  time.Time `gorm:"index"`
}

func (EgresoCaja) TableName() string { return "egresos_caja" }

// ReporteCajaDiario is the recomputable daily snapshot of a drawer,
// unique per (CajaID, Fecha).
type ReporteCajaDiario struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_reporte_caja_fecha"`
	Fecha         time.Time       `gorm:"type:date;not null;uniqueIndex:idx_reporte_caja_fecha"`
	SaldoInicial  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalIngresos decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalEgresos  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	SaldoCierre   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Confirmado    bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ReporteCajaDiario) TableName() string { return "reportes_caja_diarios" }
