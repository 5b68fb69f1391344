package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Factura is a settlement transaction for one Cliente. It covers either a set
// of Deudas or a set of free concepts, never both.
// Estado: "activa" | "anulada"
type Factura struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo         string          `gorm:"type:varchar(7);uniqueIndex;not null"`
	ClienteID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	NombreOpcional *string         `gorm:"type:varchar(200)"`
	NumeroOpcional *string         `gorm:"type:varchar(15)"`
	Fecha          time.Time       `gorm:"type:date;not null"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Referencia     *string         `gorm:"type:varchar(100)"`
	Notas          *string
	Estado         string `gorm:"type:varchar(20);not null;default:'activa'"`
	CreatedAt      time.Time

	Cliente   *Cliente          `gorm:"foreignKey:ClienteID"`
	Deudas    []FacturaDeuda    `gorm:"foreignKey:FacturaID"`
	Conceptos []FacturaConcepto `gorm:"foreignKey:FacturaID"`
	Pagos     []FacturaPago     `gorm:"foreignKey:FacturaID"`
}

func (Factura) TableName() string { return "facturas" }

// FacturaDeuda links a settled Deuda, capturing its amount at settlement time.
type FacturaDeuda struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_factura_deuda"`
	DeudaID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_factura_deuda"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Deuda *Deuda `gorm:"foreignKey:DeudaID"`
}

func (FacturaDeuda) TableName() string { return "factura_deudas" }

type FacturaConcepto struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ConceptoID  uuid.UUID       `gorm:"type:uuid;not null"`
	Descripcion *string         `gorm:"type:varchar(255)"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Concepto *ConceptoCaja `gorm:"foreignKey:ConceptoID"`
}

func (FacturaConcepto) TableName() string { return "factura_conceptos" }

// FacturaPago is one payment line of a Factura.
// Metodo: "efectivo" | "yape" | "plin" | "tarjeta"
type FacturaPago struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	CajaID     *uuid.UUID      `gorm:"type:uuid;index"`
	Metodo     string          `gorm:"type:varchar(10);not null"`
	Total      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Referencia *string         `gorm:"type:varchar(100)"`
	CreatedAt  time.Time
}

func (FacturaPago) TableName() string { return "factura_pagos" }
