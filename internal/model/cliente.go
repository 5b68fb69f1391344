package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a service connection holder.
// Estado: "activo" | "inactivo" | "suspendido"
type Cliente struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo          string     `gorm:"type:varchar(5);uniqueIndex;not null"`
	TipoDocumento   int        `gorm:"not null"`
	NumeroDocumento *string    `gorm:"type:varchar(15);index"`
	NombreCompleto  string     `gorm:"type:varchar(200);not null"`
	Direccion       *string    `gorm:"type:varchar(255)"`
	TieneMedidor    bool       `gorm:"not null"`
	CategoriaID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CalleID         *uuid.UUID `gorm:"type:uuid;index"`
	ZonaID          *uuid.UUID `gorm:"type:uuid;index"`
	Manzana         *string    `gorm:"type:varchar(15)"`
	Lote            *string    `gorm:"type:varchar(15)"`
	Nro             *string    `gorm:"type:varchar(15)"`
	Estado          string     `gorm:"type:varchar(15);not null;default:'activo'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
	Medidor   *Medidor   `gorm:"foreignKey:ClienteID"`
	Calle     *Calle     `gorm:"foreignKey:CalleID"`
	Zona      *Zona      `gorm:"foreignKey:ZonaID"`
}

func (Cliente) TableName() string { return "clientes" }

// Medidor is the water meter installed for a metered Cliente (1:1).
type Medidor struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Codigo           string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	FechaInstalacion time.Time `gorm:"type:date;not null"`
	CreatedAt        time.Time
}

func (Medidor) TableName() string { return "medidores" }
