package model

import (
	"time"

	"github.com/google/uuid"
)

type Zona struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo string    `gorm:"type:varchar(4);not null"`
	Nombre string    `gorm:"type:varchar(100);not null"`
}

func (Zona) TableName() string { return "zonas" }

// Via is a street type ("Jr.", "Av.", ...). Codigo is a 2-digit sequence.
type Via struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo string    `gorm:"type:varchar(2);uniqueIndex;not null"`
	Nombre string    `gorm:"type:varchar(50);not null"`
}

func (Via) TableName() string { return "vias" }

// Calle belongs to a Via. Codigo is a 4-digit sequence.
type Calle struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Codigo string    `gorm:"type:varchar(4);uniqueIndex;not null"`
	ViaID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Nombre string    `gorm:"type:varchar(100);not null"`

	Via *Via `gorm:"foreignKey:ViaID"`
}

func (Calle) TableName() string { return "calles" }

// Empresa is the water board operating this deployment. Single row.
type Empresa struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"not null"`
	RUC       string    `gorm:"type:varchar(11);uniqueIndex;not null;column:ruc"`
	Direccion *string
	Telefono  *string `gorm:"type:varchar(20)"`
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Empresa) TableName() string { return "empresas" }
