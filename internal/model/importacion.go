package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ImportacionLote is the audit row of one bulk import batch.
// Tipo: "lecturas" | "deudas"
type ImportacionLote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo       string     `gorm:"type:varchar(20);not null"`
	Perfil     string     `gorm:"type:varchar(20);not null"`
	UsuarioID  *uuid.UUID `gorm:"type:uuid"`
	Filas      int        `gorm:"not null;default:0"`
	Insertados int        `gorm:"not null;default:0"`
	Omitidos   int        `gorm:"not null;default:0"`
	// Errores holds the per-row error list ([]dto.ErrorFilaImportacion).
	Errores   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (ImportacionLote) TableName() string { return "importaciones_lotes" }
