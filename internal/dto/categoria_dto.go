package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CategoriaRequest struct {
	Nombre        string          `json:"nombre"         validate:"required,min=2,max=100"`
	Descripcion   *string         `json:"descripcion"`
	ConsumoMinimo *int            `json:"consumo_minimo" validate:"omitempty,min=0"`
	ConsumoMaximo *int            `json:"consumo_maximo" validate:"omitempty,min=1"`
	TarifaExceso  decimal.Decimal `json:"tarifa_exceso"  validate:"min=0"`
	PrecioAgua    decimal.Decimal `json:"precio_agua"    validate:"min=0"`
	PrecioDesague decimal.Decimal `json:"precio_desague" validate:"min=0"`
	TieneMedidor  bool            `json:"tiene_medidor"`
	Activo        *bool           `json:"activo"`
}

type ConceptoRequest struct {
	Nombre string          `json:"nombre" validate:"required,min=2,max=100"`
	Tipo   string          `json:"tipo"   validate:"required,oneof=ingreso egreso"`
	Total  decimal.Decimal `json:"total"  validate:"min=0"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type CategoriaResponse struct {
	ID            uuid.UUID       `json:"id"`
	Codigo        string          `json:"codigo"`
	Nombre        string          `json:"nombre"`
	Descripcion   *string         `json:"descripcion,omitempty"`
	ConsumoMinimo *int            `json:"consumo_minimo"`
	ConsumoMaximo *int            `json:"consumo_maximo"`
	TarifaExceso  decimal.Decimal `json:"tarifa_exceso"`
	PrecioAgua    decimal.Decimal `json:"precio_agua"`
	PrecioDesague decimal.Decimal `json:"precio_desague"`
	TieneMedidor  bool            `json:"tiene_medidor"`
	Activo        bool            `json:"activo"`
}

type ConceptoResponse struct {
	ID     uuid.UUID       `json:"id"`
	Codigo string          `json:"codigo"`
	Nombre string          `json:"nombre"`
	Tipo   string          `json:"tipo"`
	Total  decimal.Decimal `json:"total"`
}
