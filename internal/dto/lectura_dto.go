package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

type LecturaFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Periodo   string `form:"periodo"` // YYYY-MM
	Pagada    string `form:"pagada"`  // "true" | "false" | ""
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type FechasLectura struct {
	FechaEmision     *string `json:"fecha_emision"     validate:"omitempty,datetime=2006-01-02"`
	FechaVencimiento *string `json:"fecha_vencimiento" validate:"omitempty,datetime=2006-01-02"`
	FechaCorte       *string `json:"fecha_corte"       validate:"omitempty,datetime=2006-01-02"`
}

type RegistrarLecturaRequest struct {
	ClienteID     string          `json:"cliente_id"     validate:"required,uuid"`
	Periodo       string          `json:"periodo"        validate:"required"` // YYYY-MM
	LecturaActual decimal.Decimal `json:"lectura_actual" validate:"min=0"`
	FechasLectura
}

type ActualizarLecturaRequest struct {
	LecturaActual decimal.Decimal `json:"lectura_actual" validate:"min=0"`
	FechasLectura
}

type GenerarLecturasRequest struct {
	Periodo string  `json:"periodo" validate:"required"` // YYYY-MM
	Notas   *string `json:"notas"   validate:"omitempty,max=500"`
	FechasLectura
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LecturaResponse struct {
	ID               uuid.UUID       `json:"id"`
	ClienteID        uuid.UUID       `json:"cliente_id"`
	Periodo          string          `json:"periodo"`
	FechaEmision     *string         `json:"fecha_emision"`
	FechaVencimiento *string         `json:"fecha_vencimiento"`
	FechaCorte       *string         `json:"fecha_corte"`
	LecturaAnterior  decimal.Decimal `json:"lectura_anterior"`
	LecturaActual    decimal.Decimal `json:"lectura_actual"`
	Consumo          decimal.Decimal `json:"consumo"`
	TotalAgua        decimal.Decimal `json:"total_agua"`
	TotalDesague     decimal.Decimal `json:"total_desague"`
	TotalCargoFijo   decimal.Decimal `json:"total_cargo_fijo"`
	Total            decimal.Decimal `json:"total"`
	Pagada           bool            `json:"pagada"`
	TieneMedidor     bool            `json:"tiene_medidor"`
	// Recalculadas is the number of later readings recomputed by the cascade.
	Recalculadas int `json:"recalculadas"`
}

type LecturaListResponse struct {
	Data  []LecturaResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type GeneracionResponse struct {
	ID               uuid.UUID `json:"id"`
	Periodo          string    `json:"periodo"`
	FechaEmision     *string   `json:"fecha_emision"`
	FechaVencimiento *string   `json:"fecha_vencimiento"`
	FechaCorte       *string   `json:"fecha_corte"`
	TotalGenerado    int       `json:"total_generado"`
	Omitidos         int       `json:"omitidos"`
	Notas            *string   `json:"notas"`
	CreatedAt        string    `json:"created_at"`
}
