package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

type DeudaFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Anio      int    `form:"anio"       validate:"omitempty,min=2000,max=2100"`
	Pagada    string `form:"pagada"` // "true" | "false" | ""
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearDeudaRequest struct {
	ClienteID   string  `json:"cliente_id"  validate:"required,uuid"`
	Periodo     string  `json:"periodo"     validate:"required"` // YYYY-MM
	Descripcion *string `json:"descripcion" validate:"omitempty,max=255"`
}

type DeudaDetalleRequest struct {
	ConceptoID string          `json:"concepto_id" validate:"required,uuid"`
	Monto      decimal.Decimal `json:"monto"       validate:"min=0"`
}

type ActualizarDeudaRequest struct {
	Descripcion *string               `json:"descripcion" validate:"omitempty,max=255"`
	Detalles    []DeudaDetalleRequest `json:"detalles"    validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DeudaDetalleResponse struct {
	ID         uuid.UUID       `json:"id"`
	ConceptoID uuid.UUID       `json:"concepto_id"`
	Codigo     string          `json:"codigo"`
	Concepto   string          `json:"concepto"`
	Monto      decimal.Decimal `json:"monto"`
}

type DeudaResponse struct {
	ID          uuid.UUID              `json:"id"`
	ClienteID   uuid.UUID              `json:"cliente_id"`
	Periodo     string                 `json:"periodo"`
	Descripcion *string                `json:"descripcion"`
	Monto       decimal.Decimal        `json:"monto"`
	Pagada      bool                   `json:"pagada"`
	LecturaID   *uuid.UUID             `json:"lectura_id"`
	Detalles    []DeudaDetalleResponse `json:"detalles"`
}

type DeudaListResponse struct {
	Data  []DeudaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// DeudaResumenItem is a compact unpaid-debt line used by public lookups and receipts.
type DeudaResumenItem struct {
	ID       uuid.UUID       `json:"id"`
	Periodo  string          `json:"periodo"`
	Etiqueta string          `json:"etiqueta"` // "Septiembre 2025"
	Monto    decimal.Decimal `json:"monto"`
}
