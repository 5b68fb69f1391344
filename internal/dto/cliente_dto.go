package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// ClienteFilter is bound from query string of GET /v1/clientes.
type ClienteFilter struct {
	Buscar  string `form:"q"`       // codigo, documento o nombre
	Estado  string `form:"estado"`  // activo | inactivo | suspendido | "" (todos)
	CalleID string `form:"calle_id" validate:"omitempty,uuid"`
	ZonaID  string `form:"zona_id"  validate:"omitempty,uuid"`
	Medidor string `form:"medidor"` // "si" | "no" | ""
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type MedidorRequest struct {
	Codigo           string `json:"codigo"            validate:"required,max=50"`
	FechaInstalacion string `json:"fecha_instalacion" validate:"required,datetime=2006-01-02"`
}

type ClienteRequest struct {
	TipoDocumento   int             `json:"tipo_documento"   validate:"oneof=0 1 6"` // 0 sin documento, 1 DNI, 6 RUC
	NumeroDocumento *string         `json:"numero_documento" validate:"omitempty,numeric,max=15"`
	NombreCompleto  string          `json:"nombre_completo"  validate:"required,min=2,max=200"`
	CategoriaID     string          `json:"categoria_id"     validate:"required,uuid"`
	TieneMedidor    bool            `json:"tiene_medidor"`
	Medidor         *MedidorRequest `json:"medidor"`
	CalleID         *string         `json:"calle_id"         validate:"omitempty,uuid"`
	ZonaID          *string         `json:"zona_id"          validate:"omitempty,uuid"`
	Manzana         *string         `json:"mz"               validate:"omitempty,max=15"`
	Lote            *string         `json:"lote"             validate:"omitempty,max=15"`
	Nro             *string         `json:"nro"              validate:"omitempty,max=15"`
	Estado          string          `json:"estado"           validate:"omitempty,oneof=activo inactivo suspendido"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MedidorResponse struct {
	ID               uuid.UUID `json:"id"`
	Codigo           string    `json:"codigo"`
	FechaInstalacion string    `json:"fecha_instalacion"`
}

type ClienteResponse struct {
	ID              uuid.UUID        `json:"id"`
	Codigo          string           `json:"codigo"`
	TipoDocumento   int              `json:"tipo_documento"`
	NumeroDocumento *string          `json:"numero_documento"`
	NombreCompleto  string           `json:"nombre_completo"`
	Direccion       *string          `json:"direccion"`
	TieneMedidor    bool             `json:"tiene_medidor"`
	CategoriaID     uuid.UUID        `json:"categoria_id"`
	Categoria       string           `json:"categoria"`
	CalleID         *uuid.UUID       `json:"calle_id"`
	ZonaID          *uuid.UUID       `json:"zona_id"`
	Manzana         *string          `json:"mz"`
	Lote            *string          `json:"lote"`
	Nro             *string          `json:"nro"`
	Estado          string           `json:"estado"`
	Medidor         *MedidorResponse `json:"medidor,omitempty"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ConsultaDeudaResponse is the public view served by GET /v1/consulta/deuda.
type ConsultaDeudaResponse struct {
	Codigo         string             `json:"codigo"`
	NombreCompleto string             `json:"nombre_completo"`
	Direccion      *string            `json:"direccion"`
	Deudas         []DeudaResumenItem `json:"deudas"`
	Total          decimal.Decimal    `json:"total"`
}

// PadronResponse is the result of a DNI/RUC lookup against the document registry.
type PadronResponse struct {
	TipoDocumento   int     `json:"tipo_documento"`
	NumeroDocumento string  `json:"numero_documento"`
	NombreCompleto  string  `json:"nombre_completo"`
	Direccion       *string `json:"direccion,omitempty"`
}
