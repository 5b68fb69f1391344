package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

type FacturaFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Desde     string `form:"desde"      validate:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta"      validate:"omitempty,datetime=2006-01-02"`
	Estado    string `form:"estado"     validate:"omitempty,oneof=activa anulada all"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type FacturaConceptoRequest struct {
	ConceptoID  string          `json:"concepto_id" validate:"required,uuid"`
	Descripcion *string         `json:"descripcion" validate:"omitempty,max=255"`
	Total       decimal.Decimal `json:"total"       validate:"required,gt=0"`
}

type PagoRequest struct {
	Metodo     string          `json:"metodo"     validate:"required,oneof=efectivo yape plin tarjeta"`
	Total      decimal.Decimal `json:"total"      validate:"required,gt=0"`
	Referencia *string         `json:"referencia" validate:"omitempty,max=100"`
	// CajaID defaults to the operator's open drawer.
	CajaID *string `json:"caja_id" validate:"omitempty,uuid"`
}

// CrearFacturaRequest settles either Deudas or free Conceptos, never both.
// Without ClienteID the invoice is issued to the generic payer.
type CrearFacturaRequest struct {
	ClienteID      *string                  `json:"cliente_id"      validate:"omitempty,uuid"`
	NombreOpcional *string                  `json:"nombre_opcional" validate:"omitempty,max=200"`
	NumeroOpcional *string                  `json:"numero_opcional" validate:"omitempty,max=15"`
	Fecha          *string                  `json:"fecha"           validate:"omitempty,datetime=2006-01-02"`
	Referencia     *string                  `json:"referencia"      validate:"omitempty,max=100"`
	Notas          *string                  `json:"notas"`
	Deudas         []string                 `json:"deudas"          validate:"omitempty,dive,uuid"`
	Conceptos      []FacturaConceptoRequest `json:"conceptos"       validate:"omitempty,dive"`
	Pagos          []PagoRequest            `json:"pagos"           validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type FacturaDeudaResponse struct {
	DeudaID uuid.UUID       `json:"deuda_id"`
	Periodo string          `json:"periodo"`
	Total   decimal.Decimal `json:"total"`
}

type FacturaConceptoResponse struct {
	ConceptoID  uuid.UUID       `json:"concepto_id"`
	Codigo      string          `json:"codigo"`
	Concepto    string          `json:"concepto"`
	Descripcion *string         `json:"descripcion"`
	Total       decimal.Decimal `json:"total"`
}

type FacturaPagoResponse struct {
	ID         uuid.UUID       `json:"id"`
	CajaID     *uuid.UUID      `json:"caja_id"`
	Metodo     string          `json:"metodo"`
	Total      decimal.Decimal `json:"total"`
	Referencia *string         `json:"referencia"`
}

type FacturaResponse struct {
	ID             uuid.UUID                 `json:"id"`
	Codigo         string                    `json:"codigo"`
	ClienteID      uuid.UUID                 `json:"cliente_id"`
	Cliente        string                    `json:"cliente"`
	NombreOpcional *string                   `json:"nombre_opcional"`
	NumeroOpcional *string                   `json:"numero_opcional"`
	Fecha          string                    `json:"fecha"`
	Total          decimal.Decimal           `json:"total"`
	Referencia     *string                   `json:"referencia"`
	Notas          *string                   `json:"notas"`
	Estado         string                    `json:"estado"`
	Deudas         []FacturaDeudaResponse    `json:"deudas"`
	Conceptos      []FacturaConceptoResponse `json:"conceptos"`
	Pagos          []FacturaPagoResponse     `json:"pagos"`
}

type FacturaListResponse struct {
	Data  []FacturaResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
