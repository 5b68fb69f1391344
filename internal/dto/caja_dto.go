package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

type CajaFilter struct {
	Estado string `form:"estado"            validate:"omitempty,oneof=abierta cerrada"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

type EgresoRequest struct {
	Metodo     string          `json:"metodo"     validate:"required,oneof=efectivo yape plin tarjeta"`
	Total      decimal.Decimal `json:"total"      validate:"required,gt=0"`
	Referencia *string         `json:"referencia" validate:"omitempty,max=100"`
	Notas      *string         `json:"notas"`
}

type ReporteDiarioRequest struct {
	Fecha string `json:"fecha" validate:"required,datetime=2006-01-02"`
}

// ReporteCajaFilter is bound from the query string of GET /v1/cajas/:id/reporte.
type ReporteCajaFilter struct {
	Desde string `form:"desde" validate:"required,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"required,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID            uuid.UUID       `json:"id"`
	UsuarioID     uuid.UUID       `json:"usuario_id"`
	FechaApertura string          `json:"fecha_apertura"`
	FechaCierre   *string         `json:"fecha_cierre"`
	SaldoInicial  decimal.Decimal `json:"saldo_inicial"`
	SaldoCierre   decimal.Decimal `json:"saldo_cierre"`
	Estado        string          `json:"estado"`
}

type CajaListResponse struct {
	Data  []CajaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type EgresoResponse struct {
	ID         uuid.UUID       `json:"id"`
	CajaID     uuid.UUID       `json:"caja_id"`
	Metodo     string          `json:"metodo"`
	Total      decimal.Decimal `json:"total"`
	Referencia *string         `json:"referencia"`
	Notas      *string         `json:"notas"`
	CreatedAt  string          `json:"created_at"`
}

type ReporteDiarioResponse struct {
	ID            uuid.UUID       `json:"id"`
	CajaID        uuid.UUID       `json:"caja_id"`
	Fecha         string          `json:"fecha"`
	SaldoInicial  decimal.Decimal `json:"saldo_inicial"`
	TotalIngresos decimal.Decimal `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal `json:"total_egresos"`
	SaldoCierre   decimal.Decimal `json:"saldo_cierre"`
	Confirmado    bool            `json:"confirmado"`
}

// LineaReporteConcepto is one concept row of the cash report for one invoice.
type LineaReporteConcepto struct {
	FacturaCodigo string          `json:"factura_codigo"`
	Fecha         string          `json:"fecha"`
	Cliente       string          `json:"cliente"`
	Codigo        string          `json:"codigo"`
	Concepto      string          `json:"concepto"`
	Periodos      string          `json:"periodos,omitempty"` // "Enero 2025 - Marzo 2025"; only water, sewer and fixed charge
	Total         decimal.Decimal `json:"total"`
}

type TotalPorConcepto struct {
	Codigo   string          `json:"codigo"`
	Concepto string          `json:"concepto"`
	Total    decimal.Decimal `json:"total"`
}

type TotalPorMetodo struct {
	Metodo string          `json:"metodo"`
	Total  decimal.Decimal `json:"total"`
}

type ReporteCajaResponse struct {
	CajaID       uuid.UUID              `json:"caja_id"`
	Titulo       string                 `json:"titulo"`
	Desde        string                 `json:"desde"`
	Hasta        string                 `json:"hasta"`
	Lineas       []LineaReporteConcepto `json:"lineas"`
	PorConcepto  []TotalPorConcepto     `json:"por_concepto"`
	PorMetodo    []TotalPorMetodo       `json:"por_metodo"`
	TotalEgresos decimal.Decimal        `json:"total_egresos"`
	Total        decimal.Decimal        `json:"total"`
}
