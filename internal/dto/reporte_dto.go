package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Unpaid debt summary ────────────────────────────────────────────────────

type ResumenDeudasFilter struct {
	CalleID string `form:"calle_id" validate:"omitempty,uuid"`
	ZonaID  string `form:"zona_id"  validate:"omitempty,uuid"`
}

type ResumenDeudaCliente struct {
	ClienteID      uuid.UUID       `json:"cliente_id"`
	Codigo         string          `json:"codigo"`
	NombreCompleto string          `json:"nombre_completo"`
	Direccion      *string         `json:"direccion"`
	Desde          string          `json:"desde"`
	Hasta          string          `json:"hasta"`
	Meses          int             `json:"meses"`
	Total          decimal.Decimal `json:"total"`
}

type ResumenDeudasResponse struct {
	Data  []ResumenDeudaCliente `json:"data"`
	Total decimal.Decimal       `json:"total"`
}

// ─── Debt history ───────────────────────────────────────────────────────────

type HistorialAnio struct {
	Anio      int             `json:"anio"`
	Total     decimal.Decimal `json:"total"`
	Pagado    decimal.Decimal `json:"pagado"`
	Pendiente decimal.Decimal `json:"pendiente"`
}

type HistorialDeudasResponse struct {
	Cliente   ClienteResponse `json:"cliente"`
	Anios     []HistorialAnio `json:"anios"`
	Total     decimal.Decimal `json:"total"`
	Pagado    decimal.Decimal `json:"pagado"`
	Pendiente decimal.Decimal `json:"pendiente"`
}

// ─── Receipt ────────────────────────────────────────────────────────────────

// DeudaAnteriorAnio groups the unpaid debts of one year prior to the receipt period.
type DeudaAnteriorAnio struct {
	Anio  int             `json:"anio"`
	Rango string          `json:"rango"` // "Enero - Marzo"
	Meses int             `json:"meses"`
	Total decimal.Decimal `json:"total"`
}

type ReciboResponse struct {
	Cliente          ClienteResponse     `json:"cliente"`
	Lectura          *LecturaResponse    `json:"lectura"`
	DeudasAnteriores []DeudaAnteriorAnio `json:"deudas_anteriores"`
	TotalAnterior    decimal.Decimal     `json:"total_anterior"`
	TotalPagar       decimal.Decimal     `json:"total_pagar"`
}
