package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type ZonaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=100"`
}

type ViaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=50"`
}

type CalleRequest struct {
	ViaID  string `json:"via_id" validate:"required,uuid"`
	Nombre string `json:"nombre" validate:"required,min=1,max=100"`
}

type EmpresaRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2,max=150"`
	RUC       string  `json:"ruc"       validate:"required,len=11,numeric"`
	Direccion *string `json:"direccion"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"     validate:"omitempty,email"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type ZonaResponse struct {
	ID     uuid.UUID `json:"id"`
	Codigo string    `json:"codigo"`
	Nombre string    `json:"nombre"`
}

type ViaResponse struct {
	ID     uuid.UUID `json:"id"`
	Codigo string    `json:"codigo"`
	Nombre string    `json:"nombre"`
}

type CalleResponse struct {
	ID             uuid.UUID `json:"id"`
	Codigo         string    `json:"codigo"`
	ViaID          uuid.UUID `json:"via_id"`
	Via            string    `json:"via"`
	Nombre         string    `json:"nombre"`
	NombreCompleto string    `json:"nombre_completo"` // "Jr. Lima"
}

type EmpresaResponse struct {
	ID        uuid.UUID `json:"id"`
	Nombre    string    `json:"nombre"`
	RUC       string    `json:"ruc"`
	Direccion *string   `json:"direccion"`
	Telefono  *string   `json:"telefono"`
	Email     *string   `json:"email"`
}
