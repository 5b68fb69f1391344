package dto

import "github.com/shopspring/decimal"

// FilaLectura is one pre-parsed spreadsheet row of a readings import.
// A row with Pago > 0 is imported as paid; the water charge is Pago when
// present, otherwise Deuda.
type FilaLectura struct {
	Codigo        string           `json:"codigo"         validate:"required"`
	Periodo       string           `json:"periodo"        validate:"required"` // YYYY-MM
	LecturaActual decimal.Decimal  `json:"lectura_actual" validate:"min=0"`
	Consumo       decimal.Decimal  `json:"consumo"        validate:"min=0"`
	Deuda         decimal.Decimal  `json:"deuda"          validate:"min=0"`
	Pago          decimal.Decimal  `json:"pago"           validate:"min=0"`
	Desague       *decimal.Decimal `json:"desague"`
}

type ImportarLecturasRequest struct {
	Filas []FilaLectura `json:"filas" validate:"required,min=1,dive"`
}

// FilaDeudaRango is one row of a debt import covering a month range of a year.
type FilaDeudaRango struct {
	Codigo string          `json:"codigo" validate:"required"`
	Anio   int             `json:"anio"   validate:"required,min=1990,max=2100"`
	Meses  string          `json:"meses"` // "DE ENERO A DICIEMBRE"
	Total  decimal.Decimal `json:"total"  validate:"gt=0"`
}

type ImportarDeudasRequest struct {
	Filas []FilaDeudaRango `json:"filas" validate:"required,min=1,dive"`
}

type ErrorFilaImportacion struct {
	Fila    int    `json:"fila"`
	Codigo  string `json:"codigo,omitempty"`
	Mensaje string `json:"mensaje"`
}

type ImportacionResponse struct {
	LoteID     string                 `json:"lote_id"`
	Tipo       string                 `json:"tipo"`
	Perfil     string                 `json:"perfil"`
	Filas      int                    `json:"filas"`
	Insertados int                    `json:"insertados"`
	Omitidos   int                    `json:"omitidos"`
	Errores    []ErrorFilaImportacion `json:"errores"`
}
