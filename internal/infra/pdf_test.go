package infra

import (
	"os"
	"path/filepath"
	"testing"

	"aguabill/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func empresaDePrueba() *dto.EmpresaResponse {
	dir := "Av. Principal 100"
	return &dto.EmpresaResponse{ID: uuid.New(), Nombre: "JASS San Pedro", RUC: "20123456789", Direccion: &dir}
}

func facturaConLineas() *dto.FacturaResponse {
	return &dto.FacturaResponse{
		ID:      uuid.New(),
		Codigo:  "0000042",
		Cliente: "Rosa Quispe Mamani",
		Fecha:   "2025-03-31",
		Total:   decimal.RequireFromString("45.50"),
		Estado:  "activa",
		Deudas: []dto.FacturaDeudaResponse{
			{DeudaID: uuid.New(), Periodo: "2025-01", Total: decimal.RequireFromString("15.00")},
			{DeudaID: uuid.New(), Periodo: "2025-02", Total: decimal.RequireFromString("15.50")},
		},
		Conceptos: []dto.FacturaConceptoResponse{
			{ConceptoID: uuid.New(), Codigo: "004", Concepto: "Reconexión", Total: decimal.RequireFromString("15.00")},
		},
		Pagos: []dto.FacturaPagoResponse{
			{ID: uuid.New(), Metodo: "efectivo", Total: decimal.RequireFromString("45.50")},
		},
	}
}

func TestGenerateTicketPDF(t *testing.T) {
	tmpDir := t.TempDir()

	pdfPath, err := GenerateTicketPDF(facturaConLineas(), empresaDePrueba(), tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ticket_0000042.pdf", filepath.Base(pdfPath))
	info, statErr := os.Stat(pdfPath)
	require.NoError(t, statErr)
	assert.Greater(t, info.Size(), int64(100), "PDF should have content > 100 bytes")
}

func TestGenerateTicketPDF_AnuladaSinEmpresa(t *testing.T) {
	f := facturaConLineas()
	f.Estado = "anulada"

	pdfPath, err := GenerateTicketPDF(f, nil, filepath.Join(t.TempDir(), "sub"))

	require.NoError(t, err)
	_, statErr := os.Stat(pdfPath)
	assert.NoError(t, statErr)
}

func TestGenerateReciboPDF(t *testing.T) {
	r := &dto.ReciboResponse{
		Cliente: dto.ClienteResponse{Codigo: "00012", NombreCompleto: "Rosa Quispe", Categoria: "Doméstico"},
		Lectura: &dto.LecturaResponse{
			Periodo:         "2025-03",
			TieneMedidor:    true,
			LecturaAnterior: decimal.RequireFromString("10"),
			LecturaActual:   decimal.RequireFromString("25"),
			Consumo:         decimal.RequireFromString("15"),
			TotalAgua:       decimal.RequireFromString("37.50"),
			TotalDesague:    decimal.RequireFromString("15.00"),
			TotalCargoFijo:  decimal.RequireFromString("3.00"),
			Total:           decimal.RequireFromString("55.50"),
		},
		DeudasAnteriores: []dto.DeudaAnteriorAnio{{Anio: 2025, Rango: "Enero - Febrero", Meses: 2, Total: decimal.RequireFromString("30.00")}},
		TotalAnterior:    decimal.RequireFromString("30.00"),
		TotalPagar:       decimal.RequireFromString("85.50"),
	}

	pdfPath, err := GenerateReciboPDF(r, empresaDePrueba(), t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "recibo_00012_2025-03.pdf", filepath.Base(pdfPath))
}

func TestGenerateReciboPDF_SinLectura(t *testing.T) {
	_, err := GenerateReciboPDF(&dto.ReciboResponse{}, nil, t.TempDir())
	assert.Error(t, err)
}

func TestGenerateReporteCajaPDF(t *testing.T) {
	r := &dto.ReporteCajaResponse{
		CajaID: uuid.New(),
		Titulo: "Reporte diario - 2025-03-31",
		Desde:  "2025-03-31",
		Hasta:  "2025-03-31",
		Lineas: []dto.LineaReporteConcepto{
			{FacturaCodigo: "0000042", Fecha: "2025-03-31", Cliente: "Rosa", Codigo: "001", Concepto: "Agua", Periodos: "Enero 2025", Total: decimal.RequireFromString("12.50")},
		},
		PorConcepto: []dto.TotalPorConcepto{{Codigo: "001", Concepto: "Agua", Total: decimal.RequireFromString("12.50")}},
		PorMetodo:   []dto.TotalPorMetodo{{Metodo: "efectivo", Total: decimal.RequireFromString("12.50")}},
		Total:       decimal.RequireFromString("12.50"),
	}

	pdfPath, err := GenerateReporteCajaPDF(r, empresaDePrueba(), t.TempDir())

	require.NoError(t, err)
	info, statErr := os.Stat(pdfPath)
	require.NoError(t, statErr)
	assert.Greater(t, info.Size(), int64(100))
}
