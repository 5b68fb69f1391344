package infra

// pdf.go renders the three documents the utility hands out, using go-pdf/fpdf:
//   - payment ticket for a Factura (thermal-receipt size)
//   - customer receipt for the latest reading plus older unpaid debts (A5)
//   - daily cash report of a drawer (A4)
//
// Every file is written to storagePath and its path returned.

import (
	"fmt"
	"os"
	"path/filepath"

	"aguabill/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const moneda = "S/ "

func soles(d decimal.Decimal) string { return moneda + d.StringFixed(2) }

func prepararDirectorio(storagePath, fileName string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	return filepath.Join(storagePath, fileName), nil
}

// encabezadoEmpresa prints the utility name, tax id and address centred.
func encabezadoEmpresa(pdf *fpdf.Fpdf, tr func(string) string, empresa *dto.EmpresaResponse, w, size float64) {
	nombre := "Junta de Agua"
	if empresa != nil {
		nombre = empresa.Nombre
	}
	pdf.SetFont("Helvetica", "B", size)
	pdf.CellFormat(w, size*0.55, tr(nombre), "", 1, "C", false, 0, "")
	if empresa == nil {
		return
	}
	pdf.SetFont("Helvetica", "", size*0.6)
	pdf.CellFormat(w, 4, "RUC "+empresa.RUC, "", 1, "C", false, 0, "")
	if empresa.Direccion != nil && *empresa.Direccion != "" {
		pdf.CellFormat(w, 4, tr(*empresa.Direccion), "", 1, "C", false, 0, "")
	}
}

func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}

// ── Payment ticket ───────────────────────────────────────────────────────────

// GenerateTicketPDF renders the payment ticket of an invoice.
func GenerateTicketPDF(f *dto.FacturaResponse, empresa *dto.EmpresaResponse, storagePath string) (string, error) {
	filePath, err := prepararDirectorio(storagePath, fmt.Sprintf("ticket_%s.pdf", f.Codigo))
	if err != nil {
		return "", err
	}

	// 80mm roll; height grows with the number of lines
	alto := 110.0 + 5*float64(len(f.Deudas)+len(f.Conceptos)+len(f.Pagos))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: alto},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	encabezadoEmpresa(pdf, tr, empresa, contentW, 12)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Comprobante de Pago", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, tr("Ticket N° "+f.Codigo), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Fecha: "+f.Fecha, "", 1, "L", false, 0, "")
	cliente := f.Cliente
	if f.NombreOpcional != nil && *f.NombreOpcional != "" {
		cliente = *f.NombreOpcional
	}
	pdf.CellFormat(contentW, 4, tr("Cliente: "+truncar(cliente, 40)), "", 1, "L", false, 0, "")
	if f.Estado == "anulada" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "ANULADO", "", 1, "C", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.68
	col2 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Concepto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Importe", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range f.Deudas {
		pdf.CellFormat(col1, 5, tr("Servicio "+d.Periodo), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, soles(d.Total), "", 1, "R", false, 0, "")
	}
	for _, c := range f.Conceptos {
		label := c.Concepto
		if c.Descripcion != nil && *c.Descripcion != "" {
			label = *c.Descripcion
		}
		pdf.CellFormat(col1, 5, tr(truncar(label, 34)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, soles(c.Total), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, soles(f.Total), "", 1, "R", false, 0, "")

	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 7)
	for _, p := range f.Pagos {
		pdf.CellFormat(col1, 4, "Pago ("+p.Metodo+"):", "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 4, soles(p.Total), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su pago!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// ── Customer receipt ─────────────────────────────────────────────────────────

// GenerateReciboPDF renders the monthly receipt of a customer.
func GenerateReciboPDF(r *dto.ReciboResponse, empresa *dto.EmpresaResponse, storagePath string) (string, error) {
	if r.Lectura == nil {
		return "", fmt.Errorf("pdf: recibo sin lectura")
	}
	filePath, err := prepararDirectorio(storagePath,
		fmt.Sprintf("recibo_%s_%s.pdf", r.Cliente.Codigo, r.Lectura.Periodo))
	if err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 16

	encabezadoEmpresa(pdf, tr, empresa, contentW, 14)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "RECIBO DE SERVICIO "+r.Lectura.Periodo, "TB", 1, "C", false, 0, "")
	pdf.Ln(2)

	half := contentW / 2
	fila := func(label, valor string) {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(half*0.55, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW-half*0.55, 5, tr(valor), "", 1, "L", false, 0, "")
	}
	fila("Código:", r.Cliente.Codigo)
	fila("Cliente:", truncar(r.Cliente.NombreCompleto, 60))
	if r.Cliente.Direccion != nil {
		fila("Dirección:", *r.Cliente.Direccion)
	}
	fila("Categoría:", r.Cliente.Categoria)
	if r.Lectura.FechaEmision != nil {
		fila("Emisión:", *r.Lectura.FechaEmision)
	}
	if r.Lectura.FechaVencimiento != nil {
		fila("Vencimiento:", *r.Lectura.FechaVencimiento)
	}
	if r.Lectura.FechaCorte != nil {
		fila("Fecha de corte:", *r.Lectura.FechaCorte)
	}
	pdf.Ln(2)

	if r.Lectura.TieneMedidor {
		w := contentW / 3
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(w, 6, "Lectura anterior", "1", 0, "C", false, 0, "")
		pdf.CellFormat(w, 6, "Lectura actual", "1", 0, "C", false, 0, "")
		pdf.CellFormat(w, 6, "Consumo m3", "1", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(w, 6, r.Lectura.LecturaAnterior.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(w, 6, r.Lectura.LecturaActual.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(w, 6, r.Lectura.Consumo.String(), "1", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	col1 := contentW * 0.7
	col2 := contentW * 0.3
	linea := func(label string, monto decimal.Decimal) {
		pdf.CellFormat(col1, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, soles(monto), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Detalle del mes", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Importe", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	linea("Agua", r.Lectura.TotalAgua)
	linea("Desagüe", r.Lectura.TotalDesague)
	if !r.Lectura.TotalCargoFijo.IsZero() {
		linea("Cargo fijo", r.Lectura.TotalCargoFijo)
	}
	pdf.SetFont("Helvetica", "B", 8)
	linea("Total del mes", r.Lectura.Total)
	pdf.Ln(2)

	if len(r.DeudasAnteriores) > 0 {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(col1, 5, "Deuda anterior", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, "", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, d := range r.DeudasAnteriores {
			linea(fmt.Sprintf("%d  %s (%d meses)", d.Anio, d.Rango, d.Meses), d.Total)
		}
		pdf.SetFont("Helvetica", "B", 8)
		linea("Total deuda anterior", r.TotalAnterior)
		pdf.Ln(2)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1, 8, "TOTAL A PAGAR", "TB", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 8, soles(r.TotalPagar), "TB", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// ── Daily cash report ────────────────────────────────────────────────────────

// GenerateReporteCajaPDF renders the cash report of a drawer over a date range.
func GenerateReporteCajaPDF(r *dto.ReporteCajaResponse, empresa *dto.EmpresaResponse, storagePath string) (string, error) {
	nombre := fmt.Sprintf("reporte_caja_%s_%s_%s.pdf", r.CajaID.String()[:8], r.Desde, r.Hasta)
	filePath, err := prepararDirectorio(storagePath, nombre)
	if err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	encabezadoEmpresa(pdf, tr, empresa, contentW, 14)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, tr(r.Titulo), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Columns: ticket, fecha, cliente, concepto, periodos, total
	widths := []float64{18, 20, 50, 36, 46, contentW - 170}
	headers := []string{"Ticket", "Fecha", "Cliente", "Concepto", "Periodos", "Total"}
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		align := "L"
		if i == len(headers)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 6, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	for _, l := range r.Lineas {
		pdf.CellFormat(widths[0], 5, l.FacturaCodigo, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 5, l.Fecha, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 5, tr(truncar(l.Codigo+" "+l.Cliente, 32)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 5, tr(truncar(l.Concepto, 22)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 5, tr(truncar(l.Periodos, 30)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[5], 5, l.Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	resumen := func(titulo string, filas [][2]string) {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(90, 6, tr(titulo), "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for _, f := range filas {
			pdf.CellFormat(60, 5, tr(f[0]), "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 5, f[1], "", 1, "R", false, 0, "")
		}
		pdf.Ln(2)
	}

	porConcepto := make([][2]string, 0, len(r.PorConcepto))
	for _, c := range r.PorConcepto {
		porConcepto = append(porConcepto, [2]string{c.Codigo + " " + c.Concepto, soles(c.Total)})
	}
	resumen("Totales por concepto", porConcepto)

	porMetodo := make([][2]string, 0, len(r.PorMetodo))
	for _, m := range r.PorMetodo {
		porMetodo = append(porMetodo, [2]string{m.Metodo, soles(m.Total)})
	}
	resumen("Totales por método de pago", porMetodo)

	resumen("Resultado", [][2]string{
		{"Egresos", soles(r.TotalEgresos)},
		{"Total ingresos", soles(r.Total)},
	})

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
