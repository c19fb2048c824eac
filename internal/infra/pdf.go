package infra

// pdf.go — Printable invoice rendering using go-pdf/fpdf.
// Generates an A4 factura with the fields required on fiscal documents:
//   - Issuer header (razón social, RTN, dirección, teléfono)
//   - CAI code, authorized range prefix and fecha límite de emisión
//   - Invoice number, emission date, payment terms
//   - Client fiscal snapshot (RTN/DNI, name, address)
//   - Line table with per-line gravamen, descuento and totals
//   - Rate-bucket summary (exento / gravado 15% / gravado 18%, ISV per rate)
//   - Amount in words
//
// The output file is saved to storagePath/factura_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"servifrio/internal/model"

	"github.com/go-pdf/fpdf"
)

// Emisor is the issuing business identity stamped on every factura.
type Emisor struct {
	Nombre    string
	RTN       string
	Direccion string
	Telefono  string
}

// GenerateFacturaPDF renders a factura to PDF and returns the absolute path
// of the generated file. storagePath is created if missing.
func GenerateFacturaPDF(f *model.Factura, emisor Emisor, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("factura_%s.pdf", f.Numero)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Issuer header ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, emisor.Nombre, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "RTN: "+emisor.RTN, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, emisor.Direccion, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, "Tel: "+emisor.Telefono, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Fiscal authorization block ───────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	titulo := "FACTURA"
	if f.Estado == model.FacturaAnulada {
		titulo = "FACTURA  **ANULADA**"
	}
	pdf.CellFormat(contentW, 7, titulo+"  "+f.Numero, "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "CAI: "+f.CodigoCai, "LR", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5,
		"Fecha límite de emisión: "+f.FechaLimiteCai.Format("02/01/2006"),
		"LRB", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Emission and client data ─────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 5, "Fecha de emisión: "+f.FechaEmision.Format("02/01/2006 15:04"), "", 0, "L", false, 0, "")
	pago := "Forma de pago: " + f.TipoPago
	if f.DiasCredito != nil {
		pago = fmt.Sprintf("%s (%d días)", pago, *f.DiasCredito)
	}
	pdf.CellFormat(contentW/2, 5, pago, "", 1, "R", false, 0, "")

	pdf.CellFormat(contentW, 5, "Cliente: "+f.ClienteNombre, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "RTN/DNI: "+f.ClienteRTN, "", 1, "L", false, 0, "")
	if f.ClienteDireccion != nil && *f.ClienteDireccion != "" {
		pdf.CellFormat(contentW, 5, "Dirección: "+*f.ClienteDireccion, "", 1, "L", false, 0, "")
	}
	if f.Exenta && f.OrdenCompraExenta != nil {
		pdf.CellFormat(contentW, 5, "Orden de compra exenta: "+*f.OrdenCompraExenta, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// ── Line table ───────────────────────────────────────────────────────────
	colCant := contentW * 0.10
	colDesc := contentW * 0.40
	colPrecio := contentW * 0.15
	colGrav := contentW * 0.12
	colDescto := contentW * 0.10
	colTotal := contentW * 0.13

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(colCant, 6, "Cant.", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colDesc, 6, "Descripción", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colPrecio, 6, "P. Unit.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colGrav, 6, "Gravamen", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colDescto, 6, "Desc.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, item := range f.Items {
		desc := item.Descripcion
		if len(desc) > 48 {
			desc = desc[:47] + "…"
		}
		pdf.CellFormat(colCant, 5, item.Cantidad.StringFixed(2), "", 0, "C", false, 0, "")
		pdf.CellFormat(colDesc, 5, desc, "", 0, "L", false, 0, "")
		pdf.CellFormat(colPrecio, 5, "L "+item.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(colGrav, 5, etiquetaGravamen(item.TipoGravamen), "", 0, "C", false, 0, "")
		pdf.CellFormat(colDescto, 5, item.DescuentoPct.StringFixed(0)+"%", "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 5, "L "+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Rate-bucket totals ───────────────────────────────────────────────────
	labelW := contentW * 0.75
	valueW := contentW * 0.25

	pdf.SetFont("Helvetica", "", 9)
	totalRow := func(label, value string) {
		pdf.CellFormat(labelW, 5, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 5, value, "", 1, "R", false, 0, "")
	}

	if !f.SubtotalExento.IsZero() {
		totalRow("Importe exento:", "L "+f.SubtotalExento.StringFixed(2))
	}
	if !f.SubtotalGravado15.IsZero() {
		totalRow("Importe gravado 15%:", "L "+f.SubtotalGravado15.StringFixed(2))
	}
	if !f.SubtotalGravado18.IsZero() {
		totalRow("Importe gravado 18%:", "L "+f.SubtotalGravado18.StringFixed(2))
	}
	totalRow("Subtotal:", "L "+f.Subtotal.StringFixed(2))
	if !f.Isv15.IsZero() {
		totalRow("ISV 15%:", "L "+f.Isv15.StringFixed(2))
	}
	if !f.Isv18.IsZero() {
		totalRow("ISV 18%:", "L "+f.Isv18.StringFixed(2))
	}

	pdf.SetFont("Helvetica", "B", 11)
	totalRow("TOTAL A PAGAR:", "L "+f.TotalAPagar.StringFixed(2))

	// ── Amount in words ──────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(contentW, 5, "Son: "+MontoEnLetras(f.TotalAPagar), "", "L", false)

	if f.Estado == model.FacturaAnulada && f.MotivoAnulacion != nil {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.MultiCell(contentW, 5, "ANULADA: "+*f.MotivoAnulacion, "", "L", false)
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "La factura es beneficio de todos. ¡Exíjala!", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, "Original: Cliente  /  Copia: Obligado tributario emisor", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

func etiquetaGravamen(tipo string) string {
	switch tipo {
	case model.Gravado15:
		return "15%"
	case model.Gravado18:
		return "18%"
	default:
		return "Exento"
	}
}
