package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/finance/snapshot"
	"github.com/sjperalta/fintera-lending/internal/metrics"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
	ExportFormatPDF  = "pdf"
)

var exportContentTypes = map[string]string{
	ExportFormatCSV:  "text/csv",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportFormatPDF:  "application/pdf",
}

// ExportFile is a rendered report ready to be sent as an attachment
type ExportFile struct {
	Content     []byte
	Filename    string
	ContentType string
}

type ExportService struct {
	reports  *ReportService
	currency string
}

func NewExportService(reports *ReportService, currency string) *ExportService {
	return &ExportService{reports: reports, currency: currency}
}

// balanceSheetLine is one labelled row of the exported statement
type balanceSheetLine struct {
	Label  string
	Amount decimal.Decimal
	Total  bool
}

func balanceSheetLines(bs *snapshot.BalanceSheet) []balanceSheetLine {
	return []balanceSheetLine{
		{Label: "Capital de Préstamos", Amount: bs.LoanPrincipal},
		{Label: "Intereses por Cobrar", Amount: bs.InterestReceivable},
		{Label: "Total Activos", Amount: bs.Assets, Total: true},
		{Label: "Capital de Créditos", Amount: bs.CreditPrincipal},
		{Label: "Intereses por Pagar", Amount: bs.InterestPayable},
		{Label: "Total Pasivos", Amount: bs.Liabilities, Total: true},
		{Label: "Patrimonio", Amount: bs.Equity, Total: true},
	}
}

// ExportBalanceSheet renders the balance sheet at asOf in the given format
func (s *ExportService) ExportBalanceSheet(ctx context.Context, format, asOf string) (*ExportFile, error) {
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, validationError("unsupported export format %q", format)
	}

	bs, err := s.reports.BalanceSheet(ctx, asOf)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case ExportFormatCSV:
		content, err = s.ExportCSV(bs)
	case ExportFormatXLSX:
		content, err = s.ExportXLSX(bs)
	case ExportFormatPDF:
		content, err = s.ExportPDF(bs)
	}
	metrics.IncExport(format, err)
	if err != nil {
		return nil, fmt.Errorf("failed to export balance sheet as %s: %w", format, err)
	}

	return &ExportFile{
		Content:     content,
		Filename:    fmt.Sprintf("balance_sheet_%s.%s", datemath.FormatISODate(bs.AsOf), format),
		ContentType: contentType,
	}, nil
}

func (s *ExportService) ExportCSV(bs *snapshot.BalanceSheet) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Balance General", datemath.FormatISODate(bs.AsOf)})
	_ = writer.Write([]string{"Generado", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Cuenta", "Monto (" + s.currency + ")"})
	for _, line := range balanceSheetLines(bs) {
		_ = writer.Write([]string{line.Label, line.Amount.StringFixed(2)})
	}
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Memoria"})
	_ = writer.Write([]string{"Préstamos Vigentes", fmt.Sprintf("%d", bs.LoanCount)})
	_ = writer.Write([]string{"Créditos Vigentes", fmt.Sprintf("%d", bs.CreditCount)})
	_ = writer.Write([]string{"Cuentas Incobrables", fmt.Sprintf("%d", bs.BadDebtCount)})
	_ = writer.Write([]string{"Incobrable sin Recuperar", bs.UnrecoveredBadDebt.StringFixed(2)})

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) ExportXLSX(bs *snapshot.BalanceSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Balance"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: 4,
	})
	amountStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})

	_ = f.SetCellValue(sheet, "A1", "Balance General")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "B1", datemath.FormatISODate(bs.AsOf))

	_ = f.SetCellValue(sheet, "A3", "Cuenta")
	_ = f.SetCellValue(sheet, "B3", "Monto ("+s.currency+")")

	row := 4
	for _, line := range balanceSheetLines(bs) {
		label, _ := excelize.CoordinatesToCellName(1, row)
		amount, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, label, line.Label)
		_ = f.SetCellValue(sheet, amount, line.Amount.InexactFloat64())
		style := amountStyle
		if line.Total {
			style = totalStyle
		}
		_ = f.SetCellStyle(sheet, amount, amount, style)
		row++
	}

	row++
	memo := []struct {
		label string
		value any
	}{
		{"Préstamos Vigentes", bs.LoanCount},
		{"Créditos Vigentes", bs.CreditCount},
		{"Cuentas Incobrables", bs.BadDebtCount},
		{"Incobrable sin Recuperar", bs.UnrecoveredBadDebt.InexactFloat64()},
	}
	for _, m := range memo {
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, label, m.label)
		_ = f.SetCellValue(sheet, value, m.value)
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) ExportPDF(bs *snapshot.BalanceSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Balance General")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 10, "Al "+datemath.FormatISODate(bs.AsOf))
	pdf.Ln(12)

	for _, line := range balanceSheetLines(bs) {
		style := ""
		if line.Total {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.Cell(70, 8, tr(line.Label+":"))
		pdf.CellFormat(40, 8, fmt.Sprintf("%s %s", line.Amount.StringFixed(2), s.currency), "", 0, "R", false, 0, "")
		pdf.Ln(7)
		if line.Total {
			pdf.Ln(3)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Memoria")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(70, 8, tr("Préstamos Vigentes:"))
	pdf.Cell(40, 8, fmt.Sprintf("%d", bs.LoanCount))
	pdf.Ln(6)
	pdf.Cell(70, 8, tr("Créditos Vigentes:"))
	pdf.Cell(40, 8, fmt.Sprintf("%d", bs.CreditCount))
	pdf.Ln(6)
	pdf.Cell(70, 8, "Cuentas Incobrables:")
	pdf.Cell(40, 8, fmt.Sprintf("%d", bs.BadDebtCount))
	pdf.Ln(6)
	pdf.Cell(70, 8, "Incobrable sin Recuperar:")
	pdf.Cell(40, 8, fmt.Sprintf("%s %s", bs.UnrecoveredBadDebt.StringFixed(2), s.currency))
	pdf.Ln(6)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
