package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/entity"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	pdfMaxColumns = 6
	pdfMaxRows    = 50
)

// ExportExcel writes the table to a new workbook in the exports directory
// and returns its path. Column widths are fitted to the content.
func (s *ReportService) ExportExcel(table *entity.Table, name string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Relatório"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}

	for i, col := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return "", err
		}
	}

	for r, row := range table.Rows {
		for c, col := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, row[col]); err != nil {
				return "", err
			}
		}
	}

	for i, col := range table.Columns {
		longest := len(col)
		for _, row := range table.Rows {
			if l := len(row[col]); l > longest {
				longest = l
			}
		}
		width := float64(longest + 2)
		if width > 50 {
			width = 50
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return "", err
		}
		if err := f.SetColWidth(sheet, colName, colName, width); err != nil {
			return "", err
		}
	}

	path := filepath.Join(s.exportsDir, fmt.Sprintf("%s_%s.xlsx", name, shortID()))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

// ExportPDF renders the table as an A4 document: title, generation line,
// record count, then a grid limited to the first columns and rows that fit a
// page sensibly.
func (s *ReportService) ExportPDF(table *entity.Table, title, name string) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gerado em: %s", time.Now().Format("02/01/2006 15:04"))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total de registros: %d", len(table.Rows))), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	if len(table.Rows) > 0 {
		columns := table.Columns
		if len(columns) > pdfMaxColumns {
			columns = columns[:pdfMaxColumns]
		}
		colWidth := 190.0 / float64(len(columns))

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(255, 255, 255)
		for _, col := range columns {
			pdf.CellFormat(colWidth, 8, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
		rows := table.Rows
		if len(rows) > pdfMaxRows {
			rows = rows[:pdfMaxRows]
		}
		for _, row := range rows {
			for _, col := range columns {
				pdf.CellFormat(colWidth, 7, tr(row[col]), "1", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
		}

		if len(table.Rows) > pdfMaxRows {
			pdf.Ln(4)
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("Mostrando primeiros %d de %d registros", pdfMaxRows, len(table.Rows))), "", 1, "L", false, 0, "")
		}
	}

	path := filepath.Join(s.exportsDir, fmt.Sprintf("%s_%s.pdf", name, shortID()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
