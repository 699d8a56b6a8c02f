package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/dto"
	"github.com/vibast-solutions/ms-go-reports/app/entity"
	"github.com/vibast-solutions/ms-go-reports/app/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnknownReportType = errors.New("unknown report type")
	ErrSourceNotFound    = errors.New("report source file not found")
	ErrUnsupportedFile   = errors.New("file must be a spreadsheet or CSV")
	ErrUnreadableFile    = errors.New("file could not be parsed")
	ErrStoredFileMissing = errors.New("stored file not found")
	ErrUnsafeFilename    = errors.New("invalid file name")
)

// reportSources maps report types to the uploaded source file they read.
var reportSources = map[string]string{
	"nao_cobertos_clientes":   "nao_cobertos.xlsx",
	"nao_cobertos_fornecedor": "nao_cobertos.xlsx",
	"msl_mini":                "msl.xlsx",
	"msl_super":               "msl.xlsx",
	"msl_otg":                 "msl.xlsx",
	"msl_danone":              "msl.xlsx",
	"exp":                     "msl.xlsx",
	"novos_clientes":          "novos_clientes.xlsx",
	"queijo_reino":            "queijo_reino.xlsx",
}

var allowedUploadExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".xlsm": true,
	".csv":  true,
}

type requestLogger interface {
	Append(entry entity.LogEntry) error
}

type ReportService struct {
	uploadsDir string
	exportsDir string
	chartsDir  string
	log        requestLogger
}

func NewReportService(uploadsDir, exportsDir, chartsDir string, log requestLogger) *ReportService {
	return &ReportService{
		uploadsDir: uploadsDir,
		exportsDir: exportsDir,
		chartsDir:  chartsDir,
		log:        log,
	}
}

// UploadSpreadsheet stores the uploaded file under a fresh id and validates
// it by parsing. An unreadable file is deleted again.
func (s *ReportService) UploadSpreadsheet(filename string, src io.Reader) (*dto.UploadResult, error) {
	safeName, err := safeFilename(filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(safeName))
	if !allowedUploadExtensions[ext] {
		return nil, ErrUnsupportedFile
	}

	fileID := uuid.NewString()
	path := filepath.Join(s.uploadsDir, fileID+ext)

	dst, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}

	table, err := LoadTable(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s", ErrUnreadableFile, err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"file_id":  fileID,
		"filename": safeName,
		"rows":     len(table.Rows),
	}).Info("Spreadsheet uploaded")

	return &dto.UploadResult{
		FileID:   fileID,
		Filename: safeName,
		Rows:     len(table.Rows),
		Columns:  table.Columns,
		Path:     path,
	}, nil
}

// Generate builds a report: resolve the source file for the type, apply the
// status rules, match CODVD, optionally match the vendor, drop duplicate
// rows, and append a request-log line.
func (s *ReportService) Generate(user, reportType, codvd, vendor string) (*dto.ReportResult, error) {
	sourceName, ok := reportSources[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReportType, reportType)
	}

	sourcePath := filepath.Join(s.uploadsDir, sourceName)
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceName)
	}

	table, err := LoadTable(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableFile, err.Error())
	}

	table = filterByStatus(table, reportType)
	table = filterRows(table, func(row map[string]string) bool {
		return strings.TrimSpace(row["CODVD"]) == strings.TrimSpace(codvd)
	})
	if vendor != "" {
		needle := strings.ToUpper(vendor)
		table = filterRows(table, func(row map[string]string) bool {
			return strings.Contains(strings.ToUpper(row["VENDEDOR"]), needle)
		})
	}
	table = dedupeRows(table)

	if err := s.log.Append(entity.LogEntry{
		Timestamp:  time.Now(),
		User:       user,
		ReportType: reportType,
		CodVD:      codvd,
		Vendor:     vendor,
		Records:    len(table.Rows),
	}); err != nil {
		logrus.WithError(err).Warn("Failed to append request log entry")
	}

	metrics.ReportsGenerated.WithLabelValues(reportType).Inc()

	logrus.WithFields(logrus.Fields{
		"user":    user,
		"type":    reportType,
		"codvd":   codvd,
		"records": len(table.Rows),
	}).Info("Report generated")

	return &dto.ReportResult{
		Type:   reportType,
		CodVD:  codvd,
		Vendor: vendor,
		Table:  table,
	}, nil
}

// StoredTable loads a previously uploaded file by its safe name.
func (s *ReportService) StoredTable(storedFile string) (*entity.Table, error) {
	safeName, err := safeFilename(storedFile)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.uploadsDir, safeName)
	within, err := isWithinDir(path, s.uploadsDir)
	if err != nil || !within {
		return nil, ErrUnsafeFilename
	}
	if _, err := os.Stat(path); err != nil {
		return nil, ErrStoredFileMissing
	}

	table, err := LoadTable(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableFile, err.Error())
	}
	return table, nil
}

// LoadTable reads an .xlsx-family or .csv file into a Table. The first row
// is the header; short rows are padded with empty cells.
func LoadTable(path string) (*entity.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadCSVTable(path)
	}
	return loadExcelTable(path)
}

func loadExcelTable(path string) (*entity.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return tableFromRows(rows)
}

func loadCSVTable(path string) (*entity.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return tableFromRows(records)
}

func tableFromRows(rows [][]string) (*entity.Table, error) {
	if len(rows) == 0 {
		return nil, errors.New("file has no header row")
	}

	columns := rows[0]
	table := &entity.Table{Columns: columns, Rows: make([]map[string]string, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		record := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// filterByStatus applies the per-type STATUS rules: coverage reports keep
// FALTA only, MSL reports (and exp) keep OK and FALTA.
func filterByStatus(table *entity.Table, reportType string) *entity.Table {
	switch {
	case strings.HasPrefix(reportType, "nao_cobertos"):
		return filterRows(table, func(row map[string]string) bool {
			return normalizeStatus(row["STATUS"]) == "FALTA"
		})
	case strings.HasPrefix(reportType, "msl"), reportType == "exp":
		return filterRows(table, func(row map[string]string) bool {
			status := normalizeStatus(row["STATUS"])
			return status == "OK" || status == "FALTA"
		})
	}
	return table
}

func normalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func filterRows(table *entity.Table, keep func(map[string]string) bool) *entity.Table {
	filtered := &entity.Table{Columns: table.Columns}
	for _, row := range table.Rows {
		if keep(row) {
			filtered.Rows = append(filtered.Rows, row)
		}
	}
	return filtered
}

func dedupeRows(table *entity.Table) *entity.Table {
	seen := make(map[string]struct{}, len(table.Rows))
	deduped := &entity.Table{Columns: table.Columns}
	for _, row := range table.Rows {
		var b strings.Builder
		for _, col := range table.Columns {
			b.WriteString(row[col])
			b.WriteByte('\x1f')
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped.Rows = append(deduped.Rows, row)
	}
	return deduped
}

// safeFilename strips any directory component and rejects traversal names.
func safeFilename(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", ErrUnsafeFilename
	}
	return base, nil
}

func isWithinDir(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, err
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
