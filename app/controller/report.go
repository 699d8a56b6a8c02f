package controller

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	dto "github.com/vibast-solutions/ms-go-reports/app/dto/http"
	"github.com/vibast-solutions/ms-go-reports/app/entity"
	"github.com/vibast-solutions/ms-go-reports/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const historyLimit = 100

type ReportController struct {
	reportService *service.ReportService
	requestLog    *service.RequestLog
	sheetMirror   *service.SheetMirror
}

func NewReportController(reportService *service.ReportService, requestLog *service.RequestLog, sheetMirror *service.SheetMirror) *ReportController {
	return &ReportController{
		reportService: reportService,
		requestLog:    requestLog,
		sheetMirror:   sheetMirror,
	}
}

func (c *ReportController) Upload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file is required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "could not read uploaded file"})
	}
	defer src.Close()

	result, err := c.reportService.UploadSpreadsheet(fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFile) || errors.Is(err, service.ErrUnsafeFilename) || errors.Is(err, service.ErrUnreadableFile) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Upload failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, dto.UploadResponse{
		FileID:   result.FileID,
		Filename: result.Filename,
		Rows:     result.Rows,
		Columns:  result.Columns,
		Path:     result.Path,
	})
}

func (c *ReportController) Generate(ctx echo.Context) error {
	var req dto.GenerateReportRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	userEmail, _ := ctx.Get("user_email").(string)
	result, err := c.reportService.Generate(userEmail, req.Type, req.CodVD, req.Vendor)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReportType) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrSourceNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Report generation failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	switch req.Format {
	case "excel":
		path, err := c.reportService.ExportExcel(result.Table, req.Type)
		if err != nil {
			logrus.WithError(err).Error("Excel export failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}
		return ctx.Attachment(path, req.Type+".xlsx")
	case "pdf":
		title := fmt.Sprintf("Relatório %s", req.Type)
		path, err := c.reportService.ExportPDF(result.Table, title, req.Type)
		if err != nil {
			logrus.WithError(err).Error("PDF export failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}
		return ctx.Attachment(path, req.Type+".pdf")
	}

	return ctx.JSON(http.StatusOK, dto.ReportResponse{
		Type:         result.Type,
		CodVD:        result.CodVD,
		Vendor:       result.Vendor,
		TotalRecords: len(result.Table.Rows),
		Records:      result.Table.Rows,
	})
}

func (c *ReportController) History(ctx echo.Context) error {
	userEmail, _ := ctx.Get("user_email").(string)

	entries, err := c.requestLog.Tail(userEmail, historyLimit)
	if err != nil {
		logrus.WithError(err).Error("History read failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	history := make([]dto.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		history = append(history, dto.HistoryEntry{
			Timestamp:  e.Timestamp.Format(time.RFC3339),
			User:       e.User,
			ReportType: e.ReportType,
			CodVD:      e.CodVD,
			Vendor:     e.Vendor,
			Records:    e.Records,
		})
	}

	return ctx.JSON(http.StatusOK, dto.HistoryResponse{History: history})
}

func (c *ReportController) GenerateChart(ctx echo.Context) error {
	var req dto.GenerateChartRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	var table *entity.Table
	if len(req.Rows) > 0 {
		table = tableFromRowMaps(req.Rows)
	} else {
		var err error
		table, err = c.reportService.StoredTable(req.StoredFile)
		if err != nil {
			if errors.Is(err, service.ErrStoredFileMissing) {
				return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "stored file not found"})
			}
			if errors.Is(err, service.ErrUnsafeFilename) || errors.Is(err, service.ErrUnreadableFile) {
				return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			}
			logrus.WithError(err).Error("Stored file load failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}
	}

	path, err := c.reportService.GenerateChart(table, req.GraphType, req.Title, req.DataColumn, req.CategoryColumn)
	if err != nil {
		if errors.Is(err, service.ErrUnknownChartType) || errors.Is(err, service.ErrColumnNotFound) || errors.Is(err, service.ErrNoChartData) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Chart generation failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	chartURL := fmt.Sprintf("%s://%s/api/charts/%s", ctx.Scheme(), ctx.Request().Host, filepath.Base(path))
	return ctx.JSON(http.StatusCreated, dto.ChartResponse{
		ChartURL:  chartURL,
		ChartPath: path,
	})
}

func (c *ReportController) ServeChart(ctx echo.Context) error {
	path, err := c.reportService.ChartPath(ctx.Param("filename"))
	if err != nil {
		if errors.Is(err, service.ErrChartNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "chart not found"})
		}
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid file name"})
	}
	return ctx.File(path)
}

func (c *ReportController) ListSheets(ctx echo.Context) error {
	summaries := c.sheetMirror.List()

	sheets := make([]dto.SheetInfo, 0, len(summaries))
	for _, s := range summaries {
		sheets = append(sheets, dto.SheetInfo{
			ID:       s.ID,
			Label:    s.Label,
			Keywords: s.Keywords,
			Type:     s.Type,
			Rows:     s.Rows,
			HasData:  s.HasData,
		})
	}

	return ctx.JSON(http.StatusOK, dto.SheetListResponse{
		Sheets:    sheets,
		Total:     len(sheets),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (c *ReportController) GetSheet(ctx echo.Context) error {
	rows, source, err := c.sheetMirror.Get(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	}

	return ctx.JSON(http.StatusOK, dto.SheetDataResponse{
		ID:        source.ID,
		Label:     source.Label,
		Rows:      len(rows),
		Data:      rows,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (c *ReportController) ReloadSheets(ctx echo.Context) error {
	c.sheetMirror.LoadAll(ctx.Request().Context())

	data := make(map[string]dto.SheetInfo)
	for _, s := range c.sheetMirror.List() {
		data[s.ID] = dto.SheetInfo{
			Label:   s.Label,
			Rows:    s.Rows,
			HasData: s.HasData,
		}
	}

	return ctx.JSON(http.StatusOK, dto.SheetReloadResponse{
		Status:    "success",
		Message:   "sheets reloaded successfully",
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	})
}

func (c *ReportController) Status(ctx echo.Context) error {
	loading, lastUpdate, ids := c.sheetMirror.Status()

	resp := dto.StatusResponse{
		Loading: loading,
		Reports: ids,
	}
	if !lastUpdate.IsZero() {
		resp.LastUpdate = lastUpdate.Format(time.RFC3339)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// tableFromRowMaps builds a table from inline request rows, deriving a
// stable column order from the sorted union of keys.
func tableFromRowMaps(rows []map[string]string) *entity.Table {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	return &entity.Table{Columns: columns, Rows: rows}
}
