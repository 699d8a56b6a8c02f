package controller_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-reports/config"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

// writeSourceXLSX builds a small workbook from CSV-shaped content so a
// report source can be placed in the uploads directory under its fixed name.
func writeSourceXLSX(t *testing.T, path, csvContent string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for r, line := range strings.Split(strings.TrimSpace(csvContent), "\n") {
		for c, value := range strings.Split(line, ",") {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name failed: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell failed: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func (s *testServer) uploadCSV(t *testing.T, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file failed: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(content)); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload/excel", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestUploadEndpoint(t *testing.T) {
	srv := newTestServer(t)
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	rec := srv.uploadCSV(t, access, "clients.csv", "CODVD,STATUS\n100,OK\n")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		FileID  string   `json:"file_id"`
		Rows    int      `json:"rows"`
		Columns []string `json:"columns"`
	}
	decode(t, rec, &resp)
	if resp.FileID == "" || resp.Rows != 1 || len(resp.Columns) != 2 {
		t.Fatalf("unexpected upload response: %s", rec.Body.String())
	}

	rec = srv.uploadCSV(t, access, "notes.txt", "hello")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for .txt upload, got %d", rec.Code)
	}
}

func TestGenerateReportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	source := "CODVD,VENDEDOR,STATUS\n100,ALICE,OK\n100,ALICE,FALTA\n200,BOB,OK\n"
	writeSourceXLSX(t, filepath.Join(srv.uploads, "msl.xlsx"), source)

	rec := srv.do(t, http.MethodPost, "/api/reports/generate", access, map[string]string{
		"type":  "msl_mini",
		"codvd": "100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Type         string              `json:"type"`
		TotalRecords int                 `json:"total_records"`
		Records      []map[string]string `json:"records"`
	}
	decode(t, rec, &resp)
	if resp.Type != "msl_mini" || resp.TotalRecords != 2 {
		t.Fatalf("unexpected report: %s", rec.Body.String())
	}

	// Generation is visible in the per-user history.
	rec = srv.do(t, http.MethodGet, "/api/history", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history returned %d", rec.Code)
	}
	var history struct {
		History []struct {
			User       string `json:"usuario"`
			ReportType string `json:"tipo"`
			Records    int    `json:"registros"`
		} `json:"history"`
	}
	decode(t, rec, &history)
	if len(history.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history.History))
	}
	if history.History[0].User != "a@example.com" || history.History[0].Records != 2 {
		t.Fatalf("unexpected history entry: %+v", history.History[0])
	}
}

func TestGenerateReportEndpointErrors(t *testing.T) {
	srv := newTestServer(t)
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	rec := srv.do(t, http.MethodPost, "/api/reports/generate", access, map[string]string{
		"type":  "bogus",
		"codvd": "100",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/reports/generate", access, map[string]string{
		"type":  "msl_mini",
		"codvd": "100",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing source, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/reports/generate", access, map[string]string{
		"type":   "msl_mini",
		"codvd":  "100",
		"format": "docx",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad format, got %d", rec.Code)
	}
}

func TestGenerateReportExcelAttachment(t *testing.T) {
	srv := newTestServer(t)
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	writeSourceXLSX(t, filepath.Join(srv.uploads, "msl.xlsx"), "CODVD,STATUS\n100,OK\n")

	rec := srv.do(t, http.MethodPost, "/api/reports/generate", access, map[string]string{
		"type":   "msl_mini",
		"codvd":  "100",
		"format": "excel",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate returned %d: %s", rec.Code, rec.Body.String())
	}
	disposition := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(disposition, "msl_mini.xlsx") {
		t.Fatalf("unexpected disposition %q", disposition)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("empty attachment body")
	}
}

func TestChartEndpoints(t *testing.T) {
	srv := newTestServer(t)
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	rec := srv.do(t, http.MethodPost, "/api/charts/generate", access, map[string]interface{}{
		"graph_type":      "column",
		"title":           "Clientes por cidade",
		"data_column":     "CLIENTES",
		"category_column": "CIDADE",
		"rows": []map[string]string{
			{"CIDADE": "Fortaleza", "CLIENTES": "10"},
			{"CIDADE": "Sobral", "CLIENTES": "5"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("chart returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ChartURL  string `json:"chart_url"`
		ChartPath string `json:"chart_path"`
	}
	decode(t, rec, &resp)
	if !strings.Contains(resp.ChartURL, "/api/charts/chart_") {
		t.Fatalf("unexpected chart url %q", resp.ChartURL)
	}

	filename := filepath.Base(resp.ChartPath)
	rec = srv.do(t, http.MethodGet, "/api/charts/"+filename, access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve chart returned %d", rec.Code)
	}
	if body := rec.Body.Bytes(); len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Fatalf("served file is not a PNG")
	}

	rec = srv.do(t, http.MethodGet, "/api/charts/missing.png", access, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing chart, got %d", rec.Code)
	}
}

func TestChartEndpointValidation(t *testing.T) {
	srv := newTestServer(t)
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	// Neither stored_file nor rows.
	rec := srv.do(t, http.MethodPost, "/api/charts/generate", access, map[string]interface{}{
		"graph_type":  "pie",
		"data_column": "X",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// Both at once.
	rec = srv.do(t, http.MethodPost, "/api/charts/generate", access, map[string]interface{}{
		"graph_type":  "pie",
		"data_column": "X",
		"stored_file": "f.csv",
		"rows":        []map[string]string{{"X": "1"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// Unknown graph type.
	rec = srv.do(t, http.MethodPost, "/api/charts/generate", access, map[string]interface{}{
		"graph_type":  "scatter",
		"data_column": "X",
		"rows":        []map[string]string{{"X": "1"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSheetEndpoints(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("CIDADE,CLIENTES\nFortaleza,10\n"))
	}))
	defer backend.Close()

	srv := newTestServerWithSheets(t, []config.SheetSource{
		{ID: "leads", Label: "Novos Clientes", Type: "city_leads", URL: backend.URL},
	})
	access, _, _ := srv.registerAndLogin(t, "a@example.com")

	rec := srv.do(t, http.MethodGet, "/api/sheets/reload", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reload returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/sheets", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var list struct {
		Sheets []struct {
			ID      string `json:"id"`
			Rows    int    `json:"rows"`
			HasData bool   `json:"has_data"`
		} `json:"sheets"`
		Total int `json:"total"`
	}
	decode(t, rec, &list)
	if list.Total != 1 || !list.Sheets[0].HasData || list.Sheets[0].Rows != 1 {
		t.Fatalf("unexpected list: %s", rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/sheets/leads", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
	var sheet struct {
		ID   string              `json:"id"`
		Data []map[string]string `json:"data"`
	}
	decode(t, rec, &sheet)
	if sheet.ID != "leads" || len(sheet.Data) != 1 || sheet.Data[0]["CIDADE"] != "Fortaleza" {
		t.Fatalf("unexpected sheet: %s", rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/sheets/missing", access, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sheet, got %d", rec.Code)
	}

	// Status is public and reflects the loaded mirror.
	rec = srv.do(t, http.MethodGet, "/api/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d", rec.Code)
	}
	var status struct {
		Loading    bool     `json:"loading"`
		LastUpdate string   `json:"lastUpdate"`
		Reports    []string `json:"reports"`
	}
	decode(t, rec, &status)
	if status.Loading || status.LastUpdate == "" || len(status.Reports) != 1 {
		t.Fatalf("unexpected status: %s", rec.Body.String())
	}
}
