package service

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-reports/app/entity"
)

func chartTable() *entity.Table {
	return &entity.Table{
		Columns: []string{"CIDADE", "CLIENTES"},
		Rows: []map[string]string{
			{"CIDADE": "Fortaleza", "CLIENTES": "10"},
			{"CIDADE": "Sobral", "CLIENTES": "5"},
			{"CIDADE": "Fortaleza", "CLIENTES": "3"},
		},
	}
}

func TestGenerateChartColumn(t *testing.T) {
	svc, _, _ := newTestReportService(t)

	path, err := svc.GenerateChart(chartTable(), "column", "Clientes por cidade", "CLIENTES", "CIDADE")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	assertPNG(t, path)
}

func TestGenerateChartPie(t *testing.T) {
	svc, _, _ := newTestReportService(t)

	path, err := svc.GenerateChart(chartTable(), "pie", "Clientes por cidade", "CLIENTES", "CIDADE")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	assertPNG(t, path)
}

func TestGenerateChartUnknownType(t *testing.T) {
	svc, _, _ := newTestReportService(t)

	_, err := svc.GenerateChart(chartTable(), "scatter", "t", "CLIENTES", "CIDADE")
	if !errors.Is(err, ErrUnknownChartType) {
		t.Fatalf("expected ErrUnknownChartType, got %v", err)
	}
}

func TestGenerateChartUnknownColumn(t *testing.T) {
	svc, _, _ := newTestReportService(t)

	_, err := svc.GenerateChart(chartTable(), "pie", "t", "MISSING", "")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
	_, err = svc.GenerateChart(chartTable(), "pie", "t", "CLIENTES", "MISSING")
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestGenerateChartNoPlottableData(t *testing.T) {
	svc, _, _ := newTestReportService(t)

	table := &entity.Table{
		Columns: []string{"CIDADE", "CLIENTES"},
		Rows: []map[string]string{
			{"CIDADE": "Fortaleza", "CLIENTES": "not-a-number"},
			{"CIDADE": "", "CLIENTES": "10"},
		},
	}
	_, err := svc.GenerateChart(table, "pie", "t", "CLIENTES", "CIDADE")
	if !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("output is not a PNG")
	}
}

func TestAggregateChartValuesSumsByCategory(t *testing.T) {
	values, err := aggregateChartValues(chartTable(), "CLIENTES", "CIDADE")
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(values))
	}
	if values[0].Label != "Fortaleza" || values[0].Value != 13 {
		t.Fatalf("unexpected first value: %+v", values[0])
	}
	if values[1].Label != "Sobral" || values[1].Value != 5 {
		t.Fatalf("unexpected second value: %+v", values[1])
	}
}

func TestAggregateChartValuesCountsWithoutCategory(t *testing.T) {
	table := &entity.Table{
		Columns: []string{"STATUS"},
		Rows: []map[string]string{
			{"STATUS": "FALTA"},
			{"STATUS": "FALTA"},
			{"STATUS": "OK"},
			{"STATUS": " "},
		},
	}

	values, err := aggregateChartValues(table, "STATUS", "")
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0].Label != "FALTA" || values[0].Value != 2 {
		t.Fatalf("unexpected first value: %+v", values[0])
	}
}

func TestAggregateChartValuesParsesDecimalComma(t *testing.T) {
	table := &entity.Table{
		Columns: []string{"CIDADE", "VALOR"},
		Rows: []map[string]string{
			{"CIDADE": "Fortaleza", "VALOR": "1,5"},
			{"CIDADE": "Fortaleza", "VALOR": "2,5"},
		},
	}

	values, err := aggregateChartValues(table, "VALOR", "CIDADE")
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if values[0].Value != 4 {
		t.Fatalf("expected 4, got %v", values[0].Value)
	}
}

func TestAggregateChartValuesKeepsTopTwenty(t *testing.T) {
	table := &entity.Table{Columns: []string{"CIDADE", "VALOR"}}
	for i := 0; i < 30; i++ {
		table.Rows = append(table.Rows, map[string]string{
			"CIDADE": "city_" + strconv.Itoa(i),
			"VALOR":  strconv.Itoa(i + 1),
		})
	}

	values, err := aggregateChartValues(table, "VALOR", "CIDADE")
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(values) != 20 {
		t.Fatalf("expected top 20, got %d", len(values))
	}
	// Descending by value, so the biggest contributor leads.
	if values[0].Label != "city_29" || values[0].Value != 30 {
		t.Fatalf("unexpected leader: %+v", values[0])
	}
}

func TestChartPath(t *testing.T) {
	svc, _, _ := newTestReportService(t)

	path, err := svc.GenerateChart(chartTable(), "column", "t", "CLIENTES", "CIDADE")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "chart_") || !strings.HasSuffix(name, ".png") {
		t.Fatalf("unexpected chart name %q", name)
	}

	resolved, err := svc.ChartPath(name)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved %q, want %q", resolved, path)
	}

	if _, err := svc.ChartPath("missing.png"); !errors.Is(err, ErrChartNotFound) {
		t.Fatalf("expected ErrChartNotFound, got %v", err)
	}
	if _, err := svc.ChartPath(".."); !errors.Is(err, ErrUnsafeFilename) {
		t.Fatalf("expected ErrUnsafeFilename, got %v", err)
	}
}
