package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-reports/app/entity"

	chart "github.com/wcharczuk/go-chart/v2"
)

var (
	ErrUnknownChartType = errors.New("graph_type must be column or pie")
	ErrColumnNotFound   = errors.New("column not found in data")
	ErrNoChartData      = errors.New("no plottable data")
	ErrChartNotFound    = errors.New("chart not found")
)

const chartTopN = 20

type chartValue struct {
	Label string
	Value float64
}

// GenerateChart aggregates the data column per category (or counts values
// when no category column is given), keeps the top entries, renders a column
// or pie chart, and writes the PNG into the charts directory.
func (s *ReportService) GenerateChart(table *entity.Table, graphType, title, dataColumn, categoryColumn string) (string, error) {
	values, err := aggregateChartValues(table, dataColumn, categoryColumn)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("chart_%s.png", shortID())
	path := filepath.Join(s.chartsDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	chartValues := make([]chart.Value, len(values))
	for i, v := range values {
		chartValues[i] = chart.Value{Label: v.Label, Value: v.Value}
	}

	switch strings.ToLower(graphType) {
	case "column", "bar":
		graph := chart.BarChart{
			Title:    title,
			Width:    1024,
			Height:   600,
			BarWidth: 40,
			Bars:     chartValues,
		}
		if err := graph.Render(chart.PNG, f); err != nil {
			os.Remove(path)
			return "", err
		}
	case "pie":
		graph := chart.PieChart{
			Title:  title,
			Width:  800,
			Height: 800,
			Values: chartValues,
		}
		if err := graph.Render(chart.PNG, f); err != nil {
			os.Remove(path)
			return "", err
		}
	default:
		os.Remove(path)
		return "", ErrUnknownChartType
	}

	return path, nil
}

// ChartPath resolves a chart filename to its on-disk path, rejecting
// traversal attempts and unknown files.
func (s *ReportService) ChartPath(filename string) (string, error) {
	safeName, err := safeFilename(filename)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.chartsDir, safeName)
	within, err := isWithinDir(path, s.chartsDir)
	if err != nil || !within {
		return "", ErrUnsafeFilename
	}
	if _, err := os.Stat(path); err != nil {
		return "", ErrChartNotFound
	}
	return path, nil
}

func aggregateChartValues(table *entity.Table, dataColumn, categoryColumn string) ([]chartValue, error) {
	if !hasColumn(table, dataColumn) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, dataColumn)
	}
	if categoryColumn != "" && !hasColumn(table, categoryColumn) {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, categoryColumn)
	}

	totals := make(map[string]float64)
	if categoryColumn == "" {
		// No category: count occurrences of each value of the data column.
		for _, row := range table.Rows {
			label := strings.TrimSpace(row[dataColumn])
			if label == "" {
				continue
			}
			totals[label]++
		}
	} else {
		for _, row := range table.Rows {
			label := strings.TrimSpace(row[categoryColumn])
			if label == "" {
				continue
			}
			value, ok := parseNumeric(row[dataColumn])
			if !ok {
				continue
			}
			totals[label] += value
		}
	}

	if len(totals) == 0 {
		return nil, ErrNoChartData
	}

	values := make([]chartValue, 0, len(totals))
	for label, value := range totals {
		values = append(values, chartValue{Label: label, Value: value})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Value != values[j].Value {
			return values[i].Value > values[j].Value
		}
		return values[i].Label < values[j].Label
	})

	if len(values) > chartTopN {
		values = values[:chartTopN]
	}
	return values, nil
}

func hasColumn(table *entity.Table, name string) bool {
	for _, col := range table.Columns {
		if col == name {
			return true
		}
	}
	return false
}

func parseNumeric(value string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
