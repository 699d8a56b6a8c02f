package entity

import "time"

// Table is a spreadsheet loaded into memory. Columns preserves the header
// order; every row maps column name to cell text.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// LogEntry is one line of the append-only request log.
type LogEntry struct {
	Timestamp  time.Time
	User       string
	ReportType string
	CodVD      string
	Vendor     string
	Records    int
}
