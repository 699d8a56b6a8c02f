package service

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/entity"
)

var logHeader = []string{"timestamp", "usuario", "tipo", "codvd", "vendedor", "registros"}

// RequestLog is the append-only CSV log of report requests. The file is
// created with a header row on first use and only ever appended to.
type RequestLog struct {
	mu   sync.Mutex
	path string
}

func NewRequestLog(path string) (*RequestLog, error) {
	l := &RequestLog{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.writeHeader(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return l, nil
}

func (l *RequestLog) writeHeader() error {
	f, err := os.Create(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(logHeader); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (l *RequestLog) Append(entry entity.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := []string{
		entry.Timestamp.Format(time.RFC3339),
		entry.User,
		entry.ReportType,
		entry.CodVD,
		entry.Vendor,
		strconv.Itoa(entry.Records),
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Tail returns the last limit entries logged for the given user, oldest
// first.
func (l *RequestLog) Tail(user string, limit int) ([]entity.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var entries []entity.LogEntry
	for i, record := range records {
		if i == 0 || len(record) < len(logHeader) {
			continue
		}
		if record[1] != user {
			continue
		}
		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			continue
		}
		count, _ := strconv.Atoi(record[5])
		entries = append(entries, entity.LogEntry{
			Timestamp:  ts,
			User:       record[1],
			ReportType: record[2],
			CodVD:      record[3],
			Vendor:     record[4],
			Records:    count,
		})
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
