// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Reports generated by report type.",
	}, []string{"type"})

	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Chat messages answered by chat type.",
	}, []string{"chat_type"})

	SheetReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheet_mirror_reloads_total",
		Help: "Full reloads of the sheet mirror.",
	})

	SheetFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet_mirror_fetch_failures_total",
		Help: "Failed sheet fetches by sheet id.",
	}, []string{"sheet"})
)
