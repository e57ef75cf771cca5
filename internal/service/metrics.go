package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels shared by logs, spans and metrics.
const (
	opCreateBatch    = "batch.create"
	opUpdateBarrel   = "barrel.update"
	opCreateUsageLog = "usage_log.create"
	opCreateRun      = "bottling_run.create"
	opCreateShipment = "shipment.create"
	opMonthlyReport  = "report.monthly"
	opDashboardStats = "dashboard.stats"
	opList           = "list"
)

var (
	barrelsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caskledger_barrels_issued_total",
		Help: "Barrels created by batch purchases.",
	})
	usageDraws = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caskledger_usage_draws_total",
		Help: "Usage logs recorded against barrels.",
	})
	bottlingRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caskledger_bottling_runs_total",
		Help: "Bottling runs created.",
	})
	bottlesShipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caskledger_bottles_shipped_total",
		Help: "Bottles shipped, by bottle type.",
	}, []string{"bottle_type"})
	shipmentCOGS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caskledger_shipment_cogs",
		Help:    "Cost of goods sold per shipment.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	ledgerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caskledger_ledger_errors_total",
		Help: "Failed ledger operations by operation and error kind.",
	}, []string{"op", "kind"})
	statsCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caskledger_stats_cache_lookups_total",
		Help: "Dashboard stats cache lookups by result.",
	}, []string{"result"})
)
