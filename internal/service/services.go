package service

import (
	"time"

	"caskledger/internal/repository"
)

// Services is the full set of ledger services, shared by the HTTP API and caskctl.
type Services struct {
	Batches   BatchService
	Barrels   BarrelService
	Usage     UsageService
	Bottling  BottlingService
	Shipments ShipmentService
	Reports   ReportService
	Dashboard DashboardService
}

// New wires every service over one set of stores. cache may be nil.
func New(st repository.Stores, cache Cache, statsTTL time.Duration) *Services {
	return &Services{
		Batches:   NewBatchService(st, cache),
		Barrels:   NewBarrelService(st, cache),
		Usage:     NewUsageService(st, cache),
		Bottling:  NewBottlingService(st, cache),
		Shipments: NewShipmentService(st, cache),
		Reports:   NewReportService(st),
		Dashboard: NewDashboardService(st, cache, statsTTL),
	}
}
