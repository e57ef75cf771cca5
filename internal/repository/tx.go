package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrAlreadyLinked is returned when a usage log is already consumed by a run.
var ErrAlreadyLinked = errors.New("usage log already linked to a bottling run")

// Transactor runs fn inside a single database transaction. fn's error rolls
// the whole transaction back; repository methods ending in Tx must only be
// called with the tx handed to fn.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct{ db *gorm.DB }

func NewTransactor(db *gorm.DB) Transactor { return &gormTransactor{db: db} }

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// Stores bundles every repository the services depend on, plus the
// transaction runner they share.
type Stores struct {
	Tx        Transactor
	Batches   BatchRepository
	Barrels   BarrelRepository
	UsageLogs UsageLogRepository
	Runs      BottlingRunRepository
	Shipments ShipmentRepository
}

// NewGormStores wires the Postgres-backed repositories.
func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Tx:        NewTransactor(db),
		Batches:   NewBatchRepository(db),
		Barrels:   NewBarrelRepository(db),
		UsageLogs: NewUsageLogRepository(db),
		Runs:      NewBottlingRunRepository(db),
		Shipments: NewShipmentRepository(db),
	}
}
