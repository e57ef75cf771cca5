package repository

import (
	"context"
	"time"

	"caskledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShipmentLine is one shipment flattened with its run's bottle type, the shape
// the monthly report aggregates.
type ShipmentLine struct {
	BottleType string
	Quantity   int
	COGS       decimal.Decimal `gorm:"column:cogs"`
}

// ShipmentRepository defines the data access contract for shipments.
// Shipments are append-only.
type ShipmentRepository interface {
	CreateTx(tx *gorm.DB, s *model.Shipment) error
	// List returns every shipment newest first with its run preloaded.
	List(ctx context.Context) ([]model.Shipment, error)
	// LinesBetween returns shipments dated in [from, to) in date order.
	LinesBetween(ctx context.Context, from, to time.Time) ([]ShipmentLine, error)
	// SumCOGSSince totals COGS of shipments dated at or after from.
	SumCOGSSince(ctx context.Context, from time.Time) (decimal.Decimal, error)
}

type shipmentRepo struct{ db *gorm.DB }

func NewShipmentRepository(db *gorm.DB) ShipmentRepository { return &shipmentRepo{db: db} }

func (r *shipmentRepo) CreateTx(tx *gorm.DB, s *model.Shipment) error {
	return tx.Omit("BottlingRun").Create(s).Error
}

func (r *shipmentRepo) List(ctx context.Context) ([]model.Shipment, error) {
	var shipments []model.Shipment
	err := r.db.WithContext(ctx).Preload("BottlingRun").Order("date DESC, created_at DESC").Find(&shipments).Error
	return shipments, err
}

func (r *shipmentRepo) LinesBetween(ctx context.Context, from, to time.Time) ([]ShipmentLine, error) {
	var lines []ShipmentLine
	err := r.db.WithContext(ctx).Table("shipments").
		Select("bottling_runs.bottle_type, shipments.quantity, shipments.cogs").
		Joins("JOIN bottling_runs ON bottling_runs.id = shipments.bottling_run_id").
		Where("shipments.date >= ? AND shipments.date < ?", from, to).
		Order("shipments.date ASC, shipments.created_at ASC").
		Scan(&lines).Error
	return lines, err
}

func (r *shipmentRepo) SumCOGSSince(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Shipment{}).
		Select("COALESCE(SUM(cogs), 0)").
		Where("date >= ?", from).
		Row().Scan(&total)
	return total, err
}
