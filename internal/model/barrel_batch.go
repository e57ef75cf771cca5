package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BarrelBatch is a single purchase event. Immutable once created; the cost per
// barrel is derived on read (see ledger.CostPerBarrel) and never stored.
type BarrelBatch struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         *string
	PurchaseDate time.Time       `gorm:"not null;index"`
	NumBarrels   int             `gorm:"not null"`
	TotalCost    decimal.Decimal `gorm:"type:numeric(24,10);not null"`
	Supplier     *string
	Notes        *string
	CreatedAt    time.Time

	Barrels []Barrel `gorm:"foreignKey:BatchID"`
}

// TableName overrides GORM's default pluralization.
func (BarrelBatch) TableName() string { return "barrel_batches" }
