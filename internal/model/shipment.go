package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is an immutable outgoing record. COGS is frozen at creation and is
// never recomputed from the run.
type Shipment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date          time.Time       `gorm:"not null;index"`
	BottlingRunID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity      int             `gorm:"not null"`
	CustomerRef   *string
	COGS          decimal.Decimal `gorm:"column:cogs;type:numeric(24,10);not null"`
	Notes         *string
	CreatedAt     time.Time

	BottlingRun *BottlingRun `gorm:"foreignKey:BottlingRunID"`
}
