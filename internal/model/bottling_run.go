package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BottlingRun is a finished-goods lot. Everything except RemainingInventory is
// fixed at creation.
type BottlingRun struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string          `gorm:"not null"`
	Date                 time.Time       `gorm:"not null;index"`
	BottleType           string          `gorm:"not null;index"`
	TotalBottlesProduced int             `gorm:"not null"`
	TotalCost            decimal.Decimal `gorm:"type:numeric(24,10);not null"`
	UnitCost             decimal.Decimal `gorm:"type:numeric(24,10);not null"`
	RemainingInventory   int             `gorm:"not null"`
	Notes                *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Usages []BottlingRunUsage `gorm:"foreignKey:BottlingRunID"`
}

// BottlingRunUsage links a usage log to the run that consumed it. UsageLogID is
// unique: a log funds at most one run.
type BottlingRunUsage struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BottlingRunID uuid.UUID `gorm:"type:uuid;not null;index"`
	UsageLogID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt     time.Time
}
