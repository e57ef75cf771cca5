package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageLog is an immutable draw of PercentUsed from one barrel, priced at
// allocation time against the barrel's batch.
type UsageLog struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date          time.Time       `gorm:"not null;index"`
	BarrelID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PercentUsed   decimal.Decimal `gorm:"type:numeric(7,4);not null"`
	AllocatedCost decimal.Decimal `gorm:"type:numeric(24,10);not null"`
	Notes         *string
	CreatedAt     time.Time

	Barrel *Barrel           `gorm:"foreignKey:BarrelID"`
	Link   *BottlingRunUsage `gorm:"foreignKey:UsageLogID"`
}

// Consumed reports whether the log has been linked to a bottling run.
// Only meaningful when Link was preloaded.
func (u *UsageLog) Consumed() bool { return u.Link != nil }
