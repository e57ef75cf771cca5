package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BarrelStatus is the lifecycle state of a barrel.
type BarrelStatus string

const (
	BarrelAging        BarrelStatus = "Aging"
	BarrelInProduction BarrelStatus = "InProduction"
	BarrelEmpty        BarrelStatus = "Empty"
	BarrelReserved     BarrelStatus = "Reserved"
	BarrelDamaged      BarrelStatus = "Damaged"
)

// BarrelStatuses lists every valid status, in display order.
var BarrelStatuses = []BarrelStatus{BarrelAging, BarrelInProduction, BarrelEmpty, BarrelReserved, BarrelDamaged}

// Valid reports whether s is one of BarrelStatuses.
func (s BarrelStatus) Valid() bool {
	for _, v := range BarrelStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Barrel is one physical unit from a batch. Code is the human-readable label
// (BAR-001); SeqNo is its numeric suffix, unique across all batches.
type Barrel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code               string          `gorm:"uniqueIndex;not null"`
	SeqNo              int             `gorm:"uniqueIndex;not null"`
	BatchID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	GroupLabel         *string
	CurrentFillPercent decimal.Decimal `gorm:"type:numeric(7,4);not null;default:100"`
	Status             BarrelStatus    `gorm:"not null;default:'Aging'"`
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Batch *BarrelBatch `gorm:"foreignKey:BatchID"`
}
