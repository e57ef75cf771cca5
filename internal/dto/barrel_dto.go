package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateBarrelRequest is a partial update; nil fields are left untouched.
type UpdateBarrelRequest struct {
	GroupLabel         *string          `json:"groupLabel"`
	CurrentFillPercent *decimal.Decimal `json:"currentFillPercent" validate:"omitempty,gte=0,lte=100"`
	Status             *string          `json:"status"             validate:"omitempty,oneof=Aging InProduction Empty Reserved Damaged"`
	Notes              *string          `json:"notes"`
}

type BarrelFilter struct {
	IncludeBatch bool `form:"includeBatch"`
}

type BarrelResponse struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	BatchID            string          `json:"batchId"`
	BatchName          *string         `json:"batchName"`
	GroupLabel         *string         `json:"groupLabel"`
	CurrentFillPercent decimal.Decimal `json:"currentFillPercent"`
	Status             string          `json:"status"`
	Notes              *string         `json:"notes"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`

	// Populated only when includeBatch=true.
	BatchTotalCost  *decimal.Decimal `json:"batchTotalCost,omitempty"`
	BatchNumBarrels *int             `json:"batchNumBarrels,omitempty"`
	CostPerBarrel   *decimal.Decimal `json:"costPerBarrel,omitempty"`
}
