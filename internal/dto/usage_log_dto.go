package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateUsageLogRequest struct {
	Date        Date            `json:"date"        validate:"required"`
	BarrelID    string          `json:"barrelId"    validate:"required,uuid"`
	PercentUsed decimal.Decimal `json:"percentUsed" validate:"required,gt=0,lte=100"`
	Notes       *string         `json:"notes"`
}

type UsageLogResponse struct {
	ID            string          `json:"id"`
	Date          Date            `json:"date"`
	BarrelID      string          `json:"barrelId"`
	BarrelCode    string          `json:"barrelCode,omitempty"`
	PercentUsed   decimal.Decimal `json:"percentUsed"`
	AllocatedCost decimal.Decimal `json:"allocatedCost"`
	Notes         *string         `json:"notes"`
	Consumed      bool            `json:"consumed"`
	BottlingRunID *string         `json:"bottlingRunId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`

	// Barrel state right after the draw; set only on create.
	BarrelFillPercent *decimal.Decimal `json:"barrelFillPercent,omitempty"`
	BarrelStatus      string           `json:"barrelStatus,omitempty"`
}
