package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateBottlingRunRequest struct {
	Name                 string   `json:"name"                 validate:"required,min=1,max=200"`
	Date                 Date     `json:"date"                 validate:"required"`
	BottleType           string   `json:"bottleType"           validate:"required,min=1,max=100"`
	TotalBottlesProduced int      `json:"totalBottlesProduced" validate:"required,min=1"`
	UsageLogIDs          []string `json:"usageLogIds"          validate:"required,min=1,dive,uuid"`
	Notes                *string  `json:"notes"`
}

type BottlingRunResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Date                 Date            `json:"date"`
	BottleType           string          `json:"bottleType"`
	TotalBottlesProduced int             `json:"totalBottlesProduced"`
	TotalCost            decimal.Decimal `json:"totalCost"`
	UnitCost             decimal.Decimal `json:"unitCost"`
	RemainingInventory   int             `json:"remainingInventory"`
	Notes                *string         `json:"notes"`
	UsageLogIDs          []string        `json:"usageLogIds,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
}
