package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateShipmentRequest struct {
	Date          Date    `json:"date"          validate:"required"`
	BottlingRunID string  `json:"bottlingRunId" validate:"required,uuid"`
	Quantity      int     `json:"quantity"      validate:"required,min=1"`
	CustomerRef   *string `json:"customerRef"`
	Notes         *string `json:"notes"`
}

type ShipmentResponse struct {
	ID            string          `json:"id"`
	Date          Date            `json:"date"`
	BottlingRunID string          `json:"bottlingRunId"`
	RunName       string          `json:"runName,omitempty"`
	BottleType    string          `json:"bottleType,omitempty"`
	Quantity      int             `json:"quantity"`
	CustomerRef   *string         `json:"customerRef"`
	COGS          decimal.Decimal `json:"cogs"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"createdAt"`

	// Run inventory right after the shipment; set only on create.
	RemainingInventory *int `json:"remainingInventory,omitempty"`
}
