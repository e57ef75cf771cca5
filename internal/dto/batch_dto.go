package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateBatchRequest struct {
	Name         *string         `json:"name"`
	PurchaseDate Date            `json:"purchaseDate" validate:"required"`
	NumBarrels   int             `json:"numBarrels"   validate:"required,min=1"`
	TotalCost    decimal.Decimal `json:"totalCost"    validate:"required,gt=0"`
	Supplier     *string         `json:"supplier"`
	Notes        *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BatchResponse struct {
	ID            string          `json:"id"`
	Name          *string         `json:"name"`
	PurchaseDate  Date            `json:"purchaseDate"`
	NumBarrels    int             `json:"numBarrels"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	CostPerBarrel decimal.Decimal `json:"costPerBarrel"`
	Supplier      *string         `json:"supplier"`
	Notes         *string         `json:"notes"`
	BarrelCount   int64           `json:"barrelCount"`
	BarrelCodes   []string        `json:"barrelCodes,omitempty"` // only on create
	CreatedAt     time.Time       `json:"createdAt"`
}
