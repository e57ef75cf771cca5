package dto

import "github.com/shopspring/decimal"

type MonthlyReportQuery struct {
	Month  string `form:"month"`
	Format string `form:"format" binding:"omitempty,oneof=json pdf"`
}

// BottleTypeSummary is one group of the monthly report.
type BottleTypeSummary struct {
	BottleType string          `json:"bottleType"`
	TotalUnits int             `json:"totalUnits"`
	TotalCOGS  decimal.Decimal `json:"totalCOGS"`
}

type MonthlyReportResponse struct {
	Month     string              `json:"month"`
	Shipments []BottleTypeSummary `json:"shipments"`
	TotalCOGS decimal.Decimal     `json:"totalCOGS"`
}

type DashboardStatsResponse struct {
	TotalBarrels     int64           `json:"totalBarrels"`
	AgingBarrels     int64           `json:"agingBarrels"`
	BottledInventory int64           `json:"bottledInventory"`
	MonthlyCOGS      decimal.Decimal `json:"monthlyCOGS"`
}
