package infra

import (
	"bytes"
	"testing"
	"time"

	"caskledger/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMonthlyReportPDF(t *testing.T) {
	report := &dto.MonthlyReportResponse{
		Month: "2025-03",
		Shipments: []dto.BottleTypeSummary{
			{BottleType: "750ml", TotalUnits: 40, TotalCOGS: decimal.NewFromInt(20)},
		},
		TotalCOGS: decimal.NewFromInt(20),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyReportPDF(&buf, report, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWriteMonthlyReportPDF_EmptyMonth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyReportPDF(&buf, &dto.MonthlyReportResponse{Month: "2024-12"}, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
