package service

import (
	"context"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"
	"caskledger/internal/ledger"
	"caskledger/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// ReportService aggregates shipments into period reports. It reads the COGS
// frozen on each shipment and never recomputes cost.
type ReportService interface {
	MonthlyReport(ctx context.Context, month string) (*dto.MonthlyReportResponse, error)
}

type reportService struct {
	shipments repository.ShipmentRepository
}

func NewReportService(st repository.Stores) ReportService {
	return &reportService{shipments: st.Shipments}
}

// MonthlyReport groups the month's shipments by bottle type, in order of each
// type's first shipment.
func (s *reportService) MonthlyReport(ctx context.Context, month string) (*dto.MonthlyReportResponse, error) {
	ctx, span := tracer.Start(ctx, opMonthlyReport)
	defer span.End()
	span.SetAttributes(attribute.String("report.month", month))

	from, to, err := ledger.MonthRange(month)
	if err != nil {
		return nil, fail(span, opMonthlyReport, "", apierror.Validation("%s", err.Error()))
	}

	lines, err := s.shipments.LinesBetween(ctx, from, to)
	if err != nil {
		return nil, fail(span, opMonthlyReport, "failed to build monthly report", err)
	}

	resp := &dto.MonthlyReportResponse{
		Month:     month,
		Shipments: []dto.BottleTypeSummary{},
		TotalCOGS: decimal.Zero,
	}
	index := make(map[string]int)
	for _, line := range lines {
		i, ok := index[line.BottleType]
		if !ok {
			i = len(resp.Shipments)
			index[line.BottleType] = i
			resp.Shipments = append(resp.Shipments, dto.BottleTypeSummary{BottleType: line.BottleType, TotalCOGS: decimal.Zero})
		}
		resp.Shipments[i].TotalUnits += line.Quantity
		resp.Shipments[i].TotalCOGS = resp.Shipments[i].TotalCOGS.Add(line.COGS)
		resp.TotalCOGS = resp.TotalCOGS.Add(line.COGS)
	}

	log.Debug().
		Str("month", month).
		Int("shipments", len(lines)).
		Str("total_cogs", ledger.Display(resp.TotalCOGS)).
		Msg("monthly report built")
	return resp, nil
}
