// Package seed loads the sample data set through the ledger services, so the
// data honours every invariant the API enforces.
package seed

import (
	"context"
	"fmt"

	"caskledger/internal/dto"
	"caskledger/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Summary identifies what Run created.
type Summary struct {
	BatchID     string
	BarrelCodes []string
	UsageLogIDs []string
	RunIDs      []string
	ShipmentIDs []string
}

// Run creates one batch of 100 barrels for 100000 and labels the first ten
// into two groups. It draws 5% and 10% from the first two barrels issued,
// bottles each draw into its own run and ships 100 bottles of the first run.
func Run(ctx context.Context, svcs *service.Services) (*Summary, error) {
	sum := &Summary{}

	batch, err := svcs.Batches.CreateBatch(ctx, dto.CreateBatchRequest{
		Name:         ptr("Q1 2025 Purchase"),
		PurchaseDate: dto.MustDate("2025-01-15"),
		NumBarrels:   100,
		TotalCost:    decimal.NewFromInt(100000),
		Supplier:     ptr("Kentucky Barrel Co."),
		Notes:        ptr("Initial purchase for 2025 production"),
	})
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	sum.BatchID = batch.ID
	sum.BarrelCodes = batch.BarrelCodes

	barrels, err := svcs.Barrels.ListBarrels(ctx, dto.BarrelFilter{})
	if err != nil {
		return nil, fmt.Errorf("list barrels: %w", err)
	}
	idByCode := make(map[string]string, len(barrels))
	for _, b := range barrels {
		idByCode[b.Code] = b.ID
	}

	for i, code := range batch.BarrelCodes[:10] {
		label := "2025 Rye Private Selection - Group A"
		if i >= 5 {
			label = "2025 Rye Private Selection - Group B"
		}
		if _, err := svcs.Barrels.UpdateBarrel(ctx, uuid.MustParse(idByCode[code]), dto.UpdateBarrelRequest{GroupLabel: ptr(label)}); err != nil {
			return nil, fmt.Errorf("label %s: %w", code, err)
		}
	}

	draws := []struct {
		code, date, pct, notes string
		run                    string
		runDate                string
		bottles                int
		runNotes               *string
	}{
		{batch.BarrelCodes[0], "2025-02-01", "5", "Initial tasting sample", "2025 Rye Batch 1", "2025-02-15", 500, ptr("First production run")},
		{batch.BarrelCodes[1], "2025-02-10", "10", "Production usage", "2025 Rye Batch 2", "2025-02-20", 1000, nil},
	}
	for _, d := range draws {
		usage, err := svcs.Usage.CreateUsageLog(ctx, dto.CreateUsageLogRequest{
			Date:        dto.MustDate(d.date),
			BarrelID:    idByCode[d.code],
			PercentUsed: decimal.RequireFromString(d.pct),
			Notes:       ptr(d.notes),
		})
		if err != nil {
			return nil, fmt.Errorf("draw from %s: %w", d.code, err)
		}
		sum.UsageLogIDs = append(sum.UsageLogIDs, usage.ID)

		run, err := svcs.Bottling.CreateBottlingRun(ctx, dto.CreateBottlingRunRequest{
			Name:                 d.run,
			Date:                 dto.MustDate(d.runDate),
			BottleType:           "RYE-750ML-001",
			TotalBottlesProduced: d.bottles,
			UsageLogIDs:          []string{usage.ID},
			Notes:                d.runNotes,
		})
		if err != nil {
			return nil, fmt.Errorf("bottle %s: %w", d.run, err)
		}
		sum.RunIDs = append(sum.RunIDs, run.ID)
	}

	shipment, err := svcs.Shipments.CreateShipment(ctx, dto.CreateShipmentRequest{
		Date:          dto.MustDate("2025-03-01"),
		BottlingRunID: sum.RunIDs[0],
		Quantity:      100,
		CustomerRef:   ptr("SUB-001"),
		Notes:         ptr("Monthly subscription shipment"),
	})
	if err != nil {
		return nil, fmt.Errorf("ship: %w", err)
	}
	sum.ShipmentIDs = append(sum.ShipmentIDs, shipment.ID)

	log.Info().
		Str("batch_id", sum.BatchID).
		Int("barrels", len(sum.BarrelCodes)).
		Int("runs", len(sum.RunIDs)).
		Int("shipments", len(sum.ShipmentIDs)).
		Msg("seed data loaded")
	return sum, nil
}

func ptr(s string) *string { return &s }
