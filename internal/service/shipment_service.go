package service

import (
	"context"
	"fmt"
	"time"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"
	"caskledger/internal/ledger"
	"caskledger/internal/model"
	"caskledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ShipmentService ships bottles out of a run's inventory at frozen COGS.
type ShipmentService interface {
	CreateShipment(ctx context.Context, req dto.CreateShipmentRequest) (*dto.ShipmentResponse, error)
	ListShipments(ctx context.Context) ([]dto.ShipmentResponse, error)
}

type shipmentService struct {
	tx        repository.Transactor
	runs      repository.BottlingRunRepository
	shipments repository.ShipmentRepository
	cache     Cache
}

func NewShipmentService(st repository.Stores, cache Cache) ShipmentService {
	return &shipmentService{tx: st.Tx, runs: st.Runs, shipments: st.Shipments, cache: cache}
}

// ── CreateShipment ────────────────────────────────────────────────────────────
//   1. BEGIN TX: lock the run row
//   2. Reject quantities above remainingInventory
//   3. Decrement inventory (conditional update), insert the shipment with
//      cogs = unitCost × quantity
//   4. COMMIT

func (s *shipmentService) CreateShipment(ctx context.Context, req dto.CreateShipmentRequest) (*dto.ShipmentResponse, error) {
	ctx, span := tracer.Start(ctx, opCreateShipment)
	defer span.End()

	runID, err := parseID("bottlingRunId", req.BottlingRunID)
	if err != nil {
		return nil, fail(span, opCreateShipment, "", err)
	}
	if req.Quantity < 1 {
		return nil, fail(span, opCreateShipment, "", apierror.Validation("quantity must be at least 1"))
	}
	if req.Date.IsZero() {
		return nil, fail(span, opCreateShipment, "", apierror.Validation("date is required"))
	}

	var (
		shipment model.Shipment
		run      *model.BottlingRun
	)
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		r, err := s.runs.FindByIDForUpdateTx(tx, runID)
		if isNotFound(err) {
			return apierror.NotFound("bottling run %s not found", runID)
		}
		if err != nil {
			return err
		}
		if req.Quantity > r.RemainingInventory {
			return insufficientStock(req.Quantity, r.RemainingInventory)
		}

		ok, err := s.runs.DecrementInventoryTx(tx, runID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			current, err := s.runs.FindByIDForUpdateTx(tx, runID)
			if err != nil {
				return err
			}
			return insufficientStock(req.Quantity, current.RemainingInventory)
		}
		r.RemainingInventory -= req.Quantity
		run = r

		shipment = model.Shipment{
			ID:            uuid.New(),
			Date:          req.Date.UTC(),
			BottlingRunID: runID,
			Quantity:      req.Quantity,
			CustomerRef:   trimmed(req.CustomerRef),
			COGS:          ledger.COGS(r.UnitCost, req.Quantity),
			Notes:         req.Notes,
			CreatedAt:     time.Now().UTC(),
		}
		return s.shipments.CreateTx(tx, &shipment)
	})
	if err != nil {
		return nil, fail(span, opCreateShipment, "failed to create shipment", err)
	}

	bottlesShipped.WithLabelValues(run.BottleType).Add(float64(shipment.Quantity))
	cogs, _ := shipment.COGS.Float64()
	shipmentCOGS.Observe(cogs)
	invalidateStats(ctx, s.cache)
	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.Int("shipment.quantity", shipment.Quantity),
		attribute.Int("run.remaining_inventory", run.RemainingInventory),
	)
	log.Info().
		Str("shipment_id", shipment.ID.String()).
		Str("run_id", run.ID.String()).
		Int("quantity", shipment.Quantity).
		Str("cogs", ledger.Display(shipment.COGS)).
		Int("remaining", run.RemainingInventory).
		Msg("shipment recorded")

	shipment.BottlingRun = run
	resp := shipmentToResponse(&shipment)
	remaining := run.RemainingInventory
	resp.RemainingInventory = &remaining
	return resp, nil
}

func (s *shipmentService) ListShipments(ctx context.Context) ([]dto.ShipmentResponse, error) {
	ctx, span := tracer.Start(ctx, "shipment.list")
	defer span.End()

	shipments, err := s.shipments.List(ctx)
	if err != nil {
		return nil, fail(span, opList, "failed to list shipments", err)
	}
	out := make([]dto.ShipmentResponse, len(shipments))
	for i := range shipments {
		out[i] = *shipmentToResponse(&shipments[i])
	}
	return out, nil
}

func insufficientStock(requested, available int) error {
	return apierror.Insufficient(
		fmt.Sprintf("cannot ship %d bottles - only %d remaining", requested, available),
		requested, available,
	)
}

func shipmentToResponse(sh *model.Shipment) *dto.ShipmentResponse {
	resp := &dto.ShipmentResponse{
		ID:            sh.ID.String(),
		Date:          dto.NewDate(sh.Date),
		BottlingRunID: sh.BottlingRunID.String(),
		Quantity:      sh.Quantity,
		CustomerRef:   sh.CustomerRef,
		COGS:          sh.COGS,
		Notes:         sh.Notes,
		CreatedAt:     sh.CreatedAt,
	}
	if sh.BottlingRun != nil {
		resp.RunName = sh.BottlingRun.Name
		resp.BottleType = sh.BottlingRun.BottleType
	}
	return resp
}
