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
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// UsageService records draws from barrels and prices them.
type UsageService interface {
	CreateUsageLog(ctx context.Context, req dto.CreateUsageLogRequest) (*dto.UsageLogResponse, error)
	ListUsageLogs(ctx context.Context) ([]dto.UsageLogResponse, error)
}

type usageService struct {
	tx      repository.Transactor
	barrels repository.BarrelRepository
	logs    repository.UsageLogRepository
	cache   Cache
}

func NewUsageService(st repository.Stores, cache Cache) UsageService {
	return &usageService{tx: st.Tx, barrels: st.Barrels, logs: st.UsageLogs, cache: cache}
}

// ── CreateUsageLog ────────────────────────────────────────────────────────────
//   1. Validate percentUsed ∈ (0, 100]
//   2. BEGIN TX: lock the barrel row and load its batch
//   3. Reject draws larger than the remaining fill
//   4. Price the draw, decrement the fill (conditional update), insert the log
//   5. COMMIT

func (s *usageService) CreateUsageLog(ctx context.Context, req dto.CreateUsageLogRequest) (*dto.UsageLogResponse, error) {
	ctx, span := tracer.Start(ctx, opCreateUsageLog)
	defer span.End()

	barrelID, err := parseID("barrelId", req.BarrelID)
	if err != nil {
		return nil, fail(span, opCreateUsageLog, "", err)
	}
	pct := req.PercentUsed
	if !pct.IsPositive() || pct.GreaterThan(ledger.FullFill) {
		return nil, fail(span, opCreateUsageLog, "", apierror.Validation("percentUsed must be greater than 0 and at most 100"))
	}
	if !ledger.FitsPercentScale(pct) {
		return nil, fail(span, opCreateUsageLog, "", apierror.Validation("percentUsed allows at most %d decimal places", ledger.PercentPlaces))
	}
	if req.Date.IsZero() {
		return nil, fail(span, opCreateUsageLog, "", apierror.Validation("date is required"))
	}

	var (
		entry  model.UsageLog
		barrel *model.Barrel
	)
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		b, err := s.barrels.FindByIDForUpdateTx(tx, barrelID)
		if isNotFound(err) {
			return apierror.NotFound("barrel %s not found", barrelID)
		}
		if err != nil {
			return err
		}
		if pct.GreaterThan(b.CurrentFillPercent) {
			return insufficientFill(pct, b.CurrentFillPercent)
		}
		if b.Batch == nil {
			return fmt.Errorf("barrel %s: batch not loaded", b.ID)
		}

		ok, err := s.barrels.DecrementFillTx(tx, barrelID, pct)
		if err != nil {
			return err
		}
		if !ok {
			// The fill changed after the read; report what is left now.
			current, err := s.barrels.FindByIDForUpdateTx(tx, barrelID)
			if err != nil {
				return err
			}
			return insufficientFill(pct, current.CurrentFillPercent)
		}

		fill, depleted := ledger.RemainingFill(b.CurrentFillPercent, pct)
		b.CurrentFillPercent = fill
		if depleted {
			b.Status = model.BarrelEmpty
		}
		barrel = b

		entry = model.UsageLog{
			ID:            uuid.New(),
			Date:          req.Date.UTC(),
			BarrelID:      barrelID,
			PercentUsed:   pct,
			AllocatedCost: ledger.AllocatedCost(b.Batch.TotalCost, b.Batch.NumBarrels, pct),
			Notes:         req.Notes,
			CreatedAt:     time.Now().UTC(),
		}
		return s.logs.CreateTx(tx, &entry)
	})
	if err != nil {
		return nil, fail(span, opCreateUsageLog, "failed to record usage", err)
	}

	usageDraws.Inc()
	invalidateStats(ctx, s.cache)
	span.SetAttributes(
		attribute.String("barrel.code", barrel.Code),
		attribute.String("usage.percent", pct.String()),
	)
	log.Info().
		Str("usage_log_id", entry.ID.String()).
		Str("barrel", barrel.Code).
		Str("percent_used", pct.String()).
		Str("allocated_cost", ledger.Display(entry.AllocatedCost)).
		Str("fill_after", barrel.CurrentFillPercent.String()).
		Msg("usage recorded")

	entry.Barrel = barrel
	resp := usageLogToResponse(&entry)
	resp.BarrelFillPercent = decimalPtr(barrel.CurrentFillPercent)
	resp.BarrelStatus = string(barrel.Status)
	return resp, nil
}

func (s *usageService) ListUsageLogs(ctx context.Context) ([]dto.UsageLogResponse, error) {
	ctx, span := tracer.Start(ctx, "usage_log.list")
	defer span.End()

	logs, err := s.logs.List(ctx)
	if err != nil {
		return nil, fail(span, opList, "failed to list usage logs", err)
	}
	out := make([]dto.UsageLogResponse, len(logs))
	for i := range logs {
		out[i] = *usageLogToResponse(&logs[i])
	}
	return out, nil
}

func insufficientFill(requested, available decimal.Decimal) error {
	return apierror.Insufficient(
		fmt.Sprintf("cannot use %s%% - only %s%% remaining", requested, available),
		requested, available,
	)
}

func usageLogToResponse(u *model.UsageLog) *dto.UsageLogResponse {
	resp := &dto.UsageLogResponse{
		ID:            u.ID.String(),
		Date:          dto.NewDate(u.Date),
		BarrelID:      u.BarrelID.String(),
		PercentUsed:   u.PercentUsed,
		AllocatedCost: u.AllocatedCost,
		Notes:         u.Notes,
		Consumed:      u.Consumed(),
		CreatedAt:     u.CreatedAt,
	}
	if u.Barrel != nil {
		resp.BarrelCode = u.Barrel.Code
	}
	if u.Link != nil {
		resp.BottlingRunID = strPtr(u.Link.BottlingRunID.String())
	}
	return resp
}
