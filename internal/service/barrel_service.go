package service

import (
	"context"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"
	"caskledger/internal/ledger"
	"caskledger/internal/model"
	"caskledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BarrelService lists barrels and applies manual edits to them.
type BarrelService interface {
	ListBarrels(ctx context.Context, filter dto.BarrelFilter) ([]dto.BarrelResponse, error)
	UpdateBarrel(ctx context.Context, id uuid.UUID, req dto.UpdateBarrelRequest) (*dto.BarrelResponse, error)
}

type barrelService struct {
	tx      repository.Transactor
	barrels repository.BarrelRepository
	cache   Cache
}

func NewBarrelService(st repository.Stores, cache Cache) BarrelService {
	return &barrelService{tx: st.Tx, barrels: st.Barrels, cache: cache}
}

func (s *barrelService) ListBarrels(ctx context.Context, filter dto.BarrelFilter) ([]dto.BarrelResponse, error) {
	ctx, span := tracer.Start(ctx, "barrel.list")
	defer span.End()

	barrels, err := s.barrels.List(ctx)
	if err != nil {
		return nil, fail(span, opList, "failed to list barrels", err)
	}
	out := make([]dto.BarrelResponse, len(barrels))
	for i := range barrels {
		out[i] = *barrelToResponse(&barrels[i], filter.IncludeBatch)
	}
	return out, nil
}

// UpdateBarrel edits the mutable fields. Setting fill to 0 forces the status
// to Empty; raising the fill of an Empty barrel leaves it Empty unless the
// same request sets another status.
func (s *barrelService) UpdateBarrel(ctx context.Context, id uuid.UUID, req dto.UpdateBarrelRequest) (*dto.BarrelResponse, error) {
	ctx, span := tracer.Start(ctx, opUpdateBarrel)
	defer span.End()

	upd := repository.BarrelUpdate{GroupLabel: req.GroupLabel, Notes: req.Notes}
	if req.Status != nil {
		status := model.BarrelStatus(*req.Status)
		if !status.Valid() {
			return nil, fail(span, opUpdateBarrel, "", apierror.Validation("status %q is not a valid barrel status", *req.Status))
		}
		upd.Status = &status
	}
	if req.CurrentFillPercent != nil {
		fill := *req.CurrentFillPercent
		if fill.IsNegative() || fill.GreaterThan(ledger.FullFill) {
			return nil, fail(span, opUpdateBarrel, "", apierror.Validation("currentFillPercent must be between 0 and 100"))
		}
		if !ledger.FitsPercentScale(fill) {
			return nil, fail(span, opUpdateBarrel, "", apierror.Validation("currentFillPercent allows at most %d decimal places", ledger.PercentPlaces))
		}
		upd.CurrentFillPercent = &fill
		if fill.IsZero() {
			empty := model.BarrelEmpty
			upd.Status = &empty
		}
	}

	var barrel *model.Barrel
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		b, err := s.barrels.FindByIDForUpdateTx(tx, id)
		if isNotFound(err) {
			return apierror.NotFound("barrel %s not found", id)
		}
		if err != nil {
			return err
		}
		if err := s.barrels.UpdateTx(tx, id, upd); err != nil {
			return err
		}
		applyBarrelUpdate(b, upd)
		barrel = b
		return nil
	})
	if err != nil {
		return nil, fail(span, opUpdateBarrel, "failed to update barrel", err)
	}

	invalidateStats(ctx, s.cache)
	log.Info().Str("barrel", barrel.Code).Str("status", string(barrel.Status)).Msg("barrel updated")
	return barrelToResponse(barrel, true), nil
}

func applyBarrelUpdate(b *model.Barrel, u repository.BarrelUpdate) {
	if u.GroupLabel != nil {
		b.GroupLabel = u.GroupLabel
	}
	if u.CurrentFillPercent != nil {
		b.CurrentFillPercent = *u.CurrentFillPercent
	}
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.Notes != nil {
		b.Notes = u.Notes
	}
}

func barrelToResponse(b *model.Barrel, includeBatch bool) *dto.BarrelResponse {
	resp := &dto.BarrelResponse{
		ID:                 b.ID.String(),
		Code:               b.Code,
		BatchID:            b.BatchID.String(),
		GroupLabel:         b.GroupLabel,
		CurrentFillPercent: b.CurrentFillPercent,
		Status:             string(b.Status),
		Notes:              b.Notes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.Batch == nil {
		return resp
	}
	resp.BatchName = b.Batch.Name
	if includeBatch {
		total := b.Batch.TotalCost
		n := b.Batch.NumBarrels
		perBarrel := ledger.CostPerBarrel(total, n)
		resp.BatchTotalCost = &total
		resp.BatchNumBarrels = &n
		resp.CostPerBarrel = &perBarrel
	}
	return resp
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
