package service

import (
	"context"
	"strings"
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

// BatchService records barrel purchases and issues their barrels.
type BatchService interface {
	CreateBatch(ctx context.Context, req dto.CreateBatchRequest) (*dto.BatchResponse, error)
	ListBatches(ctx context.Context) ([]dto.BatchResponse, error)
}

type batchService struct {
	tx      repository.Transactor
	batches repository.BatchRepository
	barrels repository.BarrelRepository
	cache   Cache
}

func NewBatchService(st repository.Stores, cache Cache) BatchService {
	return &batchService{tx: st.Tx, batches: st.Batches, barrels: st.Barrels, cache: cache}
}

// ── CreateBatch ───────────────────────────────────────────────────────────────
//   1. Validate quantities
//   2. BEGIN TX: take the barrel sequence lock, read the highest issued number
//   3. Insert the batch and its numBarrels barrels (BAR-<n+1> … BAR-<n+k>)
//   4. COMMIT; a failure at any step leaves neither batch nor barrels behind

func (s *batchService) CreateBatch(ctx context.Context, req dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	ctx, span := tracer.Start(ctx, opCreateBatch)
	defer span.End()

	if req.NumBarrels < 1 {
		return nil, fail(span, opCreateBatch, "", apierror.Validation("numBarrels must be at least 1"))
	}
	if !req.TotalCost.IsPositive() {
		return nil, fail(span, opCreateBatch, "", apierror.Validation("totalCost must be greater than 0"))
	}
	if req.PurchaseDate.IsZero() {
		return nil, fail(span, opCreateBatch, "", apierror.Validation("purchaseDate is required"))
	}

	now := time.Now().UTC()
	batch := model.BarrelBatch{
		ID:           uuid.New(),
		Name:         trimmed(req.Name),
		PurchaseDate: req.PurchaseDate.UTC(),
		NumBarrels:   req.NumBarrels,
		TotalCost:    req.TotalCost,
		Supplier:     trimmed(req.Supplier),
		Notes:        req.Notes,
		CreatedAt:    now,
	}

	var barrels []model.Barrel
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.barrels.LockSequenceTx(tx); err != nil {
			return err
		}
		last, err := s.barrels.MaxSeqNoTx(tx)
		if err != nil {
			return err
		}
		if err := s.batches.CreateTx(tx, &batch); err != nil {
			return err
		}

		seqs := ledger.NextBarrelCodes(last, batch.NumBarrels)
		barrels = make([]model.Barrel, len(seqs))
		for i, seq := range seqs {
			barrels[i] = model.Barrel{
				ID:                 uuid.New(),
				Code:               seq.Code,
				SeqNo:              seq.SeqNo,
				BatchID:            batch.ID,
				CurrentFillPercent: ledger.FullFill,
				Status:             model.BarrelAging,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
		}
		return s.barrels.CreateManyTx(tx, barrels)
	})
	if err != nil {
		return nil, fail(span, opCreateBatch, "failed to create barrel batch", err)
	}

	barrelsIssued.Add(float64(len(barrels)))
	invalidateStats(ctx, s.cache)

	resp := batchToResponse(batch, int64(len(barrels)))
	resp.BarrelCodes = make([]string, len(barrels))
	for i, b := range barrels {
		resp.BarrelCodes[i] = b.Code
	}
	span.SetAttributes(
		attribute.String("batch.id", batch.ID.String()),
		attribute.Int("batch.num_barrels", batch.NumBarrels),
		attribute.String("barrel.first_code", resp.BarrelCodes[0]),
	)
	log.Info().
		Str("batch_id", batch.ID.String()).
		Int("barrels", len(barrels)).
		Str("first_code", resp.BarrelCodes[0]).
		Str("last_code", resp.BarrelCodes[len(barrels)-1]).
		Msg("barrel batch created")
	return resp, nil
}

func (s *batchService) ListBatches(ctx context.Context) ([]dto.BatchResponse, error) {
	ctx, span := tracer.Start(ctx, "batch.list")
	defer span.End()

	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, fail(span, opList, "failed to list barrel batches", err)
	}
	counts, err := s.barrels.CountByBatch(ctx)
	if err != nil {
		return nil, fail(span, opList, "failed to list barrel batches", err)
	}
	out := make([]dto.BatchResponse, len(batches))
	for i, b := range batches {
		out[i] = *batchToResponse(b, counts[b.ID])
	}
	return out, nil
}

func batchToResponse(b model.BarrelBatch, barrelCount int64) *dto.BatchResponse {
	return &dto.BatchResponse{
		ID:            b.ID.String(),
		Name:          b.Name,
		PurchaseDate:  dto.NewDate(b.PurchaseDate),
		NumBarrels:    b.NumBarrels,
		TotalCost:     b.TotalCost,
		CostPerBarrel: ledger.CostPerBarrel(b.TotalCost, b.NumBarrels),
		Supplier:      b.Supplier,
		Notes:         b.Notes,
		BarrelCount:   barrelCount,
		CreatedAt:     b.CreatedAt,
	}
}

// trimmed returns nil for nil or blank strings.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
