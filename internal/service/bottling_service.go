package service

import (
	"context"
	"errors"
	"strings"
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

// BottlingService turns usage logs into bottling runs.
type BottlingService interface {
	CreateBottlingRun(ctx context.Context, req dto.CreateBottlingRunRequest) (*dto.BottlingRunResponse, error)
	ListBottlingRuns(ctx context.Context) ([]dto.BottlingRunResponse, error)
}

type bottlingService struct {
	tx    repository.Transactor
	logs  repository.UsageLogRepository
	runs  repository.BottlingRunRepository
	cache Cache
}

func NewBottlingService(st repository.Stores, cache Cache) BottlingService {
	return &bottlingService{tx: st.Tx, logs: st.UsageLogs, runs: st.Runs, cache: cache}
}

// ── CreateBottlingRun ─────────────────────────────────────────────────────────
//   1. Validate the request and de-duplicate usageLogIds
//   2. BEGIN TX: lock every referenced usage log (id order)
//   3. Reject unknown logs (not found) and logs already consumed (conflict)
//   4. totalCost = Σ allocatedCost, unitCost = totalCost / bottles
//   5. Insert the run and its links; the unique link index is the final guard
//   6. COMMIT

func (s *bottlingService) CreateBottlingRun(ctx context.Context, req dto.CreateBottlingRunRequest) (*dto.BottlingRunResponse, error) {
	ctx, span := tracer.Start(ctx, opCreateRun)
	defer span.End()

	name := strings.TrimSpace(req.Name)
	bottleType := strings.TrimSpace(req.BottleType)
	switch {
	case name == "":
		return nil, fail(span, opCreateRun, "", apierror.Validation("name is required"))
	case bottleType == "":
		return nil, fail(span, opCreateRun, "", apierror.Validation("bottleType is required"))
	case req.TotalBottlesProduced < 1:
		return nil, fail(span, opCreateRun, "", apierror.Validation("totalBottlesProduced must be at least 1"))
	case len(req.UsageLogIDs) == 0:
		return nil, fail(span, opCreateRun, "", apierror.Validation("usageLogIds must contain at least one usage log"))
	case req.Date.IsZero():
		return nil, fail(span, opCreateRun, "", apierror.Validation("date is required"))
	}

	ids := make([]uuid.UUID, 0, len(req.UsageLogIDs))
	seen := make(map[uuid.UUID]bool, len(req.UsageLogIDs))
	for _, raw := range req.UsageLogIDs {
		id, err := parseID("usageLogIds", raw)
		if err != nil {
			return nil, fail(span, opCreateRun, "", err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	now := time.Now().UTC()
	run := model.BottlingRun{
		ID:                   uuid.New(),
		Name:                 name,
		Date:                 req.Date.UTC(),
		BottleType:           bottleType,
		TotalBottlesProduced: req.TotalBottlesProduced,
		RemainingInventory:   req.TotalBottlesProduced,
		Notes:                req.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		logs, err := s.logs.FindByIDsForUpdateTx(tx, ids)
		if err != nil {
			return err
		}
		if len(logs) != len(ids) {
			return apierror.NotFound("usage logs not found: %s", strings.Join(missingIDs(ids, logs), ", "))
		}

		linked, err := s.runs.FindLinksTx(tx, ids)
		if err != nil {
			return err
		}
		if len(linked) > 0 {
			taken := make([]string, len(linked))
			for i, l := range linked {
				taken[i] = l.UsageLogID.String()
			}
			return apierror.Conflict("usage logs already linked to a bottling run: %s", strings.Join(taken, ", "))
		}

		costs := make([]decimal.Decimal, len(logs))
		for i, l := range logs {
			costs[i] = l.AllocatedCost
		}
		run.TotalCost = ledger.SumCosts(costs...)
		run.UnitCost = ledger.UnitCost(run.TotalCost, run.TotalBottlesProduced)

		err = s.runs.CreateWithUsagesTx(tx, &run, ids)
		if errors.Is(err, repository.ErrAlreadyLinked) {
			return apierror.Conflict("one or more usage logs are already linked to a bottling run")
		}
		return err
	})
	if err != nil {
		return nil, fail(span, opCreateRun, "failed to create bottling run", err)
	}

	bottlingRuns.Inc()
	invalidateStats(ctx, s.cache)
	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.Int("run.usage_logs", len(ids)),
		attribute.Int("run.bottles", run.TotalBottlesProduced),
	)
	log.Info().
		Str("run_id", run.ID.String()).
		Str("bottle_type", run.BottleType).
		Int("usage_logs", len(ids)).
		Str("total_cost", ledger.Display(run.TotalCost)).
		Str("unit_cost", run.UnitCost.String()).
		Msg("bottling run created")
	return runToResponse(&run), nil
}

func (s *bottlingService) ListBottlingRuns(ctx context.Context) ([]dto.BottlingRunResponse, error) {
	ctx, span := tracer.Start(ctx, "bottling_run.list")
	defer span.End()

	runs, err := s.runs.List(ctx)
	if err != nil {
		return nil, fail(span, opList, "failed to list bottling runs", err)
	}
	out := make([]dto.BottlingRunResponse, len(runs))
	for i := range runs {
		out[i] = *runToResponse(&runs[i])
	}
	return out, nil
}

func missingIDs(want []uuid.UUID, found []model.UsageLog) []string {
	have := make(map[uuid.UUID]bool, len(found))
	for _, l := range found {
		have[l.ID] = true
	}
	var missing []string
	for _, id := range want {
		if !have[id] {
			missing = append(missing, id.String())
		}
	}
	return missing
}

func runToResponse(r *model.BottlingRun) *dto.BottlingRunResponse {
	resp := &dto.BottlingRunResponse{
		ID:                   r.ID.String(),
		Name:                 r.Name,
		Date:                 dto.NewDate(r.Date),
		BottleType:           r.BottleType,
		TotalBottlesProduced: r.TotalBottlesProduced,
		TotalCost:            r.TotalCost,
		UnitCost:             r.UnitCost,
		RemainingInventory:   r.RemainingInventory,
		Notes:                r.Notes,
		CreatedAt:            r.CreatedAt,
	}
	for _, u := range r.Usages {
		resp.UsageLogIDs = append(resp.UsageLogIDs, u.UsageLogID.String())
	}
	return resp
}
