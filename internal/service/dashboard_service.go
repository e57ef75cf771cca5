package service

import (
	"context"
	"encoding/json"
	"time"

	"caskledger/internal/dto"
	"caskledger/internal/ledger"
	"caskledger/internal/model"
	"caskledger/internal/repository"

	"github.com/rs/zerolog/log"
)

// DashboardService serves the headline figures, cached in Redis for a short
// TTL and dropped on every ledger write.
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStatsResponse, error)
}

type dashboardService struct {
	barrels   repository.BarrelRepository
	runs      repository.BottlingRunRepository
	shipments repository.ShipmentRepository
	cache     Cache
	ttl       time.Duration
	now       func() time.Time
}

func NewDashboardService(st repository.Stores, cache Cache, ttl time.Duration) DashboardService {
	return &dashboardService{
		barrels:   st.Barrels,
		runs:      st.Runs,
		shipments: st.Shipments,
		cache:     cache,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	ctx, span := tracer.Start(ctx, opDashboardStats)
	defer span.End()

	if cached := s.cached(ctx); cached != nil {
		return cached, nil
	}

	total, err := s.barrels.Count(ctx, nil)
	if err != nil {
		return nil, fail(span, opDashboardStats, "failed to load dashboard stats", err)
	}
	aging := model.BarrelAging
	agingCount, err := s.barrels.Count(ctx, &aging)
	if err != nil {
		return nil, fail(span, opDashboardStats, "failed to load dashboard stats", err)
	}
	bottled, err := s.runs.SumRemainingInventory(ctx)
	if err != nil {
		return nil, fail(span, opDashboardStats, "failed to load dashboard stats", err)
	}
	cogs, err := s.shipments.SumCOGSSince(ctx, ledger.MonthStart(s.now()))
	if err != nil {
		return nil, fail(span, opDashboardStats, "failed to load dashboard stats", err)
	}

	stats := &dto.DashboardStatsResponse{
		TotalBarrels:     total,
		AgingBarrels:     agingCount,
		BottledInventory: bottled,
		MonthlyCOGS:      cogs,
	}
	s.store(ctx, stats)
	return stats, nil
}

func (s *dashboardService) cached(ctx context.Context) *dto.DashboardStatsResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey)
	if err != nil {
		statsCacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	var stats dto.DashboardStatsResponse
	if err := json.Unmarshal(raw, &stats); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable cached stats")
		statsCacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	statsCacheLookups.WithLabelValues("hit").Inc()
	return &stats
}

// store caches stats for the TTL. A read that overlaps a committing write can
// store pre-write figures after that write's invalidation; they stay at most
// one TTL.
func (s *dashboardService) store(ctx context.Context, stats *dto.DashboardStatsResponse) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, s.ttl); err != nil {
		log.Warn().Err(err).Msg("stats cache write failed")
	}
}
