package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"
	"caskledger/internal/infra"
	"caskledger/internal/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── In-memory cache stub ──────────────────────────────────────────────────────

type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
}

func newStubCache() *stubCache { return &stubCache{entries: make(map[string][]byte)} }

func (c *stubCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, infra.ErrCacheMiss
	}
	return v, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.deletes++
	return nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	store *memstore.Store
	cache *stubCache
	svc   *Services
}

func newFixture() *fixture {
	store := memstore.New()
	cache := newStubCache()
	return &fixture{store: store, cache: cache, svc: New(store.Stores(), cache, time.Minute)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) batch(t *testing.T, n int, total string) *dto.BatchResponse {
	t.Helper()
	resp, err := f.svc.Batches.CreateBatch(context.Background(), dto.CreateBatchRequest{
		PurchaseDate: dto.MustDate("2025-01-15"),
		NumBarrels:   n,
		TotalCost:    dec(total),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) barrelID(t *testing.T, code string) string {
	t.Helper()
	barrels, err := f.svc.Barrels.ListBarrels(context.Background(), dto.BarrelFilter{})
	require.NoError(t, err)
	for _, b := range barrels {
		if b.Code == code {
			return b.ID
		}
	}
	t.Fatalf("barrel %s not found", code)
	return ""
}

func (f *fixture) use(t *testing.T, barrelID, pct string) *dto.UsageLogResponse {
	t.Helper()
	resp, err := f.svc.Usage.CreateUsageLog(context.Background(), dto.CreateUsageLogRequest{
		Date:        dto.MustDate("2025-02-01"),
		BarrelID:    barrelID,
		PercentUsed: dec(pct),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) run(t *testing.T, bottles int, bottleType string, logIDs ...string) *dto.BottlingRunResponse {
	t.Helper()
	resp, err := f.svc.Bottling.CreateBottlingRun(context.Background(), runRequest(bottles, bottleType, logIDs...))
	require.NoError(t, err)
	return resp
}

func runRequest(bottles int, bottleType string, logIDs ...string) dto.CreateBottlingRunRequest {
	return dto.CreateBottlingRunRequest{
		Name:                 "Run " + bottleType,
		Date:                 dto.MustDate("2025-02-10"),
		BottleType:           bottleType,
		TotalBottlesProduced: bottles,
		UsageLogIDs:          logIDs,
	}
}

func shipRequest(runID string, qty int, date string) dto.CreateShipmentRequest {
	return dto.CreateShipmentRequest{Date: dto.MustDate(date), BottlingRunID: runID, Quantity: qty}
}

func requireKind(t *testing.T, err error, kind apierror.Kind) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apierror.As(err)
	require.True(t, ok, "expected *apierror.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, e.Detail)
	return e
}
