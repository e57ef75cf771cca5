//go:build integration

package router

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"caskledger/internal/config"
	"caskledger/internal/dto"
	"caskledger/internal/infra"
	"caskledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Test Suite Setup ─────────────────────────────────────────────────────────

func setupIntegration(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("caskledger_test"),
		tcPostgres.WithUsername("cask"),
		tcPostgres.WithPassword("cask"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                  "test",
		RateLimitPerMinute:   100000,
		DatabaseURL:          pgURL,
		DBMaxOpenConns:       20,
		RedisURL:             rdURL,
		StatsCacheTTLSeconds: 30,
		ServiceName:          "caskledger-test",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	require.NoError(t, err)
	// Re-applying the schema must be a no-op.
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	gin.SetMode(gin.TestMode)
	return New(cfg, db, rdb)
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestIntegration_LedgerChain(t *testing.T) {
	r := setupIntegration(t)

	w := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"redis":"connected"`)

	w = do(t, r, http.MethodPost, "/v1/barrel-batches", gin.H{"purchaseDate": "2025-01-15", "numBarrels": 2, "totalCost": "1000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"BAR-001", "BAR-002"}, decode[dto.BatchResponse](t, w).BarrelCodes)

	w = do(t, r, http.MethodPost, "/v1/barrel-batches", gin.H{"purchaseDate": "2025-01-16", "numBarrels": 3, "totalCost": "900"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"BAR-003", "BAR-004", "BAR-005"}, decode[dto.BatchResponse](t, w).BarrelCodes)

	barrels := decode[[]dto.BarrelResponse](t, do(t, r, http.MethodGet, "/v1/barrels", nil))
	require.Len(t, barrels, 5)

	w = do(t, r, http.MethodPost, "/v1/usage-logs", gin.H{"date": "2025-02-01", "barrelId": barrels[0].ID, "percentUsed": "10"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	usage := decode[dto.UsageLogResponse](t, w)
	assertDecimal(t, "50", usage.AllocatedCost)
	assertDecimal(t, "90", *usage.BarrelFillPercent)

	w = do(t, r, http.MethodPost, "/v1/usage-logs", gin.H{"date": "2025-02-01", "barrelId": barrels[0].ID, "percentUsed": "95"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/v1/bottling-runs", gin.H{
		"name": "Run 1", "date": "2025-02-10", "bottleType": "750ml",
		"totalBottlesProduced": 100, "usageLogIds": []string{usage.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	run := decode[dto.BottlingRunResponse](t, w)
	assertDecimal(t, "0.5", run.UnitCost)

	w = do(t, r, http.MethodPost, "/v1/bottling-runs", gin.H{
		"name": "Run 2", "date": "2025-02-10", "bottleType": "750ml",
		"totalBottlesProduced": 10, "usageLogIds": []string{usage.ID},
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/v1/shipments", gin.H{"date": "2025-03-31T23:59:59Z", "bottlingRunId": run.ID, "quantity": 40})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assertDecimal(t, "20", decode[dto.ShipmentResponse](t, w).COGS)

	w = do(t, r, http.MethodPost, "/v1/shipments", gin.H{"date": "2025-03-06", "bottlingRunId": run.ID, "quantity": 61})
	require.Equal(t, http.StatusConflict, w.Code)

	report := decode[dto.MonthlyReportResponse](t, do(t, r, http.MethodGet, "/v1/reports/monthly?month=2025-03", nil))
	require.Len(t, report.Shipments, 1)
	assertDecimal(t, "20", report.TotalCOGS)

	// Cached stats are dropped by the next write.
	stats := decode[dto.DashboardStatsResponse](t, do(t, r, http.MethodGet, "/v1/dashboard/stats", nil))
	assert.Equal(t, int64(5), stats.TotalBarrels)
	do(t, r, http.MethodPost, "/v1/barrel-batches", gin.H{"purchaseDate": "2025-01-17", "numBarrels": 1, "totalCost": "10"})
	stats = decode[dto.DashboardStatsResponse](t, do(t, r, http.MethodGet, "/v1/dashboard/stats", nil))
	assert.Equal(t, int64(6), stats.TotalBarrels)
}

func TestIntegration_ConcurrentWrites(t *testing.T) {
	r := setupIntegration(t)

	// Concurrent batches: codes unique and gap-free.
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := do(t, r, http.MethodPost, "/v1/barrel-batches", gin.H{"purchaseDate": "2025-01-15", "numBarrels": 4, "totalCost": "400"})
			assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}()
	}
	wg.Wait()
	barrels := decode[[]dto.BarrelResponse](t, do(t, r, http.MethodGet, "/v1/barrels", nil))
	require.Len(t, barrels, 24)
	for i, b := range barrels {
		assert.Equal(t, i+1, mustSeq(t, b.Code))
	}

	// Concurrent draws never overdraw one barrel.
	var mu sync.Mutex
	var logIDs []string
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := do(t, r, http.MethodPost, "/v1/usage-logs", gin.H{"date": "2025-02-01", "barrelId": barrels[0].ID, "percentUsed": "10"})
			if w.Code == http.StatusCreated {
				mu.Lock()
				logIDs = append(logIDs, decode[dto.UsageLogResponse](t, w).ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, logIDs, 10)

	// Concurrent runs over the same log: one winner.
	created := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := do(t, r, http.MethodPost, "/v1/bottling-runs", gin.H{
				"name": "race", "date": "2025-02-10", "bottleType": "750ml",
				"totalBottlesProduced": 100, "usageLogIds": logIDs[:2],
			})
			if w.Code == http.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			} else {
				assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)

	runs := decode[[]dto.BottlingRunResponse](t, do(t, r, http.MethodGet, "/v1/bottling-runs", nil))
	require.Len(t, runs, 1)

	// Concurrent shipments never oversell.
	shipped := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := do(t, r, http.MethodPost, "/v1/shipments", gin.H{"date": "2025-03-05", "bottlingRunId": runs[0].ID, "quantity": 7})
			if w.Code == http.StatusCreated {
				mu.Lock()
				shipped += 7
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 98, shipped)
	runs = decode[[]dto.BottlingRunResponse](t, do(t, r, http.MethodGet, "/v1/bottling-runs", nil))
	assert.Equal(t, 2, runs[0].RemainingInventory)
}

func mustSeq(t *testing.T, code string) int {
	t.Helper()
	n, err := ledger.ParseBarrelCode(code)
	require.NoError(t, err)
	return n
}
