package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"
	"caskledger/internal/ledger"
	"caskledger/internal/repository/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBatch_IssuesCodesAndCost(t *testing.T) {
	f := newFixture()

	resp := f.batch(t, 2, "1000")
	assert.Equal(t, []string{"BAR-001", "BAR-002"}, resp.BarrelCodes)
	assert.Equal(t, int64(2), resp.BarrelCount)
	assert.True(t, resp.CostPerBarrel.Equal(dec("500")))

	barrels, err := f.svc.Barrels.ListBarrels(context.Background(), dto.BarrelFilter{})
	require.NoError(t, err)
	require.Len(t, barrels, 2)
	for _, b := range barrels {
		assert.True(t, b.CurrentFillPercent.Equal(dec("100")))
		assert.Equal(t, "Aging", b.Status)
		assert.Equal(t, resp.ID, b.BatchID)
	}
}

func TestCreateBatch_BackToBackContinuesSequence(t *testing.T) {
	f := newFixture()
	f.batch(t, 3, "300")
	second := f.batch(t, 2, "200")
	assert.Equal(t, []string{"BAR-004", "BAR-005"}, second.BarrelCodes)
}

func TestCreateBatch_ConcurrentCodesAreUniqueAndContiguous(t *testing.T) {
	f := newFixture()
	const workers, per = 8, 5

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Batches.CreateBatch(context.Background(), dto.CreateBatchRequest{
				PurchaseDate: dto.MustDate("2025-01-15"),
				NumBarrels:   per,
				TotalCost:    dec("100"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	barrels, err := f.svc.Barrels.ListBarrels(context.Background(), dto.BarrelFilter{})
	require.NoError(t, err)
	require.Len(t, barrels, workers*per)

	seqs := make([]int, len(barrels))
	for i, b := range barrels {
		seqs[i], err = ledger.ParseBarrelCode(b.Code)
		require.NoError(t, err)
	}
	sort.Ints(seqs)
	for i, n := range seqs {
		assert.Equal(t, i+1, n)
	}

	// Each batch owns one contiguous block.
	byBatch := map[string][]int{}
	for _, b := range barrels {
		n, _ := ledger.ParseBarrelCode(b.Code)
		byBatch[b.BatchID] = append(byBatch[b.BatchID], n)
	}
	for _, block := range byBatch {
		sort.Ints(block)
		assert.Equal(t, per-1, block[len(block)-1]-block[0])
	}
}

func TestCreateBatch_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Batches.CreateBatch(ctx, dto.CreateBatchRequest{PurchaseDate: dto.MustDate("2025-01-01"), NumBarrels: 0, TotalCost: dec("10")})
	requireKind(t, err, apierror.KindValidation)

	_, err = f.svc.Batches.CreateBatch(ctx, dto.CreateBatchRequest{PurchaseDate: dto.MustDate("2025-01-01"), NumBarrels: 1, TotalCost: dec("0")})
	requireKind(t, err, apierror.KindValidation)

	_, err = f.svc.Batches.CreateBatch(ctx, dto.CreateBatchRequest{NumBarrels: 1, TotalCost: dec("10")})
	requireKind(t, err, apierror.KindValidation)
}

func TestCreateBatch_FailureLeavesNothingBehind(t *testing.T) {
	f := newFixture()
	f.store.FailOn(memstore.OpCreateBarrels, errors.New("disk full"))

	_, err := f.svc.Batches.CreateBatch(context.Background(), dto.CreateBatchRequest{
		PurchaseDate: dto.MustDate("2025-01-15"), NumBarrels: 3, TotalCost: dec("300"),
	})
	e := requireKind(t, err, apierror.KindPersistence)
	assert.True(t, e.Retryable())

	batches, err := f.svc.Batches.ListBatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)

	// The sequence was not consumed.
	assert.Equal(t, []string{"BAR-001"}, f.batch(t, 1, "10").BarrelCodes)
}

func TestListBatches_BarrelCount(t *testing.T) {
	f := newFixture()
	f.batch(t, 4, "400")

	batches, err := f.svc.Batches.ListBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, int64(4), batches[0].BarrelCount)
	assert.True(t, batches[0].CostPerBarrel.Equal(dec("100")))
	assert.Empty(t, batches[0].BarrelCodes)
}
