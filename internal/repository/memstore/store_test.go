package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"caskledger/internal/model"
	"caskledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBarrel(t *testing.T, st repository.Stores, fill string) model.Barrel {
	t.Helper()
	batch := model.BarrelBatch{ID: uuid.New(), PurchaseDate: time.Now(), NumBarrels: 1, TotalCost: decimal.NewFromInt(100)}
	barrel := model.Barrel{ID: uuid.New(), Code: "BAR-001", SeqNo: 1, BatchID: batch.ID, CurrentFillPercent: decimal.RequireFromString(fill), Status: model.BarrelAging}
	err := st.Tx.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := st.Batches.CreateTx(tx, &batch); err != nil {
			return err
		}
		return st.Barrels.CreateManyTx(tx, []model.Barrel{barrel})
	})
	require.NoError(t, err)
	return barrel
}

func TestTransactionRollsBackOnError(t *testing.T) {
	st := New().Stores()
	boom := errors.New("boom")

	err := st.Tx.Transaction(context.Background(), func(tx *gorm.DB) error {
		b := model.BarrelBatch{PurchaseDate: time.Now(), NumBarrels: 1, TotalCost: decimal.NewFromInt(1)}
		require.NoError(t, st.Batches.CreateTx(tx, &b))
		return boom
	})
	require.ErrorIs(t, err, boom)

	batches, err := st.Batches.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestFailOnIsOneShot(t *testing.T) {
	s := New()
	st := s.Stores()
	s.FailOn(OpCreateBatch, errors.New("disk full"))

	run := func() error {
		return st.Tx.Transaction(context.Background(), func(tx *gorm.DB) error {
			b := model.BarrelBatch{PurchaseDate: time.Now(), NumBarrels: 1, TotalCost: decimal.NewFromInt(1)}
			return st.Batches.CreateTx(tx, &b)
		})
	}
	assert.EqualError(t, run(), "disk full")
	assert.NoError(t, run())
}

func TestDecrementFillIsConditional(t *testing.T) {
	st := New().Stores()
	barrel := seedBarrel(t, st, "10")

	var ok bool
	err := st.Tx.Transaction(context.Background(), func(tx *gorm.DB) (err error) {
		ok, err = st.Barrels.DecrementFillTx(tx, barrel.ID, decimal.NewFromInt(11))
		return err
	})
	require.NoError(t, err)
	assert.False(t, ok)

	err = st.Tx.Transaction(context.Background(), func(tx *gorm.DB) (err error) {
		ok, err = st.Barrels.DecrementFillTx(tx, barrel.ID, decimal.NewFromInt(10))
		return err
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := st.Barrels.FindByID(context.Background(), barrel.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentFillPercent.IsZero())
	assert.Equal(t, model.BarrelEmpty, got.Status)
	require.NotNil(t, got.Batch)
}

func TestCreateWithUsagesRejectsLinkedLog(t *testing.T) {
	st := New().Stores()
	logID := uuid.New()

	create := func() error {
		return st.Tx.Transaction(context.Background(), func(tx *gorm.DB) error {
			run := model.BottlingRun{Name: "r", BottleType: "750ml", TotalBottlesProduced: 1, RemainingInventory: 1}
			return st.Runs.CreateWithUsagesTx(tx, &run, []uuid.UUID{logID})
		})
	}
	require.NoError(t, create())
	require.ErrorIs(t, create(), repository.ErrAlreadyLinked)

	runs, err := st.Runs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Usages, 1)
}

func TestNotFoundUsesGormSentinel(t *testing.T) {
	st := New().Stores()
	_, err := st.Barrels.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = st.Runs.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
