package service

import (
	"context"
	"testing"

	"caskledger/internal/apierror"
	"caskledger/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestListBarrels_IncludeBatch(t *testing.T) {
	f := newFixture()
	f.batch(t, 4, "1000")

	plain, err := f.svc.Barrels.ListBarrels(context.Background(), dto.BarrelFilter{})
	require.NoError(t, err)
	assert.Nil(t, plain[0].CostPerBarrel)

	full, err := f.svc.Barrels.ListBarrels(context.Background(), dto.BarrelFilter{IncludeBatch: true})
	require.NoError(t, err)
	require.NotNil(t, full[0].CostPerBarrel)
	assert.True(t, full[0].CostPerBarrel.Equal(dec("250")))
	assert.Equal(t, 4, *full[0].BatchNumBarrels)
	assert.Equal(t, "BAR-001", full[0].Code)
	assert.Equal(t, "BAR-004", full[3].Code)
}

func TestUpdateBarrel_ZeroFillForcesEmpty(t *testing.T) {
	f := newFixture()
	f.batch(t, 1, "100")
	id := uuid.MustParse(f.barrelID(t, "BAR-001"))

	resp, err := f.svc.Barrels.UpdateBarrel(context.Background(), id, dto.UpdateBarrelRequest{
		CurrentFillPercent: decp("0"),
		Status:             strp("Reserved"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Empty", resp.Status)
	assert.True(t, resp.CurrentFillPercent.IsZero())
}

func TestUpdateBarrel_EmptyIsSticky(t *testing.T) {
	f := newFixture()
	f.batch(t, 1, "100")
	id := uuid.MustParse(f.barrelID(t, "BAR-001"))
	ctx := context.Background()

	_, err := f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{CurrentFillPercent: decp("0")})
	require.NoError(t, err)

	resp, err := f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{CurrentFillPercent: decp("40"), GroupLabel: strp("rack A")})
	require.NoError(t, err)
	assert.Equal(t, "Empty", resp.Status)
	assert.True(t, resp.CurrentFillPercent.Equal(dec("40")))
	assert.Equal(t, "rack A", *resp.GroupLabel)

	resp, err = f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{Status: strp("Aging")})
	require.NoError(t, err)
	assert.Equal(t, "Aging", resp.Status)
}

func TestUpdateBarrel_Errors(t *testing.T) {
	f := newFixture()
	f.batch(t, 1, "100")
	id := uuid.MustParse(f.barrelID(t, "BAR-001"))
	ctx := context.Background()

	_, err := f.svc.Barrels.UpdateBarrel(ctx, uuid.New(), dto.UpdateBarrelRequest{Notes: strp("x")})
	requireKind(t, err, apierror.KindNotFound)

	_, err = f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{Status: strp("Leaking")})
	requireKind(t, err, apierror.KindValidation)

	_, err = f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{CurrentFillPercent: decp("101")})
	requireKind(t, err, apierror.KindValidation)

	_, err = f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{CurrentFillPercent: decp("66.66667")})
	requireKind(t, err, apierror.KindValidation)

	b, err := f.svc.Barrels.UpdateBarrel(ctx, id, dto.UpdateBarrelRequest{CurrentFillPercent: decp("66.6667")})
	require.NoError(t, err)
	assert.True(t, b.CurrentFillPercent.Equal(dec("66.6667")))
}
