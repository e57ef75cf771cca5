package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostPerBarrel(t *testing.T) {
	assert.True(t, d("500").Equal(CostPerBarrel(d("1000"), 2)))
	assert.True(t, d("333.3333333333").Equal(CostPerBarrel(d("1000"), 3)))
	assert.True(t, CostPerBarrel(d("1000"), 0).IsZero())
}

func TestAllocatedCost(t *testing.T) {
	// 1000 / 2 barrels = 500 per barrel; 10% of that is 50.
	assert.True(t, d("50").Equal(AllocatedCost(d("1000"), 2, d("10"))))
	// 100000 / 100 = 1000 per barrel; 5% is 50.
	assert.True(t, d("50").Equal(AllocatedCost(d("100000"), 100, d("5"))))
	// Fractional percentages stay exact.
	assert.True(t, d("62.5").Equal(AllocatedCost(d("1000"), 2, d("12.5"))))
	// Matches costPerBarrel × pct / 100 whenever the per-barrel cost is exact.
	per := CostPerBarrel(d("2400"), 8)
	assert.True(t, per.Mul(d("37.25")).Div(d("100")).Equal(AllocatedCost(d("2400"), 8, d("37.25"))))
}

func TestRemainingFillNoDrift(t *testing.T) {
	fill := FullFill
	draws := []string{"12.5", "0.3333", "7", "30.1667", "25"}
	used := decimal.Zero
	for _, s := range draws {
		var depleted bool
		fill, depleted = RemainingFill(fill, d(s))
		used = used.Add(d(s))
		assert.False(t, depleted)
	}
	assert.True(t, FullFill.Sub(used).Equal(fill), "got %s", fill)

	fill, depleted := RemainingFill(fill, fill)
	assert.True(t, fill.IsZero())
	assert.True(t, depleted)
}

func TestUnitCostAndCOGS(t *testing.T) {
	unit := UnitCost(d("50"), 100)
	assert.Equal(t, "0.5", unit.String())
	assert.True(t, d("20").Equal(COGS(unit, 40)))
	assert.Equal(t, "20.00", Display(COGS(unit, 40)))

	// unitCost × bottles recovers totalCost within the stored precision.
	total := d("1000")
	unit = UnitCost(total, 3)
	diff := COGS(unit, 3).Sub(total).Abs()
	assert.True(t, diff.LessThan(d("0.00000001")), "diff %s", diff)
}

func TestSumCosts(t *testing.T) {
	assert.True(t, d("60.25").Equal(SumCosts(d("50"), d("10"), d("0.25"))))
	assert.True(t, SumCosts().IsZero())
}

func TestBarrelCodes(t *testing.T) {
	assert.Equal(t, "BAR-001", FormatBarrelCode(1))
	assert.Equal(t, "BAR-042", FormatBarrelCode(42))
	assert.Equal(t, "BAR-1000", FormatBarrelCode(1000))

	n, err := ParseBarrelCode("BAR-042")
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	n, err = ParseBarrelCode("BAR-1000")
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	for _, bad := range []string{"", "BAR-", "BAR-x1", "B-001", "BAR-000"} {
		_, err := ParseBarrelCode(bad)
		assert.ErrorIs(t, err, ErrBadBarrelCode, bad)
	}
}

func TestNextBarrelCodesContiguous(t *testing.T) {
	codes := NextBarrelCodes(0, 3)
	require.Len(t, codes, 3)
	assert.Equal(t, []BarrelSeq{{1, "BAR-001"}, {2, "BAR-002"}, {3, "BAR-003"}}, codes)

	codes = NextBarrelCodes(998, 3)
	assert.Equal(t, "BAR-999", codes[0].Code)
	assert.Equal(t, "BAR-1000", codes[1].Code)
	assert.Equal(t, 1001, codes[2].SeqNo)
	for i, c := range codes {
		n, err := ParseBarrelCode(c.Code)
		require.NoError(t, err)
		assert.Equal(t, c.SeqNo, n)
		assert.Equal(t, 999+i, n)
	}

	assert.Nil(t, NextBarrelCodes(5, 0))
}

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange("2025-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)

	lastInstant := time.Date(2025, 2, 28, 23, 59, 59, 999999999, time.UTC)
	assert.True(t, !lastInstant.Before(start) && lastInstant.Before(end))

	start, end, err = MonthRange("2024-12")
	require.NoError(t, err)
	assert.Equal(t, 2025, end.Year())
	assert.Equal(t, time.January, end.Month())
	assert.Equal(t, time.December, start.Month())

	for _, bad := range []string{"", "2025", "2025-1", "2025-13", "25-01", "2025/01", "2025-01-01"} {
		_, _, err := MonthRange(bad)
		assert.ErrorIs(t, err, ErrBadMonth, bad)
	}
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2025, 3, 17, 14, 5, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestFitsPercentScale(t *testing.T) {
	for _, ok := range []string{"10", "33.3333", "0.0001", "100"} {
		assert.True(t, FitsPercentScale(d(ok)), ok)
	}
	for _, bad := range []string{"33.33333", "0.00001", "12.50001"} {
		assert.False(t, FitsPercentScale(d(bad)), bad)
	}
}
