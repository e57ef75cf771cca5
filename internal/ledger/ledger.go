// Package ledger holds the arithmetic of the cost-allocation chain
// (batch → barrel → usage draw → bottling run → shipment).
//
// Every function here is pure: no I/O, no clocks. Money and percentages are
// shopspring decimals, rounded to Scale places exactly once at the point a
// value is derived so the in-memory result matches what the store persists.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for derived money values.
// It matches the numeric(24,10) columns in the schema.
const Scale int32 = 10

// PercentPlaces is the number of fractional digits a percentage may carry.
// It matches the numeric(7,4) percent columns in the schema.
const PercentPlaces int32 = 4

// BarrelCodePrefix prefixes every human-readable barrel code.
const BarrelCodePrefix = "BAR-"

var hundred = decimal.NewFromInt(100)

// FullFill is the fill percentage of a freshly issued barrel.
var FullFill = hundred

// CostPerBarrel is totalCost / numBarrels. It is never stored; callers
// recompute it from the immutable batch whenever they need it.
func CostPerBarrel(totalCost decimal.Decimal, numBarrels int) decimal.Decimal {
	if numBarrels <= 0 {
		return decimal.Zero
	}
	return totalCost.DivRound(decimal.NewFromInt(int64(numBarrels)), Scale)
}

// AllocatedCost prices a draw of percentUsed from one barrel of the batch:
// (totalCost / numBarrels) × (percentUsed / 100), rounded once.
func AllocatedCost(totalCost decimal.Decimal, numBarrels int, percentUsed decimal.Decimal) decimal.Decimal {
	if numBarrels <= 0 {
		return decimal.Zero
	}
	den := decimal.NewFromInt(int64(numBarrels)).Mul(hundred)
	return totalCost.Mul(percentUsed).DivRound(den, Scale)
}

// RemainingFill returns the fill left after a draw and whether the barrel is
// now depleted (fill ≤ 0).
func RemainingFill(current, used decimal.Decimal) (decimal.Decimal, bool) {
	next := current.Sub(used)
	return next, !next.IsPositive()
}

// FitsPercentScale reports whether p has at most PercentPlaces fractional
// digits, i.e. whether the store can hold it without rounding.
func FitsPercentScale(p decimal.Decimal) bool {
	return p.Equal(p.Truncate(PercentPlaces))
}

// SumCosts adds allocated costs.
func SumCosts(costs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range costs {
		total = total.Add(c)
	}
	return total
}

// UnitCost is totalCost / totalBottles.
func UnitCost(totalCost decimal.Decimal, totalBottles int) decimal.Decimal {
	if totalBottles <= 0 {
		return decimal.Zero
	}
	return totalCost.DivRound(decimal.NewFromInt(int64(totalBottles)), Scale)
}

// COGS is unitCost × quantity. The product of a Scale-place unit cost and an
// integer needs no further rounding. Because unitCost is itself rounded,
// shipping a whole run sums to totalCost within quantity × 5e-11.
func COGS(unitCost decimal.Decimal, quantity int) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(quantity)))
}

// Display renders a money value with two decimals.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ── Barrel codes ──────────────────────────────────────────────────────────────

// ErrBadBarrelCode is returned by ParseBarrelCode for codes without a numeric suffix.
var ErrBadBarrelCode = errors.New("malformed barrel code")

// FormatBarrelCode renders sequence number n as BAR-001, BAR-042, BAR-1000.
func FormatBarrelCode(n int) string {
	return fmt.Sprintf("%s%03d", BarrelCodePrefix, n)
}

// ParseBarrelCode extracts the sequence number from a code produced by FormatBarrelCode.
func ParseBarrelCode(code string) (int, error) {
	suffix, ok := strings.CutPrefix(code, BarrelCodePrefix)
	if !ok || suffix == "" {
		return 0, fmt.Errorf("%w: %q", ErrBadBarrelCode, code)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrBadBarrelCode, code)
	}
	return n, nil
}

// BarrelSeq pairs a sequence number with its rendered code.
type BarrelSeq struct {
	SeqNo int
	Code  string
}

// NextBarrelCodes returns count codes continuing after lastIssued
// (0 when no barrel exists yet): lastIssued+1 … lastIssued+count.
func NextBarrelCodes(lastIssued, count int) []BarrelSeq {
	if count <= 0 {
		return nil
	}
	if lastIssued < 0 {
		lastIssued = 0
	}
	out := make([]BarrelSeq, count)
	for i := range out {
		n := lastIssued + i + 1
		out[i] = BarrelSeq{SeqNo: n, Code: FormatBarrelCode(n)}
	}
	return out
}

// ── Report periods ────────────────────────────────────────────────────────────

// MonthLayout is the accepted format of a report month.
const MonthLayout = "2006-01"

// ErrBadMonth is returned by MonthRange for missing or malformed months.
var ErrBadMonth = errors.New("month parameter is required (YYYY-MM)")

// MonthRange returns the half-open UTC interval [first instant of month,
// first instant of next month) for a YYYY-MM string. Every instant of the
// month's last day falls inside it.
func MonthRange(month string) (time.Time, time.Time, error) {
	if len(month) != len(MonthLayout) {
		return time.Time{}, time.Time{}, ErrBadMonth
	}
	start, err := time.ParseInLocation(MonthLayout, month, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, ErrBadMonth
	}
	return start, start.AddDate(0, 1, 0), nil
}

// MonthStart returns the first instant (UTC) of the month containing t.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
