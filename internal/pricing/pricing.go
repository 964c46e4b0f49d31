// Package pricing resolves the cost of a slot from a space's configured
// priced blocks. Pricing is block-based: a requested interval must equal a
// configured block exactly, never partially.
package pricing

import (
	"fmt"
	"regexp"
	"strconv"

	"clubspace/internal/interval"
	"clubspace/internal/timeutil"
)

// ErrNoPriceForSlot is returned when no block matches the requested
// (weekday, interval) pair. A missing price is not a zero price.
var ErrNoPriceForSlot = fmt.Errorf("no price configured for slot")

// Money is an amount in cents. Prices are exact; no floating point.
type Money int64

var moneyRe = regexp.MustCompile(`^(\d+)\.(\d{2})$`)

// ParseMoney parses a strict "units.cents" amount such as "50.00".
func ParseMoney(s string) (Money, error) {
	m := moneyRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("parse money %q: expected N.NN: %w", s, timeutil.ErrInvalidFormat)
	}
	units, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, timeutil.ErrInvalidFormat)
	}
	cents, _ := strconv.ParseInt(m[2], 10, 64)
	return Money(units*100 + cents), nil
}

// String formats the amount as "units.cents".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}

// PricedBlock is a fixed (weekday, interval) pairing with a price,
// configured per space. No two blocks of a space share the same pair.
type PricedBlock struct {
	SpaceID int64
	Weekday timeutil.Weekday
	Slot    interval.Interval
	Price   Money
}

// FindPrice returns the price of the block exactly matching the weekday and
// interval. Sub-intervals and overlapping requests do not match; callers
// must treat a missing price as "unpriced", not "free".
func FindPrice(blocks []PricedBlock, weekday timeutil.Weekday, slot interval.Interval) (Money, bool) {
	for _, b := range blocks {
		if b.Weekday == weekday && b.Slot == slot {
			return b.Price, true
		}
	}
	return 0, false
}

// SlotHours returns the interval length in hours, for display and derived
// calculations only. Pricing itself is never duration-based.
func SlotHours(slot interval.Interval) float64 {
	return slot.Duration().Hours()
}

// ValidateBlocks rejects block sets where two blocks of one space share the
// same (weekday, interval) pair, which would make lookups ambiguous.
func ValidateBlocks(blocks []PricedBlock) error {
	type key struct {
		space   int64
		weekday timeutil.Weekday
		slot    interval.Interval
	}
	seen := make(map[key]struct{}, len(blocks))
	for _, b := range blocks {
		k := key{b.SpaceID, b.Weekday, b.Slot}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate priced block %s %s for space %d", b.Weekday, b.Slot, b.SpaceID)
		}
		seen[k] = struct{}{}
	}
	return nil
}
