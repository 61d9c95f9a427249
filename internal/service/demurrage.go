package service

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// DemurrageSchedule implements ports.DayClock and ports.DecayFunction with a
// fixed daily decay factor anchored at a configured epoch. Day boundaries are
// absolute: every stored balance decays on the same schedule regardless of
// when it was anchored.
type DemurrageSchedule struct {
	gamma   sdkmath.LegacyDec
	dayZero time.Time
	now     func() time.Time // swapped in tests
}

// NewDemurrageSchedule parses the daily decay factor and validates it lies
// in (0, 1].
func NewDemurrageSchedule(gamma string, dayZero time.Time) (*DemurrageSchedule, error) {
	g, err := sdkmath.LegacyNewDecFromStr(gamma)
	if err != nil {
		return nil, fmt.Errorf("parse decay factor: %w", err)
	}
	if !g.IsPositive() || g.GT(sdkmath.LegacyOneDec()) {
		return nil, fmt.Errorf("decay factor %s outside (0, 1]", gamma)
	}
	return &DemurrageSchedule{
		gamma:   g,
		dayZero: dayZero.UTC(),
		now:     time.Now,
	}, nil
}

// Today returns the number of whole days elapsed since the epoch.
func (d *DemurrageSchedule) Today() uint64 {
	now := d.now().UTC()
	if !now.After(d.dayZero) {
		return 0
	}
	return uint64(now.Sub(d.dayZero) / (24 * time.Hour))
}

// Project applies elapsedDays of decay to initial and truncates toward zero.
// Projection is always computed from the original anchor value in one step,
// never by compounding earlier projections, so repeated reads of the same
// escrow agree to the last unit.
func (d *DemurrageSchedule) Project(initial sdkmath.Int, elapsedDays uint64) sdkmath.Int {
	if elapsedDays == 0 || !initial.IsPositive() {
		return initial
	}
	return d.gamma.Power(elapsedDays).MulInt(initial).TruncateInt()
}
