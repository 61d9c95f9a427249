package service

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2020, 10, 15, 0, 0, 0, 0, time.UTC)

func TestNewDemurrageSchedule_Validation(t *testing.T) {
	_, err := NewDemurrageSchedule("not-a-number", testEpoch)
	assert.Error(t, err)

	_, err = NewDemurrageSchedule("0", testEpoch)
	assert.Error(t, err, "zero factor would void every balance instantly")

	_, err = NewDemurrageSchedule("1.5", testEpoch)
	assert.Error(t, err, "growth factors are not demurrage")

	_, err = NewDemurrageSchedule("1", testEpoch)
	assert.NoError(t, err, "no-decay schedule is allowed")
}

func TestDemurrageSchedule_Today(t *testing.T) {
	d, err := NewDemurrageSchedule("0.5", testEpoch)
	require.NoError(t, err)

	cases := []struct {
		now  time.Time
		want uint64
	}{
		{testEpoch, 0},
		{testEpoch.Add(23 * time.Hour), 0},
		{testEpoch.Add(24 * time.Hour), 1},
		{testEpoch.Add(24*time.Hour + time.Second), 1},
		{testEpoch.AddDate(0, 0, 365), 365},
		{testEpoch.Add(-time.Hour), 0}, // clock skew before epoch clamps to zero
	}
	for _, tc := range cases {
		d.now = func() time.Time { return tc.now }
		assert.Equal(t, tc.want, d.Today(), "now=%s", tc.now)
	}
}

func TestDemurrageSchedule_Project(t *testing.T) {
	d, err := NewDemurrageSchedule("0.5", testEpoch)
	require.NoError(t, err)

	v := sdkmath.NewInt(100)
	assert.Equal(t, sdkmath.NewInt(100), d.Project(v, 0), "zero elapsed days is the identity")
	assert.Equal(t, sdkmath.NewInt(50), d.Project(v, 1))
	assert.Equal(t, sdkmath.NewInt(25), d.Project(v, 2))
	assert.Equal(t, sdkmath.NewInt(12), d.Project(sdkmath.NewInt(25), 1), "truncates toward zero")
	assert.True(t, d.Project(sdkmath.NewInt(1), 1).IsZero(), "dust fully decays")
	assert.True(t, d.Project(v, 64).IsZero(), "long horizons settle to zero")
}

func TestDemurrageSchedule_Project_SingleStepEqualsSplit(t *testing.T) {
	// One 10-day projection from the anchor must never exceed the value a
	// naive 5+5 compounding would produce; the engine relies on the single
	// step form being canonical.
	d, err := NewDemurrageSchedule("0.999801332008598957", testEpoch)
	require.NoError(t, err)

	face := sdkmath.NewInt(1_000_000_000_000_000_000)
	oneStep := d.Project(face, 10)
	split := d.Project(d.Project(face, 5), 5)

	assert.True(t, oneStep.GTE(split))
	// The two disagree by at most a few base units.
	assert.True(t, oneStep.Sub(split).LTE(sdkmath.NewInt(10)))
}

func TestDemurrageSchedule_Project_NoDecayFactor(t *testing.T) {
	d, err := NewDemurrageSchedule("1", testEpoch)
	require.NoError(t, err)

	v := sdkmath.NewInt(777)
	assert.Equal(t, v, d.Project(v, 10_000))
}
