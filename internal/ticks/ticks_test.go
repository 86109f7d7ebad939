package ticks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTime(t *testing.T) {
	tests := []struct {
		name  string
		ticks string
		want  time.Time
	}{
		{"zero is epoch", "0", Epoch},
		{"one tick", "1", Epoch.Add(100 * time.Nanosecond)},
		{"one hour", "36000000000", Epoch.Add(time.Hour)},
		{"surrounding whitespace", " 10000000 ", Epoch.Add(time.Second)},
		{"start of 2024", "638396640000000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"sub-second remainder", "638396640001234567", time.Date(2024, 1, 1, 0, 0, 0, 123456700, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToTime(tt.ticks)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "ToTime(%q) = %v, want %v", tt.ticks, got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestFromIntMatchesEpochOffset(t *testing.T) {
	// Values small enough that t*100ns fits in a time.Duration.
	values := []int64{0, 1, 9_999_999, 10_000_000, 123_456_789_012, 92_233_720_368_547_758}

	for _, v := range values {
		want := Epoch.Add(time.Duration(v) * Resolution)
		got := FromInt(v)
		assert.True(t, want.Equal(got), "FromInt(%d) = %v, want %v", v, got, want)
	}
}

func TestToTime_Invalid(t *testing.T) {
	inputs := []string{"", "abc", "1.5", "12e3", "99999999999999999999999"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ToTime(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTicks)
		})
	}
}

func TestDeriveInterval(t *testing.T) {
	t.Run("one hour run", func(t *testing.T) {
		iv, err := DeriveInterval("0", "36000000000")
		require.NoError(t, err)
		assert.True(t, Epoch.Equal(iv.Start))
		assert.True(t, Epoch.Add(time.Hour).Equal(iv.End))
		assert.Equal(t, time.Hour, iv.Duration)
	})

	t.Run("duration equals end minus start", func(t *testing.T) {
		iv, err := DeriveInterval("638396640000000000", "638396640123456789")
		require.NoError(t, err)
		assert.Equal(t, iv.End.Sub(iv.Start), iv.Duration)
		assert.Equal(t, 12*time.Second+345678900*time.Nanosecond, iv.Duration)
	})

	t.Run("end before start is negative", func(t *testing.T) {
		iv, err := DeriveInterval("36000000000", "0")
		require.NoError(t, err)
		assert.Equal(t, -time.Hour, iv.Duration)
	})

	t.Run("bad start", func(t *testing.T) {
		_, err := DeriveInterval("x", "0")
		assert.ErrorIs(t, err, ErrInvalidTicks)
		assert.Contains(t, err.Error(), "start ticks")
	})

	t.Run("bad end", func(t *testing.T) {
		_, err := DeriveInterval("0", "")
		assert.ErrorIs(t, err, ErrInvalidTicks)
		assert.Contains(t, err.Error(), "end ticks")
	})
}
