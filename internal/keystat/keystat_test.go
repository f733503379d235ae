package keystat

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDay(t *testing.T) {
	helsinki := time.FixedZone("EET", 2*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"midnight utc", date(2015, 3, 10), date(2015, 3, 10)},
		{"afternoon utc", time.Date(2015, 3, 10, 19, 0, 4, 0, time.UTC), date(2015, 3, 10)},
		{"local date kept", time.Date(2015, 3, 10, 1, 0, 0, 0, helsinki), date(2015, 3, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Day(tt.in)
			assert.True(t, got.Equal(tt.want), "Day() = %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestPoint_IsValid(t *testing.T) {
	assert.True(t, NewPoint(6.65, date(2015, 3, 9)).IsValid())
	assert.True(t, NewPoint(0, date(2015, 3, 9)).IsValid(), "zero is a real value")
	assert.False(t, Missing().IsValid())
	assert.False(t, NewPoint(math.NaN(), date(2015, 3, 9)).IsValid())
	assert.False(t, NewPoint(1.0, time.Time{}).IsValid())
}

func TestInterval_Days(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []time.Time
	}{
		{
			name:  "single day",
			start: date(2015, 3, 10),
			end:   date(2015, 3, 10),
			want:  []time.Time{date(2015, 3, 10)},
		},
		{
			name:  "inclusive both ends",
			start: date(2015, 3, 10),
			end:   date(2015, 3, 14),
			want: []time.Time{
				date(2015, 3, 10), date(2015, 3, 11), date(2015, 3, 12),
				date(2015, 3, 13), date(2015, 3, 14),
			},
		},
		{
			name:  "timestamps truncated to days",
			start: time.Date(2015, 1, 1, 12, 0, 0, 0, time.UTC),
			end:   time.Date(2015, 1, 2, 12, 0, 0, 0, time.UTC),
			want:  []time.Time{date(2015, 1, 1), date(2015, 1, 2)},
		},
		{
			name:  "month boundary",
			start: date(2015, 2, 27),
			end:   date(2015, 3, 1),
			want:  []time.Time{date(2015, 2, 27), date(2015, 2, 28), date(2015, 3, 1)},
		},
		{
			name:  "reversed",
			start: date(2015, 3, 14),
			end:   date(2015, 3, 10),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := Interval{Start: tt.start, End: tt.end}
			assert.Equal(t, tt.want, iv.Days())
		})
	}
}

func TestNewInterval(t *testing.T) {
	_, err := NewInterval(date(2015, 3, 10), date(2015, 3, 14))
	require.NoError(t, err)

	_, err = NewInterval(date(2015, 3, 14), date(2015, 3, 10))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(time.Time{}, date(2015, 3, 10))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	// Same calendar day with the end earlier in the day is still one day.
	_, err = NewInterval(time.Date(2015, 3, 10, 18, 0, 0, 0, time.UTC), time.Date(2015, 3, 10, 6, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestInterval_String(t *testing.T) {
	iv := Interval{Start: date(2015, 3, 1), End: date(2015, 3, 15)}
	assert.Equal(t, "2015-03-01/2015-03-15", iv.String())
}
