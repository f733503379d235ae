package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financehistory/internal/archive"
	"financehistory/internal/keystat"
)

func TestNew_Disabled(t *testing.T) {
	store, err := New(context.Background(), Config{Enabled: false, PointTTL: time.Hour, ListTTL: time.Hour})
	require.NoError(t, err)
	assert.False(t, store.Enabled())
	assert.NoError(t, store.Close())
}

func TestStore_DisabledIsNoOp(t *testing.T) {
	ctx := context.Background()
	store, _ := New(ctx, Config{Enabled: false})

	p := keystat.NewPoint(6.74, time.Date(2015, 3, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.SetPoint(ctx, "http://replay/x", p))

	_, found, err := store.GetPoint(ctx, "http://replay/x")
	require.NoError(t, err)
	assert.False(t, found, "expected cache miss when redis disabled")

	require.NoError(t, store.SetCaptures(ctx, "http://url1.com", []archive.CaptureRecord{{Timestamp: "20150313220004", Status: 200}}))

	records, found, err := store.GetCaptures(ctx, "http://url1.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, records)
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, Config{Enabled: true, Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "PointKey",
			fn:       func() string { return PointKey("http://host/20150313/http://url1.com?id=1") },
			expected: "financehistory:point:http://host/20150313/http://url1.com?id=1",
		},
		{
			name:     "CapturesKey",
			fn:       func() string { return CapturesKey("http://url1.com") },
			expected: "financehistory:captures:http://url1.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fn())
		})
	}
}
