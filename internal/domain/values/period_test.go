package values

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	start := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	p, err := NewPeriod(start, end)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC), p.End())
}

func TestNewPeriod_StartAfterEnd(t *testing.T) {
	_, err := NewPeriod(
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.Error(t, err)
}

func TestNewPeriod_SingleDay(t *testing.T) {
	day := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	p, err := NewPeriod(day, day)
	require.NoError(t, err)

	assert.True(t, p.Contains(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)))
}
