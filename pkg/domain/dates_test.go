package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDay_NormalizesToMidnightUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	instant := time.Date(2024, 3, 15, 0, 30, 0, 0, paris) // 23:30 UTC on the 14th

	day := Day(instant)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), day)
}

func TestInclusiveDays(t *testing.T) {
	jan := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, 1, InclusiveDays(jan(5), jan(5)), "single day counts as one")
	assert.Equal(t, 5, InclusiveDays(jan(1), jan(5)))
	assert.Equal(t, 0, InclusiveDays(jan(5), jan(1)), "reversed range collapses to zero")

	// Intra-day times do not change the day count.
	assert.Equal(t, 2, InclusiveDays(
		time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC),
	))
}
