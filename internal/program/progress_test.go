package program_test

import (
	"testing"

	"alcyxob/coach-app/internal/program"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompletedDayKeys(t *testing.T) {
	in := []string{"d1", "", "d2", "d1", "d3", "", "d2"}
	out := program.NormalizeCompletedDayKeys(in)
	assert.Equal(t, []string{"d1", "d2", "d3"}, out)

	// idempotent
	assert.Equal(t, out, program.NormalizeCompletedDayKeys(out))

	assert.Empty(t, program.NormalizeCompletedDayKeys(nil))
	assert.Empty(t, program.NormalizeCompletedDayKeys([]string{"", ""}))
}

func TestPercentComplete(t *testing.T) {
	assert.Equal(t, 0, program.PercentComplete(0, 10))
	assert.Equal(t, 50, program.PercentComplete(5, 10))
	assert.Equal(t, 100, program.PercentComplete(10, 10))

	// floor, not round
	assert.Equal(t, 33, program.PercentComplete(1, 3))
	assert.Equal(t, 66, program.PercentComplete(2, 3))

	// clamped
	assert.Equal(t, 100, program.PercentComplete(15, 10))
	assert.Equal(t, 0, program.PercentComplete(-3, 10))

	// zero-day program is 0%, never NaN or 100
	assert.Equal(t, 0, program.PercentComplete(0, 0))
	assert.Equal(t, 0, program.PercentComplete(7, 0))

	// bounded for the whole range
	for completed := 0; completed <= 10; completed++ {
		p := program.PercentComplete(completed, 10)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}
