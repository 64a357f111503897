package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(130, 0, 100))
	assert.Equal(t, 42.5, Clamp(42.5, 0, 100))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 100))
	assert.Equal(t, 0.0, Clamp(math.Inf(1), 0, 100))
	assert.Equal(t, 10.0, Clamp(math.Inf(-1), 10, 100))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.25, Round(1.2549, 2))
	assert.Equal(t, 1.3, Round(1.25, 1))
	assert.Equal(t, -1.3, Round(-1.25, 1))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
}

func TestRoundPtr(t *testing.T) {
	assert.Nil(t, RoundPtr(nil, 2))
	assert.Equal(t, 3.14, *RoundPtr(Ptr(3.14159), 2))
}
