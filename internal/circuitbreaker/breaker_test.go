package circuitbreaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func TestNew_NilConfig(t *testing.T) {
	b, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.False(t, b.IsTripped())
	assert.False(t, b.Check(1000, 999))
}

func TestNew_InvalidCondition(t *testing.T) {
	_, err := New(&model.CircuitBreaker{StopIf: "banana"})
	assert.Error(t, err)
}

func TestBreaker_TripsOnPercentThreshold(t *testing.T) {
	b, err := New(&model.CircuitBreaker{StopIf: "errors > 10%", MinSamples: 10})
	require.NoError(t, err)

	assert.False(t, b.Check(5, 5)) // below MinSamples
	assert.False(t, b.Check(100, 5))
	assert.True(t, b.Check(100, 15))
	assert.True(t, b.IsTripped())
	assert.Contains(t, b.Reason(), "tripped")
}

func TestBreaker_TripsOnAbsoluteFailures(t *testing.T) {
	b, err := New(&model.CircuitBreaker{StopIf: "failures > 5", MinSamples: 1})
	require.NoError(t, err)

	assert.False(t, b.Check(10, 5))
	assert.True(t, b.Check(10, 6))
}

func TestBreaker_StaysTrippedOnceSet(t *testing.T) {
	b, err := New(&model.CircuitBreaker{StopIf: "error_rate > 0.5", MinSamples: 1})
	require.NoError(t, err)

	require.True(t, b.Check(10, 6))
	assert.True(t, b.Check(10, 0)) // even if the rate would now pass, stays tripped
}
