package magphase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftF0Inverse(t *testing.T) {
	shifts := []float64{80, 100, 120.5, 80, 64}
	voiced := []bool{false, true, true, false, true}
	f0 := ShiftToF0(shifts, voiced, testRate)
	assert.Equal(t, []float64{0, 160, testRate / 120.5, 0, 250}, f0)

	back, err := F0ToShift(f0, testRate)
	require.NoError(t, err)
	for i := range shifts {
		assert.InDelta(t, shifts[i], back[i], 1e-9)
	}
}

func TestF0ToShiftClampsPeriod(t *testing.T) {
	back, err := F0ToShift([]float64{1e9}, testRate)
	require.NoError(t, err)
	assert.Equal(t, 1.0, back[0])

	_, err = F0ToShift([]float64{-1}, testRate)
	assert.ErrorIs(t, err, ErrInvalidParameterSet)

	_, err = F0ToShift([]float64{100}, 0)
	assert.ErrorIs(t, err, ErrInvalidParameterSet)
}

func TestSmoothF0(t *testing.T) {
	f0 := []float64{0, 100, 101, 200, 102, 103, 0, 0, 150, 300, 151, 0}
	got := SmoothF0(f0, 5)

	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[6])
	assert.Equal(t, 0.0, got[11])
	assert.Equal(t, 102.0, got[3], "octave glitch removed")
	assert.Equal(t, 151.0, got[9], "window stays inside its run")
	for i := range f0 {
		assert.Equal(t, f0[i] > 0, got[i] > 0)
	}
	assert.Equal(t, 200.0, f0[3], "input untouched")

	assert.Equal(t, f0, SmoothF0(f0, 1))
}

func TestContinuousF0(t *testing.T) {
	f0 := []float64{0, 0, 100, 0, 0, 130, 0}
	cont, voiced := ContinuousF0(f0)
	assert.InDeltaSlice(t, []float64{100, 100, 100, 110, 120, 130, 130}, cont, 1e-9)
	assert.Equal(t, []bool{false, false, true, false, false, true, false}, voiced)
	assert.InDeltaSlice(t, f0, FromContinuousF0(cont, voiced), 1e-9)

	cont, voiced = ContinuousF0([]float64{0, 0})
	assert.Equal(t, []float64{0, 0}, cont)
	assert.Equal(t, []bool{false, false}, voiced)
}
