package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.0, Aggregate{}.Ratio(), "empty aggregate has ratio 0")
	assert.Equal(t, 0.5, New(1, 2).Ratio())
	assert.Equal(t, 2.0, New(6, 3).Ratio())
}

func TestAddCommutativeAssociative(t *testing.T) {
	a := New(1, 2)
	b := New(3, 4)
	c := New(0.5, 1)

	assert.Equal(t, a.Add(b), b.Add(a))
	assert.Equal(t, a.Add(b.Add(c)), a.Add(b).Add(c))
}

func TestMergeRatioIsCountWeightedAverage(t *testing.T) {
	a := New(2, 4) // ratio 0.5
	b := New(6, 6) // ratio 1.0

	merged := a.Add(b)
	want := (a.Ratio()*a.Count + b.Ratio()*b.Count) / (a.Count + b.Count)
	assert.InDelta(t, want, merged.Ratio(), 1e-12)
}

func TestUpdate(t *testing.T) {
	a := New(1, 1)
	a.Update(New(2, 3))
	assert.Equal(t, New(3, 4), a)
}

func TestScaled(t *testing.T) {
	a := New(3, 6)
	half := a.Scaled(0.5)
	assert.Equal(t, New(1.5, 3), half)
	assert.Equal(t, a.Ratio(), half.Ratio(), "scaling preserves the ratio")
}

func TestWeightedAverage(t *testing.T) {
	got := WeightedAverage(
		Weighted{Aggregate: New(1, 1), Weight: 3},
		Weighted{Aggregate: New(0, 1), Weight: 1},
	)
	assert.InDelta(t, 0.75, got.Total, 1e-12)
	assert.InDelta(t, 1.0, got.Count, 1e-12)
}

func TestWeightedAverageZeroWeightPanics(t *testing.T) {
	require.Panics(t, func() {
		WeightedAverage(Weighted{Aggregate: New(1, 1), Weight: 0})
	})
}

func TestShrinkageWeights(t *testing.T) {
	// count=0 contributes weight sqrt(1)=1, count=38 contributes sqrt(39),
	// and anything above 38 is capped at the full-season weight.
	empty := Aggregate{}
	season := New(19, 38)

	got := ShrunkWeightedAverage(empty, season)
	w0, w38 := 1.0, math.Sqrt(39)
	wantTotal := (season.Total * w38) / (w0 + w38)
	assert.InDelta(t, wantTotal, got.Total, 1e-12)

	capped := ShrunkWeightedAverage(New(50, 100), empty)
	uncapped := ShrunkWeightedAverage(New(50, 38).Add(New(0, 62)), empty)
	assert.InDelta(t, capped.Ratio(), uncapped.Ratio(), 1e-12,
		"weight for count=100 equals weight for count=38")
}

func TestShrinkageMonotonicInCount(t *testing.T) {
	// With a fixed partner, a form aggregate backed by more games pulls the
	// blend further toward itself.
	base := New(38, 38) // ratio 1.0
	prev := -1.0
	for _, count := range []float64{0, 1, 5, 20, 38} {
		form := New(0, count) // ratio 0.0
		blend := ShrunkWeightedAverage(base, form).Ratio()
		if prev >= 0 {
			assert.LessOrEqual(t, blend, prev, "more form evidence pulls blend down")
		}
		prev = blend
	}
}
