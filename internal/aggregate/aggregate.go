// Package aggregate implements the total/count ratio accumulator that every
// statistic and forecast in this module is expressed in. An Aggregate carries
// both the accumulated value and the number of observations backing it, so a
// consumer can always tell a confident estimate from a sparse one.
package aggregate

import "math"

// fullSeason caps the evidence weight of an aggregate at one season's worth of
// fixtures.
const fullSeason = 38.0

// Aggregate is a mergeable total/count pair. The zero value is an empty
// accumulator.
type Aggregate struct {
	Total float64
	Count float64
}

// New returns an aggregate for a single batch of observations.
func New(total, count float64) Aggregate {
	return Aggregate{Total: total, Count: count}
}

// Ratio returns Total/Count, or 0 for an empty aggregate.
func (a Aggregate) Ratio() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Total / a.Count
}

// Add returns the component-wise sum of a and b. Merging is commutative and
// associative, so partial sums may be combined in any order.
func (a Aggregate) Add(b Aggregate) Aggregate {
	return Aggregate{Total: a.Total + b.Total, Count: a.Count + b.Count}
}

// Update merges b into a in place.
func (a *Aggregate) Update(b Aggregate) {
	a.Total += b.Total
	a.Count += b.Count
}

// Scaled returns a copy with both components multiplied by factor.
func (a Aggregate) Scaled(factor float64) Aggregate {
	return Aggregate{Total: a.Total * factor, Count: a.Count * factor}
}

// Weighted pairs an aggregate with the weight it should carry in a
// WeightedAverage.
type Weighted struct {
	Aggregate Aggregate
	Weight    float64
}

// WeightedAverage blends aggregates by averaging totals and counts
// independently: Σ(total·w)/Σw and Σ(count·w)/Σw. The result's Ratio is the
// consumer-visible prediction.
//
// Calling it with a zero total weight is a programmer error and panics; the
// blending models never construct such an input.
func WeightedAverage(items ...Weighted) Aggregate {
	var total, count, weightSum float64
	for _, it := range items {
		total += it.Aggregate.Total * it.Weight
		count += it.Aggregate.Count * it.Weight
		weightSum += it.Weight
	}
	if weightSum == 0 {
		panic("aggregate: weighted average with zero total weight")
	}
	return Aggregate{Total: total / weightSum, Count: count / weightSum}
}

// ShrunkWeightedAverage blends aggregates weighting each by
// sqrt(1 + min(38, count)): the more observed fixtures back an aggregate, the
// more it counts, capped at a full season of evidence. This is how an
// all-time average and a small-sample form figure get blended without the
// form swamping the estimate.
func ShrunkWeightedAverage(aggs ...Aggregate) Aggregate {
	items := make([]Weighted, len(aggs))
	for i, a := range aggs {
		items[i] = Weighted{Aggregate: a, Weight: math.Sqrt(1 + math.Min(fullSeason, a.Count))}
	}
	return WeightedAverage(items...)
}
