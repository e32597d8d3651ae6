// Package stats implements the bucketed accumulators behind every team and
// player statistic: one aggregate per fixture-difficulty rating (1..5) and one
// per side (home/away). Concrete metrics differ only in how an observation is
// extracted from a fixture or player record, so each variant is a constructor
// binding an extraction function rather than a subclass.
package stats

import (
	"fmt"

	"fplcast/internal/aggregate"
	"fplcast/internal/data"
)

const (
	// MinFDR and MaxFDR bound the fixture-difficulty rating scale.
	MinFDR = 1
	MaxFDR = 5

	// SeasonGameweeks is the length of a full season.
	SeasonGameweeks = 38
)

// Buckets accumulates observations keyed by difficulty and by side. Every
// observation lands in exactly one FDR bucket and exactly one side bucket, so
// the side sum always equals the FDR sum.
type Buckets struct {
	fdr  [MaxFDR + 1]aggregate.Aggregate // index 1..5
	home aggregate.Aggregate
	away aggregate.Aggregate
}

// Observe adds one observation for the given side and difficulty. A
// difficulty outside 1..5 is corrupt input and panics.
func (b *Buckets) Observe(side data.Side, fdr int, obs aggregate.Aggregate) {
	if fdr < MinFDR || fdr > MaxFDR {
		panic(fmt.Sprintf("stats: difficulty %d out of range", fdr))
	}
	b.fdr[fdr].Update(obs)
	if side == data.Home {
		b.home.Update(obs)
	} else {
		b.away.Update(obs)
	}
}

// Side returns the accumulator for one side.
func (b *Buckets) Side(side data.Side) aggregate.Aggregate {
	if side == data.Home {
		return b.home
	}
	return b.away
}

// FDR returns the accumulator for one difficulty rating.
func (b *Buckets) FDR(fdr int) aggregate.Aggregate {
	if fdr < MinFDR || fdr > MaxFDR {
		panic(fmt.Sprintf("stats: difficulty %d out of range", fdr))
	}
	return b.fdr[fdr]
}

// Total returns home+away, the all-observations accumulator.
func (b *Buckets) Total() aggregate.Aggregate {
	return b.home.Add(b.away)
}

// FDRNorm returns the share of the total ratio attributable to one difficulty
// rating: bucket ratio divided by total ratio, 0 when the total ratio is 0.
// It is the scale factor that converts a raw per-fixture rate into a
// difficulty-adjusted one.
func (b *Buckets) FDRNorm(fdr int) float64 {
	total := b.Total().Ratio()
	if total == 0 {
		return 0
	}
	return b.FDR(fdr).Ratio() / total
}

// FixtureValue extracts one side's observation from a fixture.
type FixtureValue func(f *data.Fixture, side data.Side) aggregate.Aggregate

// FixtureAggregate is a Buckets over whole fixtures, plus the gameweek-indexed
// fixture lists that back rolling-window queries.
type FixtureAggregate struct {
	Buckets
	byGameweek [SeasonGameweeks + 1][]*data.Fixture // index 1..38
	value      FixtureValue
}

// NewFixtureAggregate builds an accumulator with the given extraction
// function.
func NewFixtureAggregate(value FixtureValue) *FixtureAggregate {
	return &FixtureAggregate{value: value}
}

// NewCleanSheet accumulates whether the side's opponent failed to score.
func NewCleanSheet() *FixtureAggregate {
	return NewFixtureAggregate(func(f *data.Fixture, side data.Side) aggregate.Aggregate {
		return aggregate.New(f.CleanSheet(side), 1)
	})
}

// NewXG accumulates the side's expected goals.
func NewXG() *FixtureAggregate {
	return NewFixtureAggregate(func(f *data.Fixture, side data.Side) aggregate.Aggregate {
		return aggregate.New(f.TeamSide(side).ExpectedGoals, 1)
	})
}

// NewXA accumulates the side's expected assists.
func NewXA() *FixtureAggregate {
	return NewFixtureAggregate(func(f *data.Fixture, side data.Side) aggregate.Aggregate {
		return aggregate.New(f.TeamSide(side).ExpectedAssists, 1)
	})
}

// NewDC accumulates the side's defensive contribution.
func NewDC() *FixtureAggregate {
	return NewFixtureAggregate(func(f *data.Fixture, side data.Side) aggregate.Aggregate {
		return aggregate.New(f.TeamSide(side).DefensiveContribution, 1)
	})
}

// NewPoints accumulates the side's total fantasy points.
func NewPoints() *FixtureAggregate {
	return NewFixtureAggregate(func(f *data.Fixture, side data.Side) aggregate.Aggregate {
		return aggregate.New(f.TeamSide(side).TotalPoints, 1)
	})
}

// Value applies the bound extraction function.
func (fa *FixtureAggregate) Value(f *data.Fixture, side data.Side) aggregate.Aggregate {
	return fa.value(f, side)
}

// AddFixture appends the fixture to its gameweek list. Stats are added
// separately via AddHomeStats/AddAwayStats so the owning entity controls
// which side it observed.
func (fa *FixtureAggregate) AddFixture(f *data.Fixture) {
	if f.Gameweek < 1 || f.Gameweek > SeasonGameweeks {
		panic(fmt.Sprintf("stats: gameweek %d out of range", f.Gameweek))
	}
	fa.byGameweek[f.Gameweek] = append(fa.byGameweek[f.Gameweek], f)
}

// AddHomeStats routes the home side's observation into the side bucket and
// the home difficulty bucket.
func (fa *FixtureAggregate) AddHomeStats(f *data.Fixture) {
	fa.Observe(data.Home, f.Home.Difficulty, fa.value(f, data.Home))
}

// AddAwayStats routes the away side's observation.
func (fa *FixtureAggregate) AddAwayStats(f *data.Fixture) {
	fa.Observe(data.Away, f.Away.Difficulty, fa.value(f, data.Away))
}

// FixturesIn returns the fixtures recorded for one gameweek. Gameweeks
// outside 1..38 have no fixtures by definition.
func (fa *FixtureAggregate) FixturesIn(gw int) []*data.Fixture {
	if gw < 1 || gw > SeasonGameweeks {
		return nil
	}
	return fa.byGameweek[gw]
}

// PlayerValue extracts an observation from a player's fixture record.
type PlayerValue func(pf *data.PlayerFixture) aggregate.Aggregate

// PlayerAggregate is a Buckets over per-player fixture records. The
// difficulty of the player's side is supplied by the caller, which resolves
// it from the parent fixture.
type PlayerAggregate struct {
	Buckets
	value PlayerValue
}

// NewPlayerAggregate builds a player accumulator with the given extraction
// function.
func NewPlayerAggregate(value PlayerValue) *PlayerAggregate {
	return &PlayerAggregate{value: value}
}

// NewPlayerXG accumulates the player's expected goals.
func NewPlayerXG() *PlayerAggregate {
	return NewPlayerAggregate(func(pf *data.PlayerFixture) aggregate.Aggregate {
		return aggregate.New(pf.ExpectedGoals, 1)
	})
}

// NewPlayerXA accumulates the player's expected assists.
func NewPlayerXA() *PlayerAggregate {
	return NewPlayerAggregate(func(pf *data.PlayerFixture) aggregate.Aggregate {
		return aggregate.New(pf.ExpectedAssists, 1)
	})
}

// NewPlayerDC accumulates the player's defensive contribution.
func NewPlayerDC() *PlayerAggregate {
	return NewPlayerAggregate(func(pf *data.PlayerFixture) aggregate.Aggregate {
		return aggregate.New(float64(pf.DefensiveContribution), 1)
	})
}

// AddPlayerFixture routes one record into the player's side and difficulty
// buckets.
func (pa *PlayerAggregate) AddPlayerFixture(pf *data.PlayerFixture, difficulty int) {
	pa.Observe(pf.Side(), difficulty, pa.value(pf))
}
