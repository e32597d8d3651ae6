// Package pipeline coordinates the replay and forecast stages behind a
// memoizing facade. Replaying a season and predicting a gameweek are
// expensive and referentially transparent given the loaded dataset, so each
// stage caches by its parameters and singleflight collapses concurrent
// requests for the same key into one computation.
package pipeline

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"fplcast/internal/data"
	"fplcast/internal/forecast"
	"fplcast/internal/prediction"
	"fplcast/internal/season"
)

type gameweekKey struct {
	next       int
	target     int
	minHistory int
}

type spanKey struct {
	next       int
	targets    string
	minHistory int
}

// Pipeline memoizes season replays and gameweek predictions over one loaded
// Context. Safe for concurrent use.
type Pipeline struct {
	ctx *data.Context

	group singleflight.Group

	mu      sync.RWMutex
	seasons map[int]*season.Season
	perGW   map[gameweekKey]*prediction.GameweekPrediction
	perSpan map[spanKey]prediction.GameweekPredictions
}

// New builds a pipeline over one dataset.
func New(ctx *data.Context) *Pipeline {
	return &Pipeline{
		ctx:     ctx,
		seasons: make(map[int]*season.Season),
		perGW:   make(map[gameweekKey]*prediction.GameweekPrediction),
		perSpan: make(map[spanKey]prediction.GameweekPredictions),
	}
}

// Season returns the season replayed through gameweek next-1. next=6 means
// gameweeks 1..5 have been played.
func (p *Pipeline) Season(next int) (*season.Season, error) {
	p.mu.RLock()
	s, ok := p.seasons[next]
	p.mu.RUnlock()
	if ok {
		return s, nil
	}

	v, err, _ := p.group.Do(fmt.Sprintf("season:%d", next), func() (any, error) {
		p.mu.RLock()
		s, ok := p.seasons[next]
		p.mu.RUnlock()
		if ok {
			return s, nil
		}
		s = season.New(p.ctx)
		if err := s.PlayAll(next - 1); err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.seasons[next] = s
		p.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*season.Season), nil
}

// PredictGameweek predicts every fixture and player of one target gameweek
// using the season state as of next. minHistory <= 0 uses the default
// player-form window.
func (p *Pipeline) PredictGameweek(next, target, minHistory int) (*prediction.GameweekPrediction, error) {
	if target < next {
		return nil, fmt.Errorf("pipeline: target gameweek %d precedes season state %d", target, next)
	}
	key := gameweekKey{next: next, target: target, minHistory: minHistory}

	p.mu.RLock()
	gp, ok := p.perGW[key]
	p.mu.RUnlock()
	if ok {
		return gp, nil
	}

	v, err, _ := p.group.Do(fmt.Sprintf("gw:%d:%d:%d", next, target, minHistory), func() (any, error) {
		p.mu.RLock()
		gp, ok := p.perGW[key]
		p.mu.RUnlock()
		if ok {
			return gp, nil
		}
		gp, err := p.computeGameweek(next, target, minHistory)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.perGW[key] = gp
		p.mu.Unlock()
		return gp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*prediction.GameweekPrediction), nil
}

func (p *Pipeline) computeGameweek(next, target, minHistory int) (*prediction.GameweekPrediction, error) {
	s, err := p.Season(next)
	if err != nil {
		return nil, err
	}

	csModel := forecast.UltimateCleanSheet{Season: s}
	xgModel := forecast.SimpleXG{Season: s}
	xaModel := forecast.SimpleXA{Season: s}
	dcModel := forecast.SimpleDC{Season: s}

	playerCS := forecast.PlayerCSSimple{Season: s, Team: csModel, Window: minHistory}
	playerXG := forecast.PlayerXGSimple{Season: s, Team: xgModel, Window: minHistory}
	playerXA := forecast.PlayerXASimple{Season: s, Team: xaModel, Window: minHistory}
	playerDC := forecast.PlayerDCSimple{Season: s, Team: dcModel, Window: minHistory}

	gp := prediction.NewGameweekPrediction(target)
	for _, f := range p.ctx.FixturesByGameweek(target) {
		gp.AddTeam(prediction.TeamFixturePrediction{
			TeamID:     f.Home.TeamID,
			Fixture:    f,
			CleanSheet: csModel.PredictForTeam(f.Home.TeamID, f),
		})
		gp.AddTeam(prediction.TeamFixturePrediction{
			TeamID:     f.Away.TeamID,
			Fixture:    f,
			CleanSheet: csModel.PredictForTeam(f.Away.TeamID, f),
		})

		for _, pf := range p.ctx.PlayerFixturesByFixture(f.ID) {
			gp.AddPlayer(prediction.PlayerFixturePrediction{
				PlayerID:      pf.PlayerID,
				PlayerFixture: pf,
				Fixture:       f,
				CleanSheet:    playerCS.PredictForPlayer(pf, f),
				XG:            playerXG.PredictForPlayer(pf, f),
				XA:            playerXA.PredictForPlayer(pf, f),
				DC:            playerDC.PredictForPlayer(pf, f),
			})
		}
	}
	return gp, nil
}

// Predict aggregates predictions across the target gameweeks. A nil target
// list predicts just the next gameweek.
func (p *Pipeline) Predict(next int, targets []int, minHistory int) (prediction.GameweekPredictions, error) {
	if len(targets) == 0 {
		targets = []int{next}
	}
	key := spanKey{next: next, targets: fmt.Sprint(targets), minHistory: minHistory}

	p.mu.RLock()
	span, ok := p.perSpan[key]
	p.mu.RUnlock()
	if ok {
		return span, nil
	}

	v, err, _ := p.group.Do(fmt.Sprintf("span:%d:%v:%d", next, targets, minHistory), func() (any, error) {
		p.mu.RLock()
		span, ok := p.perSpan[key]
		p.mu.RUnlock()
		if ok {
			return span, nil
		}

		gws := make([]*prediction.GameweekPrediction, 0, len(targets))
		for _, target := range targets {
			gp, err := p.PredictGameweek(next, target, minHistory)
			if err != nil {
				return nil, err
			}
			gws = append(gws, gp)
		}
		span = prediction.GameweekPredictions{Gameweeks: gws}

		p.mu.Lock()
		p.perSpan[key] = span
		p.mu.Unlock()
		return span, nil
	})
	if err != nil {
		return prediction.GameweekPredictions{}, err
	}
	return v.(prediction.GameweekPredictions), nil
}

// PredictHorizon predicts the consecutive gameweeks [start, start+horizon).
func (p *Pipeline) PredictHorizon(next, start, horizon, minHistory int) (prediction.GameweekPredictions, error) {
	if horizon < 1 {
		horizon = 1
	}
	targets := make([]int, 0, horizon)
	for gw := start; gw < start+horizon; gw++ {
		targets = append(targets, gw)
	}
	return p.Predict(next, targets, minHistory)
}

// Score backtests the model: the actual points the top squadSize players by
// predicted total points went on to score over the target gameweeks.
func (p *Pipeline) Score(next int, targets []int, minHistory, squadSize int) (int, error) {
	span, err := p.Predict(next, targets, minHistory)
	if err != nil {
		return 0, err
	}
	top := span.PlayersByTotalPointsDesc(p.ctx.PlayerByID)
	if len(top) > squadSize {
		top = top[:squadSize]
	}
	total := 0
	for _, player := range top {
		if pts, ok := player.ActualPoints(); ok {
			total += pts
		}
	}
	return total, nil
}

// ClearCache drops every memoized result.
func (p *Pipeline) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seasons = make(map[int]*season.Season)
	p.perGW = make(map[gameweekKey]*prediction.GameweekPrediction)
	p.perSpan = make(map[spanKey]prediction.GameweekPredictions)
}

// CacheSizes reports the number of memoized results per stage.
func (p *Pipeline) CacheSizes() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return map[string]int{
		"season":              len(p.seasons),
		"gameweek_prediction": len(p.perGW),
		"span_prediction":     len(p.perSpan),
	}
}
