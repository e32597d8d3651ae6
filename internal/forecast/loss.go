package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Loss scores a prediction series against its observed labels. Lower is
// better for every implementation.
type Loss interface {
	Score(labels, predictions []float64) float64
}

// LogLoss is binary cross-entropy with predictions clamped away from 0 and 1.
type LogLoss struct{}

func (LogLoss) Score(labels, predictions []float64) float64 {
	checkLen(labels, predictions)
	const epsilon = 1e-15
	loss := 0.0
	for i, label := range labels {
		p := math.Min(1-epsilon, math.Max(epsilon, predictions[i]))
		loss -= label*math.Log(p) + (1-label)*math.Log(1-p)
	}
	return loss
}

// AvgDiffLoss measures how well predictions separate the positive and
// negative classes: 1 minus the gap between the mean prediction on positives
// and on negatives. 0 when either class is absent.
type AvgDiffLoss struct{}

func (AvgDiffLoss) Score(labels, predictions []float64) float64 {
	checkLen(labels, predictions)
	var posSum, negSum float64
	var posCount, negCount int
	for i, label := range labels {
		if label == 1 {
			posSum += predictions[i]
			posCount++
		} else {
			negSum += predictions[i]
			negCount++
		}
	}
	if posCount == 0 || negCount == 0 {
		return 0
	}
	return 1 - (posSum/float64(posCount) - negSum/float64(negCount))
}

// MAE is the mean absolute error.
type MAE struct{}

func (MAE) Score(labels, predictions []float64) float64 {
	checkLen(labels, predictions)
	if len(labels) == 0 {
		return 0
	}
	diffs := make([]float64, len(labels))
	for i := range labels {
		diffs[i] = math.Abs(labels[i] - predictions[i])
	}
	return stat.Mean(diffs, nil)
}

func checkLen(labels, predictions []float64) {
	if len(labels) != len(predictions) {
		panic(fmt.Sprintf("forecast: %d labels vs %d predictions", len(labels), len(predictions)))
	}
}
