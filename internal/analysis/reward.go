package analysis

import (
	"github.com/tklauser/thesis-scripts/internal/parser"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RewardCurve is the cumulative reward over the recorded steps.
type RewardCurve struct {
	Time       []float64
	Cumulative []float64
	// Final is the reward accumulated over the whole run.
	Final float64
}

// CumulativeReward returns r[t], the total reward of all rows before t
// summed over every reward column. r[0] is always 0.
func CumulativeReward(rewards *parser.TimeSeries) *RewardCurve {
	n, _ := rewards.Values.Dims()
	curve := &RewardCurve{
		Time:       append([]float64(nil), rewards.Time...),
		Cumulative: make([]float64, n),
	}
	sum := 0.0
	for t := 0; t < n; t++ {
		curve.Cumulative[t] = sum
		sum += floats.Sum(mat.Row(nil, t, rewards.Values))
	}
	curve.Final = sum
	return curve
}
