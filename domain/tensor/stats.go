package tensor

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ScoreStats describes the distribution of retained scores
type ScoreStats struct {
	Count        int     `json:"count"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	P90          float64 `json:"p90"`
	WeightedMean float64 `json:"weighted_mean"`
}

// Stats summarizes entry scores. The weighted mean uses severity weights
// so a pile of minor findings does not read like one critical one.
func (t *InterferenceTensor) Stats() ScoreStats {
	if len(t.Entries) == 0 {
		return ScoreStats{}
	}

	w := DefaultSeverityWeights()
	scores := make([]float64, len(t.Entries))
	weights := make([]float64, len(t.Entries))
	for i, e := range t.Entries {
		scores[i] = e.Score
		weights[i] = w.Weight(e.Severity)
	}

	out := ScoreStats{Count: len(scores)}
	out.Max, _ = stats.Max(scores)
	out.Mean, _ = stats.Mean(scores)
	out.Median, _ = stats.Median(scores)
	out.P90, _ = stats.Percentile(scores, 90)
	out.WeightedMean = stat.Mean(scores, weights)
	return out
}
