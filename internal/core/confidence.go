package core

import (
	"math"
)

// AggregationStrategy selects how a detection's match confidences are
// combined into a single 0-100 score.
type AggregationStrategy string

const (
	// AggregateMax takes the highest single match confidence.
	AggregateMax AggregationStrategy = "max"
	// AggregateAverage takes the unweighted mean of match confidences.
	AggregateAverage AggregationStrategy = "average"
	// AggregateWeighted weights each match by its channel's reliability.
	AggregateWeighted AggregationStrategy = "weighted"
)

// Confidence level buckets.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// channelWeights are fixed per-channel reliability factors for the
// weighted strategy. Cookies are the strongest signal (set server-side by
// the protection product itself); DOM structure is the weakest.
var channelWeights = map[string]float64{
	ChannelCookies: 1.2,
	ChannelHeaders: 1.1,
	ChannelContent: 1.0,
	ChannelURLs:    0.95,
	ChannelDOM:     0.9,
}

// Aggregate combines match confidences using the given strategy. An empty
// match list always yields 0. Unknown strategies fall back to max.
func Aggregate(matches []Match, strategy AggregationStrategy) int {
	if len(matches) == 0 {
		return 0
	}
	switch strategy {
	case AggregateAverage:
		sum := 0
		for _, m := range matches {
			sum += m.Confidence
		}
		return roundHalfUp(float64(sum) / float64(len(matches)))
	case AggregateWeighted:
		var weightedSum, weightSum float64
		for _, m := range matches {
			w, ok := channelWeights[m.Channel]
			if !ok {
				w = 1.0
			}
			weightedSum += float64(m.Confidence) * w
			weightSum += w
		}
		if weightSum == 0 {
			return 0
		}
		return roundHalfUp(weightedSum / weightSum)
	default:
		best := 0
		for _, m := range matches {
			if m.Confidence > best {
				best = m.Confidence
			}
		}
		return best
	}
}

// ConfidenceLevel buckets a 0-100 score into high, medium, or low.
func ConfidenceLevel(score int) string {
	switch {
	case score >= 90:
		return LevelHigh
	case score >= 70:
		return LevelMedium
	default:
		return LevelLow
	}
}

// AdjustConfidence scales every match confidence by factor, clamping each
// result to [0,100]. The input slice is not modified.
func AdjustConfidence(matches []Match, factor float64) []Match {
	adjusted := make([]Match, len(matches))
	for i, m := range matches {
		m.Confidence = clampConfidence(roundHalfUp(float64(m.Confidence) * factor))
		adjusted[i] = m
	}
	return adjusted
}

// PageConfidence is the page-level score stored on a cache entry: the
// plain average of each detection's own confidence. This is a coarser
// measure than Aggregate, which averages match confidences within one
// detection; keep the two apart.
func PageConfidence(detections []Detection) int {
	if len(detections) == 0 {
		return 0
	}
	sum := 0
	for _, d := range detections {
		sum += d.Confidence
	}
	return roundHalfUp(float64(sum) / float64(len(detections)))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
