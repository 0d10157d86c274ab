package dataprocessing

import (
	"math"
	"sort"

	"dogwrangle/pkg/contracts/domain"
)

// ValueCount is one bucket of a value-count listing
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summary holds the descriptive numbers of a master table
type Summary struct {
	Rows         int          `json:"rows"`
	StageCounts  []ValueCount `json:"stage_counts"`
	SourceCounts []ValueCount `json:"source_counts"`

	// FavoriteRetweetCorrelation is the Pearson coefficient of favorite_count
	// against retweet_count. Nil when it is undefined.
	FavoriteRetweetCorrelation *float64 `json:"favorite_retweet_correlation"`
}

// Summarize computes stage counts, source counts and the engagement correlation.
// Rows without a stage are not counted as a stage.
func Summarize(t domain.Table[domain.MasterRecord]) Summary {
	stages := make(map[string]int)
	sources := make(map[string]int)
	favorites := make([]float64, 0, t.Len())
	retweets := make([]float64, 0, t.Len())

	for _, rec := range t.Rows {
		if rec.Stage != domain.StageNone {
			stages[string(rec.Stage)]++
		}
		sources[rec.Source]++
		favorites = append(favorites, float64(rec.FavoriteCount))
		retweets = append(retweets, float64(rec.RetweetCount))
	}

	summary := Summary{
		Rows:         t.Len(),
		StageCounts:  SortedCounts(stages),
		SourceCounts: SortedCounts(sources),
	}
	if r, ok := Pearson(favorites, retweets); ok {
		summary.FavoriteRetweetCorrelation = &r
	}
	return summary
}

// SortedCounts orders buckets by descending count, ties by value
func SortedCounts(counts map[string]int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Pearson returns the correlation coefficient of xs and ys. ok is false when
// the inputs differ in length, hold fewer than two points, or either side has
// zero variance.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}
