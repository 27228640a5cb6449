package preprocessing

import (
	"sort"
)

// CategoryStatistic は1カテゴリの件数と目的変数の合計
type CategoryStatistic struct {
	Count int
	Sum   float64
}

// Mean returns Sum/Count. It is NaN for an empty category.
func (s CategoryStatistic) Mean() float64 {
	return s.Sum / float64(s.Count)
}

// foldStatistics is the per-column table kept after fit so out-of-fold
// statistics can be derived by subtraction.
type foldStatistics struct {
	Stats       map[int]CategoryStatistic
	MissingCode int
}

// isSentinel reports whether code never takes part in the statistics.
func (f *foldStatistics) isSentinel(code int) bool {
	return code == UnknownCode || code == MissingCodeUnseen || code == f.MissingCode
}

// groupStats accumulates count and sum of y per code over rows, or over
// every row when rows is nil. Codes for which skip is true are ignored.
func groupStats(codes []int, y []float64, rows []int, skip func(code int) bool) map[int]CategoryStatistic {
	out := make(map[int]CategoryStatistic)
	add := func(i int) {
		code := codes[i]
		if skip(code) {
			return
		}
		s := out[code]
		s.Count++
		s.Sum += y[i]
		out[code] = s
	}

	if rows == nil {
		for i := range codes {
			add(i)
		}
		return out
	}
	for _, i := range rows {
		add(i)
	}
	return out
}

// subtractStats returns global - part for every code present in part.
// Codes absent from global are left out.
func subtractStats(global, part map[int]CategoryStatistic) map[int]CategoryStatistic {
	out := make(map[int]CategoryStatistic, len(part))
	for code, p := range part {
		g, ok := global[code]
		if !ok {
			continue
		}
		out[code] = CategoryStatistic{Count: g.Count - p.Count, Sum: g.Sum - p.Sum}
	}
	return out
}

// sortedCodes returns the codes of stats in ascending order.
func sortedCodes(stats map[int]CategoryStatistic) []int {
	codes := make([]int, 0, len(stats))
	for code := range stats {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// smoothStats applies the smoothing function to every entry of stats.
func smoothStats(stats map[int]CategoryStatistic, prior, minSamplesLeaf, smoothing float64) map[int]float64 {
	codes := sortedCodes(stats)
	mean := make([]float64, len(codes))
	count := make([]float64, len(codes))
	for i, code := range codes {
		s := stats[code]
		mean[i] = s.Mean()
		count[i] = float64(s.Count)
	}

	smoothed := smooth(mean, count, prior, minSamplesLeaf, smoothing)
	out := make(map[int]float64, len(codes))
	for i, code := range codes {
		out[code] = smoothed[i]
	}
	return out
}

// columnMapping is the smoothed value of every code seen at fit for one
// column. Unseen and missing codes have no entry; lookup reports them.
type columnMapping struct {
	Values      map[int]float64
	MissingCode int
}

func (m *columnMapping) lookup(code int) lookup {
	if code == m.MissingCode || code == MissingCodeUnseen {
		return lookup{kind: missing}
	}
	if v, ok := m.Values[code]; ok {
		return lookup{kind: known, value: v}
	}
	return lookup{kind: unseen}
}
