package domain

import (
	"math"
	"slices"
	"strconv"
)

// valid returns the finite, non-nil samples of values.
func valid(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		out = append(out, *v)
	}
	return out
}

// Average returns the arithmetic mean of the valid samples, or nil if none.
func Average(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}
	var total float64
	for _, v := range vs {
		total += v
	}
	mean := total / float64(len(vs))
	return &mean
}

// Sum returns the total of the valid samples, or nil if none.
func Sum(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}
	var total float64
	for _, v := range vs {
		total += v
	}
	return &total
}

// Max returns the largest valid sample, or nil if none.
func Max(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}
	m := slices.Max(vs)
	return &m
}

// Mode returns the most common valid sample, or nil if none.
//
// Ties go to the value whose running count first reached the winning count,
// so [1,1,2,2] yields 1 and [2,1,1,2] yields 1. Ties are not broken by
// value: [2,2,1,1] yields 2 even though 1 is the smaller code. This is
// documented current behavior rather than a guaranteed contract.
func Mode(values []*float64) *float64 {
	vs := valid(values)
	if len(vs) == 0 {
		return nil
	}

	counts := make(map[float64]int, len(vs))
	best, bestCount := vs[0], 0
	for _, v := range vs {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return &best
}

// Percentile returns the share of dataset values less than or equal to
// value, as an integer 0-100 rounded to nearest. An empty dataset yields 0.
func Percentile(value float64, dataset []float64) int {
	if len(dataset) == 0 {
		return 0
	}
	count := 0
	for _, v := range dataset {
		if v <= value {
			count++
		}
	}
	return int(math.Round(float64(count) / float64(len(dataset)) * 100))
}

// QuantileBreaks returns n+1 class breaks over data: the minimum, the values
// at sorted positions floor(len*i/n) for i in 1..n-1, and the maximum.
// Empty input yields nil; n below 1 yields just [min, max].
func QuantileBreaks(data []float64, n int) []float64 {
	if len(data) == 0 {
		return nil
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	breaks := make([]float64, 0, max(n, 1)+1)
	breaks = append(breaks, sorted[0])
	for i := 1; i < n; i++ {
		breaks = append(breaks, sorted[len(sorted)*i/n])
	}
	return append(breaks, sorted[len(sorted)-1])
}

// Rank returns the 1-based descending rank of value in dataset: one more
// than the number of strictly greater values. Tied values share a rank and
// the next distinct value skips ahead ([5,3,3,1]: 5->1, 3->2, 1->4).
func Rank(value float64, dataset []float64) int {
	greater := 0
	for _, v := range dataset {
		if v > value {
			greater++
		}
	}
	return greater + 1
}

// Ordinal formats n with its English ordinal suffix: 1st, 2nd, 3rd, 4th,
// 11th, 12th, 13th, 21st, 112th.
func Ordinal(n int) string {
	suffix := "th"
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch abs % 100 {
	case 11, 12, 13:
	default:
		switch abs % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
