package service

import (
	"fmt"
	"math"
	"sort"

	"retaildash/internal/dataset"
)

// collectFloats gathers the non-null values of a numeric column in view
// order.
func collectFloats(v *dataset.View, col *dataset.Column) []float64 {
	vals := make([]float64, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if f, ok := col.Float(v.Row(i)); ok {
			vals = append(vals, f)
		}
	}
	return vals
}

// collectFloatsWithRows is collectFloats keeping each value's table row.
func collectFloatsWithRows(v *dataset.View, col *dataset.Column) ([]float64, []int) {
	vals := make([]float64, 0, v.Len())
	rows := make([]int, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		row := v.Row(i)
		if f, ok := col.Float(row); ok {
			vals = append(vals, f)
			rows = append(rows, row)
		}
	}
	return vals, rows
}

func meanOf(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStd is the bias-corrected (n-1) standard deviation; 0 when fewer
// than two values.
func sampleStd(vals []float64, mean float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var m2 float64
	for _, v := range vals {
		d := v - mean
		m2 += d * d
	}
	return math.Sqrt(m2 / float64(len(vals)-1))
}

// skewness is the adjusted Fisher-Pearson sample coefficient. Undefined for
// fewer than three values or zero variance.
func skewness(vals []float64, mean, std float64) (float64, bool) {
	n := float64(len(vals))
	if len(vals) < 3 || std == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		d := (v - mean) / std
		sum += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * sum, true
}

// kurtosisExcess is the bias-corrected sample excess kurtosis. Undefined for
// fewer than four values or zero variance.
func kurtosisExcess(vals []float64, mean, std float64) (float64, bool) {
	n := float64(len(vals))
	if len(vals) < 4 || std == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		d := (v - mean) / std
		sum += d * d * d * d
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3)), true
}

// quantile interpolates linearly between order statistics (the same method
// spreadsheet tools use). Input must be sorted ascending.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// modeOf returns the most frequent value when it is unique and occurs more
// than once; otherwise the mode is undefined.
func modeOf(vals []float64) (float64, bool) {
	counts := make(map[float64]int, len(vals))
	order := make([]float64, 0, len(vals))
	for _, v := range vals {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestCount, tied := 0.0, 0, false
	for _, v := range order {
		switch {
		case counts[v] > bestCount:
			best, bestCount, tied = v, counts[v], false
		case counts[v] == bestCount:
			tied = true
		}
	}
	if bestCount < 2 || tied {
		return 0, false
	}
	return best, true
}

// pearson computes the correlation coefficient, clamped to [-1, 1]. ok is
// false when either side has zero variance or fewer than two pairs.
func pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	n := float64(len(x))

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	den := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if den == 0 {
		return 0, false
	}
	r := (n*sumXY - sumX*sumY) / den
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// spearman is Pearson over value ranks.
func spearman(x, y []float64) (float64, bool) {
	return pearson(computeRanks(x), computeRanks(y))
}

func computeRanks(vals []float64) []float64 {
	type indexedVal struct {
		val float64
		idx int
	}
	indexed := make([]indexedVal, len(vals))
	for i, v := range vals {
		indexed[i] = indexedVal{v, i}
	}
	sort.Slice(indexed, func(i, j int) bool { return indexed[i].val < indexed[j].val })

	ranks := make([]float64, len(vals))
	for pos, iv := range indexed {
		ranks[iv.idx] = float64(pos + 1)
	}
	return ranks
}

func interpretCorrelation(r float64) string {
	switch {
	case r > 0.7:
		return "Strong positive"
	case r < -0.7:
		return "Strong negative"
	case r > 0.3:
		return "Moderate positive"
	case r < -0.3:
		return "Moderate negative"
	default:
		return "Weak/None"
	}
}

// entropyOf computes Shannon entropy in bits over value counts.
func entropyOf(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, count := range counts {
		if count > 0 {
			p := float64(count) / float64(total)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// linearFit regresses vals against their positions: y = slope*x + b.
// rsquared is 0 when the fit explains nothing (or the x spread is zero).
func linearFit(vals []float64) (slope, rsquared float64) {
	if len(vals) < 3 {
		return 0, 0
	}
	n := float64(len(vals))

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range vals {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	den := n*sumX2 - sumX*sumX
	if den == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / den

	meanY := sumY / n
	intercept := meanY - slope*(sumX/n)
	var ssTotal, ssResidual float64
	for i, y := range vals {
		predicted := slope*float64(i) + intercept
		ssTotal += (y - meanY) * (y - meanY)
		ssResidual += (y - predicted) * (y - predicted)
	}
	if ssTotal == 0 {
		return slope, 0
	}
	return slope, 1 - ssResidual/ssTotal
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
