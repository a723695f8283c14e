package qc

import (
	"fmt"
	"math"
	"sort"
)

// Ranks assigns 1-based ranks to the values, averaging mid-ranks over runs
// of equal value, so tied observations share the mean of the positions they
// occupy.
func Ranks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		// positions i..j (0-based) share the midrank
		mid := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = mid
		}
		i = j + 1
	}
	return ranks
}

// SpearmansRho computes Spearman's rank correlation between two paired
// samples.
func SpearmansRho(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("paired samples differ in size: %d vs %d", len(xs), len(ys))
	}
	n := len(xs)
	if n < 2 {
		return 0, nil
	}
	xr := Ranks(xs)
	yr := Ranks(ys)
	sumSq := 0.0
	for i := range xr {
		d := xr[i] - yr[i]
		sumSq += d * d
	}
	nf := float64(n)
	return 1 - (6*sumSq)/(nf*(nf*nf-1)), nil
}

// ChiSquared computes Pearson's chi-squared statistic over a contingency
// table. Cells with zero expectation contribute nothing.
func ChiSquared(table [][]int) float64 {
	if len(table) == 0 || len(table[0]) == 0 {
		return 0
	}
	rows, cols := len(table), len(table[0])
	total := 0
	rowSums := make([]int, rows)
	colSums := make([]int, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rowSums[r] += table[r][c]
			colSums[c] += table[r][c]
			total += table[r][c]
		}
	}
	if total == 0 {
		return 0
	}
	stat := 0.0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			expected := float64(rowSums[r]) * float64(colSums[c]) / float64(total)
			if expected == 0 {
				continue
			}
			d := float64(table[r][c]) - expected
			stat += d * d / expected
		}
	}
	return stat
}

// CramersV normalizes the chi-squared statistic of a contingency table into
// a nominal association strength in [0, 1].
func CramersV(table [][]int) float64 {
	if len(table) == 0 || len(table[0]) == 0 {
		return 0
	}
	rows, cols := len(table), len(table[0])
	if rows < 2 || cols < 2 {
		return 0
	}
	n := 0
	for r := range table {
		for c := range table[r] {
			n += table[r][c]
		}
	}
	if n == 0 {
		return 0
	}
	minDim := rows - 1
	if cols-1 < minDim {
		minDim = cols - 1
	}
	return math.Sqrt(ChiSquared(table) / float64(n) / float64(minDim))
}

// MannWhitneyU runs the Mann-Whitney rank-sum test between two independent
// samples with tie-averaged ranks. It returns the U statistic and a two-sided
// p-value from the normal approximation with tie correction. Empty samples
// yield (0, 1): no evidence either way.
func MannWhitneyU(xs, ys []float64) (u, p float64) {
	n1, n2 := len(xs), len(ys)
	if n1 == 0 || n2 == 0 {
		return 0, 1
	}
	combined := make([]float64, 0, n1+n2)
	combined = append(combined, xs...)
	combined = append(combined, ys...)
	ranks := Ranks(combined)

	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	f1, f2 := float64(n1), float64(n2)
	u1 := r1 - f1*(f1+1)/2
	u2 := f1*f2 - u1
	u = math.Min(u1, u2)

	// tie correction over runs of equal value in the pooled sample
	sorted := append([]float64{}, combined...)
	sort.Float64s(sorted)
	tieSum := 0.0
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[i] {
			j++
		}
		t := float64(j - i + 1)
		tieSum += t*t*t - t
		i = j + 1
	}
	nTot := f1 + f2
	variance := f1 * f2 / 12 * ((nTot + 1) - tieSum/(nTot*(nTot-1)))
	if variance <= 0 {
		return u, 1
	}
	mean := f1 * f2 / 2
	z := (u - mean) / math.Sqrt(variance)
	p = math.Erfc(math.Abs(z) / math.Sqrt2)
	return u, p
}
