package regression

// CalculateSampleSizes picks a sequence of sample row counts to trial-encode,
// capped at maxRows, mirroring the spread the teacher's offline measurement
// tool used for choosing points-per-metric test sizes: a fixed standard
// ladder, extended with maxRows itself if it sits well above the largest
// standard step already included.
func CalculateSampleSizes(maxRows int) []int {
	standard := []int{16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192}

	var out []int
	for _, n := range standard {
		if n <= maxRows {
			out = append(out, n)
		}
	}

	if len(out) == 0 {
		if maxRows > 0 {
			return []int{maxRows}
		}

		return nil
	}

	last := out[len(out)-1]
	if maxRows > last && float64(maxRows)/float64(last) > 1.2 {
		out = append(out, maxRows)
	}

	return out
}

// PercentileCap returns a conservative row-count cap for sampling: the
// smaller of the mean and the p90 of per-column row counts, avoiding
// oversized samples driven by a handful of very large columns.
func PercentileCap(counts []int) int {
	if len(counts) == 0 {
		return 0
	}

	sorted := append([]int(nil), counts...)
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}

	total := 0
	for _, c := range sorted {
		total += c
	}
	mean := total / len(sorted)

	n := len(sorted)
	idx := (9*n + 9) / 10
	if idx <= 0 {
		idx = 1
	}
	if idx > n {
		idx = n
	}
	p90 := sorted[idx-1]
	if p90 <= 0 {
		p90 = 1
	}

	if mean <= 0 {
		return p90
	}
	if mean < p90 {
		return mean
	}

	return p90
}
