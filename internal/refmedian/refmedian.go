// Package refmedian is a deliberately naive brute-force 2-D median filter,
// used by the median package's tests to check the block-decomposed engine
// against an obviously-correct implementation.
package refmedian

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Float mirrors median.Float; duplicated here so this package has no
// dependency on the engine it is checking.
type Float interface {
	constraints.Float
}

// Filter2D computes, for every cell of an X*Y image, the median of the
// input cells inside the axis-aligned window of half-widths (hx, hy)
// centered at that cell, clipped to the image bounds. Medians are the
// mean of the two middle values for an even-count window; NaNs are
// excluded from the window and an all-NaN window yields NaN.
func Filter2D[T Float](X, Y, hx, hy int, in, out []T) {
	window := make([]T, 0, (2*hx+1)*(2*hy+1))
	for y := 0; y < Y; y++ {
		y0 := maxInt(0, y-hy)
		y1 := minInt(Y, y+hy+1)
		for x := 0; x < X; x++ {
			x0 := maxInt(0, x-hx)
			x1 := minInt(X, x+hx+1)

			window = window[:0]
			for wy := y0; wy < y1; wy++ {
				base := wy * X
				for wx := x0; wx < x1; wx++ {
					v := in[base+wx]
					if v == v { // exclude NaN
						window = append(window, v)
					}
				}
			}
			out[y*X+x] = median(window)
		}
	}
}

func median[T Float](window []T) T {
	n := len(window)
	if n == 0 {
		var zero T
		return zero / zero // NaN of T without importing math per instantiation
	}
	sorted := append([]T(nil), window...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	g1 := (n - 1) / 2
	g2 := n / 2
	if g1 == g2 {
		return sorted[g1]
	}
	return (sorted[g1] + sorted[g2]) / 2
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
