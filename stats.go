package caravel

import "math"

// ============================================================================
// Numeric Reductions
// ============================================================================
//
// Package-level reductions over the numeric dense variants. Null doubles
// (NaN) are skipped, matching the carry-forward treatment in CumSum.
// Parallel arrays reduce with deterministic bisection, so parallel and
// sequential results are bit-identical. Non-numeric dtypes panic with
// *UnsupportedError.

// Sum returns the sum of all non-null values, 0 for an empty array.
func Sum(a Array) float64 {
	switch v := a.(type) {
	case *intArray:
		var total int64
		if v.IsParallel() {
			threshold := forkThreshold(len(v.values), false)
			total = forkJoinReduce(0, len(v.values), threshold, func(from, to int) int64 {
				var s int64
				for _, x := range v.values[from:to] {
					s += int64(x)
				}
				return s
			}, func(l, r int64) int64 { return l + r })
		} else {
			for _, x := range v.values {
				total += int64(x)
			}
		}
		return float64(total)
	case *longArray:
		if v.IsParallel() {
			return float64(ParallelReduceInt64(v.values, 0, func(l, r int64) int64 { return l + r }))
		}
		var total int64
		for _, x := range v.values {
			total += x
		}
		return float64(total)
	case *doubleArray:
		if v.IsParallel() {
			return ParallelReduceFloat64(v.values, 0, func(l, r float64) float64 {
				if math.IsNaN(r) {
					return l
				}
				return l + r
			})
		}
		var total float64
		for _, x := range v.values {
			if !math.IsNaN(x) {
				total += x
			}
		}
		return total
	default:
		unsupported("Sum", a.DType())
		return 0
	}
}

// Mean returns the mean of all non-null values, NaN for an array with no
// non-null values.
func Mean(a Array) float64 {
	n := countNonNull(a)
	if n == 0 {
		return math.NaN()
	}
	return Sum(a) / float64(n)
}

func countNonNull(a Array) int {
	switch v := a.(type) {
	case *intArray:
		return len(v.values)
	case *longArray:
		return len(v.values)
	case *doubleArray:
		threshold := forkThreshold(len(v.values), !v.IsParallel())
		return forkJoinReduce(0, len(v.values), threshold, func(from, to int) int {
			n := 0
			for _, x := range v.values[from:to] {
				if !math.IsNaN(x) {
					n++
				}
			}
			return n
		}, func(l, r int) int { return l + r })
	default:
		unsupported("Mean", a.DType())
		return 0
	}
}

// MinOf returns the smallest non-null value, or false when the array has
// no non-null values.
func MinOf(a Array) (float64, bool) {
	return reduceExtremum(a, -1)
}

// MaxOf returns the largest non-null value, or false when the array has
// no non-null values.
func MaxOf(a Array) (float64, bool) {
	return reduceExtremum(a, 1)
}

func reduceExtremum(a Array, multiplier int) (float64, bool) {
	var at func(i int) (float64, bool)
	switch v := a.(type) {
	case *intArray:
		at = func(i int) (float64, bool) { return float64(v.values[i]), true }
	case *longArray:
		at = func(i int) (float64, bool) { return float64(v.values[i]), true }
	case *doubleArray:
		at = func(i int) (float64, bool) {
			x := v.values[i]
			return x, !math.IsNaN(x)
		}
	default:
		unsupported("MinOf/MaxOf", a.DType())
	}
	type best struct {
		value float64
		ok    bool
	}
	threshold := forkThreshold(a.Len(), !a.IsParallel())
	result := forkJoinReduce(0, a.Len(), threshold, func(from, to int) best {
		var b best
		for i := from; i < to; i++ {
			x, ok := at(i)
			if !ok {
				continue
			}
			if !b.ok || multiplier*compareFloat(x, b.value) > 0 {
				b = best{value: x, ok: true}
			}
		}
		return b
	}, func(l, r best) best {
		switch {
		case !l.ok:
			return r
		case !r.ok:
			return l
		case multiplier*compareFloat(r.value, l.value) > 0:
			return r
		default:
			return l
		}
	})
	return result.value, result.ok
}
