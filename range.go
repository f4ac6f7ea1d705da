package caravel

import (
	"iter"
	"math"
	"sort"
	"sync"
	"time"
)

// ============================================================================
// Range Generators
// ============================================================================
//
// Ranges are lazy, splittable, finite sequences used to bulk-populate
// arrays. Start is inclusive, End exclusive, Step a positive magnitude;
// direction follows the ordering of Start and End. Split partitions a
// range into contiguous sub-ranges of roughly equal step count for
// parallel materialisation, never splitting below the given threshold.

// IntRange generates int32 sequences.
type IntRange struct {
	Start    int32
	End      int32
	Step     int32
	Excludes func(int32) bool
}

// NewIntRange creates a range over [start, end) with the given positive
// step. A start greater than end yields a descending range.
func NewIntRange(start, end, step int32) *IntRange {
	if step <= 0 {
		panic(boundsErrorf("range step must be positive, got %d", step))
	}
	return &IntRange{Start: start, End: end, Step: step}
}

// Ascending reports the iteration direction.
func (r *IntRange) Ascending() bool { return r.Start <= r.End }

// EstimateSize returns the step count ignoring excludes.
func (r *IntRange) EstimateSize() int {
	span := int64(r.End) - int64(r.Start)
	if span < 0 {
		span = -span
	}
	step := int64(r.Step)
	return int((span + step - 1) / step)
}

// InBounds reports whether v lies inside the half-open range.
func (r *IntRange) InBounds(v int32) bool {
	if r.Ascending() {
		return v >= r.Start && v < r.End
	}
	return v <= r.Start && v > r.End
}

// Values returns a lazy iterator honoring direction and excludes.
func (r *IntRange) Values() iter.Seq[int32] {
	return func(yield func(int32) bool) {
		if r.Ascending() {
			for v := r.Start; v < r.End; v += r.Step {
				if r.Excludes != nil && r.Excludes(v) {
					continue
				}
				if !yield(v) {
					return
				}
			}
		} else {
			for v := r.Start; v > r.End; v -= r.Step {
				if r.Excludes != nil && r.Excludes(v) {
					continue
				}
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Split partitions the range into contiguous sub-ranges of roughly equal
// step count, bounded by the worker count. Ranges at or below
// splitThreshold steps are returned whole.
func (r *IntRange) Split(splitThreshold int) []*IntRange {
	parts := splitParts(r.EstimateSize(), splitThreshold)
	if parts < 2 {
		return []*IntRange{r}
	}
	per := (r.EstimateSize() + parts - 1) / parts
	dir := int32(1)
	if !r.Ascending() {
		dir = -1
	}
	out := make([]*IntRange, 0, parts)
	for k := 0; k < parts; k++ {
		segStart := r.Start + dir*int32(k*per)*r.Step
		segEnd := r.Start + dir*int32((k+1)*per)*r.Step
		if (dir > 0 && segEnd > r.End) || (dir < 0 && segEnd < r.End) {
			segEnd = r.End
		}
		out = append(out, &IntRange{Start: segStart, End: segEnd, Step: r.Step, Excludes: r.Excludes})
	}
	return out
}

// ToArray materialises the range. The parallel path splits the range,
// builds each segment concurrently, re-sorts completed segments by their
// direction-aware first element, and concatenates in range order.
func (r *IntRange) ToArray(parallel bool) Array {
	if !parallel {
		b := NewArrayBuilder(Int32, r.EstimateSize())
		for v := range r.Values() {
			b.AddInt(v)
		}
		return b.ToArray()
	}
	segments := r.Split(globalConfig.MorselSize)
	return concatSegments(Int32, r.EstimateSize(), r.Ascending(), len(segments), func(k int) Array {
		return segments[k].ToArray(false)
	})
}

// LongRange generates int64 sequences.
type LongRange struct {
	Start    int64
	End      int64
	Step     int64
	Excludes func(int64) bool
}

// NewLongRange creates a range over [start, end) with the given positive
// step.
func NewLongRange(start, end, step int64) *LongRange {
	if step <= 0 {
		panic(boundsErrorf("range step must be positive, got %d", step))
	}
	return &LongRange{Start: start, End: end, Step: step}
}

func (r *LongRange) Ascending() bool { return r.Start <= r.End }

func (r *LongRange) EstimateSize() int {
	span := r.End - r.Start
	if span < 0 {
		span = -span
	}
	return int((span + r.Step - 1) / r.Step)
}

func (r *LongRange) InBounds(v int64) bool {
	if r.Ascending() {
		return v >= r.Start && v < r.End
	}
	return v <= r.Start && v > r.End
}

func (r *LongRange) Values() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if r.Ascending() {
			for v := r.Start; v < r.End; v += r.Step {
				if r.Excludes != nil && r.Excludes(v) {
					continue
				}
				if !yield(v) {
					return
				}
			}
		} else {
			for v := r.Start; v > r.End; v -= r.Step {
				if r.Excludes != nil && r.Excludes(v) {
					continue
				}
				if !yield(v) {
					return
				}
			}
		}
	}
}

func (r *LongRange) Split(splitThreshold int) []*LongRange {
	parts := splitParts(r.EstimateSize(), splitThreshold)
	if parts < 2 {
		return []*LongRange{r}
	}
	per := int64((r.EstimateSize() + parts - 1) / parts)
	dir := int64(1)
	if !r.Ascending() {
		dir = -1
	}
	out := make([]*LongRange, 0, parts)
	for k := 0; k < parts; k++ {
		segStart := r.Start + dir*int64(k)*per*r.Step
		segEnd := r.Start + dir*int64(k+1)*per*r.Step
		if (dir > 0 && segEnd > r.End) || (dir < 0 && segEnd < r.End) {
			segEnd = r.End
		}
		out = append(out, &LongRange{Start: segStart, End: segEnd, Step: r.Step, Excludes: r.Excludes})
	}
	return out
}

func (r *LongRange) ToArray(parallel bool) Array {
	if !parallel {
		b := NewArrayBuilder(Int64, r.EstimateSize())
		for v := range r.Values() {
			b.AddLong(v)
		}
		return b.ToArray()
	}
	segments := r.Split(globalConfig.MorselSize)
	return concatSegments(Int64, r.EstimateSize(), r.Ascending(), len(segments), func(k int) Array {
		return segments[k].ToArray(false)
	})
}

// rangeEpsilon absorbs float-step cumulative error at the exclusive bound,
// so a value landing within 1e-12 of End is treated as out of bounds
// rather than off-by-one included.
const rangeEpsilon = 1e-12

// DoubleRange generates float64 sequences.
type DoubleRange struct {
	Start    float64
	End      float64
	Step     float64
	Excludes func(float64) bool
}

// NewDoubleRange creates a range over [start, end) with the given positive
// step.
func NewDoubleRange(start, end, step float64) *DoubleRange {
	if step <= 0 || math.IsNaN(step) {
		panic(boundsErrorf("range step must be positive, got %v", step))
	}
	return &DoubleRange{Start: start, End: end, Step: step}
}

func (r *DoubleRange) Ascending() bool { return r.Start <= r.End }

func (r *DoubleRange) EstimateSize() int {
	span := math.Abs(r.End - r.Start)
	return int(math.Ceil((span - rangeEpsilon) / r.Step))
}

// InBounds checks the half-open range with epsilon tolerance at the
// exclusive bound.
func (r *DoubleRange) InBounds(v float64) bool {
	if r.Ascending() {
		return v >= r.Start-rangeEpsilon && v < r.End-rangeEpsilon
	}
	return v <= r.Start+rangeEpsilon && v > r.End+rangeEpsilon
}

// Values iterates by index multiplication rather than accumulation, so
// step error does not compound across a long range.
func (r *DoubleRange) Values() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		dir := 1.0
		if !r.Ascending() {
			dir = -1
		}
		for i := 0; ; i++ {
			v := r.Start + dir*float64(i)*r.Step
			if !r.InBounds(v) {
				return
			}
			if r.Excludes != nil && r.Excludes(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

func (r *DoubleRange) Split(splitThreshold int) []*DoubleRange {
	parts := splitParts(r.EstimateSize(), splitThreshold)
	if parts < 2 {
		return []*DoubleRange{r}
	}
	per := (r.EstimateSize() + parts - 1) / parts
	dir := 1.0
	if !r.Ascending() {
		dir = -1
	}
	out := make([]*DoubleRange, 0, parts)
	for k := 0; k < parts; k++ {
		segStart := r.Start + dir*float64(k*per)*r.Step
		segEnd := r.Start + dir*float64((k+1)*per)*r.Step
		if (dir > 0 && segEnd > r.End) || (dir < 0 && segEnd < r.End) {
			segEnd = r.End
		}
		out = append(out, &DoubleRange{Start: segStart, End: segEnd, Step: r.Step, Excludes: r.Excludes})
	}
	return out
}

func (r *DoubleRange) ToArray(parallel bool) Array {
	if !parallel {
		b := NewArrayBuilder(Float64, r.EstimateSize())
		for v := range r.Values() {
			b.AddDouble(v)
		}
		return b.ToArray()
	}
	segments := r.Split(globalConfig.MorselSize)
	return concatSegments(Float64, r.EstimateSize(), r.Ascending(), len(segments), func(k int) Array {
		return segments[k].ToArray(false)
	})
}

// TimeRange generates instants stepped by a fixed duration, materialised
// as an epoch-milli coded array.
type TimeRange struct {
	Start    time.Time
	End      time.Time
	Step     time.Duration
	Excludes func(time.Time) bool
}

// NewTimeRange creates a range over [start, end) with the given positive
// step.
func NewTimeRange(start, end time.Time, step time.Duration) *TimeRange {
	if step <= 0 {
		panic(boundsErrorf("range step must be positive, got %v", step))
	}
	return &TimeRange{Start: start, End: end, Step: step}
}

func (r *TimeRange) Ascending() bool { return !r.Start.After(r.End) }

func (r *TimeRange) EstimateSize() int {
	span := r.End.Sub(r.Start)
	if span < 0 {
		span = -span
	}
	return int((span + r.Step - 1) / r.Step)
}

func (r *TimeRange) InBounds(v time.Time) bool {
	if r.Ascending() {
		return !v.Before(r.Start) && v.Before(r.End)
	}
	return !v.After(r.Start) && v.After(r.End)
}

func (r *TimeRange) Values() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		step := r.Step
		if !r.Ascending() {
			step = -step
		}
		for v := r.Start; r.InBounds(v); v = v.Add(step) {
			if r.Excludes != nil && r.Excludes(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

func (r *TimeRange) Split(splitThreshold int) []*TimeRange {
	parts := splitParts(r.EstimateSize(), splitThreshold)
	if parts < 2 {
		return []*TimeRange{r}
	}
	per := time.Duration((r.EstimateSize() + parts - 1) / parts)
	step := r.Step
	if !r.Ascending() {
		step = -step
	}
	out := make([]*TimeRange, 0, parts)
	for k := 0; k < parts; k++ {
		segStart := r.Start.Add(time.Duration(k) * per * step)
		segEnd := r.Start.Add(time.Duration(k+1) * per * step)
		if (r.Ascending() && segEnd.After(r.End)) || (!r.Ascending() && segEnd.Before(r.End)) {
			segEnd = r.End
		}
		out = append(out, &TimeRange{Start: segStart, End: segEnd, Step: r.Step, Excludes: r.Excludes})
	}
	return out
}

func (r *TimeRange) ToArray(parallel bool) Array {
	coding := NewInstantCoding()
	if !parallel {
		b := NewArrayBuilderOf(NewCodedLongArray(coding, r.EstimateSize(), nil))
		for v := range r.Values() {
			b.Add(v)
		}
		return b.ToArray()
	}
	segments := r.Split(globalConfig.MorselSize)
	seed := func() Array { return NewCodedLongArray(coding, 0, nil) }
	return concatSegmentsInto(seed, r.EstimateSize(), r.Ascending(), len(segments), func(k int) Array {
		return segments[k].ToArray(false)
	})
}

// splitParts bounds a split by worker count and by the no-split threshold.
func splitParts(size, splitThreshold int) int {
	if splitThreshold < 1 {
		splitThreshold = 1
	}
	if size <= splitThreshold {
		return 1
	}
	parts := globalConfig.numWorkers()
	if parts > size/splitThreshold {
		parts = size / splitThreshold
	}
	return parts
}

// concatSegments materialises the numbered segments concurrently, then
// re-sorts completed segments by their first element (direction-aware) and
// concatenates. The re-sort tolerates out-of-order task completion while
// keeping the final element order identical to the sequential path.
func concatSegments(dtype DType, sizeHint int, ascending bool, count int, build func(k int) Array) Array {
	return concatSegmentsInto(func() Array { return NewArray(dtype, 0) }, sizeHint, ascending, count, build)
}

func concatSegmentsInto(seed func() Array, sizeHint int, ascending bool, count int, build func(k int) Array) Array {
	done := make([]Array, 0, count)
	var mu sync.Mutex
	var wg sync.WaitGroup
	pc := &panicCarrier{}
	for k := 0; k < count; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			defer pc.capture()
			seg := build(k)
			mu.Lock()
			done = append(done, seg)
			mu.Unlock()
		}(k)
	}
	wg.Wait()
	pc.rethrow()

	multiplier := 1
	if !ascending {
		multiplier = -1
	}
	nonEmpty := done[:0]
	for _, seg := range done {
		if seg.Len() > 0 {
			nonEmpty = append(nonEmpty, seg)
		}
	}
	sort.Slice(nonEmpty, func(i, j int) bool {
		return multiplier*compareValues(nonEmpty[i].Value(0), nonEmpty[j].Value(0)) < 0
	})

	target := seed()
	target.Expand(sizeHint)
	b := NewArrayBuilderOf(target)
	for _, seg := range nonEmpty {
		b.AddAll(seg)
	}
	return b.ToArray()
}
