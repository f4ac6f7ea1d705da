package caravel

import (
	"math"
	"testing"
)

func TestSumInt(t *testing.T) {
	if got := Sum(ArrayOf([]int32{1, 2, 3, 4})); got != 10 {
		t.Errorf("Sum = %v, want 10", got)
	}
	if got := Sum(NewIntArray(0, 0)); got != 0 {
		t.Errorf("Sum(empty) = %v, want 0", got)
	}
}

func TestSumDoubleSkipsNaN(t *testing.T) {
	a := ArrayOf([]float64{1.5, math.NaN(), 2.5})
	if got := Sum(a); got != 4.0 {
		t.Errorf("Sum = %v, want 4", got)
	}
}

func TestMean(t *testing.T) {
	a := ArrayOf([]float64{2, math.NaN(), 4})
	// NaN is excluded from both the sum and the count.
	if got := Mean(a); got != 3.0 {
		t.Errorf("Mean = %v, want 3", got)
	}

	allNull := NewDoubleArray(3, math.NaN())
	if got := Mean(allNull); !math.IsNaN(got) {
		t.Errorf("Mean(all null) = %v, want NaN", got)
	}
}

func TestMinMaxOf(t *testing.T) {
	a := ArrayOf([]int64{5, -3, 9})
	if got, ok := MinOf(a); !ok || got != -3 {
		t.Errorf("MinOf = (%v, %v), want (-3, true)", got, ok)
	}
	if got, ok := MaxOf(a); !ok || got != 9 {
		t.Errorf("MaxOf = (%v, %v), want (9, true)", got, ok)
	}

	if _, ok := MinOf(NewDoubleArray(4, math.NaN())); ok {
		t.Error("MinOf(all null) ok = true, want false")
	}
}

func TestSumParallelMatchesSequential(t *testing.T) {
	original := GetParallelConfig()
	defer SetParallelConfig(original)
	SetParallelConfig(&ParallelConfig{MinRowsForParallel: 100, MorselSize: 256, MaxWorkers: 4, Enabled: true})

	a := NewLongRange(1, 100_001, 1).ToArray(false)
	seq := Sum(a)
	par := Sum(a.Parallel())
	if seq != par {
		t.Errorf("parallel Sum = %v, sequential Sum = %v", par, seq)
	}
	if want := float64(100_000) * 100_001 / 2; seq != want {
		t.Errorf("Sum = %v, want %v", seq, want)
	}
}

func TestMinOfParallelMatchesSequential(t *testing.T) {
	original := GetParallelConfig()
	defer SetParallelConfig(original)
	SetParallelConfig(&ParallelConfig{MinRowsForParallel: 100, MorselSize: 256, MaxWorkers: 4, Enabled: true})

	b := NewArrayBuilder(Float64, 10_000)
	for i := 0; i < 10_000; i++ {
		if i%97 == 0 {
			b.Add(nil)
		} else {
			b.AddDouble(float64((i*7919)%10_000) - 5000)
		}
	}
	a := b.ToArray()

	seqMin, seqOK := MinOf(a)
	parMin, parOK := MinOf(a.Parallel())
	if seqOK != parOK || seqMin != parMin {
		t.Errorf("MinOf parallel = (%v, %v), sequential = (%v, %v)", parMin, parOK, seqMin, seqOK)
	}
}

func TestStatsUnsupported(t *testing.T) {
	for name, fn := range map[string]func(){
		"Sum":   func() { Sum(ArrayOf([]string{"x"})) },
		"Mean":  func() { Mean(ArrayOf([]bool{true})) },
		"MinOf": func() { MinOf(NewUtf8Array(1, 8)) },
	} {
		func() {
			defer func() {
				if _, ok := recover().(*UnsupportedError); !ok {
					t.Errorf("%s on a non-numeric array should panic with *UnsupportedError", name)
				}
			}()
			fn()
		}()
	}
}
