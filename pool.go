package caravel

import (
	"sync"
)

// ByteScratch is a pooled byte slice used as staging by the binary
// serialization codec. Call Release() when done to return it to the pool.
type ByteScratch struct {
	Data []byte
	pool *sync.Pool
}

// Release returns the scratch buffer to the pool for reuse.
func (s *ByteScratch) Release() {
	if s.pool != nil && s.Data != nil {
		s.pool.Put(s)
	}
}

// IntScratch is a pooled int slice used by selection and gather paths.
type IntScratch struct {
	Data []int
	pool *sync.Pool
}

// Release returns the slice to the pool for reuse.
func (s *IntScratch) Release() {
	if s.pool != nil && s.Data != nil {
		s.pool.Put(s)
	}
}

// Pool sizes - we use power-of-2 buckets for efficiency
var (
	bytePools [32]*sync.Pool // pools for sizes 2^0 to 2^31
	intPools  [32]*sync.Pool
	poolInit  sync.Once
)

func initPools() {
	poolInit.Do(func() {
		for i := range bytePools {
			size := 1 << i
			bytePools[i] = &sync.Pool{
				New: func() interface{} {
					return &ByteScratch{
						Data: make([]byte, size),
					}
				},
			}
			intPools[i] = &sync.Pool{
				New: func() interface{} {
					return &IntScratch{
						Data: make([]int, size),
					}
				},
			}
		}
	})
}

// getBucket returns the pool bucket index for a given size
func getBucket(size int) int {
	if size <= 0 {
		return 0
	}
	// Find the smallest power of 2 >= size
	bucket := 0
	n := size - 1
	for n > 0 {
		n >>= 1
		bucket++
	}
	if bucket >= 32 {
		bucket = 31
	}
	return bucket
}

// getByteScratch gets a byte buffer from the pool with at least 'size' capacity
func getByteScratch(size int) *ByteScratch {
	initPools()
	bucket := getBucket(size)
	pool := bytePools[bucket]
	scratch := pool.Get().(*ByteScratch)
	scratch.pool = pool

	poolSize := 1 << bucket
	if len(scratch.Data) != size {
		scratch.Data = scratch.Data[:size]
	}
	if size > poolSize {
		scratch.Data = make([]byte, size)
	}

	return scratch
}

// getIntScratch gets an int slice from the pool with at least 'size' capacity
func getIntScratch(size int) *IntScratch {
	initPools()
	bucket := getBucket(size)
	pool := intPools[bucket]
	scratch := pool.Get().(*IntScratch)
	scratch.pool = pool

	poolSize := 1 << bucket
	if len(scratch.Data) != size {
		scratch.Data = scratch.Data[:size]
	}
	if size > poolSize {
		scratch.Data = make([]int, size)
	}

	return scratch
}
