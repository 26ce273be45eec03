package pool

import "sync"

// defaultSampleSliceCap is the initial capacity of pooled float64 slices.
// A typical block decodes to a few thousand scalar values.
const defaultSampleSliceCap = 4096

var float64SlicePool = sync.Pool{
	New: func() any {
		s := make([]float64, 0, defaultSampleSliceCap)
		return &s
	},
}

// GetFloat64Slice obtains a float64 slice with at least the given length from
// the pool. The second return value releases the slice back to the pool; the
// slice must not be used after release.
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	s := *ptr

	if cap(s) < size {
		s = make([]float64, size)
	} else {
		s = s[:size]
	}

	release := func() {
		s = s[:0]
		*ptr = s
		float64SlicePool.Put(ptr)
	}

	return s, release
}
