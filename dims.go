package ics

import (
	"github.com/anntzer/go-libics/engine"
	"github.com/anntzer/go-libics/errors"
)

// MaxDimensions is the native library's fixed capacity for the dimension
// sizes array.
const MaxDimensions = engine.MaxDimensions

// dimsToNative converts an ordered dimension sequence into the native
// fixed-capacity sizes array. Order is preserved element-for-element; no
// reordering or inference of any kind.
func dimsToNative(op string, dims []Dimension) (int, [MaxDimensions]uint32, error) {
	var sizes [MaxDimensions]uint32
	if len(dims) == 0 {
		return 0, sizes, errors.InvalidArgument(op, "at least one dimension is required")
	}
	if len(dims) > MaxDimensions {
		return 0, sizes, errors.InvalidArgument(op,
			"%d dimensions exceed the native maximum of %d", len(dims), MaxDimensions)
	}
	for i, d := range dims {
		if d.Size <= 0 {
			return 0, sizes, errors.InvalidArgument(op, "dimension %d has non-positive size %d", i, d.Size)
		}
		sizes[i] = uint32(d.Size)
	}
	return len(dims), sizes, nil
}

// dimsFromNative converts the native count/array pair back into an ordered
// dimension sequence. Unit and label metadata is filled in separately by the
// caller from the per-axis accessors.
func dimsFromNative(op string, count int, sizes [MaxDimensions]uint32) ([]Dimension, error) {
	if count <= 0 || count > MaxDimensions {
		return nil, errors.InvalidArgument(op, "native dimension count %d out of range", count)
	}
	dims := make([]Dimension, count)
	for i := 0; i < count; i++ {
		dims[i] = Dimension{Size: int(sizes[i])}
	}
	return dims, nil
}
