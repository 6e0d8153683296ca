package engine

import (
	"context"

	"github.com/anntzer/go-libics/errors"
)

// allocation is one scratch block in wasm linear memory.
type allocation struct {
	ptr  uint32
	size uint32
}

// allocList tracks scratch allocations made for a single native call so they
// are released on every exit path.
type allocList struct {
	allocs []allocation
}

func (al *allocList) add(ptr, size uint32) {
	al.allocs = append(al.allocs, allocation{ptr: ptr, size: size})
}

func (al *allocList) free(ctx context.Context, i *Instance) {
	for _, a := range al.allocs {
		if a.ptr != 0 {
			i.free.Call(ctx, uint64(a.ptr))
		}
	}
	al.allocs = nil
}

// alloc carves size bytes out of the instance's linear memory and records
// the block in al.
func (i *Instance) alloc(ctx context.Context, al *allocList, size uint32) (uint32, error) {
	const op = "malloc"

	res, err := i.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, errors.Wrap(op, errors.KindInternal, err, "native call trapped")
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.New(op, errors.KindOutOfMemory, "native allocation of %d bytes failed", size)
	}
	al.add(ptr, size)
	return ptr, nil
}

// newCString writes s NUL-terminated into linear memory.
func (i *Instance) newCString(ctx context.Context, al *allocList, s string) (uint32, error) {
	const op = "newCString"

	ptr, err := i.alloc(ctx, al, uint32(len(s))+1)
	if err != nil {
		return 0, err
	}
	if !i.mem.WriteString(ptr, s) || !i.mem.WriteByte(ptr+uint32(len(s)), 0) {
		return 0, errors.Internal(op, "string of %d bytes does not fit in linear memory", len(s))
	}
	return ptr, nil
}

// readCString copies a NUL-terminated string out of linear memory, reading
// at most max bytes.
func (i *Instance) readCString(op string, ptr, max uint32) (string, error) {
	if end := i.mem.Size(); ptr >= end {
		return "", errors.Internal(op, "string pointer %#x outside linear memory", ptr)
	} else if max > end-ptr {
		max = end - ptr
	}
	view, ok := i.mem.Read(ptr, max)
	if !ok {
		return "", errors.Internal(op, "string read at %#x failed", ptr)
	}
	n := 0
	for n < len(view) && view[n] != 0 {
		n++
	}
	// string() copies; the view into native memory does not escape.
	return string(view[:n]), nil
}

func (i *Instance) readUint32(op string, ptr uint32) (uint32, error) {
	v, ok := i.mem.ReadUint32Le(ptr)
	if !ok {
		return 0, errors.Internal(op, "read of u32 at %#x failed", ptr)
	}
	return v, nil
}

func (i *Instance) readInt32(op string, ptr uint32) (int32, error) {
	v, err := i.readUint32(op, ptr)
	return int32(v), err
}

func (i *Instance) readFloat64(op string, ptr uint32) (float64, error) {
	v, ok := i.mem.ReadFloat64Le(ptr)
	if !ok {
		return 0, errors.Internal(op, "read of f64 at %#x failed", ptr)
	}
	return v, nil
}

// writeSizeArray writes sizes as consecutive size_t values.
func (i *Instance) writeSizeArray(op string, ptr uint32, sizes []uint32) error {
	for idx, sz := range sizes {
		if !i.mem.WriteUint32Le(ptr+uint32(idx)*ptrSize, sz) {
			return errors.Internal(op, "write of size array at %#x failed", ptr)
		}
	}
	return nil
}

// readSizeArray copies n consecutive size_t values out of linear memory.
func (i *Instance) readSizeArray(op string, ptr uint32, n int) ([]uint32, error) {
	sizes := make([]uint32, n)
	for idx := range sizes {
		v, ok := i.mem.ReadUint32Le(ptr + uint32(idx)*ptrSize)
		if !ok {
			return nil, errors.Internal(op, "read of size array at %#x failed", ptr)
		}
		sizes[idx] = v
	}
	return sizes, nil
}
