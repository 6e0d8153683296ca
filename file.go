package ics

import (
	"context"
	"sync"

	"github.com/anntzer/go-libics/engine"
	"github.com/anntzer/go-libics/errors"
)

// Mode is the access mode of an open ICS file.
type Mode int

const (
	// Read opens an existing file read-only.
	Read Mode = iota + 1
	// ReadWrite opens an existing file for metadata updates.
	ReadWrite
	// Write creates a new file using the version-1 ICS layout.
	Write
	// New creates a new file using the version-2 ICS layout. This is the
	// normal mode for writing.
	New
)

// token returns the native mode string.
func (m Mode) token() string {
	switch m {
	case Read:
		return "r"
	case ReadWrite:
		return "rw"
	case Write:
		return "w1"
	case New:
		return "w2"
	default:
		return ""
	}
}

func (m Mode) writable() bool {
	return m == ReadWrite || m == Write || m == New
}

func (m Mode) String() string {
	switch m {
	case Read:
		return "Read"
	case ReadWrite:
		return "ReadWrite"
	case Write:
		return "Write"
	case New:
		return "New"
	default:
		return "Mode(invalid)"
	}
}

// File is one open ICS file session. It owns exactly one native handle and
// serializes every native call on it; concurrent use from multiple
// goroutines is safe but executes one operation at a time. Distinct Files
// are independent and may be used concurrently.
//
// The native library flushes written data to disk on Close, so a written
// file is not complete until Close returns.
type File struct {
	mu     sync.Mutex
	native engine.Native
	path   string
	mode   Mode
	closed bool
}

// Open acquires a native handle for path through eng.
func Open(ctx context.Context, eng *engine.Engine, path string, mode Mode) (*File, error) {
	if mode.token() == "" {
		return nil, errors.InvalidArgument("Open", "invalid mode %d", int(mode))
	}
	inst, err := eng.Open(ctx, path, mode.token())
	if err != nil {
		return nil, err
	}
	return &File{native: inst, path: path, mode: mode}, nil
}

// newFile wraps an existing native session. Used by tests to substitute an
// instrumented Native.
func newFile(native engine.Native, path string, mode Mode) *File {
	return &File{native: native, path: path, mode: mode}
}

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Mode returns the access mode the file was opened with.
func (f *File) Mode() Mode { return f.mode }

// Close flushes and releases the native handle. Closing an already-closed
// file is a no-op; every other operation on a closed file fails with a
// state error.
func (f *File) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	// The handle is released even when IcsClose reports an error; a
	// half-closed handle must never be reused.
	f.closed = true
	return f.native.Close(ctx)
}

// guard reports a state error when the file is closed. Callers hold f.mu.
func (f *File) guard(op string) error {
	if f.closed {
		return errors.State(op, "file is closed")
	}
	return nil
}

// guardWrite additionally requires a writable mode.
func (f *File) guardWrite(op string) error {
	if err := f.guard(op); err != nil {
		return err
	}
	if !f.mode.writable() {
		return errors.State(op, "file is open read-only")
	}
	return nil
}

// Descriptor returns the image shape metadata: element type, ordered axis
// layout, byte order and compression.
func (f *File) Descriptor(ctx context.Context) (Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard("Descriptor"); err != nil {
		return Descriptor{}, err
	}
	return f.descriptor(ctx)
}

func (f *File) descriptor(ctx context.Context) (Descriptor, error) {
	const op = "Descriptor"

	dtCode, nativeSizes, err := f.native.GetLayout(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	dataType, err := dataTypeFromNative(op, dtCode)
	if err != nil {
		return Descriptor{}, err
	}

	var sizes [MaxDimensions]uint32
	if len(nativeSizes) > MaxDimensions {
		return Descriptor{}, errors.Internal(op, "native library reported %d dimensions", len(nativeSizes))
	}
	copy(sizes[:], nativeSizes)
	dims, err := dimsFromNative(op, len(nativeSizes), sizes)
	if err != nil {
		return Descriptor{}, err
	}
	for i := range dims {
		order, label, err := f.native.GetOrder(ctx, i)
		if err != nil {
			return Descriptor{}, err
		}
		origin, scale, units, err := f.native.GetPosition(ctx, i)
		if err != nil {
			return Descriptor{}, err
		}
		dims[i].Order = order
		dims[i].Label = label
		dims[i].Origin = origin
		dims[i].Scale = scale
		dims[i].Unit = units
	}

	orderCode, err := f.native.GetByteOrder(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	byteOrder, err := byteOrderFromNative(op, orderCode)
	if err != nil {
		return Descriptor{}, err
	}

	comprCode, level, err := f.native.GetCompression(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	compression, err := compressionFromNative(op, comprCode)
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{
		DataType:         dataType,
		Dimensions:       dims,
		ByteOrder:        byteOrder,
		Compression:      compression,
		CompressionLevel: level,
	}, nil
}

// ReadData materializes the full pixel data into a caller-owned buffer in
// host byte order. Partial reads are not supported by the native library.
func (f *File) ReadData(ctx context.Context) (*PixelBuffer, error) {
	const op = "ReadData"

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(op); err != nil {
		return nil, err
	}

	desc, err := f.descriptor(ctx)
	if err != nil {
		return nil, err
	}
	size, err := desc.ByteSize(op)
	if err != nil {
		return nil, err
	}
	elements, err := desc.ElementCount(op)
	if err != nil {
		return nil, err
	}
	nativeSize, err := f.native.GetDataSize(ctx)
	if err != nil {
		return nil, err
	}
	if nativeSize != uint64(size) {
		return nil, errors.Internal(op,
			"native data size %d does not match descriptor-implied size %d", nativeSize, size)
	}

	// Allocate the exact caller-owned buffer up front, fill it, and only
	// then publish it. No partially-filled buffer ever escapes.
	buf := make([]byte, size)
	if err := f.native.GetData(ctx, buf); err != nil {
		return nil, err
	}
	if desc.ByteOrder != hostByteOrder() {
		swapBytes(buf, desc.DataType.swapWidth())
	}
	return &PixelBuffer{DataType: desc.DataType, Elements: elements, Data: buf}, nil
}

// WriteData declares the image layout described by desc and hands data to
// the native library. The buffer length must equal the descriptor-implied
// size; a mismatch fails before any native call is made. data is copied and
// may be reused by the caller immediately.
func (f *File) WriteData(ctx context.Context, desc Descriptor, data []byte) error {
	const op = "WriteData"

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite(op); err != nil {
		return err
	}

	dtCode, err := desc.DataType.toNative(op)
	if err != nil {
		return err
	}
	want, err := desc.ByteSize(op)
	if err != nil {
		return err
	}
	if len(data) != want {
		return errors.InvalidArgument(op,
			"buffer length %d does not match descriptor-implied size %d", len(data), want)
	}
	count, sizes, err := dimsToNative(op, desc.Dimensions)
	if err != nil {
		return err
	}

	if err := f.native.SetLayout(ctx, dtCode, sizes[:count]); err != nil {
		return err
	}
	for i, dim := range desc.Dimensions {
		if dim.Order != "" || dim.Label != "" {
			if err := f.native.SetOrder(ctx, i, dim.Order, dim.Label); err != nil {
				return err
			}
		}
		if dim.Unit != "" || dim.Origin != 0 || dim.Scale != 0 {
			scale := dim.Scale
			if scale == 0 {
				scale = 1
			}
			if err := f.native.SetPosition(ctx, i, dim.Origin, scale, dim.Unit); err != nil {
				return err
			}
		}
	}
	if err := f.native.SetByteOrder(ctx, desc.ByteOrder.toNative()); err != nil {
		return err
	}
	if err := f.native.SetCompression(ctx, desc.Compression.toNative(), desc.CompressionLevel); err != nil {
		return err
	}

	// The library stores data in the descriptor's byte order; swap a copy
	// when that differs from the host order. The caller's slice is never
	// modified.
	out := data
	if desc.ByteOrder != hostByteOrder() {
		out = append([]byte(nil), data...)
		swapBytes(out, desc.DataType.swapWidth())
	}
	return f.native.SetData(ctx, out)
}

// SetSource points a version-2 header at an external raw data file instead
// of embedding the data section. Offsets into the source file must be zero
// or positive.
func (f *File) SetSource(ctx context.Context, path string, offset uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("SetSource"); err != nil {
		return err
	}
	return f.native.SetSource(ctx, path, offset)
}

// History returns all history entries in insertion order. Duplicate keys
// are allowed and preserved.
func (f *File) History(ctx context.Context) ([]HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard("History"); err != nil {
		return nil, err
	}
	return f.history(ctx)
}

func (f *File) history(ctx context.Context) ([]HistoryEntry, error) {
	count, err := f.native.HistoryCount(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, count)
	for i := 0; i < count; i++ {
		key, value, err := f.native.HistoryNext(ctx, i == 0)
		if err != nil {
			return nil, err
		}
		entries = append(entries, HistoryEntry{Key: key, Value: value})
	}
	return entries, nil
}

// AddHistory appends one history entry.
func (f *File) AddHistory(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("AddHistory"); err != nil {
		return err
	}
	return f.native.AddHistory(ctx, key, value)
}

// DeleteHistory removes every history entry with the given key and returns
// the number removed. An empty key removes all entries. Deleting an absent
// key is not an error: it returns 0 and leaves the history unchanged.
func (f *File) DeleteHistory(ctx context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("DeleteHistory"); err != nil {
		return 0, err
	}

	entries, err := f.history(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if key == "" || e.Key == key {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := f.native.DeleteHistory(ctx, key); err != nil {
		return 0, err
	}
	return removed, nil
}

// SetHistory replaces the whole history sequence.
func (f *File) SetHistory(ctx context.Context, entries []HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("SetHistory"); err != nil {
		return err
	}

	count, err := f.native.HistoryCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		if err := f.native.DeleteHistory(ctx, ""); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := f.native.AddHistory(ctx, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// SignificantBits returns the number of significant bits per element.
func (f *File) SignificantBits(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard("SignificantBits"); err != nil {
		return 0, err
	}
	return f.native.GetSignificantBits(ctx)
}

// SetSignificantBits declares the number of significant bits per element.
func (f *File) SetSignificantBits(ctx context.Context, nbits uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("SetSignificantBits"); err != nil {
		return err
	}
	return f.native.SetSignificantBits(ctx, nbits)
}

// CoordinateSystem returns the coordinate system token.
func (f *File) CoordinateSystem(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard("CoordinateSystem"); err != nil {
		return "", err
	}
	return f.native.GetCoordinateSystem(ctx)
}

// SetCoordinateSystem sets the coordinate system token.
func (f *File) SetCoordinateSystem(ctx context.Context, system string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("SetCoordinateSystem"); err != nil {
		return err
	}
	return f.native.SetCoordinateSystem(ctx, system)
}

// ImelUnits returns the intensity units triplet.
func (f *File) ImelUnits(ctx context.Context) (ImelUnits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard("ImelUnits"); err != nil {
		return ImelUnits{}, err
	}
	origin, scale, units, err := f.native.GetImelUnits(ctx)
	if err != nil {
		return ImelUnits{}, err
	}
	return ImelUnits{Origin: origin, Scale: scale, Units: units}, nil
}

// SetImelUnits sets the intensity units triplet.
func (f *File) SetImelUnits(ctx context.Context, u ImelUnits) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guardWrite("SetImelUnits"); err != nil {
		return err
	}
	return f.native.SetImelUnits(ctx, u.Origin, u.Scale, u.Units)
}
