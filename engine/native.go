package engine

import "context"

// Native is the external contract of one open libics session. *Instance is
// the production implementation; tests substitute instrumented stubs.
//
// Methods map one-to-one onto native entry points. Dimension sizes travel as
// slices in axis order, already truncated to the native dimension count;
// the fixed-capacity native array is an implementation detail of this
// package. All returned values are Go-owned copies and stay valid after the
// session closes. Errors are already translated; no raw status codes leak.
//
// Implementations are not safe for concurrent calls; the owning session
// serializes access.
type Native interface {
	// GetLayout returns the native data type code and the dimension sizes
	// in axis order.
	GetLayout(ctx context.Context) (dtCode int32, sizes []uint32, err error)
	// SetLayout declares the data type and dimension sizes of a new image.
	SetLayout(ctx context.Context, dtCode int32, sizes []uint32) error

	// GetDataSize returns the byte size of the image data.
	GetDataSize(ctx context.Context) (uint64, error)
	// GetData fills dst completely with image data in file byte order.
	GetData(ctx context.Context, dst []byte) error
	// SetData hands image data to the library. The data is copied
	// immediately; the caller's slice is not retained.
	SetData(ctx context.Context, src []byte) error

	GetByteOrder(ctx context.Context) (int32, error)
	SetByteOrder(ctx context.Context, order int32) error

	GetCompression(ctx context.Context) (mode int32, level int, err error)
	SetCompression(ctx context.Context, mode int32, level int) error

	GetSignificantBits(ctx context.Context) (uint64, error)
	SetSignificantBits(ctx context.Context, nbits uint64) error

	GetCoordinateSystem(ctx context.Context) (string, error)
	SetCoordinateSystem(ctx context.Context, system string) error

	GetImelUnits(ctx context.Context) (origin, scale float64, units string, err error)
	SetImelUnits(ctx context.Context, origin, scale float64, units string) error

	// GetOrder returns the order token and label of one axis.
	GetOrder(ctx context.Context, dim int) (order, label string, err error)
	SetOrder(ctx context.Context, dim int, order, label string) error

	// GetPosition returns the origin, scale and units of one axis.
	GetPosition(ctx context.Context, dim int) (origin, scale float64, units string, err error)
	SetPosition(ctx context.Context, dim int, origin, scale float64, units string) error

	// HistoryCount returns the number of history lines.
	HistoryCount(ctx context.Context) (int, error)
	// HistoryNext returns the first (first == true) or next history entry.
	HistoryNext(ctx context.Context, first bool) (key, value string, err error)
	AddHistory(ctx context.Context, key, value string) error
	// DeleteHistory removes every entry with the given key; an empty key
	// removes all history.
	DeleteHistory(ctx context.Context, key string) error

	// SetSource points a version-2 header at an external raw data file.
	SetSource(ctx context.Context, path string, offset uint64) error

	// Close flushes and releases the native session. Idempotent.
	Close(ctx context.Context) error
}
