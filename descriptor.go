package ics

import (
	"encoding/binary"
	"math"

	"github.com/anntzer/go-libics/engine"
	"github.com/anntzer/go-libics/errors"
)

// ByteOrder is the byte order of the pixel data as stored in the file.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "BigEndian"
	}
	return "LittleEndian"
}

// hostByteOrder returns the byte order of the machine running the binding.
func hostByteOrder() ByteOrder {
	if binary.NativeEndian.Uint16([]byte{0x12, 0x34}) == 0x3412 {
		return LittleEndian
	}
	return BigEndian
}

func byteOrderFromNative(op string, code int32) (ByteOrder, error) {
	switch code {
	case engine.OrderCodeLittleEndian:
		return LittleEndian, nil
	case engine.OrderCodeBigEndian:
		return BigEndian, nil
	default:
		return 0, errors.Unsupported(op, "native byte order code %d is not supported", code)
	}
}

func (o ByteOrder) toNative() int32 {
	if o == BigEndian {
		return engine.OrderCodeBigEndian
	}
	return engine.OrderCodeLittleEndian
}

// Compression is the compression mode of the data section.
type Compression int

const (
	Uncompressed Compression = iota
	GZip
)

func (c Compression) String() string {
	if c == GZip {
		return "GZip"
	}
	return "Uncompressed"
}

func compressionFromNative(op string, code int32) (Compression, error) {
	switch code {
	case engine.ComprCodeUncompressed:
		return Uncompressed, nil
	case engine.ComprCodeGzip:
		return GZip, nil
	default:
		// Includes the historic "compress" mode, which libics can read but
		// the binding does not expose for writing.
		return 0, errors.Unsupported(op, "native compression code %d is not supported", code)
	}
}

func (c Compression) toNative() int32 {
	if c == GZip {
		return engine.ComprCodeGzip
	}
	return engine.ComprCodeUncompressed
}

// Dimension describes one axis of the image. Ordering between dimensions is
// significant and preserved exactly; it matches the native library's axis
// order.
type Dimension struct {
	// Size is the number of samples along this axis. Must be positive.
	Size int

	// Order is the native order token ("x", "y", "z", "t", ...). Optional;
	// empty means the library default for the axis position.
	Order string

	// Label is a free-text axis label. Optional.
	Label string

	// Unit names the unit of Scale ("micrometer", ...). Optional.
	Unit string

	// Origin and Scale position the axis samples in physical space.
	// Scale 0 is treated as unset and written as 1.0.
	Origin float64
	Scale  float64
}

// ImelUnits describes the units of the intensity values.
type ImelUnits struct {
	Origin float64
	Scale  float64
	Units  string
}

// Descriptor is the full shape metadata of one image: element type, axis
// layout, byte order and compression.
type Descriptor struct {
	DataType    DataType
	Dimensions  []Dimension
	ByteOrder   ByteOrder
	Compression Compression

	// CompressionLevel is the gzip level used when Compression is GZip.
	// 0 means the library default.
	CompressionLevel int
}

// ElementCount returns the total number of elements implied by the
// dimension sizes, or an error when a size is non-positive or the product
// overflows.
func (d *Descriptor) ElementCount(op string) (int, error) {
	if len(d.Dimensions) == 0 {
		return 0, errors.InvalidArgument(op, "descriptor has no dimensions")
	}
	count := 1
	for i, dim := range d.Dimensions {
		if dim.Size <= 0 {
			return 0, errors.InvalidArgument(op, "dimension %d has non-positive size %d", i, dim.Size)
		}
		if count > math.MaxInt/dim.Size {
			return 0, errors.InvalidArgument(op, "dimension sizes overflow")
		}
		count *= dim.Size
	}
	return count, nil
}

// ByteSize returns the byte length a pixel buffer for this descriptor must
// have: the element count times the element width.
func (d *Descriptor) ByteSize(op string) (int, error) {
	if !d.DataType.Valid() {
		return 0, errors.InvalidArgument(op, "invalid data type %d", int(d.DataType))
	}
	count, err := d.ElementCount(op)
	if err != nil {
		return 0, err
	}
	width := d.DataType.Size()
	if count > math.MaxInt/width {
		return 0, errors.InvalidArgument(op, "buffer size overflows")
	}
	return count * width, nil
}

// PixelBuffer is caller-owned pixel data together with its element type.
// Data is always in host byte order and never aliases native memory.
type PixelBuffer struct {
	DataType DataType
	Elements int
	Data     []byte
}

// HistoryEntry is one free-text key/value metadata line. Keys are not
// unique; insertion order is preserved.
type HistoryEntry struct {
	Key   string
	Value string
}
