package engine

// Sizes and limits mirrored from the libics 1.6 header. They are
// library-version dependent; a build against a different libics only needs
// to touch this file.
const (
	// MaxDimensions is ICS_MAXDIM, the native fixed capacity of the
	// dimension sizes array.
	MaxDimensions = 10

	// TokenLength is ICS_STRLEN_TOKEN, the buffer size for history keys,
	// order tokens, labels and unit strings.
	TokenLength = 20

	// LineLength is ICS_LINE_LENGTH, the buffer size for history values and
	// error text.
	LineLength = 256

	// ptrSize is the width of a pointer and of size_t on wasm32.
	ptrSize = 4
)

// Ics_DataType codes.
const (
	TypeCodeUnknown int32 = iota
	TypeCodeUint8
	TypeCodeSint8
	TypeCodeUint16
	TypeCodeSint16
	TypeCodeUint32
	TypeCodeSint32
	TypeCodeReal32
	TypeCodeReal64
	TypeCodeComplex32
	TypeCodeComplex64
)

// Ics_Compression codes.
const (
	ComprCodeUncompressed int32 = iota
	ComprCodeCompress
	ComprCodeGzip
)

// Byte order codes of the accessor contract.
const (
	OrderCodeLittleEndian int32 = 0
	OrderCodeBigEndian    int32 = 1
)

// Ics_HistoryWhich iterator positions.
const (
	historyWhichFirst uint64 = iota
	historyWhichNext
)
