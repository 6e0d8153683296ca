package engine

import (
	"context"
	"encoding/binary"
	stderrors "errors"
	"math"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/anntzer/go-libics/errors"
	"github.com/anntzer/go-libics/resource"
)

// fakeMemory is a flat in-process stand-in for wasm linear memory.
type fakeMemory struct {
	api.Memory
	data []byte
}

func (m *fakeMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *fakeMemory) Read(offset, count uint32) ([]byte, bool) {
	if uint64(offset)+uint64(count) > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset : offset+count], true
}

func (m *fakeMemory) Write(offset uint32, v []byte) bool {
	if uint64(offset)+uint64(len(v)) > uint64(len(m.data)) {
		return false
	}
	copy(m.data[offset:], v)
	return true
}

func (m *fakeMemory) WriteString(offset uint32, s string) bool {
	return m.Write(offset, []byte(s))
}

func (m *fakeMemory) WriteByte(offset uint32, v byte) bool {
	return m.Write(offset, []byte{v})
}

func (m *fakeMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (m *fakeMemory) WriteUint32Le(offset uint32, v uint32) bool {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return m.Write(offset, b[:])
}

func (m *fakeMemory) ReadFloat64Le(offset uint32) (float64, bool) {
	b, ok := m.Read(offset, 8)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), true
}

type fakeFunc struct {
	api.Function
	fn func(params ...uint64) ([]uint64, error)
}

func (f *fakeFunc) Call(_ context.Context, params ...uint64) ([]uint64, error) {
	return f.fn(params...)
}

type fakeModule struct {
	api.Module
	fns map[string]*fakeFunc
}

func (m *fakeModule) ExportedFunction(name string) api.Function {
	f, ok := m.fns[name]
	if !ok {
		return nil
	}
	return f
}

func (m *fakeModule) Close(context.Context) error { return nil }

// newFakeInstance builds an Instance over 64KiB of fake memory with a bump
// allocator and a free-call counter.
func newFakeInstance() (*Instance, *fakeMemory, *fakeModule, *int) {
	mem := &fakeMemory{data: make([]byte, 64*1024)}
	next := uint32(16) // keep 0 an invalid pointer
	freed := 0

	malloc := &fakeFunc{fn: func(params ...uint64) ([]uint64, error) {
		size := uint32(params[0])
		ptr := next
		next += (size + 7) &^ 7
		return []uint64{uint64(ptr)}, nil
	}}
	free := &fakeFunc{fn: func(...uint64) ([]uint64, error) {
		freed++
		return nil, nil
	}}

	mod := &fakeModule{fns: map[string]*fakeFunc{}}
	inst := &Instance{
		eng:    &Engine{handles: resource.NewTable(), log: zap.NewNop()},
		mod:    mod,
		mem:    mem,
		malloc: malloc,
		free:   free,
		ics:    1,
	}
	return inst, mem, mod, &freed
}

func TestCString_RoundTrip(t *testing.T) {
	inst, _, _, _ := newFakeInstance()
	ctx := context.Background()

	var al allocList
	ptr, err := inst.newCString(ctx, &al, "micrometer")
	if err != nil {
		t.Fatalf("newCString: %v", err)
	}
	got, err := inst.readCString("test", ptr, TokenLength)
	if err != nil {
		t.Fatalf("readCString: %v", err)
	}
	if got != "micrometer" {
		t.Errorf("got %q, want %q", got, "micrometer")
	}
}

func TestReadCString_Truncation(t *testing.T) {
	inst, mem, _, _ := newFakeInstance()

	// A run longer than max without a NUL must stop at max.
	copy(mem.data[100:], "abcdefgh")
	got, err := inst.readCString("test", 100, 4)
	if err != nil {
		t.Fatalf("readCString: %v", err)
	}
	if got != "abcd" {
		t.Errorf("got %q, want %q", got, "abcd")
	}

	// A pointer outside memory is an internal error, not a crash.
	if _, err := inst.readCString("test", 1<<30, 4); !errors.IsKind(err, errors.KindInternal) {
		t.Errorf("out-of-range pointer: got %v, want internal error", err)
	}
}

func TestSizeArray_RoundTrip(t *testing.T) {
	inst, _, _, _ := newFakeInstance()
	ctx := context.Background()

	var al allocList
	ptr, err := inst.alloc(ctx, &al, ptrSize*MaxDimensions)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	want := []uint32{256, 256, 64}
	if err := inst.writeSizeArray("test", ptr, want); err != nil {
		t.Fatalf("writeSizeArray: %v", err)
	}
	got, err := inst.readSizeArray("test", ptr, len(want))
	if err != nil {
		t.Fatalf("readSizeArray: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sizes[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAlloc_NativeFailure(t *testing.T) {
	inst, _, _, _ := newFakeInstance()
	inst.malloc = &fakeFunc{fn: func(...uint64) ([]uint64, error) {
		return []uint64{0}, nil
	}}

	var al allocList
	_, err := inst.alloc(context.Background(), &al, 128)
	if !errors.IsKind(err, errors.KindOutOfMemory) {
		t.Fatalf("got %v, want out_of_memory", err)
	}
}

func TestAllocList_FreesEveryBlock(t *testing.T) {
	inst, _, _, freed := newFakeInstance()
	ctx := context.Background()

	var al allocList
	for i := 0; i < 3; i++ {
		if _, err := inst.alloc(ctx, &al, 32); err != nil {
			t.Fatalf("alloc: %v", err)
		}
	}
	al.free(ctx, inst)
	if *freed != 3 {
		t.Errorf("free called %d times, want 3", *freed)
	}
}

func TestCall_TranslatesStatus(t *testing.T) {
	inst, mem, mod, _ := newFakeInstance()
	ctx := context.Background()

	mod.fns["IcsGetData"] = &fakeFunc{fn: func(...uint64) ([]uint64, error) {
		return []uint64{uint64(uint32(errors.CodeFReadIds))}, nil
	}}
	// Error text lives at a fixed address in the fake.
	copy(mem.data[2048:], "Failed to read from .ids file\x00")
	mod.fns["IcsGetErrorText"] = &fakeFunc{fn: func(...uint64) ([]uint64, error) {
		return []uint64{2048}, nil
	}}

	err := inst.call(ctx, "IcsGetData", uint64(inst.ics))
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Kind != errors.KindIO {
		t.Errorf("kind = %s, want io_error", e.Kind)
	}
	if e.Code != errors.CodeFReadIds {
		t.Errorf("code = %d, want %d", e.Code, errors.CodeFReadIds)
	}
	if e.Detail != "Failed to read from .ids file" {
		t.Errorf("detail = %q", e.Detail)
	}
}

func TestCall_MissingExport(t *testing.T) {
	inst, _, _, _ := newFakeInstance()

	err := inst.call(context.Background(), "IcsNotThere")
	if !errors.IsKind(err, errors.KindUnsupported) {
		t.Fatalf("got %v, want unsupported", err)
	}
}

func TestGetLayout_Marshalling(t *testing.T) {
	inst, mem, mod, _ := newFakeInstance()
	ctx := context.Background()

	mod.fns["IcsGetLayout"] = &fakeFunc{fn: func(params ...uint64) ([]uint64, error) {
		dtPtr := uint32(params[1])
		ndimsPtr := uint32(params[2])
		dimsPtr := uint32(params[3])
		mem.WriteUint32Le(dtPtr, uint32(TypeCodeUint16))
		mem.WriteUint32Le(ndimsPtr, 2)
		mem.WriteUint32Le(dimsPtr, 256)
		mem.WriteUint32Le(dimsPtr+ptrSize, 128)
		return []uint64{0}, nil
	}}

	dt, sizes, err := inst.GetLayout(ctx)
	if err != nil {
		t.Fatalf("GetLayout: %v", err)
	}
	if dt != TypeCodeUint16 {
		t.Errorf("dt = %d, want %d", dt, TypeCodeUint16)
	}
	if len(sizes) != 2 || sizes[0] != 256 || sizes[1] != 128 {
		t.Errorf("sizes = %v, want [256 128]", sizes)
	}
}

func TestGetData_CopiesOutOfNativeMemory(t *testing.T) {
	inst, mem, mod, _ := newFakeInstance()
	ctx := context.Background()

	var nativeBuf uint32
	mod.fns["IcsGetData"] = &fakeFunc{fn: func(params ...uint64) ([]uint64, error) {
		nativeBuf = uint32(params[1])
		n := uint32(params[2])
		for i := uint32(0); i < n; i++ {
			mem.data[nativeBuf+i] = 42
		}
		return []uint64{0}, nil
	}}

	dst := make([]byte, 16)
	if err := inst.GetData(ctx, dst); err != nil {
		t.Fatalf("GetData: %v", err)
	}
	for i, b := range dst {
		if b != 42 {
			t.Fatalf("dst[%d] = %d, want 42", i, b)
		}
	}

	// Mutating native memory afterwards must not affect the returned copy.
	mem.data[nativeBuf] = 7
	if dst[0] != 42 {
		t.Error("caller buffer aliases native memory")
	}
}

func TestSetData_PinsUntilRelease(t *testing.T) {
	inst, mem, mod, freed := newFakeInstance()
	ctx := context.Background()

	var nativeBuf uint32
	mod.fns["IcsSetData"] = &fakeFunc{fn: func(params ...uint64) ([]uint64, error) {
		nativeBuf = uint32(params[1])
		return []uint64{0}, nil
	}}
	mod.fns["IcsClose"] = &fakeFunc{fn: func(...uint64) ([]uint64, error) {
		// libics flushes here; the pinned buffer must still hold the data.
		if mem.data[nativeBuf] != 9 {
			t.Error("pinned data buffer freed before IcsClose")
		}
		return []uint64{0}, nil
	}}

	src := []byte{9, 9, 9, 9}
	if err := inst.SetData(ctx, src); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if *freed != 0 {
		t.Fatal("data buffer freed before close")
	}

	// The caller's slice was copied, not retained.
	src[0] = 1
	if mem.data[nativeBuf] != 9 {
		t.Error("native buffer aliases the caller's slice")
	}

	if err := inst.release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if *freed != 1 {
		t.Errorf("free called %d times after release, want 1", *freed)
	}

	// Release twice is a no-op.
	if err := inst.release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if *freed != 1 {
		t.Error("second release freed again")
	}
}
