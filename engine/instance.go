package engine

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/anntzer/go-libics/errors"
	"github.com/anntzer/go-libics/resource"
)

// Instance is one native libics session: a private module instance plus the
// ICS pointer returned by IcsOpen. It implements Native.
//
// Methods are not safe for concurrent use; the owning ics.File serializes
// calls. Distinct instances are fully independent.
type Instance struct {
	eng    *Engine
	mod    api.Module
	mem    api.Memory
	malloc api.Function
	free   api.Function
	ics    uint32
	path   string
	handle resource.Handle

	// pinned holds the data buffer handed to IcsSetData. libics records the
	// pointer and writes the data out during IcsClose, so the block must
	// survive until release.
	pinned   allocList
	released atomic.Bool
}

// invoke calls an exported native function and returns its first result.
func (i *Instance) invoke(ctx context.Context, name string, params ...uint64) (uint64, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return 0, errors.Unsupported(name, "native library does not export %q", name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, errors.Wrap(name, errors.KindInternal, err, "native call trapped")
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

// call invokes a status-returning native function and translates the status.
func (i *Instance) call(ctx context.Context, name string, params ...uint64) error {
	res, err := i.invoke(ctx, name, params...)
	if err != nil {
		return err
	}
	code := errors.Code(int32(uint32(res)))
	if code == errors.CodeOk {
		return nil
	}
	return errors.FromCode(name, code, i.errorText(ctx, code))
}

// errorText fetches the diagnostic string for a status code. Best effort;
// never used for control flow.
func (i *Instance) errorText(ctx context.Context, code errors.Code) string {
	ptr, err := i.invoke(ctx, "IcsGetErrorText", uint64(uint32(int32(code))))
	if err != nil || ptr == 0 {
		return ""
	}
	s, err := i.readCString("IcsGetErrorText", uint32(ptr), LineLength)
	if err != nil {
		return ""
	}
	return s
}

func (i *Instance) GetLayout(ctx context.Context) (int32, []uint32, error) {
	const op = "IcsGetLayout"

	var al allocList
	defer al.free(ctx, i)

	dtPtr, err := i.alloc(ctx, &al, 4)
	if err != nil {
		return 0, nil, err
	}
	ndimsPtr, err := i.alloc(ctx, &al, 4)
	if err != nil {
		return 0, nil, err
	}
	dimsPtr, err := i.alloc(ctx, &al, ptrSize*MaxDimensions)
	if err != nil {
		return 0, nil, err
	}

	if err := i.call(ctx, op, uint64(i.ics), uint64(dtPtr), uint64(ndimsPtr), uint64(dimsPtr)); err != nil {
		return 0, nil, err
	}

	dt, err := i.readInt32(op, dtPtr)
	if err != nil {
		return 0, nil, err
	}
	ndims, err := i.readInt32(op, ndimsPtr)
	if err != nil {
		return 0, nil, err
	}
	if ndims < 0 || ndims > MaxDimensions {
		return 0, nil, errors.Internal(op, "native library reported %d dimensions", ndims)
	}
	sizes, err := i.readSizeArray(op, dimsPtr, int(ndims))
	if err != nil {
		return 0, nil, err
	}
	return dt, sizes, nil
}

func (i *Instance) SetLayout(ctx context.Context, dtCode int32, sizes []uint32) error {
	const op = "IcsSetLayout"

	var al allocList
	defer al.free(ctx, i)

	dimsPtr, err := i.alloc(ctx, &al, ptrSize*MaxDimensions)
	if err != nil {
		return err
	}
	if err := i.writeSizeArray(op, dimsPtr, sizes); err != nil {
		return err
	}
	return i.call(ctx, op,
		uint64(i.ics), uint64(uint32(dtCode)), uint64(uint32(len(sizes))), uint64(dimsPtr))
}

func (i *Instance) GetDataSize(ctx context.Context) (uint64, error) {
	// Returns size_t directly, not a status code.
	n, err := i.invoke(ctx, "IcsGetDataSize", uint64(i.ics))
	if err != nil {
		return 0, err
	}
	return uint64(uint32(n)), nil
}

func (i *Instance) GetData(ctx context.Context, dst []byte) error {
	const op = "IcsGetData"

	var al allocList
	defer al.free(ctx, i)

	n := uint32(len(dst))
	buf, err := i.alloc(ctx, &al, n)
	if err != nil {
		return err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(buf), uint64(n)); err != nil {
		return err
	}
	view, ok := i.mem.Read(buf, n)
	if !ok {
		return errors.Internal(op, "data read of %d bytes at %#x failed", n, buf)
	}
	// Copy out of native memory; the view must not outlive this call.
	copy(dst, view)
	return nil
}

func (i *Instance) SetData(ctx context.Context, src []byte) error {
	const op = "IcsSetData"

	n := uint32(len(src))
	buf, err := i.alloc(ctx, &i.pinned, n)
	if err != nil {
		return err
	}
	if !i.mem.Write(buf, src) {
		return errors.Internal(op, "data write of %d bytes at %#x failed", n, buf)
	}
	return i.call(ctx, op, uint64(i.ics), uint64(buf), uint64(n))
}

func (i *Instance) GetByteOrder(ctx context.Context) (int32, error) {
	const op = "IcsGetByteOrder"

	var al allocList
	defer al.free(ctx, i)

	p, err := i.alloc(ctx, &al, 4)
	if err != nil {
		return 0, err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(p)); err != nil {
		return 0, err
	}
	return i.readInt32(op, p)
}

func (i *Instance) SetByteOrder(ctx context.Context, order int32) error {
	return i.call(ctx, "IcsSetByteOrder", uint64(i.ics), uint64(uint32(order)))
}

func (i *Instance) GetCompression(ctx context.Context) (int32, int, error) {
	const op = "IcsGetCompression"

	var al allocList
	defer al.free(ctx, i)

	modePtr, err := i.alloc(ctx, &al, 4)
	if err != nil {
		return 0, 0, err
	}
	levelPtr, err := i.alloc(ctx, &al, 4)
	if err != nil {
		return 0, 0, err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(modePtr), uint64(levelPtr)); err != nil {
		return 0, 0, err
	}
	mode, err := i.readInt32(op, modePtr)
	if err != nil {
		return 0, 0, err
	}
	level, err := i.readInt32(op, levelPtr)
	if err != nil {
		return 0, 0, err
	}
	return mode, int(level), nil
}

func (i *Instance) SetCompression(ctx context.Context, mode int32, level int) error {
	return i.call(ctx, "IcsSetCompression",
		uint64(i.ics), uint64(uint32(mode)), uint64(uint32(int32(level))))
}

func (i *Instance) GetSignificantBits(ctx context.Context) (uint64, error) {
	const op = "IcsGetSignificantBits"

	var al allocList
	defer al.free(ctx, i)

	p, err := i.alloc(ctx, &al, ptrSize)
	if err != nil {
		return 0, err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(p)); err != nil {
		return 0, err
	}
	v, err := i.readUint32(op, p)
	return uint64(v), err
}

func (i *Instance) SetSignificantBits(ctx context.Context, nbits uint64) error {
	return i.call(ctx, "IcsSetSignificantBits", uint64(i.ics), uint64(uint32(nbits)))
}

func (i *Instance) GetCoordinateSystem(ctx context.Context) (string, error) {
	const op = "IcsGetCoordinateSystem"

	var al allocList
	defer al.free(ctx, i)

	buf, err := i.alloc(ctx, &al, TokenLength)
	if err != nil {
		return "", err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(buf)); err != nil {
		return "", err
	}
	return i.readCString(op, buf, TokenLength)
}

func (i *Instance) SetCoordinateSystem(ctx context.Context, system string) error {
	const op = "IcsSetCoordinateSystem"

	var al allocList
	defer al.free(ctx, i)

	cs, err := i.newCString(ctx, &al, system)
	if err != nil {
		return err
	}
	return i.call(ctx, op, uint64(i.ics), uint64(cs))
}

func (i *Instance) GetImelUnits(ctx context.Context) (float64, float64, string, error) {
	const op = "IcsGetImelUnits"

	var al allocList
	defer al.free(ctx, i)

	originPtr, err := i.alloc(ctx, &al, 8)
	if err != nil {
		return 0, 0, "", err
	}
	scalePtr, err := i.alloc(ctx, &al, 8)
	if err != nil {
		return 0, 0, "", err
	}
	unitsBuf, err := i.alloc(ctx, &al, TokenLength)
	if err != nil {
		return 0, 0, "", err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(originPtr), uint64(scalePtr), uint64(unitsBuf)); err != nil {
		return 0, 0, "", err
	}
	origin, err := i.readFloat64(op, originPtr)
	if err != nil {
		return 0, 0, "", err
	}
	scale, err := i.readFloat64(op, scalePtr)
	if err != nil {
		return 0, 0, "", err
	}
	units, err := i.readCString(op, unitsBuf, TokenLength)
	if err != nil {
		return 0, 0, "", err
	}
	return origin, scale, units, nil
}

func (i *Instance) SetImelUnits(ctx context.Context, origin, scale float64, units string) error {
	const op = "IcsSetImelUnits"

	var al allocList
	defer al.free(ctx, i)

	cu, err := i.newCString(ctx, &al, units)
	if err != nil {
		return err
	}
	return i.call(ctx, op,
		uint64(i.ics), api.EncodeF64(origin), api.EncodeF64(scale), uint64(cu))
}

func (i *Instance) GetOrder(ctx context.Context, dim int) (string, string, error) {
	const op = "IcsGetOrder"

	var al allocList
	defer al.free(ctx, i)

	orderBuf, err := i.alloc(ctx, &al, TokenLength)
	if err != nil {
		return "", "", err
	}
	labelBuf, err := i.alloc(ctx, &al, TokenLength)
	if err != nil {
		return "", "", err
	}
	if err := i.call(ctx, op,
		uint64(i.ics), uint64(uint32(int32(dim))), uint64(orderBuf), uint64(labelBuf)); err != nil {
		return "", "", err
	}
	order, err := i.readCString(op, orderBuf, TokenLength)
	if err != nil {
		return "", "", err
	}
	label, err := i.readCString(op, labelBuf, TokenLength)
	if err != nil {
		return "", "", err
	}
	return order, label, nil
}

func (i *Instance) SetOrder(ctx context.Context, dim int, order, label string) error {
	const op = "IcsSetOrder"

	var al allocList
	defer al.free(ctx, i)

	co, err := i.newCString(ctx, &al, order)
	if err != nil {
		return err
	}
	cl, err := i.newCString(ctx, &al, label)
	if err != nil {
		return err
	}
	return i.call(ctx, op, uint64(i.ics), uint64(uint32(int32(dim))), uint64(co), uint64(cl))
}

func (i *Instance) GetPosition(ctx context.Context, dim int) (float64, float64, string, error) {
	const op = "IcsGetPosition"

	var al allocList
	defer al.free(ctx, i)

	originPtr, err := i.alloc(ctx, &al, 8)
	if err != nil {
		return 0, 0, "", err
	}
	scalePtr, err := i.alloc(ctx, &al, 8)
	if err != nil {
		return 0, 0, "", err
	}
	unitsBuf, err := i.alloc(ctx, &al, TokenLength)
	if err != nil {
		return 0, 0, "", err
	}
	if err := i.call(ctx, op,
		uint64(i.ics), uint64(uint32(int32(dim))), uint64(originPtr), uint64(scalePtr), uint64(unitsBuf)); err != nil {
		return 0, 0, "", err
	}
	origin, err := i.readFloat64(op, originPtr)
	if err != nil {
		return 0, 0, "", err
	}
	scale, err := i.readFloat64(op, scalePtr)
	if err != nil {
		return 0, 0, "", err
	}
	units, err := i.readCString(op, unitsBuf, TokenLength)
	if err != nil {
		return 0, 0, "", err
	}
	return origin, scale, units, nil
}

func (i *Instance) SetPosition(ctx context.Context, dim int, origin, scale float64, units string) error {
	const op = "IcsSetPosition"

	var al allocList
	defer al.free(ctx, i)

	cu, err := i.newCString(ctx, &al, units)
	if err != nil {
		return err
	}
	return i.call(ctx, op,
		uint64(i.ics), uint64(uint32(int32(dim))), api.EncodeF64(origin), api.EncodeF64(scale), uint64(cu))
}

func (i *Instance) HistoryCount(ctx context.Context) (int, error) {
	const op = "IcsGetNumHistoryStrings"

	var al allocList
	defer al.free(ctx, i)

	p, err := i.alloc(ctx, &al, 4)
	if err != nil {
		return 0, err
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(p)); err != nil {
		return 0, err
	}
	n, err := i.readInt32(op, p)
	return int(n), err
}

func (i *Instance) HistoryNext(ctx context.Context, first bool) (string, string, error) {
	const op = "IcsGetHistoryKeyValue"

	var al allocList
	defer al.free(ctx, i)

	keyBuf, err := i.alloc(ctx, &al, TokenLength)
	if err != nil {
		return "", "", err
	}
	valueBuf, err := i.alloc(ctx, &al, LineLength)
	if err != nil {
		return "", "", err
	}
	which := historyWhichNext
	if first {
		which = historyWhichFirst
	}
	if err := i.call(ctx, op, uint64(i.ics), uint64(keyBuf), uint64(valueBuf), which); err != nil {
		return "", "", err
	}
	key, err := i.readCString(op, keyBuf, TokenLength)
	if err != nil {
		return "", "", err
	}
	value, err := i.readCString(op, valueBuf, LineLength)
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

func (i *Instance) AddHistory(ctx context.Context, key, value string) error {
	const op = "IcsAddHistoryString"

	var al allocList
	defer al.free(ctx, i)

	ck, err := i.newCString(ctx, &al, key)
	if err != nil {
		return err
	}
	cv, err := i.newCString(ctx, &al, value)
	if err != nil {
		return err
	}
	return i.call(ctx, op, uint64(i.ics), uint64(ck), uint64(cv))
}

func (i *Instance) DeleteHistory(ctx context.Context, key string) error {
	const op = "IcsDeleteHistory"

	var al allocList
	defer al.free(ctx, i)

	ck, err := i.newCString(ctx, &al, key)
	if err != nil {
		return err
	}
	return i.call(ctx, op, uint64(i.ics), uint64(ck))
}

func (i *Instance) SetSource(ctx context.Context, path string, offset uint64) error {
	const op = "IcsSetSource"

	var al allocList
	defer al.free(ctx, i)

	cp, err := i.newCString(ctx, &al, path)
	if err != nil {
		return err
	}
	return i.call(ctx, op, uint64(i.ics), uint64(cp), uint64(uint32(offset)))
}

// Close flushes the file via IcsClose and tears the instance down. Repeated
// calls are no-ops.
func (i *Instance) Close(ctx context.Context) error {
	err := i.release(ctx)
	i.eng.handles.Remove(i.handle)
	return err
}

// Drop implements resource.Dropper for the engine-shutdown path.
func (i *Instance) Drop() {
	if err := i.release(context.Background()); err != nil {
		i.eng.log.Warn("error closing leaked handle",
			zap.String("path", i.path), zap.Error(err))
	}
}

// release performs the actual native close exactly once. libics writes
// pending data to disk here, so the pinned data buffer is freed only after
// IcsClose returns.
func (i *Instance) release(ctx context.Context) error {
	if !i.released.CompareAndSwap(false, true) {
		return nil
	}
	err := i.call(ctx, "IcsClose", uint64(i.ics))
	i.pinned.free(ctx, i)
	if cerr := i.mod.Close(ctx); cerr != nil && err == nil {
		err = errors.Wrap("IcsClose", errors.KindInternal, cerr, "close native instance")
	}
	return err
}
