package engine

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/anntzer/go-libics/errors"
	"github.com/anntzer/go-libics/resource"
)

// Mount exposes a host directory to the native library's file system.
type Mount struct {
	Host  string
	Guest string
}

// Config holds configuration for engine creation. The library path is
// per-engine; there is no process-wide library location.
type Config struct {
	// LibraryPath is the path to the libics wasm binary. Required.
	LibraryPath string

	// MemoryLimitPages caps the linear memory of each open file's instance,
	// in 64KiB pages. 0 means the wazero default.
	MemoryLimitPages uint32

	// Mounts lists host directories visible to the native library.
	// Empty means the host root is mounted at the guest root, so any
	// absolute host path works as an ICS file path.
	Mounts []Mount

	// Logger overrides the package logger for this engine.
	Logger *zap.Logger
}

// Engine owns one compiled copy of the native library and tracks the native
// handles opened through it.
type Engine struct {
	cfg      Config
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	handles  *resource.Table
	log      *zap.Logger
	seq      atomic.Uint64
	closed   atomic.Bool
}

// New loads and compiles the native library described by cfg.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	const op = "engine.New"

	if cfg.LibraryPath == "" {
		return nil, errors.InvalidArgument(op, "LibraryPath is required")
	}
	wasmBytes, err := os.ReadFile(cfg.LibraryPath)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindIO, err, "read native library")
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		r.Close(ctx)
		return nil, errors.Wrap(op, errors.KindInternal, err, "instantiate WASI")
	}

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		r.Close(ctx)
		return nil, errors.Wrap(op, errors.KindInternal, err, "compile native library")
	}

	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	e := &Engine{
		cfg:      cfg,
		runtime:  r,
		compiled: compiled,
		handles:  resource.NewTable(),
		log:      log,
	}
	e.handles.Subscribe(handleLogger{log: log})
	return e, nil
}

// Open acquires one native handle bound to path. mode is the native mode
// token ("r", "rw", "w1", "w2").
func (e *Engine) Open(ctx context.Context, path, mode string) (*Instance, error) {
	const op = "IcsOpen"

	if e.closed.Load() {
		return nil, errors.State(op, "engine is closed")
	}

	inst, err := e.instantiate(ctx)
	if err != nil {
		return nil, err
	}

	var al allocList
	fail := func(err error) (*Instance, error) {
		al.free(ctx, inst)
		inst.mod.Close(ctx)
		return nil, err
	}

	ipp, err := inst.alloc(ctx, &al, ptrSize)
	if err != nil {
		return fail(err)
	}
	cpath, err := inst.newCString(ctx, &al, path)
	if err != nil {
		return fail(err)
	}
	cmode, err := inst.newCString(ctx, &al, mode)
	if err != nil {
		return fail(err)
	}

	if err := inst.call(ctx, op, uint64(ipp), uint64(cpath), uint64(cmode)); err != nil {
		return fail(err)
	}
	ics, err := inst.readUint32(op, ipp)
	if err != nil {
		return fail(err)
	}
	inst.ics = ics
	inst.path = path
	al.free(ctx, inst)

	h := e.handles.Insert(inst)
	if h == 0 {
		inst.release(ctx)
		return nil, errors.State(op, "engine is closed")
	}
	inst.handle = h
	e.log.Debug("opened ics file", zap.String("path", path), zap.String("mode", mode))
	return inst, nil
}

// Version probes path and reports its ICS version (1 or 2), or 0 when the
// file is not an ICS file.
func (e *Engine) Version(ctx context.Context, path string) (int, error) {
	const op = "IcsVersion"

	if e.closed.Load() {
		return 0, errors.State(op, "engine is closed")
	}

	inst, err := e.instantiate(ctx)
	if err != nil {
		return 0, err
	}
	defer inst.mod.Close(ctx)

	var al allocList
	defer al.free(ctx, inst)

	cpath, err := inst.newCString(ctx, &al, path)
	if err != nil {
		return 0, err
	}
	v, err := inst.invoke(ctx, op, uint64(cpath), 0)
	if err != nil {
		return 0, err
	}
	return int(int32(uint32(v))), nil
}

// Close releases every handle still open and shuts the runtime down. Open
// handles left behind by callers are closed and logged as leaks. Safe to
// call more than once.
func (e *Engine) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if n := e.handles.Len(); n > 0 {
		e.log.Warn("closing engine with open handles", zap.Int("leaked", n))
	}
	e.handles.Close()
	if err := e.runtime.Close(ctx); err != nil {
		return errors.Wrap("engine.Close", errors.KindInternal, err, "close runtime")
	}
	return nil
}

// instantiate creates a fresh module instance of the native library with the
// configured file system mounts.
func (e *Engine) instantiate(ctx context.Context) (*Instance, error) {
	const op = "engine.instantiate"

	fsCfg := wazero.NewFSConfig()
	mounts := e.cfg.Mounts
	if len(mounts) == 0 {
		mounts = []Mount{{Host: "/", Guest: "/"}}
	}
	for _, m := range mounts {
		fsCfg = fsCfg.WithDirMount(m.Host, m.Guest)
	}

	name := fmt.Sprintf("libics-%d", e.seq.Add(1))
	modCfg := wazero.NewModuleConfig().
		WithName(name).
		WithFSConfig(fsCfg).
		// The library is built as a WASI reactor; _initialize sets up its
		// C runtime.
		WithStartFunctions("_initialize")

	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, modCfg)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindInternal, err, "instantiate native library")
	}

	inst := &Instance{
		eng:    e,
		mod:    mod,
		mem:    mod.Memory(),
		malloc: mod.ExportedFunction("malloc"),
		free:   mod.ExportedFunction("free"),
	}
	if inst.mem == nil || inst.malloc == nil || inst.free == nil {
		mod.Close(ctx)
		return nil, errors.Unsupported(op, "native library does not export memory, malloc and free")
	}
	return inst, nil
}

// handleLogger logs handle lifecycle events.
type handleLogger struct {
	log *zap.Logger
}

func (l handleLogger) OnHandleEvent(e resource.Event) {
	switch e.Type {
	case resource.EventOpened:
		l.log.Debug("native handle opened", zap.Uint32("handle", uint32(e.Handle)))
	case resource.EventClosed:
		l.log.Debug("native handle closed", zap.Uint32("handle", uint32(e.Handle)))
	}
}
