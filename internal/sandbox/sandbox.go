// Package sandbox loads packaged guest binaries and invokes their
// exported "handle" function under per-invocation isolation: a fresh
// module instance, a wall-clock deadline, and a memory ceiling, sharing
// only the process-wide wazero runtime across calls.
package sandbox

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ErrGuestFault covers any trap, timeout, or memory violation inside a
// guest invocation. The client never sees more detail than this.
var ErrGuestFault = errors.New("sandbox: guest fault")

// KV is one query-parameter pair, order-preserving.
type KV struct {
	Key   string
	Value string
}

// Request is what a Sandbox invocation hands to the guest.
type Request struct {
	QueryParams []KV
}

// Response is what a Sandbox invocation returns from the guest.
type Response struct {
	Status uint16
	Body   string
}

// Config controls the resource ceilings every invocation is bound by.
type Config struct {
	Deadline         time.Duration // wall-clock cap per invocation
	MemoryLimitPages uint32        // 64KiB pages; 1024 = 64MiB
	Stdin            io.Reader     // inherited host stdin, debug-only
	Stdout           io.Writer     // inherited host stdout, debug-only
}

// DefaultConfig matches spec.md's defaults: 5s deadline, 64MiB memory.
func DefaultConfig() Config {
	return Config{
		Deadline:         5 * time.Second,
		MemoryLimitPages: 1024,
	}
}

// Sandbox owns one process-wide wazero runtime, built once, shared by
// every invocation; each Invoke gets its own fresh module instance.
type Sandbox struct {
	runtime wazero.Runtime
	cfg     Config
}

// New builds the shared engine. Expensive — call once in the composition
// root and pass the result in, never lazily from within a request path.
func New(ctx context.Context, cfg Config) (*Sandbox, error) {
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultConfig().Deadline
	}
	if cfg.MemoryLimitPages == 0 {
		cfg.MemoryLimitPages = DefaultConfig().MemoryLimitPages
	}

	runtimeCfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(cfg.MemoryLimitPages)

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("sandbox: instantiate wasi: %w", err)
	}

	return &Sandbox{runtime: runtime, cfg: cfg}, nil
}

// Close releases the shared runtime. Call once at process shutdown.
func (s *Sandbox) Close(ctx context.Context) error {
	return s.runtime.Close(ctx)
}

// Invoke runs packaged (already-validated component bytes from the
// Packager) against req in a fresh, capability-restricted module
// instance, and tears the instance down afterward regardless of outcome.
func (s *Sandbox) Invoke(ctx context.Context, packaged []byte, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancel()

	compiled, err := s.runtime.CompileModule(ctx, packaged)
	if err != nil {
		return Response{}, fmt.Errorf("%w: compile: %v", ErrGuestFault, err)
	}
	defer compiled.Close(ctx)

	modCfg := wazero.NewModuleConfig().
		WithStartFunctions(). // no implicit _start invocation
		WithStdin(s.cfg.Stdin).
		WithStdout(s.cfg.Stdout)

	instance, err := s.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return Response{}, fmt.Errorf("%w: instantiate: %v", ErrGuestFault, err)
	}
	defer instance.Close(ctx)

	mem := instance.Memory()
	if mem == nil {
		return Response{}, fmt.Errorf("%w: no exported memory", ErrGuestFault)
	}

	alloc := instance.ExportedFunction("alloc")
	handle := instance.ExportedFunction("handle")
	if alloc == nil || handle == nil {
		return Response{}, fmt.Errorf("%w: missing handle/alloc export", ErrGuestFault)
	}

	reqBytes := []byte(encodeRequest(req))

	results, err := alloc.Call(ctx, uint64(len(reqBytes)))
	if err != nil || len(results) != 1 {
		return Response{}, fmt.Errorf("%w: alloc request buffer: %v", ErrGuestFault, err)
	}
	reqPtr := uint32(results[0])

	if !mem.Write(reqPtr, reqBytes) {
		return Response{}, fmt.Errorf("%w: write request into guest memory", ErrGuestFault)
	}

	results, err = handle.Call(ctx, uint64(reqPtr), uint64(len(reqBytes)))
	if err != nil || len(results) != 1 {
		return Response{}, fmt.Errorf("%w: handle call: %v", ErrGuestFault, err)
	}

	packed := results[0]
	respPtr := uint32(packed >> 32)
	totalLen := uint32(packed)

	if totalLen < 8 {
		return Response{}, fmt.Errorf("%w: malformed response header", ErrGuestFault)
	}

	respBytes, ok := mem.Read(respPtr, totalLen)
	if !ok {
		return Response{}, fmt.Errorf("%w: read response from guest memory", ErrGuestFault)
	}

	status := binary.LittleEndian.Uint32(respBytes[0:4])
	bodyLen := binary.LittleEndian.Uint32(respBytes[4:8])
	if 8+bodyLen != totalLen {
		return Response{}, fmt.Errorf("%w: response header/length mismatch", ErrGuestFault)
	}

	return Response{
		Status: uint16(status),
		Body:   string(respBytes[8:]),
	}, nil
}

// encodeRequest renders query params as "key=value\n" lines, in the
// order they were observed in the incoming URL.
func encodeRequest(req Request) string {
	var b strings.Builder
	for _, kv := range req.QueryParams {
		b.WriteString(kv.Key)
		b.WriteByte('=')
		b.WriteString(kv.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

