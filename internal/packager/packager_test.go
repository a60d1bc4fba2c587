package packager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalModule builds a syntactically valid WASM module header plus an
// export section naming the given (name, kind) pairs, with no other
// sections — enough to exercise the export validator without a full
// encoder.
func minimalModule(t *testing.T, exports map[string]byte) []byte {
	t.Helper()

	var content []byte
	content = append(content, uleb(uint64(len(exports)))...)
	// Deterministic order for reproducible test fixtures.
	for _, name := range []string{"handle", "alloc", "memory", "extra"} {
		kind, ok := exports[name]
		if !ok {
			continue
		}
		content = append(content, uleb(uint64(len(name)))...)
		content = append(content, []byte(name)...)
		content = append(content, kind)
		content = append(content, uleb(0)...) // index
	}

	var section []byte
	section = append(section, 0x07) // export section id
	section = append(section, uleb(uint64(len(content)))...)
	section = append(section, content...)

	module := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	module = append(module, section...)
	return module
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func testAdapterPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adapter.wasm")
	require.NoError(t, os.WriteFile(path, []byte("fixed-adapter-bytes"), 0o644))
	return path
}

func TestPackageValidModule(t *testing.T) {
	p, err := New(testAdapterPath(t))
	require.NoError(t, err)

	raw := minimalModule(t, map[string]byte{
		"handle": exportKindFunc,
		"alloc":  exportKindFunc,
		"memory": exportKindMemory,
	})

	packaged, err := p.Package(raw)
	require.NoError(t, err)
	assert.Greater(t, len(packaged), len(raw))
}

func TestPackageSplicesAdapterBytes(t *testing.T) {
	p, err := New(testAdapterPath(t))
	require.NoError(t, err)

	raw := minimalModule(t, map[string]byte{
		"handle": exportKindFunc,
		"alloc":  exportKindFunc,
		"memory": exportKindMemory,
	})

	packaged, err := p.Package(raw)
	require.NoError(t, err)
	assert.Contains(t, string(packaged), "fixed-adapter-bytes")
	assert.Contains(t, string(packaged), hostAdapterSection)
}

func TestPackageIsDeterministic(t *testing.T) {
	p, err := New(testAdapterPath(t))
	require.NoError(t, err)

	raw := minimalModule(t, map[string]byte{
		"handle": exportKindFunc,
		"alloc":  exportKindFunc,
		"memory": exportKindMemory,
	})

	a, err := p.Package(raw)
	require.NoError(t, err)
	b, err := p.Package(raw)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPackageMissingHandleExport(t *testing.T) {
	p, err := New(testAdapterPath(t))
	require.NoError(t, err)

	raw := minimalModule(t, map[string]byte{
		"alloc":  exportKindFunc,
		"memory": exportKindMemory,
	})

	_, err = p.Package(raw)
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestPackageMissingMemoryExport(t *testing.T) {
	p, err := New(testAdapterPath(t))
	require.NoError(t, err)

	raw := minimalModule(t, map[string]byte{
		"handle": exportKindFunc,
		"alloc":  exportKindFunc,
	})

	_, err = p.Package(raw)
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestPackageBadMagic(t *testing.T) {
	p, err := New(testAdapterPath(t))
	require.NoError(t, err)

	_, err = p.Package([]byte("not a wasm module"))
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestNewAdapterMissing(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist.wasm"))
	assert.ErrorIs(t, err, ErrAdapterMissing)
}
