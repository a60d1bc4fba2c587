package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noops-dev/noops/internal/blobstore"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/packager"
)

const (
	exportKindFunc   = 0
	exportKindMemory = 2
)

// minimalGuest builds a syntactically valid WASM module exporting
// handle/alloc/memory, just enough to pass the packager's validator
// without a full encoder.
func minimalGuest(t *testing.T) []byte {
	t.Helper()

	exports := map[string]byte{"handle": exportKindFunc, "alloc": exportKindFunc, "memory": exportKindMemory}
	var content []byte
	content = append(content, uleb(uint64(len(exports)))...)
	for _, name := range []string{"handle", "alloc", "memory"} {
		content = append(content, uleb(uint64(len(name)))...)
		content = append(content, []byte(name)...)
		content = append(content, exports[name])
		content = append(content, uleb(0)...)
	}
	var section []byte
	section = append(section, 0x07)
	section = append(section, uleb(uint64(len(content)))...)
	section = append(section, content...)

	module := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	return append(module, section...)
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

type fixture struct {
	pool     *metastore.Pool
	projects *metastore.ProjectRepository
	handlers *metastore.HandlerRepository
	blobs    *blobstore.Store
	pkg      *packager.Packager
	owner    metastore.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	pool, err := metastore.Open(ctx, filepath.Join(t.TempDir(), "noops.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	blobs, err := blobstore.New(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	adapterPath := filepath.Join(t.TempDir(), "adapter.wasm")
	require.NoError(t, os.WriteFile(adapterPath, []byte("fixed-adapter-bytes"), 0o644))
	pkg, err := packager.New(adapterPath)
	require.NoError(t, err)

	users := metastore.NewUserRepository(pool)
	owner := metastore.User{ID: "u1", Email: "owner@example.com", ExternalID: "ext-1", ExternalToken: "tok"}
	require.NoError(t, users.Create(ctx, owner))

	return &fixture{
		pool:     pool,
		projects: metastore.NewProjectRepository(pool),
		handlers: metastore.NewHandlerRepository(pool),
		blobs:    blobs,
		pkg:      pkg,
		owner:    owner,
	}
}

func (f *fixture) projectService() *ProjectService {
	return NewProjectService(f.pool, f.projects, f.handlers, f.blobs)
}

func (f *fixture) handlerService() *HandlerService {
	return NewHandlerService(f.pool, f.projects, f.handlers, f.blobs, f.pkg)
}
