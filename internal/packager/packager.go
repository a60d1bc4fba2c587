// Package packager wraps a raw guest binary produced by an external
// toolchain into the envelope the sandbox loads: it validates the
// required exports and appends the metadata the sandbox relies on to
// treat every guest uniformly regardless of source language.
package packager

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// ErrBadInput means raw does not satisfy the required export shape.
var ErrBadInput = errors.New("packager: bad input")

// ErrAdapterMissing means the server's fixed adapter binary could not be
// read — a deployment misconfiguration, not a property of any one upload.
var ErrAdapterMissing = errors.New("packager: adapter missing")

const (
	capabilityWorldSection = "noops:capability-world"
	stringEncodingSection  = "noops:string-encoding"
	hostAdapterSection     = "noops:host-adapter"
	capabilityWorldName    = "handler"
	stringEncodingValue    = "utf-8"
)

// Packager holds the server's fixed adapter binary, read once at startup,
// and splices it into every guest it packages.
type Packager struct {
	adapter []byte
}

// New reads the adapter binary at adapterPath once. Returns
// ErrAdapterMissing if it cannot be read — this is a server
// misconfiguration, surfaced at startup rather than per-request.
func New(adapterPath string) (*Packager, error) {
	data, err := os.ReadFile(adapterPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdapterMissing, err)
	}
	return &Packager{adapter: data}, nil
}

// Package validates raw's exports, splices the server's fixed host-ABI
// adapter binary into the envelope as its own custom section, and appends
// the capability-world and string-encoding metadata sections. Package(x)
// is deterministic: identical input always produces bit-identical output,
// since no map-iteration-order-dependent or time-dependent data is
// emitted.
func (p *Packager) Package(raw []byte) ([]byte, error) {
	if len(p.adapter) == 0 {
		return nil, ErrAdapterMissing
	}
	if err := requiredExports(raw); err != nil {
		if errors.Is(err, ErrBadInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	var out bytes.Buffer
	out.Write(raw)
	out.Write(customSection(hostAdapterSection, p.adapter))
	out.Write(customSection(capabilityWorldSection, []byte(capabilityWorldName)))
	out.Write(customSection(stringEncodingSection, []byte(stringEncodingValue)))
	return out.Bytes(), nil
}
