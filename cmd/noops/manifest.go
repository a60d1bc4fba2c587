package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk noops.yaml document naming a project's handlers
// and the path to each one's already-compiled guest binary, grounded on
// original_source/cli/src/manifest.rs's Manifest/Component shape.
type Manifest struct {
	Project  string            `yaml:"project"`
	Handlers []ManifestHandler `yaml:"handlers"`
}

// ManifestHandler is one entry in a Manifest, grounded on manifest.rs's
// Component.
type ManifestHandler struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	WasmPath string `yaml:"wasm_path"`
}

// loadManifest reads and parses a noops.yaml file.
func loadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// handlerWasm reads the compiled guest bytes a manifest entry points at.
func (h ManifestHandler) handlerWasm() ([]byte, error) {
	raw, err := os.ReadFile(h.WasmPath)
	if err != nil {
		return nil, fmt.Errorf("read handler wasm for %q: %w", h.Name, err)
	}
	return raw, nil
}
