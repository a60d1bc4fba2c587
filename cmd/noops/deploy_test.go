package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noops-dev/noops/internal/client"
	"github.com/noops-dev/noops/internal/deployplan"
)

func newTestCmd(stdin string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(context.Background())
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetOut(&bytes.Buffer{})
	return cmd
}

func TestDeployProjectCreatesRemoteProjectWhenMissing(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/demo":
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(client.ErrorResponse{ErrorMessage: "project not found"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/demo":
			created = true
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/api/demo/greet":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	httpClient := client.NewClient("tok", client.WithBaseURL(srv.URL))
	projectClient := client.NewProjectClient(httpClient)
	handlerClient := client.NewHandlerClient(httpClient)

	dir := t.TempDir()
	wasmPath := filepath.Join(dir, "handler.wasm")
	require.NoError(t, os.WriteFile(wasmPath, []byte("guest-bytes"), 0o644))

	manifest := &Manifest{
		Project:  "demo",
		Handlers: []ManifestHandler{{Name: "greet", Language: "rust", WasmPath: wasmPath}},
	}

	cmd := newTestCmd("y\n")
	err := deployProject(cmd, manifest, projectClient, handlerClient)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestPromptAndDeployAbortsOnDecline(t *testing.T) {
	var deployed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deployed = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	httpClient := client.NewClient("tok", client.WithBaseURL(srv.URL))
	handlerClient := client.NewHandlerClient(httpClient)

	plan := deployplan.Plan{Creates: []deployplan.HandlerDescriptor{{Name: "greet", Language: "rust", Fingerprint: "f1"}}}
	wasmByName := map[string]manifestEntry{"greet": {language: "rust", wasm: []byte("x")}}

	cmd := newTestCmd("n\n")
	err := promptAndDeploy(cmd, plan, "demo", wasmByName, handlerClient)
	require.NoError(t, err)
	assert.False(t, deployed)
}

func TestPromptAndDeployFullLifecycle(t *testing.T) {
	var createdName, updatedName, deletedName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/demo/new-handler":
			createdName = "new-handler"
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/api/demo/changed-handler":
			updatedName = "changed-handler"
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/demo/stale-handler":
			deletedName = "stale-handler"
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	httpClient := client.NewClient("tok", client.WithBaseURL(srv.URL))
	handlerClient := client.NewHandlerClient(httpClient)

	plan := deployplan.Plan{
		Creates: []deployplan.HandlerDescriptor{{Name: "new-handler", Language: "rust", Fingerprint: "f1"}},
		Updates: []deployplan.HandlerDescriptor{{Name: "changed-handler", Language: "rust", Fingerprint: "f2"}},
		Deletes: []deployplan.HandlerDescriptor{{Name: "stale-handler", Language: "rust", Fingerprint: "f3"}},
	}
	wasmByName := map[string]manifestEntry{
		"new-handler":     {language: "rust", wasm: []byte("a")},
		"changed-handler": {language: "rust", wasm: []byte("b")},
	}

	cmd := newTestCmd("y\n")
	err := promptAndDeploy(cmd, plan, "demo", wasmByName, handlerClient)
	require.NoError(t, err)
	assert.Equal(t, "new-handler", createdName)
	assert.Equal(t, "changed-handler", updatedName)
	assert.Equal(t, "stale-handler", deletedName)
}

func TestPromptAndDeployNoStepsIsNoop(t *testing.T) {
	httpClient := client.NewClient("tok", client.WithBaseURL("http://unused.invalid"))
	handlerClient := client.NewHandlerClient(httpClient)

	cmd := newTestCmd("")
	err := promptAndDeploy(cmd, deployplan.Plan{}, "demo", nil, handlerClient)
	require.NoError(t, err)
}

func TestIsNotFound(t *testing.T) {
	err := &client.APIError{StatusCode: http.StatusNotFound, Message: "x"}
	assert.True(t, isNotFound(err))

	other := &client.APIError{StatusCode: http.StatusInternalServerError, Message: "x"}
	assert.False(t, isNotFound(other))
}
