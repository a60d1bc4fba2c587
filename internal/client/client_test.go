package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noops-dev/noops/internal/api/dto"
)

func TestHandlerClientCreateAndRead(t *testing.T) {
	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/myproj/greet":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/api/myproj/greet":
			_ = json.NewEncoder(w).Encode(dto.GetHandler{Name: "greet", Language: "rust", Hash: "abc", Link: "http://x/id"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	hc := NewHandlerClient(NewClient("session-token", WithBaseURL(srv.URL)))

	err := hc.Create(context.Background(), "myproj", dto.CreateHandler{Name: "greet", Language: "rust", Wasm: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "Bearer session-token", lastAuth)

	got, err := hc.Read(context.Background(), "myproj", "greet")
	require.NoError(t, err)
	assert.Equal(t, "greet", got.Name)
	assert.Equal(t, "abc", got.Hash)
}

func TestHandlerClientReadOptionalReturnsNilOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorMessage: "handler not found"})
	}))
	defer srv.Close()

	hc := NewHandlerClient(NewClient("t", WithBaseURL(srv.URL)))

	got, err := hc.ReadOptional(context.Background(), "myproj", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHandlerClientExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/myproj/present" {
			_ = json.NewEncoder(w).Encode(dto.GetHandler{Name: "present"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	hc := NewHandlerClient(NewClient("t", WithBaseURL(srv.URL)))

	ok, err := hc.Exists(context.Background(), "myproj", "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hc.Exists(context.Background(), "myproj", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandlerClientDeleteSurfacesNotFoundAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorMessage: "handler not found"})
	}))
	defer srv.Close()

	hc := NewHandlerClient(NewClient("t", WithBaseURL(srv.URL)))

	err := hc.Delete(context.Background(), "myproj", "ghost")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "handler not found", apiErr.Message)
}

func TestProjectClientLifecycle(t *testing.T) {
	created := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/demo":
			created = true
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/api/demo":
			_ = json.NewEncoder(w).Encode(dto.GetProject{Name: "demo"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/demo":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	pc := NewProjectClient(NewClient("t", WithBaseURL(srv.URL)))
	ctx := context.Background()

	require.NoError(t, pc.Create(ctx, "demo"))
	assert.True(t, created)

	got, err := pc.Read(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)

	require.NoError(t, pc.Delete(ctx, "demo"))
}

func TestLoginReturnsJWT(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "external-token", r.URL.Query().Get("token"))
		_ = json.NewEncoder(w).Encode(dto.GetJwt{Jwt: "signed.jwt.value"})
	}))
	defer srv.Close()

	jwt, err := Login(context.Background(), srv.URL, "external-token")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.value", jwt)
}

func TestDoRequestRetriesOnNetworkError(t *testing.T) {
	// Point at a closed server: every attempt is a network error, so
	// doRequest must exhaust retries and return a wrapped error rather
	// than hang or panic.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	pc := NewProjectClient(NewClient("t", WithBaseURL(srv.URL)))
	err := pc.Create(context.Background(), "demo")
	require.Error(t, err)
}
