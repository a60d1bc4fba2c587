// Package dto holds the wire DTOs of spec.md §6, verbatim: every success
// response is one of these structs directly, never wrapped in an envelope.
package dto

// CreateHandler is the request body of `PUT /api/:project/:handler`. Name
// in the body is informational only — the path segment always wins.
type CreateHandler struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Wasm     []byte `json:"wasm"`
}

// GetHandler is the response body of `GET /api/:project/:handler` and the
// per-handler entries of GetProject.Handlers.
type GetHandler struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Hash     string `json:"hash"`
	Link     string `json:"link"`
}

// GetProject is the response body of `GET /api/:project`.
type GetProject struct {
	Name     string       `json:"name"`
	Handlers []GetHandler `json:"handlers"`
}

// GetJwt is the response body of `GET /api/auth/login`.
type GetJwt struct {
	Jwt string `json:"jwt"`
}
