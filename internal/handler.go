package internal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler declares routes on a router.
//
// Example:
//
//	type Pages struct{}
//
//	func (h *Pages) Routes(r chi.Router) {
//	    r.Get("/", h.home)
//	    r.Post("/upload", h.upload)
//	}
//
//	func (h *Pages) home(w http.ResponseWriter, r *http.Request) {
//	    store, err := edgekit.KV(r.Context())
//	    ...
//	}
type Handler interface {
	Routes(r chi.Router)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(r chi.Router)

func (f HandlerFunc) Routes(r chi.Router) { f(r) }

// Middleware wraps an http.Handler. Middleware registered on App runs
// inside the event scope.
type Middleware = func(next http.Handler) http.Handler
