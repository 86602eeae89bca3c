// Package api exposes story composition and clip trimming over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	apiBasePath   = "/api/v1"
	composePath   = "/compose"
	trimsBasePath = "/trims"
	paramID       = "id"

	requestTimeout = 60 * time.Second
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Post(composePath, makeHandler(h.HandleCompose))
		r.Route(trimsBasePath, func(r chi.Router) {
			r.Post("/", makeHandler(h.HandleCreateTrim))
			r.Get("/{"+paramID+"}", makeHandler(h.HandleGetTrim))
			r.Delete("/{"+paramID+"}", makeHandler(h.HandleCancelTrim))
		})
	})
	return r
}
