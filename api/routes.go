package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Cameroonytoons/AniFig/controller"
	"github.com/Cameroonytoons/AniFig/store"
)

func RegisterRoutes(st *store.Store, ctrl *controller.Controller) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{store: st, controller: ctrl}

	// REST surface for the panel's list and search views.
	r.Get("/api/animations", h.listAnimations)
	r.Get("/api/animations/search", h.searchAnimations)
	r.Post("/api/animations/init", h.initStore)

	// Message channel carrying panel intents to the controller.
	r.Get("/api/ws", h.handleWS)

	return r
}

type handler struct {
	store      *store.Store
	controller *controller.Controller
}
