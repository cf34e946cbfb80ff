package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", c.listRooms)
			r.Post("/", c.createRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/", c.getRoom)
				r.Delete("/", c.deleteRoom)
				r.Get("/state", c.getRoomState)
				r.Get("/ws", c.connectRoom)
			})
		})

		r.Get("/search", c.searchTracks)
		r.Get("/videos/{video-id}", c.getVideoDetails)
	})

	return r
}
