package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/payload"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
)

type colorHandler struct {
	responder
	colors usecase.ColorUsecase
}

func (h *colorHandler) mount(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *colorHandler) list(w http.ResponseWriter, r *http.Request) {
	colors, err := h.colors.ListColors(r.Context())
	if err != nil {
		h.fail(w, r, err, "list colors")
		return
	}

	respond(w, http.StatusOK, "colors retrieved", colors)
}

func (h *colorHandler) get(w http.ResponseWriter, r *http.Request) {
	color, err := h.colors.GetColor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "get color")
		return
	}

	respond(w, http.StatusOK, "color retrieved", color)
}

func (h *colorHandler) create(w http.ResponseWriter, r *http.Request) {
	var req payload.ColorRequest
	if !h.decode(w, r, &req) {
		return
	}

	color, err := h.colors.CreateColor(r.Context(), usecase.ColorParams{Name: req.Name, Hex: req.Hex})
	if err != nil {
		h.fail(w, r, err, "create color")
		return
	}

	respond(w, http.StatusCreated, "color created", color)
}

func (h *colorHandler) update(w http.ResponseWriter, r *http.Request) {
	var req payload.ColorRequest
	if !h.decode(w, r, &req) {
		return
	}

	color, err := h.colors.UpdateColor(r.Context(), chi.URLParam(r, "id"), usecase.ColorParams{Name: req.Name, Hex: req.Hex})
	if err != nil {
		h.fail(w, r, err, "update color")
		return
	}

	respond(w, http.StatusOK, "color updated", color)
}

func (h *colorHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.colors.DeleteColor(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "delete color")
		return
	}

	respondMessage(w, http.StatusOK, "color deleted")
}
