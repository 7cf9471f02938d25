package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
)

// resourceHandler serves CRUD routes for one kind of user-owned record.
// Bodies are validated by the usecase.
type resourceHandler[T any, PT repository.DocumentPtr[T]] struct {
	responder
	name     string
	resource usecase.ResourceUsecase[T, PT]
}

func (h *resourceHandler[T, PT]) mount(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *resourceHandler[T, PT]) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	docs, err := h.resource.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "list "+h.name)
		return
	}

	respond(w, http.StatusOK, h.name+" retrieved", docs)
}

func (h *resourceHandler[T, PT]) create(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	doc := PT(new(T))
	if !h.decode(w, r, doc) {
		return
	}

	created, err := h.resource.Create(r.Context(), userID, doc)
	if err != nil {
		h.fail(w, r, err, "create "+h.name)
		return
	}

	respond(w, http.StatusCreated, h.name+" created", created)
}

func (h *resourceHandler[T, PT]) get(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	doc, err := h.resource.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "get "+h.name)
		return
	}

	respond(w, http.StatusOK, h.name+" retrieved", doc)
}

func (h *resourceHandler[T, PT]) update(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	doc := PT(new(T))
	if !h.decode(w, r, doc) {
		return
	}

	updated, err := h.resource.Update(r.Context(), userID, chi.URLParam(r, "id"), doc)
	if err != nil {
		h.fail(w, r, err, "update "+h.name)
		return
	}

	respond(w, http.StatusOK, h.name+" updated", updated)
}

func (h *resourceHandler[T, PT]) delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.resource.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "delete "+h.name)
		return
	}

	respondMessage(w, http.StatusOK, h.name+" deleted")
}
