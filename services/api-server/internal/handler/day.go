package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
)

func listDays(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, "days retrieved", model.Days())
}

func getDay(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondMessage(w, http.StatusNotFound, "not found")
		return
	}

	day, ok := model.DayByID(id)
	if !ok {
		respondMessage(w, http.StatusNotFound, "not found")
		return
	}

	respond(w, http.StatusOK, "day retrieved", day)
}
