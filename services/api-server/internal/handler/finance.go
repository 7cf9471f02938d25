package handler

import (
	"net/http"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
)

type financeHandler struct {
	responder
	finance usecase.FinanceUsecase
}

func (h *financeHandler) summary(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	summary, err := h.finance.Summary(r.Context(), userID, r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, err, "summarize transactions")
		return
	}

	respond(w, http.StatusOK, "summary retrieved", summary)
}
