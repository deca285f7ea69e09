package authority

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cardops/backoffice/models"
)

// API is the HTTP surface of the authority.
type API struct {
	authority *Service
}

func NewAPI(authority *Service) *API {
	return &API{authority: authority}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/cards", func(r chi.Router) {
		r.Post("/", a.createCard)
		r.Get("/", a.listCards)
		r.Put("/enroll", a.enrollCard)
		r.Route("/{identifier}", func(r chi.Router) {
			r.Get("/", a.getCard)
			r.Delete("/", a.deactivateCard)
		})
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", a.createTransaction)
		r.Get("/", a.listTransactions)
		r.Put("/cancel", a.cancelTransaction)
		r.Get("/{referenceNumber}", a.getTransaction)
	})
	r.Get("/audit", a.listAudit)
}

func (a *API) createCard(w http.ResponseWriter, r *http.Request) {
	req := models.CreateCardRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := a.authority.CreateCard(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) getCard(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	details, err := a.authority.GetCardDetails(r.Context(), identifier)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (a *API) listCards(w http.ResponseWriter, r *http.Request) {
	page, size, sortBy, sortDir := listParams(r)

	result, err := a.authority.ListCards(r.Context(), page, size, sortBy, sortDir)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *API) enrollCard(w http.ResponseWriter, r *http.Request) {
	req := models.EnrollCardRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.authority.EnrollCard(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deactivateCard transitions the card to INACTIVE; nothing is deleted.
func (a *API) deactivateCard(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	if err := a.authority.DeactivateCard(r.Context(), identifier); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request) {
	req := models.CreateTransactionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := a.authority.CreateTransaction(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request) {
	referenceNumber := chi.URLParam(r, "referenceNumber")

	tx, err := a.authority.GetTransaction(r.Context(), referenceNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	page, size, sortBy, sortDir := listParams(r)

	result, err := a.authority.ListTransactions(r.Context(), page, size, sortBy, sortDir)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *API) cancelTransaction(w http.ResponseWriter, r *http.Request) {
	req := models.CancelTransactionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.authority.CancelTransaction(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := a.authority.ListAudit(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func listParams(r *http.Request) (page, size int, sortBy, sortDir string) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	size, _ = strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 10
	}
	sortBy = q.Get("sortBy")
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortDir = q.Get("sortDir")
	if sortDir == "" {
		sortDir = "desc"
	}
	return page, size, sortBy, sortDir
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var ve models.ValidationErrors
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict),
		errors.Is(err, models.ErrIllegalTransition),
		errors.Is(err, ErrValidationMismatch),
		errors.Is(err, ErrCardNotEligible),
		errors.Is(err, ErrCancelWindowExpired):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
