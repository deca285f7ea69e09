package backoffice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/models"
)

// API exposes the operator-facing HTTP surface: card and transaction
// workflows plus the dashboard view state.
type API struct {
	cards        *CardWorkflow
	transactions *TransactionWorkflow
	dashboard    *Refresher
}

func NewAPI(cards *CardWorkflow, transactions *TransactionWorkflow, dashboard *Refresher) *API {
	return &API{
		cards:        cards,
		transactions: transactions,
		dashboard:    dashboard,
	}
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
	})
	r.Get("/dashboard", a.getDashboard)
}

func (a *API) createCard(w http.ResponseWriter, r *http.Request) {
	req := models.CreateCardRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := a.cards.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) getCard(w http.ResponseWriter, r *http.Request) {
	card, err := a.cards.Get(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (a *API) listCards(w http.ResponseWriter, r *http.Request) {
	page, err := a.cards.List(r.Context(), listQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (a *API) enrollCard(w http.ResponseWriter, r *http.Request) {
	req := models.EnrollCardRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// fetch the authoritative status first, so the pre-flight guard runs
	// against a fresh copy
	card, err := a.cards.Get(r.Context(), req.Identifier)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.cards.Enroll(r.Context(), card, req.ValidationNumber); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deactivateCard(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	card, err := a.cards.Get(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.cards.Deactivate(r.Context(), card, confirmed); err != nil {
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

	card, err := a.cards.Get(r.Context(), req.CardIdentifier)
	if err != nil {
		writeError(w, err)
		return
	}
	tx, err := a.transactions.Create(r.Context(), card, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := a.transactions.List(r.Context(), listQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (a *API) cancelTransaction(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	req := models.CancelTransactionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	tx, err := a.transactions.Find(r.Context(), req.ReferenceNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.transactions.Cancel(r.Context(), tx, confirmed); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dashboard.View())
}

func listQuery(r *http.Request) authclient.ListQuery {
	q := r.URL.Query()
	var out authclient.ListQuery
	out.Page, _ = strconv.Atoi(q.Get("page"))
	out.Size, _ = strconv.Atoi(q.Get("size"))
	out.SortBy = q.Get("sortBy")
	out.SortDir = q.Get("sortDir")
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to status codes: local validation and
// bad input to 400, missing entities to 404, conflicts and illegal
// transitions to 409, a missing confirmation to 428, duplicate submission to
// 409, and unrecognized authority statuses to 502 with the raw code in the
// body.
func writeError(w http.ResponseWriter, err error) {
	var ve models.ValidationErrors
	var se *authclient.StatusError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, authclient.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authclient.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConfirmationRequired):
		http.Error(w, err.Error(), http.StatusPreconditionRequired)
	case errors.Is(err, ErrBusy),
		errors.Is(err, ErrCardNotEligible),
		errors.Is(err, models.ErrIllegalTransition),
		errors.Is(err, authclient.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &se):
		http.Error(w, se.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
