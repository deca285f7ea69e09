package authority_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/authority"
	"github.com/cardops/backoffice/models"
)

func newTestRouter() chi.Router {
	logger := slog.New(slog.HandlerOptions{Level: slog.LevelError}.NewTextHandler(io.Discard))
	router := chi.NewRouter()

	api := authority.NewAPI(authority.NewService(authority.NewRepository(), authority.DefaultConfig(), logger))
	api.AppendRoutes(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	router.ServeHTTP(w, req)
	return w
}

func TestAPI(t *testing.T) {
	router := newTestRouter()

	create := models.CreateCardRequest{
		PAN:            "4539578763621486",
		HolderName:     "Ana María",
		DocumentNumber: "1234567890",
		PhoneNumber:    "3001234567",
		CardType:       models.CardTypeCredit,
	}

	var card models.CreateCardResponse

	t.Run("create card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/cards", create)
		require.Equal(t, http.StatusCreated, w.Code)

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
		require.NotEmpty(t, card.Identifier)
		require.Equal(t, "453957******1486", card.MaskedPan)
		require.Regexp(t, `^[0-9]{3}$`, card.ValidationNumber)
	})

	t.Run("create duplicate card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/cards", create)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/cards/"+card.Identifier, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var details models.CardDetails
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &details))
		require.Equal(t, models.CardStatusCreated, details.Status)
		require.NotContains(t, w.Body.String(), create.PAN)
	})

	t.Run("enroll with wrong validation number", func(t *testing.T) {
		wrong := "999"
		if card.ValidationNumber == wrong {
			wrong = "998"
		}
		w := doJSON(t, router, http.MethodPut, "/cards/enroll", models.EnrollCardRequest{
			Identifier:       card.Identifier,
			ValidationNumber: wrong,
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("enroll card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/cards/enroll", models.EnrollCardRequest{
			Identifier:       card.Identifier,
			ValidationNumber: card.ValidationNumber,
		})
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	var tx models.Transaction

	t.Run("create transaction", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions", models.CreateTransactionRequest{
			CardIdentifier:  card.Identifier,
			TotalAmount:     150.75,
			PurchaseAddress: "Calle 93 #11-27, Bogotá",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
		require.Equal(t, models.TransactionStatusApproved, tx.Status)
		require.NotEmpty(t, tx.ReferenceNumber)
	})

	t.Run("get transaction", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/transactions/"+tx.ReferenceNumber, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Equal(t, tx.ReferenceNumber, got.ReferenceNumber)
		require.Equal(t, models.TransactionStatusApproved, got.Status)
	})

	t.Run("get unknown transaction", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/transactions/TXNmissing", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list transactions", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/transactions?page=0&size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.Page[models.Transaction]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Equal(t, 1, page.TotalElements)
		require.Equal(t, tx.ReferenceNumber, page.Content[0].ReferenceNumber)
	})

	t.Run("cancel transaction", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/transactions/cancel", models.CancelTransactionRequest{
			ReferenceNumber: tx.ReferenceNumber,
		})
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("cancel twice", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/transactions/cancel", models.CancelTransactionRequest{
			ReferenceNumber: tx.ReferenceNumber,
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("deactivate card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/cards/"+card.Identifier, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		got := doJSON(t, router, http.MethodGet, "/cards/"+card.Identifier, nil)
		require.Equal(t, http.StatusOK, got.Code)
		var details models.CardDetails
		require.NoError(t, json.Unmarshal(got.Body.Bytes(), &details))
		require.Equal(t, models.CardStatusInactive, details.Status)
	})

	t.Run("audit log", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/audit", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var entries []authority.AuditEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		require.NotEmpty(t, entries)
	})
}

func TestAPIValidation(t *testing.T) {
	router := newTestRouter()

	t.Run("invalid card request", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/cards", models.CreateCardRequest{})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "validation failed")
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewBufferString("{"))
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/cards/missing", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("transaction against unknown card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions", models.CreateTransactionRequest{
			CardIdentifier:  "missing",
			TotalAmount:     10,
			PurchaseAddress: "Calle 93 #11-27, Bogotá",
		})
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
