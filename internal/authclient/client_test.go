package authclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/models"
)

func TestClientCreateCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/cards", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.CreateCardRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Ana", req.HolderName)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.CreateCardResponse{Identifier: "id-1", ValidationNumber: "123"})
	}))
	defer srv.Close()

	c := authclient.New(srv.URL, nil)
	resp, err := c.CreateCard(context.Background(), models.CreateCardRequest{HolderName: "Ana"})
	require.NoError(t, err)
	require.Equal(t, "id-1", resp.Identifier)
	require.Equal(t, "123", resp.ValidationNumber)
}

func TestClientListQueryDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "0", q.Get("page"))
		require.Equal(t, "10", q.Get("size"))
		require.Equal(t, "createdAt", q.Get("sortBy"))
		require.Equal(t, "desc", q.Get("sortDir"))

		json.NewEncoder(w).Encode(models.Page[models.CardDetails]{})
	}))
	defer srv.Close()

	c := authclient.New(srv.URL, nil)
	_, err := c.ListCards(context.Background(), authclient.ListQuery{})
	require.NoError(t, err)
}

func TestClientDeactivateCardEscapesIdentifier(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := authclient.New(srv.URL, nil)
	require.NoError(t, c.DeactivateCard(context.Background(), "id/with spaces"))
	require.Equal(t, "/cards/id%2Fwith%20spaces", gotPath)
}

func TestClientErrorBuckets(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, authclient.ErrBadRequest},
		{http.StatusNotFound, authclient.ErrNotFound},
		{http.StatusConflict, authclient.ErrConflict},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))

		c := authclient.New(srv.URL, nil)
		_, err := c.GetCard(context.Background(), "id-1")
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
		require.Contains(t, err.Error(), "nope")

		srv.Close()
	}
}

func TestClientUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusTeapot)
	}))
	defer srv.Close()

	c := authclient.New(srv.URL, nil)
	_, err := c.GetCard(context.Background(), "id-1")

	var se *authclient.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusTeapot, se.Code)
	require.Equal(t, "boom", se.Body)
}

func TestClientEnrollCardNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/cards/enroll", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := authclient.New(srv.URL, nil)
	err := c.EnrollCard(context.Background(), models.EnrollCardRequest{Identifier: "id-1", ValidationNumber: "123"})
	require.NoError(t, err)
}
