// Package authclient is the HTTP client for the card authority, the external
// system of record owning cards and transactions.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cardops/backoffice/models"
)

type Client struct {
	base string
	http *http.Client
}

// New builds a client for the given base URL. Passing nil uses a default
// http.Client with a 10s timeout.
func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// ListQuery mirrors the authority's pagination parameters. Zero values fall
// back to the first page of ten, newest first.
type ListQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

func (q ListQuery) values() url.Values {
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.SortDir == "" {
		q.SortDir = "desc"
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	v.Set("sortBy", q.SortBy)
	v.Set("sortDir", q.SortDir)
	return v
}

func (c *Client) CreateCard(ctx context.Context, req models.CreateCardRequest) (*models.CreateCardResponse, error) {
	var out models.CreateCardResponse
	if err := c.do(ctx, http.MethodPost, "/cards", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCard(ctx context.Context, identifier string) (*models.CardDetails, error) {
	var out models.CardDetails
	if err := c.do(ctx, http.MethodGet, "/cards/"+url.PathEscape(identifier), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCards(ctx context.Context, q ListQuery) (*models.Page[models.CardDetails], error) {
	var out models.Page[models.CardDetails]
	if err := c.do(ctx, http.MethodGet, "/cards?"+q.values().Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EnrollCard(ctx context.Context, req models.EnrollCardRequest) error {
	return c.do(ctx, http.MethodPut, "/cards/enroll", req, nil)
}

// DeactivateCard transitions the card to INACTIVE. The authority keeps the
// entity; nothing is deleted.
func (c *Client) DeactivateCard(ctx context.Context, identifier string) error {
	return c.do(ctx, http.MethodDelete, "/cards/"+url.PathEscape(identifier), nil, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error) {
	var out models.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTransaction(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	var out models.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(referenceNumber), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTransactions(ctx context.Context, q ListQuery) (*models.Page[models.Transaction], error) {
	var out models.Page[models.Transaction]
	if err := c.do(ctx, http.MethodGet, "/transactions?"+q.values().Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelTransaction(ctx context.Context, req models.CancelTransactionRequest) error {
	return c.do(ctx, http.MethodPut, "/transactions/cancel", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return bucketError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
