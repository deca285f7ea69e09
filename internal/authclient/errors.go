package authclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Authority failures map to one of these buckets by status code. Anything
// unrecognized becomes a StatusError carrying the raw code for diagnostics.
var (
	ErrBadRequest = errors.New("invalid input data")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// StatusError is an authority response outside the known buckets.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected error: status=%d body=%s", e.Code, e.Body)
}

func bucketError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := strings.TrimSpace(string(b))
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}
	return &StatusError{Code: resp.StatusCode, Body: msg}
}
