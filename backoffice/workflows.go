package backoffice

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/models"
)

// ErrBusy is returned when a workflow already has a request in flight. The
// caller must wait for the pending one to resolve; nothing is queued.
var ErrBusy = errors.New("another request is still in flight")

// ErrConfirmationRequired is returned when a destructive operation is
// attempted without the explicit confirmation bit.
var ErrConfirmationRequired = errors.New("confirmation required")

// ErrCardNotEligible marks a transaction attempt against a card whose cached
// status is not ENROLLED; the request is rejected before submission.
var ErrCardNotEligible = errors.New("card is not enrolled")

// CardAPI is the slice of the authority surface the card workflow consumes.
// The concrete implementation is authclient.Client; tests pass fakes.
type CardAPI interface {
	CreateCard(ctx context.Context, req models.CreateCardRequest) (*models.CreateCardResponse, error)
	GetCard(ctx context.Context, identifier string) (*models.CardDetails, error)
	ListCards(ctx context.Context, q authclient.ListQuery) (*models.Page[models.CardDetails], error)
	EnrollCard(ctx context.Context, req models.EnrollCardRequest) error
	DeactivateCard(ctx context.Context, identifier string) error
}

// TransactionAPI is the slice of the authority surface the transaction
// workflow consumes.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error)
	GetTransaction(ctx context.Context, referenceNumber string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, q authclient.ListQuery) (*models.Page[models.Transaction], error)
	CancelTransaction(ctx context.Context, req models.CancelTransactionRequest) error
}

// pendingGuard disables duplicate submission while a round trip is
// outstanding. It is always released, on success and failure alike.
type pendingGuard struct {
	pending atomic.Bool
}

func (g *pendingGuard) begin() error {
	if !g.pending.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (g *pendingGuard) end() {
	g.pending.Store(false)
}
