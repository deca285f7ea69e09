package backoffice

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/models"
)

// TransactionWorkflow originates and cancels purchases. The authority owns
// the outcome; the workflow only pre-validates and projects confirmed
// responses onto the cached copies.
type TransactionWorkflow struct {
	api    TransactionAPI
	logger *slog.Logger
	guard  pendingGuard
}

func NewTransactionWorkflow(api TransactionAPI, logger *slog.Logger) *TransactionWorkflow {
	return &TransactionWorkflow{api: api, logger: logger}
}

// Create validates the request and submits it against the given card. A card
// whose cached status is not ENROLLED is rejected before submission. The
// returned status (APPROVED or REJECTED) comes from the authority.
func (w *TransactionWorkflow) Create(ctx context.Context, card *models.CardDetails, req models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := w.guard.begin(); err != nil {
		return nil, err
	}
	defer w.guard.end()

	req.CardIdentifier = card.Identifier
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if card.Status != models.CardStatusEnrolled {
		return nil, fmt.Errorf("%w: card is %s", ErrCardNotEligible, card.Status)
	}

	tx, err := w.api.CreateTransaction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	w.logger.Info("transaction created",
		slog.String("referenceNumber", tx.ReferenceNumber),
		slog.String("status", string(tx.Status)),
	)
	return tx, nil
}

// Cancel voids an approved transaction. Requires the confirmation bit and a
// reference number; on success the cached copy moves to CANCELLED until the
// next fetch.
func (w *TransactionWorkflow) Cancel(ctx context.Context, tx *models.Transaction, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := w.guard.begin(); err != nil {
		return err
	}
	defer w.guard.end()

	probe := *tx
	if err := probe.Cancel(); err != nil {
		return err
	}

	req := models.CancelTransactionRequest{ReferenceNumber: tx.ReferenceNumber}
	if err := w.api.CancelTransaction(ctx, req); err != nil {
		return fmt.Errorf("cancelling transaction: %w", err)
	}

	tx.Status = models.TransactionStatusCancelled
	w.logger.Info("transaction cancelled", slog.String("referenceNumber", tx.ReferenceNumber))
	return nil
}

// Find fetches a transaction by reference number straight from the
// authority, so age or listing position never hides it.
func (w *TransactionWorkflow) Find(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	tx, err := w.api.GetTransaction(ctx, referenceNumber)
	if err != nil {
		return nil, fmt.Errorf("finding transaction %s: %w", referenceNumber, err)
	}
	return tx, nil
}

func (w *TransactionWorkflow) List(ctx context.Context, q authclient.ListQuery) (*models.Page[models.Transaction], error) {
	return w.api.ListTransactions(ctx, q)
}
