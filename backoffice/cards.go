package backoffice

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/internal/cardgen"
	"github.com/cardops/backoffice/models"
)

// CardWorkflow drives the card lifecycle from the operator's side: create,
// enroll, deactivate. Transition guards here are pre-flight checks on the
// cached status; the authority re-validates every transition.
type CardWorkflow struct {
	api    CardAPI
	logger *slog.Logger
	guard  pendingGuard
}

func NewCardWorkflow(api CardAPI, logger *slog.Logger) *CardWorkflow {
	return &CardWorkflow{api: api, logger: logger}
}

// Create synthesizes a PAN for the requested card type when the request does
// not carry one, validates the request and submits it to the authority.
func (w *CardWorkflow) Create(ctx context.Context, req models.CreateCardRequest) (*models.CreateCardResponse, error) {
	if err := w.guard.begin(); err != nil {
		return nil, err
	}
	defer w.guard.end()

	if req.PAN == "" {
		pan, err := cardgen.Generate(req.CardType)
		if err != nil {
			return nil, fmt.Errorf("generating pan: %w", err)
		}
		req.PAN = pan
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := w.api.CreateCard(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating card: %w", err)
	}

	w.logger.Info("card created",
		slog.String("identifier", resp.Identifier),
		slog.String("maskedPan", resp.MaskedPan),
	)
	return resp, nil
}

// Enroll activates the card with the operator-supplied validation number.
// The cached status must be CREATED; on success it is optimistically set to
// ENROLLED until the next fetch.
func (w *CardWorkflow) Enroll(ctx context.Context, card *models.CardDetails, validationNumber string) error {
	if err := w.guard.begin(); err != nil {
		return err
	}
	defer w.guard.end()

	req := models.EnrollCardRequest{Identifier: card.Identifier, ValidationNumber: validationNumber}
	if err := req.Validate(); err != nil {
		return err
	}
	probe := models.Card{Status: card.Status}
	if err := probe.Enroll(); err != nil {
		return err
	}

	if err := w.api.EnrollCard(ctx, req); err != nil {
		return fmt.Errorf("enrolling card: %w", err)
	}

	card.Status = models.CardStatusEnrolled
	w.logger.Info("card enrolled", slog.String("identifier", card.Identifier))
	return nil
}

// Deactivate retires an enrolled card. The confirmation bit is part of the
// contract, not a UI courtesy; without it the call never reaches the
// authority.
func (w *CardWorkflow) Deactivate(ctx context.Context, card *models.CardDetails, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := w.guard.begin(); err != nil {
		return err
	}
	defer w.guard.end()

	probe := models.Card{Status: card.Status}
	if err := probe.Deactivate(); err != nil {
		return err
	}

	if err := w.api.DeactivateCard(ctx, card.Identifier); err != nil {
		return fmt.Errorf("deactivating card: %w", err)
	}

	card.Status = models.CardStatusInactive
	w.logger.Info("card deactivated", slog.String("identifier", card.Identifier))
	return nil
}

func (w *CardWorkflow) Get(ctx context.Context, identifier string) (*models.CardDetails, error) {
	return w.api.GetCard(ctx, identifier)
}

func (w *CardWorkflow) List(ctx context.Context, q authclient.ListQuery) (*models.Page[models.CardDetails], error) {
	return w.api.ListCards(ctx, q)
}
