package authority

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/internal/cardgen"
	"github.com/cardops/backoffice/internal/mask"
	"github.com/cardops/backoffice/models"
)

// ErrValidationMismatch is returned when the supplied validation number does
// not match the one assigned at creation.
var ErrValidationMismatch = errors.New("invalid validation number")

// ErrCardNotEligible is returned when a transaction targets a card that is
// not enrolled.
var ErrCardNotEligible = errors.New("card must be enrolled")

// ErrCancelWindowExpired is returned when an approved transaction is too old
// to cancel.
var ErrCancelWindowExpired = errors.New("transaction can no longer be cancelled")

// Service owns the card and transaction lifecycles on the authority side.
type Service struct {
	repo   *Repository
	cfg    *Config
	logger *slog.Logger
}

func NewService(repo *Repository, cfg *Config, logger *slog.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

// CreateCard validates the request, derives the opaque identifier from the
// PAN and document number, assigns a one-time validation number and stores
// the card as CREATED.
func (s *Service) CreateCard(ctx context.Context, req models.CreateCardRequest) (*models.CreateCardResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := cardgen.ValidatePAN(req.PAN); err != nil {
		ve := models.ValidationErrors{}
		ve.Add("pan", err.Error())
		return nil, ve
	}

	validationNumber, err := cardgen.RandomDigits(3)
	if err != nil {
		return nil, fmt.Errorf("generating validation number: %w", err)
	}

	card := &models.Card{
		Identifier:       cardIdentifier(req.PAN, req.DocumentNumber),
		PAN:              req.PAN,
		MaskedPan:        mask.PAN(req.PAN),
		HolderName:       strings.TrimSpace(req.HolderName),
		DocumentNumber:   req.DocumentNumber,
		PhoneNumber:      req.PhoneNumber,
		CardType:         req.CardType,
		Status:           models.CardStatusCreated,
		ValidationNumber: validationNumber,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("creating card: %w", err)
	}

	s.audit(ctx, "CREATE", "Card", card.Identifier, "card created with PAN "+card.MaskedPan)
	s.logger.Info("card created", slog.String("identifier", card.Identifier))

	return &models.CreateCardResponse{
		Identifier:       card.Identifier,
		MaskedPan:        card.MaskedPan,
		ValidationNumber: card.ValidationNumber,
	}, nil
}

// EnrollCard activates a CREATED card when the supplied validation number
// matches the one assigned at creation.
func (s *Service) EnrollCard(ctx context.Context, req models.EnrollCardRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	card, err := s.repo.GetCard(ctx, req.Identifier)
	if err != nil {
		return fmt.Errorf("finding card: %w", err)
	}
	if err := card.Enroll(); err != nil {
		return err
	}
	if req.ValidationNumber != card.ValidationNumber {
		return ErrValidationMismatch
	}

	if err := s.repo.UpdateCardStatus(ctx, card.Identifier, models.CardStatusEnrolled); err != nil {
		return fmt.Errorf("enrolling card: %w", err)
	}

	s.audit(ctx, "ENROLL", "Card", card.Identifier, "card enrolled")
	s.logger.Info("card enrolled", slog.String("identifier", card.Identifier))
	return nil
}

// DeactivateCard retires an ENROLLED card. The entity stays; only the status
// changes.
func (s *Service) DeactivateCard(ctx context.Context, identifier string) error {
	card, err := s.repo.GetCard(ctx, identifier)
	if err != nil {
		return fmt.Errorf("finding card: %w", err)
	}
	if err := card.Deactivate(); err != nil {
		return err
	}

	if err := s.repo.UpdateCardStatus(ctx, card.Identifier, models.CardStatusInactive); err != nil {
		return fmt.Errorf("deactivating card: %w", err)
	}

	s.audit(ctx, "DEACTIVATE", "Card", card.Identifier, "card deactivated")
	s.logger.Info("card deactivated", slog.String("identifier", card.Identifier))
	return nil
}

func (s *Service) GetCardDetails(ctx context.Context, identifier string) (*models.CardDetails, error) {
	card, err := s.repo.GetCard(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("finding card: %w", err)
	}
	details := cardDetails(card)
	return &details, nil
}

// ListCards returns one page of card details, sorted by the requested field.
func (s *Service) ListCards(ctx context.Context, page, size int, sortBy, sortDir string) (*models.Page[models.CardDetails], error) {
	cards, err := s.repo.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}

	details := make([]models.CardDetails, 0, len(cards))
	for _, c := range cards {
		details = append(details, cardDetails(c))
	}
	sortCards(details, sortBy, sortDir)
	result := models.NewPage(details, page, size)
	return &result, nil
}

// CreateTransaction originates a purchase against an enrolled card. The
// authority assigns the reference number and the APPROVED outcome.
func (s *Service) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	card, err := s.repo.GetCard(ctx, req.CardIdentifier)
	if err != nil {
		return nil, fmt.Errorf("finding card: %w", err)
	}
	if !card.Eligible() {
		return nil, fmt.Errorf("%w: card is %s", ErrCardNotEligible, card.Status)
	}

	suffix, err := cardgen.RandomDigits(5)
	if err != nil {
		return nil, fmt.Errorf("generating reference number: %w", err)
	}
	tx := &models.Transaction{
		ReferenceNumber: fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), suffix),
		CardIdentifier:  card.Identifier,
		TotalAmount:     req.TotalAmount,
		PurchaseAddress: req.PurchaseAddress,
		Status:          models.TransactionStatusApproved,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	s.audit(ctx, "CREATE", "Transaction", tx.ReferenceNumber,
		fmt.Sprintf("transaction created for card %s with amount %.2f", mask.Identifier(card.Identifier), tx.TotalAmount))
	s.logger.Info("transaction created", slog.String("referenceNumber", tx.ReferenceNumber))
	return tx, nil
}

func (s *Service) GetTransaction(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, referenceNumber)
	if err != nil {
		return nil, fmt.Errorf("finding transaction: %w", err)
	}
	return tx, nil
}

// CancelTransaction cancels an APPROVED transaction within the configured
// window after creation.
func (s *Service) CancelTransaction(ctx context.Context, req models.CancelTransactionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	tx, err := s.repo.GetTransaction(ctx, req.ReferenceNumber)
	if err != nil {
		return fmt.Errorf("finding transaction: %w", err)
	}
	if err := tx.Cancel(); err != nil {
		return err
	}
	if time.Since(tx.CreatedAt) > s.cfg.CancelWindow {
		return fmt.Errorf("%w: window of %s expired", ErrCancelWindowExpired, s.cfg.CancelWindow)
	}

	if err := s.repo.UpdateTransactionStatus(ctx, tx.ReferenceNumber, models.TransactionStatusCancelled); err != nil {
		return fmt.Errorf("cancelling transaction: %w", err)
	}

	s.audit(ctx, "CANCEL", "Transaction", tx.ReferenceNumber, "transaction cancelled")
	s.logger.Info("transaction cancelled", slog.String("referenceNumber", tx.ReferenceNumber))
	return nil
}

// ListTransactions returns one page of transactions, sorted by the requested
// field.
func (s *Service) ListTransactions(ctx context.Context, page, size int, sortBy, sortDir string) (*models.Page[models.Transaction], error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	records := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		records = append(records, *t)
	}
	sortTransactions(records, sortBy, sortDir)
	result := models.NewPage(records, page, size)
	return &result, nil
}

func (s *Service) ListAudit(ctx context.Context) ([]*AuditEntry, error) {
	return s.repo.ListAudit(ctx)
}

func (s *Service) audit(ctx context.Context, action, entity, entityID, detail string) {
	entry := &AuditEntry{
		ID:        uuid.New().String(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		// the primary operation already succeeded; losing an audit row is
		// logged, not fatal
		s.logger.Error("appending audit entry", "err", err)
	}
}

// cardIdentifier derives the opaque identifier from the PAN and document
// number: the first 32 hex characters of their SHA-256.
func cardIdentifier(pan, documentNumber string) string {
	sum := sha256.Sum256([]byte(pan + documentNumber))
	return hex.EncodeToString(sum[:])[:32]
}

func cardDetails(c *models.Card) models.CardDetails {
	masked := c.MaskedPan
	if masked == "" {
		masked = mask.PAN(c.PAN)
	}
	return models.CardDetails{
		Identifier:     c.Identifier,
		MaskedPan:      masked,
		HolderName:     c.HolderName,
		DocumentNumber: c.DocumentNumber,
		CardType:       c.CardType,
		PhoneNumber:    c.PhoneNumber,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
	}
}

func sortCards(items []models.CardDetails, sortBy, sortDir string) {
	desc := strings.EqualFold(sortDir, "desc") || sortDir == ""
	less := func(a, b models.CardDetails) bool {
		switch sortBy {
		case "holderName":
			return a.HolderName < b.HolderName
		case "status":
			return a.Status < b.Status
		default: // createdAt
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func sortTransactions(items []models.Transaction, sortBy, sortDir string) {
	desc := strings.EqualFold(sortDir, "desc") || sortDir == ""
	less := func(a, b models.Transaction) bool {
		switch sortBy {
		case "totalAmount":
			return a.TotalAmount < b.TotalAmount
		case "status":
			return a.Status < b.Status
		default: // createdAt
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
