package authority

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"

	"github.com/cardops/backoffice/internal/cardgen"
	"github.com/cardops/backoffice/models"
)

var (
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("conflict")
)

// Repository stores cards, transactions and the audit trail. It runs either
// fully in memory (tests, default dev mode) or against postgres. The database
// never sees a raw PAN, only its HMAC and the masked form.
type Repository struct {
	mu           sync.RWMutex
	cards        []*models.Card
	transactions []*models.Transaction
	audit        []*AuditEntry
	panIndex     map[string]struct{}

	db      *sql.DB
	hashKey []byte
}

func NewRepository() *Repository {
	return &Repository{
		cards:        make([]*models.Card, 0),
		transactions: make([]*models.Transaction, 0),
		audit:        make([]*AuditEntry, 0),
		panIndex:     make(map[string]struct{}),
	}
}

// NewPGRepository constructs a db-backed repository. hashKey is the pepper
// for PAN hashing.
func NewPGRepository(db *sql.DB, hashKey []byte) *Repository {
	return &Repository{db: db, hashKey: hashKey}
}

func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.panIndex[card.PAN]; ok {
			return fmt.Errorf("card with this PAN already exists: %w", ErrConflict)
		}
		for _, c := range r.cards {
			if c.Identifier == card.Identifier {
				return fmt.Errorf("card already exists: %w", ErrConflict)
			}
		}
		r.cards = append(r.cards, card)
		r.panIndex[card.PAN] = struct{}{}
		return nil
	}

	hash := cardgen.HashPANHMAC(card.PAN, r.hashKey)
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO authority.cards(identifier, pan_hash, masked_pan, holder_name, document_number, phone_number, card_type, status, validation_number, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, card.Identifier, hash, card.MaskedPan, card.HolderName, card.DocumentNumber, card.PhoneNumber,
		string(card.CardType), string(card.Status), card.ValidationNumber, card.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("card with this PAN already exists: %w", ErrConflict)
	}
	return err
}

func (r *Repository) GetCard(ctx context.Context, identifier string) (*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, c := range r.cards {
			if c.Identifier == identifier {
				copied := *c
				return &copied, nil
			}
		}
		return nil, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
        SELECT identifier, masked_pan, holder_name, document_number, phone_number, card_type, status, validation_number, created_at
          FROM authority.cards WHERE identifier=$1
    `, identifier)
	return scanCard(row)
}

func (r *Repository) ListCards(ctx context.Context) ([]*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		out := make([]*models.Card, 0, len(r.cards))
		for _, c := range r.cards {
			copied := *c
			out = append(out, &copied)
		}
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT identifier, masked_pan, holder_name, document_number, phone_number, card_type, status, validation_number, created_at
          FROM authority.cards ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCardStatus(ctx context.Context, identifier string, status models.CardStatus) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, c := range r.cards {
			if c.Identifier == identifier {
				c.Status = status
				return nil
			}
		}
		return ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `UPDATE authority.cards SET status=$2 WHERE identifier=$1`, identifier, string(status))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.transactions = append(r.transactions, tx)
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO authority.transactions(reference_number, card_identifier, total_amount, purchase_address, status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, tx.ReferenceNumber, tx.CardIdentifier, tx.TotalAmount, tx.PurchaseAddress, string(tx.Status), tx.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction already exists: %w", ErrConflict)
	}
	return err
}

func (r *Repository) GetTransaction(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, t := range r.transactions {
			if t.ReferenceNumber == referenceNumber {
				copied := *t
				return &copied, nil
			}
		}
		return nil, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
        SELECT reference_number, card_identifier, total_amount, purchase_address, status, created_at
          FROM authority.transactions WHERE reference_number=$1
    `, referenceNumber)
	return scanTransaction(row)
}

func (r *Repository) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		out := make([]*models.Transaction, 0, len(r.transactions))
		for _, t := range r.transactions {
			copied := *t
			out = append(out, &copied)
		}
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT reference_number, card_identifier, total_amount, purchase_address, status, created_at
          FROM authority.transactions ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTransactionStatus(ctx context.Context, referenceNumber string, status models.TransactionStatus) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, t := range r.transactions {
			if t.ReferenceNumber == referenceNumber {
				t.Status = status
				return nil
			}
		}
		return ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `UPDATE authority.transactions SET status=$2 WHERE reference_number=$1`, referenceNumber, string(status))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.audit = append(r.audit, entry)
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO authority.audit_log(id, action, entity, entity_id, detail, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, entry.ID, entry.Action, entry.Entity, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (r *Repository) ListAudit(ctx context.Context) ([]*AuditEntry, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		out := make([]*AuditEntry, 0, len(r.audit))
		for _, e := range r.audit {
			copied := *e
			out = append(out, &copied)
		}
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, action, entity, entity_id, detail, created_at
          FROM authority.audit_log ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Ping reports storage readiness.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*models.Card, error) {
	var c models.Card
	var cardType, status string
	err := row.Scan(&c.Identifier, &c.MaskedPan, &c.HolderName, &c.DocumentNumber, &c.PhoneNumber,
		&cardType, &status, &c.ValidationNumber, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.CardType = models.CardType(cardType)
	c.Status = models.CardStatus(status)
	return &c, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var status string
	err := row.Scan(&t.ReferenceNumber, &t.CardIdentifier, &t.TotalAmount, &t.PurchaseAddress, &status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Status = models.TransactionStatus(status)
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
