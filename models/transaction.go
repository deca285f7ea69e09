package models

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// TransactionStatus is assigned by the authority at creation (APPROVED or
// REJECTED). Only APPROVED may transition to CANCELLED; both CANCELLED and
// REJECTED are terminal.
type TransactionStatus string

const (
	TransactionStatusApproved  TransactionStatus = "APPROVED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusApproved, TransactionStatusCancelled, TransactionStatusRejected:
		return true
	}
	return false
}

// MaxTotalAmount is the upper bound for a single purchase.
const MaxTotalAmount = 999_999_999.99

// Transaction is one purchase attempt against a card. The reference number is
// assigned by the authority; a transaction without one was never confirmed.
type Transaction struct {
	ReferenceNumber string            `json:"referenceNumber"`
	CardIdentifier  string            `json:"cardIdentifier"`
	TotalAmount     float64           `json:"totalAmount"`
	PurchaseAddress string            `json:"purchaseAddress"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Cancel moves an approved transaction to CANCELLED. The transaction is left
// untouched when the transition is illegal.
func (t *Transaction) Cancel() error {
	if t.ReferenceNumber == "" {
		return fmt.Errorf("%w: transaction has no reference number", ErrIllegalTransition)
	}
	if t.Status != TransactionStatusApproved {
		return fmt.Errorf("%w: cannot cancel a %s transaction", ErrIllegalTransition, t.Status)
	}
	t.Status = TransactionStatusCancelled
	return nil
}

type CreateTransactionRequest struct {
	CardIdentifier  string  `json:"cardIdentifier"`
	TotalAmount     float64 `json:"totalAmount"`
	PurchaseAddress string  `json:"purchaseAddress"`
}

func (r CreateTransactionRequest) Validate() error {
	ve := ValidationErrors{}
	if r.CardIdentifier == "" {
		ve.Add("cardIdentifier", "cannot be empty")
	}
	switch {
	case r.TotalAmount <= 0:
		ve.Add("totalAmount", "must be greater than zero")
	case r.TotalAmount > MaxTotalAmount:
		ve.Add("totalAmount", "exceeds the maximum of 999999999.99")
	case !hasAtMostTwoDecimals(r.TotalAmount):
		ve.Add("totalAmount", "must have at most two decimal places")
	}
	if n := utf8.RuneCountInString(r.PurchaseAddress); n < 5 || n > 200 {
		ve.Add("purchaseAddress", "must be 5 to 200 characters")
	}
	return ve.Err()
}

func hasAtMostTwoDecimals(v float64) bool {
	cents := v * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

type CancelTransactionRequest struct {
	ReferenceNumber string `json:"referenceNumber"`
}

func (r CancelTransactionRequest) Validate() error {
	ve := ValidationErrors{}
	if r.ReferenceNumber == "" {
		ve.Add("referenceNumber", "cannot be empty")
	}
	return ve.Err()
}
