package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cardops/backoffice/internal/luhn"
)

// ErrIllegalTransition marks a status transition that the lifecycle rules forbid.
// Callers can map it to an HTTP conflict.
var ErrIllegalTransition = errors.New("illegal status transition")

type CardType string

const (
	CardTypeCredit CardType = "CREDIT"
	CardTypeDebit  CardType = "DEBIT"
)

func (t CardType) Valid() bool {
	switch t {
	case CardTypeCredit, CardTypeDebit:
		return true
	}
	return false
}

// CardStatus moves forward only: CREATED -> ENROLLED -> INACTIVE. Cards are
// never deleted, only deactivated.
type CardStatus string

const (
	CardStatusCreated  CardStatus = "CREATED"
	CardStatusEnrolled CardStatus = "ENROLLED"
	CardStatusInactive CardStatus = "INACTIVE"
)

func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusCreated, CardStatusEnrolled, CardStatusInactive:
		return true
	}
	return false
}

// Card is the issued payment card as the authority owns it. PAN and
// ValidationNumber are present only on the authority side; every outward
// representation carries the masked PAN instead.
type Card struct {
	Identifier       string     `json:"identifier"`
	PAN              string     `json:"pan,omitempty"`
	MaskedPan        string     `json:"maskedPan,omitempty"`
	HolderName       string     `json:"holderName"`
	DocumentNumber   string     `json:"documentNumber"`
	PhoneNumber      string     `json:"phoneNumber,omitempty"`
	CardType         CardType   `json:"cardType"`
	Status           CardStatus `json:"status"`
	ValidationNumber string     `json:"validationNumber,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Enroll activates a freshly created card. Only CREATED cards may enroll;
// the card is left untouched when the transition is illegal.
func (c *Card) Enroll() error {
	if c.Status != CardStatusCreated {
		return fmt.Errorf("%w: cannot enroll a %s card", ErrIllegalTransition, c.Status)
	}
	c.Status = CardStatusEnrolled
	return nil
}

// Deactivate retires an enrolled card. INACTIVE is terminal and reachable
// only from ENROLLED.
func (c *Card) Deactivate() error {
	if c.Status != CardStatusEnrolled {
		return fmt.Errorf("%w: cannot deactivate a %s card", ErrIllegalTransition, c.Status)
	}
	c.Status = CardStatusInactive
	return nil
}

// Eligible reports whether transactions may be originated against the card.
func (c *Card) Eligible() bool {
	return c.Status == CardStatusEnrolled
}

// CardDetails is the read model the authority returns for a card. The full
// PAN never leaves the authority.
type CardDetails struct {
	Identifier     string     `json:"identifier"`
	MaskedPan      string     `json:"maskedPan"`
	HolderName     string     `json:"holderName"`
	DocumentNumber string     `json:"documentNumber"`
	CardType       CardType   `json:"cardType"`
	PhoneNumber    string     `json:"phoneNumber,omitempty"`
	Status         CardStatus `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
}

var (
	holderNameRe = regexp.MustCompile(`^[a-zA-ZáéíóúüñÁÉÍÓÚÜÑ\s]+$`)
	documentRe   = regexp.MustCompile(`^[0-9]{10,15}$`)
	phoneRe      = regexp.MustCompile(`^[0-9]{10}$`)
)

type CreateCardRequest struct {
	PAN            string   `json:"pan"`
	HolderName     string   `json:"holderName"`
	DocumentNumber string   `json:"documentNumber"`
	PhoneNumber    string   `json:"phoneNumber,omitempty"`
	CardType       CardType `json:"cardType"`
}

func (r CreateCardRequest) Validate() error {
	ve := ValidationErrors{}
	if len(r.PAN) != 16 || !luhn.Valid(r.PAN) {
		ve.Add("pan", "must be a 16-digit number with a valid check digit")
	}
	name := strings.TrimSpace(r.HolderName)
	switch {
	case name == "":
		ve.Add("holderName", "cannot be empty")
	case len(name) < 2 || len(name) > 100:
		ve.Add("holderName", "must be 2 to 100 characters")
	case !holderNameRe.MatchString(name):
		ve.Add("holderName", "only letters and spaces are allowed")
	}
	if !documentRe.MatchString(r.DocumentNumber) {
		ve.Add("documentNumber", "must be 10 to 15 digits")
	}
	if r.PhoneNumber != "" && !phoneRe.MatchString(r.PhoneNumber) {
		ve.Add("phoneNumber", "must be exactly 10 digits")
	}
	if !r.CardType.Valid() {
		ve.Add("cardType", "must be CREDIT or DEBIT")
	}
	return ve.Err()
}

// CreateCardResponse carries the authority-assigned identifier and the
// one-time validation number the operator needs for enrollment.
type CreateCardResponse struct {
	Identifier       string `json:"identifier"`
	MaskedPan        string `json:"maskedPan"`
	ValidationNumber string `json:"validationNumber"`
}

type EnrollCardRequest struct {
	Identifier       string `json:"identifier"`
	ValidationNumber string `json:"validationNumber"`
}

var validationNumberRe = regexp.MustCompile(`^[0-9]{3}$`)

func (r EnrollCardRequest) Validate() error {
	ve := ValidationErrors{}
	if r.Identifier == "" {
		ve.Add("identifier", "cannot be empty")
	}
	if !validationNumberRe.MatchString(r.ValidationNumber) {
		ve.Add("validationNumber", "must be exactly 3 digits")
	}
	return ve.Err()
}
