// Package cardgen synthesizes candidate PANs for newly issued cards.
package cardgen

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/cardops/backoffice/internal/luhn"
	"github.com/cardops/backoffice/models"
)

const panLen = 16

// Issuer prefixes by card product, mapped to recognizable Visa/MasterCard
// ranges. The tables are fixed; the remaining digits are random.
var prefixes = map[models.CardType][]string{
	models.CardTypeCredit: {"4539", "5168", "5234", "5555"},
	models.CardTypeDebit:  {"4571", "5123", "5245", "5411"},
}

// Generate builds a 16-digit Luhn-valid PAN for the given card type. An
// unrecognized type falls back to the credit prefix table, so the result is
// always well formed.
func Generate(cardType models.CardType) (string, error) {
	set, ok := prefixes[cardType]
	if !ok {
		set = prefixes[models.CardTypeCredit]
	}
	idx, err := randomIndex(len(set))
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	prefix := set[idx]

	body, err := RandomDigits(panLen - 1 - len(prefix))
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}

	candidate := prefix + body
	return candidate + luhn.CheckDigit(candidate), nil
}

// RandomDigits returns count random decimal digits, rejection-sampled from
// crypto/rand to avoid modulo bias.
func RandomDigits(count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	const threshold = 250 // 256 - (256 % 10)
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 64)
	for sb.Len() < count {
		n, err := rand.Read(buf)
		if err != nil {
			return "", err
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			b := buf[i]
			if b < threshold {
				sb.WriteByte('0' + (b % 10))
			}
		}
	}
	return sb.String(), nil
}

func randomIndex(n int) (int, error) {
	if n <= 1 {
		return 0, nil
	}
	threshold := byte(256 - 256%n)
	buf := make([]byte, 1)
	for {
		if _, err := rand.Read(buf); err != nil {
			return 0, err
		}
		if threshold == 0 || buf[0] < threshold {
			return int(buf[0]) % n, nil
		}
	}
}

// ValidatePAN checks length, digits and the Luhn check digit.
func ValidatePAN(pan string) error {
	if pan == "" {
		return fmt.Errorf("pan is required")
	}
	if !IsDigits(pan) {
		return fmt.Errorf("pan must contain digits only")
	}
	if len(pan) != panLen {
		return fmt.Errorf("pan length must be %d digits (got %d)", panLen, len(pan))
	}
	if !luhn.Valid(pan) {
		return fmt.Errorf("invalid luhn check digit")
	}
	return nil
}

func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// PrefixesFor exposes the prefix table for a card type; unrecognized types
// map to the credit table, mirroring Generate.
func PrefixesFor(cardType models.CardType) []string {
	set, ok := prefixes[cardType]
	if !ok {
		set = prefixes[models.CardTypeCredit]
	}
	out := make([]string, len(set))
	copy(out, set)
	return out
}
