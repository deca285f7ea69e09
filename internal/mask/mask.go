// Package mask redacts sensitive identifiers for display and formats
// monetary amounts as localized currency text.
package mask

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PAN keeps the first six and last four characters and fills the middle with
// asterisks. Values shorter than ten characters have nothing to mask and are
// returned unchanged.
func PAN(v string) string {
	if len(v) < 10 {
		return v
	}
	return v[:6] + strings.Repeat("*", len(v)-10) + v[len(v)-4:]
}

// Identifier applies the shorter 4/4 retention split used for card
// identifiers on the transaction side. Values shorter than eight characters
// are returned unchanged.
func Identifier(v string) string {
	if len(v) < 8 {
		return v
	}
	return v[:4] + strings.Repeat("*", len(v)-8) + v[len(v)-4:]
}

// Formatter renders amounts for one configured locale and currency. Locale
// and currency are configuration, not policy; see the backoffice config.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	return &Formatter{printer: message.NewPrinter(tag), unit: unit}, nil
}

// Amount formats v with the locale's digit grouping and the currency symbol.
func (f *Formatter) Amount(v float64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(v)))
}
