// Package luhn implements the modulo-10 checksum used by payment card numbers.
package luhn

// CheckDigit computes the digit that, appended to body, makes the whole
// string pass Valid. body must be a non-empty numeric string; the digit
// immediately left of the appended position is doubled first.
func CheckDigit(body string) string {
	sum, dbl := 0, true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if dbl {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		dbl = !dbl
	}
	cd := (10 - sum%10) % 10
	return string('0' + byte(cd))
}

// Valid reports whether s, including its trailing check digit, satisfies the
// Luhn checksum. Non-digit input is never valid.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	sum, dbl := 0, false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if dbl {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		dbl = !dbl
	}
	return sum%10 == 0
}
