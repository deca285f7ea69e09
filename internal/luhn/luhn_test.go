package luhn_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardops/backoffice/internal/luhn"
)

func TestValid(t *testing.T) {
	valid := []string{
		"79927398713", // classic vector
		"4539578763621486",
		"0",
		"18",
	}
	for _, s := range valid {
		require.True(t, luhn.Valid(s), "expected %s to be valid", s)
	}

	invalid := []string{
		"",
		"79927398710",
		"79927398711",
		"1",
		"4539578763621487",
		"453957876362148a",
		"4539 5787 6362 1486",
	}
	for _, s := range invalid {
		require.False(t, luhn.Valid(s), "expected %s to be invalid", s)
	}
}

func TestCheckDigit(t *testing.T) {
	require.Equal(t, "3", luhn.CheckDigit("7992739871"))

	// a single digit flip must break the checksum
	body := "7992739871"
	cd := luhn.CheckDigit(body)
	require.True(t, luhn.Valid(body+cd))
	for i := 0; i < len(body); i++ {
		flipped := []byte(body)
		flipped[i] = '0' + (flipped[i]-'0'+1)%10
		require.False(t, luhn.Valid(string(flipped)+cd), "flip at %d went undetected", i)
	}
}

func TestCheckDigitRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		body := ""
		for j := 0; j < 15; j++ {
			body += fmt.Sprintf("%d", rnd.Intn(10))
		}
		require.True(t, luhn.Valid(body+luhn.CheckDigit(body)))
	}
}
