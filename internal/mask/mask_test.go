package mask_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardops/backoffice/internal/mask"
)

func TestPAN(t *testing.T) {
	require.Equal(t, "453957******1486", mask.PAN("4539578763621486"))
	require.Equal(t, "123456**9012", mask.PAN("123456789012"))

	// length ten keeps 6/4 with nothing left to fill
	require.Equal(t, "1234567890", mask.PAN("1234567890"))

	// too short to split: returned unchanged
	require.Equal(t, "123456789", mask.PAN("123456789"))
	require.Equal(t, "", mask.PAN(""))

	// masking an already-masked value changes nothing
	masked := mask.PAN("4539578763621486")
	require.Equal(t, masked, mask.PAN(masked))
}

func TestIdentifier(t *testing.T) {
	id := "a3f1b2c4d5e6f708091a2b3c4d5e6f70"
	masked := mask.Identifier(id)
	require.Len(t, masked, len(id))
	require.True(t, strings.HasPrefix(masked, "a3f1"))
	require.True(t, strings.HasSuffix(masked, "6f70"))
	require.Equal(t, strings.Repeat("*", len(id)-8), masked[4:len(id)-4])

	require.Equal(t, "12345678", mask.Identifier("12345678"))
	require.Equal(t, "1234567", mask.Identifier("1234567"))
}

func TestFormatterAmount(t *testing.T) {
	f, err := mask.NewFormatter("es-CO", "COP")
	require.NoError(t, err)

	out := f.Amount(1500000)
	require.NotEmpty(t, out)
	require.NotEqual(t, "1500000", out, "amount should carry currency formatting")
}

func TestNewFormatterRejectsBadInput(t *testing.T) {
	_, err := mask.NewFormatter("not a locale", "COP")
	require.Error(t, err)

	_, err = mask.NewFormatter("es-CO", "NOPE")
	require.Error(t, err)
}
