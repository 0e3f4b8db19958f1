package channels

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhoneNormalizer(t *testing.T) {
	n := PhoneNormalizer{CountryCode: "82", TrunkPrefix: "0"}

	t.Run("InternationalAndLocalFormsAgree", func(t *testing.T) {
		intl, err := n.Normalize("+821012345678")
		require.NoError(t, err)
		local, err := n.Normalize("010-1234-5678")
		require.NoError(t, err)

		require.Equal(t, "01012345678", intl)
		require.Equal(t, intl, local)
	})

	t.Run("InternationalWithTrunkKeepsSinglePrefix", func(t *testing.T) {
		got, err := n.Normalize("+82 010 1234 5678")
		require.NoError(t, err)
		require.Equal(t, "01012345678", got)
	})

	t.Run("StripsSeparators", func(t *testing.T) {
		got, err := n.Normalize(" (02) 123.4567 ")
		require.NoError(t, err)
		require.Equal(t, "021234567", got)
	})

	t.Run("ForeignCountryCodeKeptAsDigits", func(t *testing.T) {
		got, err := n.Normalize("+1 415 555 0100")
		require.NoError(t, err)
		require.Equal(t, "14155550100", got)
	})

	t.Run("NoDigits", func(t *testing.T) {
		_, err := n.Normalize("---")
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrRecipientDataMissing))
	})
}
