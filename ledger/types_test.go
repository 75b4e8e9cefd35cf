package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/ledger"
)

func TestParseAmount_RoundsToCurrencyPrecision(t *testing.T) {
	a, err := ledger.ParseAmount("12.345")
	require.NoError(t, err)
	assert.Equal(t, "12.35", a.String())
}

func TestParseAmount_EmptyIsZero(t *testing.T) {
	a, err := ledger.ParseAmount("")
	require.NoError(t, err)
	assert.True(t, a.IsZero())
}

func TestParseAmount_MalformedIsAnError(t *testing.T) {
	// A typo must surface as an error, never degrade to zero.
	for _, raw := range []string{"12.3.4", "abc", "10,00"} {
		_, err := ledger.ParseAmount(raw)
		assert.Error(t, err, raw)
	}
}
