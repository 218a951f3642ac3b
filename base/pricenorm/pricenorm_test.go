package pricenorm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palette-xyz/goapi/domain"
)

func TestFromBase(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		decimals int32
		want     string
	}{
		{"two decimals", "1500", 2, "15"},
		{"zero decimals", "42", 0, "42"},
		{"eighteen decimals", "1000000000000000000", 18, "1"},
		{"sub unit", "1", 18, "0.000000000000000001"},
		{"odd amount", "1234567890123456789", 18, "1.234567890123456789"},
		{"zero", "0", 6, "0"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, err := FromBase(c.base, c.decimals)
			require.NoError(t, err)
			assert.Equal(t, c.want, d.String())
		})
	}
}

func TestFromBaseInvalid(t *testing.T) {
	_, err := FromBase("not-a-number", 18)
	assert.ErrorIs(t, err, domain.ErrInvalidNumberFormat)

	_, err = FromBase("1.5", 18)
	assert.ErrorIs(t, err, domain.ErrInvalidNumberFormat)

	_, err = FromBase("100", 19)
	assert.ErrorIs(t, err, domain.ErrBadParamInput)

	_, err = FromBase("100", -1)
	assert.ErrorIs(t, err, domain.ErrBadParamInput)
}

func TestRoundTrip(t *testing.T) {
	bases := []string{"0", "1", "999", "1000000000000000000", "123456789012345678901234567890"}
	for _, base := range bases {
		for decimals := int32(0); decimals <= MaxDecimals; decimals++ {
			d, err := FromBase(base, decimals)
			require.NoError(t, err)
			back, err := ToBase(d, decimals)
			require.NoError(t, err)
			assert.Equal(t, base, back, "base %s decimals %d", base, decimals)
		}
	}
}

func TestToBaseTruncates(t *testing.T) {
	d := decimal.RequireFromString("1.2345")
	base, err := ToBase(d, 2)
	require.NoError(t, err)
	assert.Equal(t, "123", base)
}

func TestDisplay(t *testing.T) {
	cur := &domain.ResolvedCurrency{Kind: domain.CurrencyKindNative, Symbol: "ETH", Decimals: 18}
	got, err := Display("1500000000000000000", cur)
	require.NoError(t, err)
	assert.Equal(t, "1.5", got)
}
