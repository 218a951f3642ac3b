package pricenorm

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/palette-xyz/goapi/domain"
)

// MaxDecimals is the largest supported token precision
const MaxDecimals = 18

// FromBase converts an integer base-unit amount to display units.
// Exact for decimals in [0, MaxDecimals].
func FromBase(base string, decimals int32) (decimal.Decimal, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return decimal.Zero, domain.ErrBadParamInput
	}
	v, ok := new(big.Int).SetString(base, 10)
	if !ok {
		return decimal.Zero, domain.ErrInvalidNumberFormat
	}
	return decimal.NewFromBigInt(v, -decimals), nil
}

// ToBase converts a display-unit amount back to base units, truncating
// precision beyond decimals.
func ToBase(display decimal.Decimal, decimals int32) (string, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return "", domain.ErrBadParamInput
	}
	return display.Shift(decimals).Truncate(0).BigInt().String(), nil
}

// Display converts the base-unit amount of cur to a display string,
// e.g. "1500" with 2 decimals becomes "15".
func Display(base string, cur *domain.ResolvedCurrency) (string, error) {
	d, err := FromBase(base, cur.Decimals)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// DisplayFloat is the lossy float64 view used for ordering only
func DisplayFloat(base string, decimals int32) (float64, error) {
	d, err := FromBase(base, decimals)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
