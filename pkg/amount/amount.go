package amount

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places of a whole coin.
const Precision = 8

var (
	// BigOne represents a single unit of a coin with precision 8.
	BigOne = uint64(math.Pow10(Precision))
	// BigOneDecimal represents a single unit of a coin with precision 8 as
	// decimal.Decimal.
	BigOneDecimal = decimal.NewFromInt(int64(BigOne))

	ErrInvalidAmount = fmt.Errorf("amount must be a non negative number")
	ErrTooPrecise    = fmt.Errorf("amount must have at most %d decimals", Precision)
	ErrTooBig        = fmt.Errorf("amount overflows 64 bits")
)

// ToDecimal converts an amount in smallest units to whole coins.
func ToDecimal(sats uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(sats), -Precision)
}

// Format returns the whole coin representation of the given amount in
// smallest units, ie. 150000000 -> "1.50000000".
func Format(sats uint64) string {
	return ToDecimal(sats).StringFixed(Precision)
}

// Parse is the inverse of Format. It accepts any number of decimals up to
// Precision.
func Parse(str string) (uint64, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if d.Exponent() < -Precision && !d.Equal(d.Truncate(Precision)) {
		return 0, ErrTooPrecise
	}

	sats := d.Mul(BigOneDecimal).BigInt()
	if !sats.IsUint64() {
		return 0, ErrTooBig
	}
	return sats.Uint64(), nil
}

// Sub returns x - y, or an error if y > x.
func Sub(x, y uint64) (uint64, error) {
	if y > x {
		return 0, fmt.Errorf("cannot subtract %d from %d", y, x)
	}
	return x - y, nil
}

// Sum returns the sum of the given amounts, or an error on overflow.
func Sum(values ...uint64) (uint64, error) {
	var tot uint64
	for _, v := range values {
		if tot > math.MaxUint64-v {
			return 0, ErrTooBig
		}
		tot += v
	}
	return tot, nil
}
