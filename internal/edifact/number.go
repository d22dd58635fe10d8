package edifact

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal counts used by the segment builders. The count is always chosen by
// the call site, never derived from the value.
const (
	QuantityDecimals = 0
	PercentDecimals  = 0
	AmountDecimals   = 2
	PriceDecimals    = 3
)

// Convert renders value as a fixed-point string with exactly decimals digits
// after a '.' marker. There is no thousands grouping and no explicit '+'.
// Rounding is half away from zero: Convert(12.345, 2) == "12.35",
// Convert(-2.5, 0) == "-3".
//
// Accepted inputs are Go integer and float kinds, numeric strings,
// json.Number and decimal.Decimal. Anything else, NaN, infinities and a
// negative or out of range decimal count fail with an error wrapping ErrInvalidNumericInput.
func Convert(value any, decimals int) (string, error) {
	if decimals < 0 {
		return "", &NumericError{Value: value, Reason: "negative decimal count"}
	}
	if decimals > math.MaxInt32 {
		return "", &NumericError{Value: value, Reason: "decimal count out of range"}
	}
	d, err := ToDecimal(value)
	if err != nil {
		return "", err
	}
	return d.StringFixed(int32(decimals)), nil
}

// MustConvert is like Convert but panics on error.
func MustConvert(value any, decimals int) string {
	s, err := Convert(value, decimals)
	if err != nil {
		panic(err)
	}
	return s
}

// ToDecimal reads value as an exact decimal.
func ToDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, &NumericError{Value: value, Reason: "nil decimal"}
		}
		return *v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int8:
		return decimal.NewFromInt(int64(v)), nil
	case int16:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint:
		return fromUint(uint64(v)), nil
	case uint8:
		return fromUint(uint64(v)), nil
	case uint16:
		return fromUint(uint64(v)), nil
	case uint32:
		return fromUint(uint64(v)), nil
	case uint64:
		return fromUint(v), nil
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero, &NumericError{Value: value, Reason: "not a finite number"}
		}
		return decimal.NewFromFloat32(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, &NumericError{Value: value, Reason: "not a finite number"}
		}
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return parseDecimal(value, string(v))
	case string:
		return parseDecimal(value, v)
	default:
		return decimal.Zero, &NumericError{Value: value, Reason: "unsupported type"}
	}
}

func fromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func parseDecimal(original any, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &NumericError{Value: original, Reason: "empty string"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &NumericError{Value: original, Reason: err.Error()}
	}
	return d, nil
}
