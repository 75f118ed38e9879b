package txbuilder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	EtherDecimals = 18
	GweiDecimals  = 9
)

// ParseUnits converts a non-negative decimal string into base units. It never
// goes through floating point.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, invalid("amount", "is empty")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, invalid("amount", "must be non-negative")
	}
	parts := strings.SplitN(amount, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return nil, invalid("amount", fmt.Sprintf("%q is not a number", amount))
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return nil, invalid("amount", fmt.Sprintf("%q is not a decimal number", amount))
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(decimals) {
		return nil, invalid("amount", fmt.Sprintf("too many decimal places: %d > %d", len(fracPart), decimals))
	}
	fracPart = fracPart + strings.Repeat("0", int(decimals)-len(fracPart))
	combined := strings.TrimLeft(intPart+fracPart, "0")
	if combined == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, invalid("amount", "invalid number format")
	}
	return v, nil
}

func ParseEther(amount string) (*big.Int, error) {
	return ParseUnits(amount, EtherDecimals)
}

// ParseWei accepts a base-unit integer in decimal or 0x-hex form.
func ParseWei(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, invalid("amount", "is empty")
	}
	digits, base := value, 10
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		digits, base = value[2:], 16
	}
	if digits == "" || strings.ContainsAny(digits, "+-_") {
		return nil, invalid("amount", fmt.Sprintf("%q is not a non-negative integer", value))
	}
	if base == 10 && !allDigits(digits) {
		return nil, invalid("amount", fmt.Sprintf("%q is not a non-negative integer", value))
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, invalid("amount", fmt.Sprintf("%q is not a valid integer", value))
	}
	return v, nil
}

// FormatUnits renders base units as a decimal string for display only.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

func FormatEther(v *big.Int) string {
	return FormatUnits(v, EtherDecimals)
}

func FormatGwei(v *big.Int) string {
	return FormatUnits(v, GweiDecimals)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
