// Package money represents INR amounts as integer paise to avoid
// floating point drift in payment reconciliation.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Paise is an INR amount in the smallest currency unit (1 rupee = 100 paise).
type Paise int64

// FromRupees converts a whole-rupee amount to paise.
func FromRupees(rupees int64) Paise {
	return Paise(rupees * 100)
}

// Parse converts a decimal rupee string ("8000", "8000.50") to paise.
// Digits beyond two decimal places are truncated, matching paise precision.
func Parse(amountStr string) (Paise, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	parts := strings.SplitN(s, ".", 2)

	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}

	decPart := ""
	if len(parts) > 1 {
		decPart = parts[1]
	}
	if len(decPart) < 2 {
		decPart = decPart + strings.Repeat("0", 2-len(decPart))
	} else if len(decPart) > 2 {
		decPart = decPart[:2]
	}

	combined := strings.TrimLeft(intPart+decPart, "0")
	if combined == "" {
		combined = "0"
	}

	v, err := strconv.ParseInt(combined, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %q", amountStr)
	}

	if negative {
		v = -v
	}
	return Paise(v), nil
}

// String renders the amount as a decimal rupee string, e.g. 800050 -> "8000.50".
func (p Paise) String() string {
	v := int64(p)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (p Paise) IsPositive() bool {
	return p > 0
}
