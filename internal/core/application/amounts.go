package application

import (
	"fmt"
	"math/big"
	"strings"
)

// minorUnitDigits is the number of decimal digits carried by the ledger's
// native currency: 1 unit = 1_000_000 drops.
const minorUnitDigits = 6

var minorUnitFactor = big.NewInt(1_000_000)

// ToMinorUnits converts a human decimal amount to minor units (drops). The
// fractional part is truncated after 6 digits, never rounded up, because the
// result feeds directly into transaction amounts.
func ToMinorUnits(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > minorUnitDigits {
		fracPart = fracPart[:minorUnitDigits]
	}
	fracPart += strings.Repeat("0", minorUnitDigits-len(fracPart))

	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, fmt.Errorf("malformed decimal amount %q", amount)
	}

	whole, _ := new(big.Int).SetString(intPart, 10)
	frac, _ := new(big.Int).SetString(fracPart, 10)

	total := new(big.Int).Mul(whole, minorUnitFactor)
	total.Add(total, frac)
	if neg {
		total.Neg(total)
	}
	return total, nil
}

// ParseDrops parses a minor-unit integer string. An empty string counts as
// zero so unset balance snapshots don't need special casing.
func ParseDrops(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed drops amount %q", s)
	}
	return v, nil
}

// AvailableBalance is the canonical "what is inheritable" computation:
// max(balance - reserve, 0).
func AvailableBalance(balance, reserve *big.Int) *big.Int {
	available := new(big.Int).Sub(balance, reserve)
	if available.Sign() < 0 {
		return new(big.Int)
	}
	return available
}

// AvailableAfterFees computes what a source account can actually send once the
// network base/owner reserves and the per-transaction fee are accounted for:
//
//	balance - (baseReserve + incReserve*ownerCount) - reserve - feePerTx*txCount
//
// The result may be negative; the caller decides whether that rejects the
// asset.
func AvailableAfterFees(
	balance, reserve, baseReserve, incReserve, feePerTx *big.Int,
	ownerCount uint32, txCount int,
) *big.Int {
	available := new(big.Int).Set(balance)
	available.Sub(available, baseReserve)
	available.Sub(available, new(big.Int).Mul(incReserve, big.NewInt(int64(ownerCount))))
	available.Sub(available, reserve)
	available.Sub(available, new(big.Int).Mul(feePerTx, big.NewInt(int64(txCount))))
	return available
}

// SubtractTokenDecimal computes max(balance - reserve, 0) over token decimal
// strings using exact rational arithmetic.
func SubtractTokenDecimal(balance, reserve string) (string, error) {
	b, ok := new(big.Rat).SetString(balance)
	if !ok {
		return "", fmt.Errorf("malformed token amount %q", balance)
	}
	r, ok := new(big.Rat).SetString(reserve)
	if !ok {
		return "", fmt.Errorf("malformed token reserve %q", reserve)
	}
	diff := new(big.Rat).Sub(b, r)
	if diff.Sign() < 0 {
		return "0", nil
	}
	return formatRat(diff), nil
}

// IsPositiveDecimal reports whether the decimal string parses to a value
// strictly greater than zero.
func IsPositiveDecimal(s string) bool {
	v, ok := new(big.Rat).SetString(s)
	return ok && v.Sign() > 0
}

// formatRat renders the rational as a plain decimal string with trailing
// zeros trimmed. Token amounts carry at most 15 decimal digits on the ledger.
func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := r.FloatString(15)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
