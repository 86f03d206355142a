package application

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{amount: "1", expected: "1000000"},
		{amount: "1.000001", expected: "1000001"},
		{amount: "0.5", expected: "500000"},
		{amount: "0.0000001", expected: "0"}, // truncated, never rounded
		{amount: "1.9999999", expected: "1999999"},
		{amount: "-2.5", expected: "-2500000"},
		{amount: "+3", expected: "3000000"},
		{amount: ".25", expected: "250000"},
		{amount: " 10 ", expected: "10000000"},
		{amount: "0", expected: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ToMinorUnits(tt.amount)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got.String())
		})
	}

	for _, malformed := range []string{"", "abc", "1.2.3", "1,5", "1e6"} {
		t.Run("malformed "+malformed, func(t *testing.T) {
			_, err := ToMinorUnits(malformed)
			require.Error(t, err)
		})
	}
}

func TestParseDrops(t *testing.T) {
	got, err := ParseDrops("")
	require.NoError(t, err)
	require.Zero(t, got.Sign())

	got, err = ParseDrops("123456")
	require.NoError(t, err)
	require.Equal(t, "123456", got.String())

	_, err = ParseDrops("12x")
	require.Error(t, err)
}

func TestAvailableBalance(t *testing.T) {
	require.Equal(t, "7", AvailableBalance(big.NewInt(10), big.NewInt(3)).String())
	// Never negative: a reserve above the balance means nothing is available.
	require.Equal(t, "0", AvailableBalance(big.NewInt(5), big.NewInt(10)).String())
	require.Equal(t, "0", AvailableBalance(big.NewInt(5), big.NewInt(5)).String())
}

func TestAvailableAfterFees(t *testing.T) {
	available := AvailableAfterFees(
		big.NewInt(10_000_000), // balance
		big.NewInt(0),          // owner reserve
		big.NewInt(1_000_000),  // base reserve
		big.NewInt(200_000),    // incremental reserve
		big.NewInt(12),         // fee per tx
		2,                      // owner count
		3,                      // tx count
	)
	require.Equal(t, "8599964", available.String())

	// May go negative, the caller decides what that means.
	available = AvailableAfterFees(
		big.NewInt(1_000_000), big.NewInt(0),
		big.NewInt(1_000_000), big.NewInt(200_000), big.NewInt(12), 1, 1,
	)
	require.Negative(t, available.Sign())
}

func TestSubtractTokenDecimal(t *testing.T) {
	got, err := SubtractTokenDecimal("10.5", "3.2")
	require.NoError(t, err)
	require.Equal(t, "7.3", got)

	got, err = SubtractTokenDecimal("1", "2")
	require.NoError(t, err)
	require.Equal(t, "0", got)

	got, err = SubtractTokenDecimal("5", "0")
	require.NoError(t, err)
	require.Equal(t, "5", got)

	got, err = SubtractTokenDecimal("0.000000000000003", "0.000000000000001")
	require.NoError(t, err)
	require.Equal(t, "0.000000000000002", got)

	_, err = SubtractTokenDecimal("nope", "1")
	require.Error(t, err)
}

func TestIsPositiveDecimal(t *testing.T) {
	require.True(t, IsPositiveDecimal("0.000001"))
	require.True(t, IsPositiveDecimal("42"))
	require.False(t, IsPositiveDecimal("0"))
	require.False(t, IsPositiveDecimal("-1"))
	require.False(t, IsPositiveDecimal("not a number"))
}
