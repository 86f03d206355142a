package application

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestVerifyTransaction(t *testing.T) {
	ledger := newFakeLedger()
	ledger.txs["GOOD"] = &ports.LedgerTx{
		Hash: "GOOD", Account: "rFrom", Destination: "rTo", AmountDrops: "1000",
	}
	ledger.txs["WRONGDEST"] = &ports.LedgerTx{
		Hash: "WRONGDEST", Account: "rFrom", Destination: "rElsewhere", AmountDrops: "999",
	}
	ledger.txs["TOKEN"] = &ports.LedgerTx{
		Hash: "TOKEN", Account: "rFrom", Destination: "rTo",
		TokenAmount: &domain.TokenAmount{Currency: "USD", Issuer: "rIssuer", Value: "60"},
	}
	ledger.txs["MEMO"] = &ports.LedgerTx{
		Hash: "MEMO", Account: "rFrom", Destination: "rTo", AmountDrops: "1000",
		Memos: []string{strings.ToUpper(hex.EncodeToString([]byte("case-1")))},
	}
	svc := &service{ledger: ledger}

	expected := expectedTransfer{From: "rFrom", To: "rTo", AmountDrops: "1000"}

	t.Run("ok", func(t *testing.T) {
		require.Nil(t, svc.verifyTransaction(context.Background(), "GOOD", expected))
	})

	t.Run("not found", func(t *testing.T) {
		err := svc.verifyTransaction(context.Background(), "MISSING", expected)
		require.NotNil(t, err)
		require.Equal(t, errors.XRPL_TX_NOT_FOUND.Code, err.Code())
	})

	t.Run("source checked first", func(t *testing.T) {
		err := svc.verifyTransaction(context.Background(), "WRONGDEST", expectedTransfer{
			From: "rSomeoneElse", To: "rTo", AmountDrops: "1000",
		})
		require.NotNil(t, err)
		require.Equal(t, errors.VERIFY_FROM_MISMATCH.Code, err.Code())
	})

	t.Run("destination checked before amount", func(t *testing.T) {
		// Both destination and amount are wrong, the destination decides.
		err := svc.verifyTransaction(context.Background(), "WRONGDEST", expected)
		require.NotNil(t, err)
		require.Equal(t, errors.VERIFY_DESTINATION_MISMATCH.Code, err.Code())
	})

	t.Run("native amount mismatch", func(t *testing.T) {
		err := svc.verifyTransaction(context.Background(), "GOOD", expectedTransfer{
			From: "rFrom", To: "rTo", AmountDrops: "999",
		})
		require.NotNil(t, err)
		require.Equal(t, errors.VERIFY_AMOUNT_MISMATCH.Code, err.Code())
	})

	t.Run("token amount", func(t *testing.T) {
		token := &domain.TokenAmount{Currency: "USD", Issuer: "rIssuer", Value: "60"}
		require.Nil(t, svc.verifyTransaction(context.Background(), "TOKEN", expectedTransfer{
			From: "rFrom", To: "rTo", Token: token,
		}))

		wrong := &domain.TokenAmount{Currency: "USD", Issuer: "rIssuer", Value: "61"}
		err := svc.verifyTransaction(context.Background(), "TOKEN", expectedTransfer{
			From: "rFrom", To: "rTo", Token: wrong,
		})
		require.NotNil(t, err)
		require.Equal(t, errors.VERIFY_AMOUNT_MISMATCH.Code, err.Code())

		// A native tx never satisfies a token expectation.
		err = svc.verifyTransaction(context.Background(), "GOOD", expectedTransfer{
			From: "rFrom", To: "rTo", Token: token,
		})
		require.NotNil(t, err)
		require.Equal(t, errors.VERIFY_AMOUNT_MISMATCH.Code, err.Code())
	})

	t.Run("memo", func(t *testing.T) {
		withMemo := expectedTransfer{From: "rFrom", To: "rTo", AmountDrops: "1000", Memo: "case-1"}
		require.Nil(t, svc.verifyTransaction(context.Background(), "MEMO", withMemo))

		err := svc.verifyTransaction(context.Background(), "GOOD", withMemo)
		require.NotNil(t, err)
		require.Equal(t, errors.VERIFY_MEMO_MISMATCH.Code, err.Code())
	})
}

func TestContainsMemo(t *testing.T) {
	encoded := hex.EncodeToString([]byte("hello"))
	require.True(t, containsMemo([]string{strings.ToUpper(encoded)}, "hello"))
	require.True(t, containsMemo([]string{strings.ToLower(encoded)}, "hello"))
	require.False(t, containsMemo([]string{encoded}, "other"))
	require.False(t, containsMemo(nil, "hello"))
}
