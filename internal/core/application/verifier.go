package application

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"strings"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
)

// expectedTransfer is the tuple a claimed transaction hash is checked against.
// Either AmountDrops or Token is set. Memo is the plaintext memo, matched as
// uppercase hex against the transaction's memo list when non-empty.
type expectedTransfer struct {
	From        string
	To          string
	AmountDrops string
	Token       *domain.TokenAmount
	Memo        string
}

// verifyTransaction fetches the claimed hash and runs the ordered checks:
// source, destination, amount, memo. The first failing check decides the
// returned code. The same routine backs wallet-ownership, asset-ownership and
// per-item lock verification.
func (s *service) verifyTransaction(
	ctx context.Context, txHash string, expected expectedTransfer,
) errors.Error {
	tx, err := s.ledger.GetTransaction(ctx, txHash)
	if err != nil {
		if stderrors.Is(err, ports.ErrTxNotFound) {
			return errors.XRPL_TX_NOT_FOUND.New("transaction %s not found on ledger", txHash).
				WithMetadata(errors.TxMetadata{TxHash: txHash})
		}
		return errors.XRPL_ERROR.Wrap(err)
	}

	if tx.Account != expected.From {
		return errors.VERIFY_FROM_MISMATCH.New("unexpected source account").
			WithMetadata(errors.MismatchMetadata{
				TxHash: txHash, Expected: expected.From, Got: tx.Account,
			})
	}

	if tx.Destination != expected.To {
		return errors.VERIFY_DESTINATION_MISMATCH.New("unexpected destination account").
			WithMetadata(errors.MismatchMetadata{
				TxHash: txHash, Expected: expected.To, Got: tx.Destination,
			})
	}

	if expected.Token != nil {
		if tx.TokenAmount == nil ||
			tx.TokenAmount.Currency != expected.Token.Currency ||
			tx.TokenAmount.Issuer != expected.Token.Issuer ||
			tx.TokenAmount.Value != expected.Token.Value {
			got := ""
			if tx.TokenAmount != nil {
				got = tx.TokenAmount.Value
			}
			return errors.VERIFY_AMOUNT_MISMATCH.New("unexpected token amount").
				WithMetadata(errors.MismatchMetadata{
					TxHash: txHash, Expected: expected.Token.Value, Got: got,
				})
		}
	} else if tx.AmountDrops != expected.AmountDrops {
		return errors.VERIFY_AMOUNT_MISMATCH.New("unexpected amount").
			WithMetadata(errors.MismatchMetadata{
				TxHash: txHash, Expected: expected.AmountDrops, Got: tx.AmountDrops,
			})
	}

	if expected.Memo != "" && !containsMemo(tx.Memos, expected.Memo) {
		return errors.VERIFY_MEMO_MISMATCH.New("expected memo not found in transaction").
			WithMetadata(errors.MismatchMetadata{
				TxHash: txHash, Expected: expected.Memo,
			})
	}

	return nil
}

// containsMemo reports whether the plaintext memo, encoded as uppercase hex,
// appears in the transaction's decoded memo list.
func containsMemo(memos []string, memo string) bool {
	encoded := strings.ToUpper(hex.EncodeToString([]byte(memo)))
	for _, m := range memos {
		if strings.ToUpper(m) == encoded {
			return true
		}
	}
	return false
}
