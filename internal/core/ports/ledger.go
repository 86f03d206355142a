package ports

import (
	"context"
	"errors"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
)

// ErrTxNotFound is returned by GetTransaction when the ledger definitively
// reports the hash as unknown. Any other gateway error must be treated as
// retryable by the caller.
var ErrTxNotFound = errors.New("transaction not found")

type AccountInfo struct {
	Address      string
	BalanceDrops string
	OwnerCount   uint32
	RegularKey   string
}

type ReserveParams struct {
	BaseReserveDrops string
	IncReserveDrops  string
}

// LedgerTx is the gateway view of a validated ledger transaction. AmountDrops
// is set for native payments, TokenAmount for issued-currency payments. Memos
// hold the raw uppercase-hex memo data fields.
type LedgerTx struct {
	Hash        string
	Account     string
	Destination string
	AmountDrops string
	TokenAmount *domain.TokenAmount
	Memos       []string
}

type Wallet struct {
	Address string
	Secret  string
}

type Payment struct {
	From   string
	To     string
	Secret string
	// AmountDrops for native payments, Token for issued-currency payments.
	AmountDrops string
	Token       *domain.TokenAmount
	Memo        string
}

// SignedTxInfo is the decoded view of a partially-signed multisig blob.
type SignedTxInfo struct {
	SignerAccount string
	Memos         []string
}

// LedgerGateway abstracts the ledger RPC surface the custody engine depends
// on. Implementations must never retry on their own: callers decide what is
// retryable.
type LedgerGateway interface {
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	GetAccountLines(ctx context.Context, address string) ([]domain.TokenAmount, error)
	GetReserveParams(ctx context.Context) (*ReserveParams, error)
	// GetTransaction returns ErrTxNotFound when the ledger does not know the
	// hash.
	GetTransaction(ctx context.Context, hash string) (*LedgerTx, error)
	CreateWallet(ctx context.Context) (*Wallet, error)
	SetSignerList(
		ctx context.Context, wallet Wallet, entries []domain.SignerEntry, quorum uint32,
	) error
	ClearRegularKey(ctx context.Context, address, secret string) error
	SendPayment(ctx context.Context, payment Payment) (string, error)
	SignForMultisig(ctx context.Context, txJSON, account, secret string) (string, error)
	DecodeSignedTx(ctx context.Context, blob string) (*SignedTxInfo, error)
	SubmitMultisigned(ctx context.Context, txJSON string, signedBlobs []string) (string, error)
}
