package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/infrastructure/cypher"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/infrastructure/db"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testSystemAccount = "rSystemAccount"
	testSystemSecret  = "sSystemSecret"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// fakeLedger is an in-memory LedgerGateway recording every write it receives.
type fakeLedger struct {
	mu sync.Mutex

	accounts map[string]*ports.AccountInfo
	lines    map[string][]domain.TokenAmount
	txs      map[string]*ports.LedgerTx
	decoded  map[string]*ports.SignedTxInfo

	reserveErr       error
	accountInfoErr   error
	setSignerListErr error
	sendPaymentErr   error

	walletCounter    int
	signerListCalls  int
	clearedAccounts  []string
	payments         []ports.Payment
	submitCount      int
	submittedBlobs   []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: make(map[string]*ports.AccountInfo),
		lines:    make(map[string][]domain.TokenAmount),
		txs:      make(map[string]*ports.LedgerTx),
		decoded:  make(map[string]*ports.SignedTxInfo),
	}
}

func (f *fakeLedger) GetAccountInfo(
	_ context.Context, address string,
) (*ports.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountInfoErr != nil {
		return nil, f.accountInfoErr
	}
	info, ok := f.accounts[address]
	if !ok {
		return nil, fmt.Errorf("account %s not found", address)
	}
	clone := *info
	return &clone, nil
}

func (f *fakeLedger) GetAccountLines(
	_ context.Context, address string,
) ([]domain.TokenAmount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[address], nil
}

func (f *fakeLedger) GetReserveParams(_ context.Context) (*ports.ReserveParams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	return &ports.ReserveParams{BaseReserveDrops: "1000000", IncReserveDrops: "200000"}, nil
}

func (f *fakeLedger) GetTransaction(_ context.Context, hash string) (*ports.LedgerTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[hash]
	if !ok {
		return nil, ports.ErrTxNotFound
	}
	return tx, nil
}

func (f *fakeLedger) CreateWallet(_ context.Context) (*ports.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walletCounter++
	return &ports.Wallet{
		Address: fmt.Sprintf("rCustody%d", f.walletCounter),
		Secret:  fmt.Sprintf("sCustody%d", f.walletCounter),
	}, nil
}

func (f *fakeLedger) SetSignerList(
	_ context.Context, _ ports.Wallet, _ []domain.SignerEntry, _ uint32,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setSignerListErr != nil {
		return f.setSignerListErr
	}
	f.signerListCalls++
	return nil
}

func (f *fakeLedger) ClearRegularKey(_ context.Context, address, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearedAccounts = append(f.clearedAccounts, address)
	return nil
}

func (f *fakeLedger) SendPayment(_ context.Context, payment ports.Payment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendPaymentErr != nil {
		return "", f.sendPaymentErr
	}
	f.payments = append(f.payments, payment)
	return fmt.Sprintf("PAYMENT%d", len(f.payments)), nil
}

func (f *fakeLedger) SignForMultisig(
	_ context.Context, txJSON, account, _ string,
) (string, error) {
	return fmt.Sprintf("signed-by-%s:%s", account, txJSON), nil
}

func (f *fakeLedger) DecodeSignedTx(_ context.Context, blob string) (*ports.SignedTxInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.decoded[blob]
	if !ok {
		return nil, fmt.Errorf("undecodable blob")
	}
	return info, nil
}

func (f *fakeLedger) SubmitMultisigned(
	_ context.Context, _ string, signedBlobs []string,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCount++
	f.submittedBlobs = append([]string{}, signedBlobs...)
	return "MULTISIGHASH", nil
}

func newTestService(t *testing.T, ledger ports.LedgerGateway) (*service, ports.RepoManager) {
	t.Helper()
	repo, err := db.NewService(db.ServiceConfig{
		DataStoreType:   "badger",
		DataStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	secretCypher, err := cypher.New("test-password")
	require.NoError(t, err)

	svc, err := NewService(
		repo, ledger, secretCypher,
		testSystemAccount, testSystemSecret,
		"12", "1000000", "200000",
		func() time.Time { return testNow },
	)
	require.NoError(t, err)
	return svc.(*service), repo
}

func seedCase(t *testing.T, repo ports.RepoManager, c domain.Case) {
	t.Helper()
	require.NoError(t, repo.Cases().Upsert(context.Background(), c))
}

func seedAsset(t *testing.T, repo ports.RepoManager, asset domain.Asset) {
	t.Helper()
	require.NoError(t, repo.Assets().Upsert(context.Background(), asset))
}

func requireErrCode(t *testing.T, err error, code uint16) {
	t.Helper()
	require.Error(t, err)
	typed, ok := err.(errors.Error)
	require.True(t, ok, "expected a coded error, got %T", err)
	require.Equal(t, code, typed.Code())
}
