package application

import (
	"context"
	"testing"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testCase(stage domain.CaseStage, heirStatus domain.WalletStatus) domain.Case {
	return domain.Case{
		ID:      "c1",
		OwnerID: "owner",
		Stage:   stage,
		Members: []domain.CaseMember{
			{MemberID: "owner", Role: domain.MemberRoleOwner},
			{
				MemberID: "h1", Role: domain.MemberRoleHeir,
				WalletAddress: "rHeir1", WalletStatus: heirStatus,
			},
		},
	}
}

func testAsset(balanceDrops string) domain.Asset {
	return domain.Asset{ID: "a1", CaseID: "c1", Address: "rSource", BalanceDrops: balanceDrops}
}

func TestStartAssetLock(t *testing.T) {
	ctx := context.Background()
	owner := Identity{ID: "owner"}

	t.Run("manual start plans items", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))

		info, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)
		require.Equal(t, "READY", info.Status)
		require.Equal(t, "A", info.Method)
		require.Equal(t, 3, info.UIStep)
		require.Equal(t, "rCustody1", info.CustodyAddress)
		require.Empty(t, info.MethodStep)
		require.Len(t, info.Items, 1)
		require.Equal(t, "10000000", info.Items[0].PlannedAmount)

		// The signing key is stored encrypted only.
		lock, lerr := repo.AssetLocks().Get(ctx, "c1")
		require.NoError(t, lerr)
		require.NotNil(t, lock)
		require.NotEmpty(t, lock.CustodySecret)
		require.NotEqual(t, []byte("sCustody1"), lock.CustodySecret)
	})

	t.Run("delegated start tracks key verification", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))

		info, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodDelegated)
		require.NoError(t, err)
		require.Equal(t, "B", info.Method)
		require.Equal(t, "REGULAR_KEY_SET", info.MethodStep)
	})

	t.Run("only the owner can start", func(t *testing.T) {
		svc, repo := newTestService(t, newFakeLedger())
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))

		_, err := svc.StartAssetLock(ctx, Identity{ID: "h1"}, "c1", domain.LockMethodManual)
		requireErrCode(t, err, errors.FORBIDDEN.Code)
	})

	t.Run("completed case rejects start", func(t *testing.T) {
		svc, repo := newTestService(t, newFakeLedger())
		seedCase(t, repo, testCase(domain.CaseStageCompleted, domain.WalletStatusVerified))

		_, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		requireErrCode(t, err, errors.VALIDATION_ERROR.Code)
	})

	t.Run("unknown case", func(t *testing.T) {
		svc, _ := newTestService(t, newFakeLedger())
		_, err := svc.StartAssetLock(ctx, owner, "nope", domain.LockMethodManual)
		requireErrCode(t, err, errors.NOT_FOUND.Code)
	})

	t.Run("restart regenerates the item set", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))

		first, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)
		second, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)

		require.Len(t, second.Items, 1)
		require.NotEqual(t, first.Items[0].ID, second.Items[0].ID)

		items, ierr := repo.LockItems().ListByCase(ctx, "c1")
		require.NoError(t, ierr)
		require.Len(t, items, 1)
	})

	t.Run("in-progress stage requires verified heir wallets", func(t *testing.T) {
		svc, repo := newTestService(t, newFakeLedger())
		seedCase(t, repo, testCase(domain.CaseStageInProgress, domain.WalletStatusUnverified))

		_, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		requireErrCode(t, err, errors.WALLET_NOT_VERIFIED.Code)
	})

	t.Run("in-progress stage configures the signer list", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageInProgress, domain.WalletStatusVerified))

		_, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)
		require.Equal(t, 1, ledger.signerListCalls)

		list, lerr := repo.SignerLists().Get(ctx, "c1")
		require.NoError(t, lerr)
		require.NotNil(t, list)
		require.Equal(t, domain.SignerListStatusSet, list.Status)
		require.Equal(t, domain.QuorumForHeirs(1), list.Quorum)
	})

	t.Run("signer list failure is persisted", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.setSignerListErr = context.DeadlineExceeded
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageInProgress, domain.WalletStatusVerified))

		_, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		requireErrCode(t, err, errors.SIGNER_LIST_FAILED.Code)

		list, lerr := repo.SignerLists().Get(ctx, "c1")
		require.NoError(t, lerr)
		require.NotNil(t, list)
		require.Equal(t, domain.SignerListStatusFailed, list.Status)
		require.NotEmpty(t, list.Error)
	})
}

func TestVerifyLockItem(t *testing.T) {
	ctx := context.Background()
	owner := Identity{ID: "owner"}

	start := func(t *testing.T) (*service, ports.RepoManager, *fakeLedger, LockItemInfo, string) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))
		info, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)
		require.Len(t, info.Items, 1)
		return svc, repo, ledger, info.Items[0], info.CustodyAddress
	}

	t.Run("matching transfer verifies the item", func(t *testing.T) {
		svc, _, ledger, item, custody := start(t)
		ledger.txs["HASH1"] = &ports.LedgerTx{
			Hash: "HASH1", Account: "rSource", Destination: custody, AmountDrops: "10000000",
		}

		verified, err := svc.VerifyLockItem(ctx, owner, "c1", item.ID, "HASH1")
		require.NoError(t, err)
		require.Equal(t, "VERIFIED", verified.Status)
		require.Equal(t, "HASH1", verified.TxHash)

		// Same hash again is a no-op.
		again, err := svc.VerifyLockItem(ctx, owner, "c1", item.ID, "HASH1")
		require.NoError(t, err)
		require.Equal(t, "VERIFIED", again.Status)
	})

	t.Run("mismatch marks the item failed", func(t *testing.T) {
		svc, repo, ledger, item, custody := start(t)
		ledger.txs["HASH2"] = &ports.LedgerTx{
			Hash: "HASH2", Account: "rSource", Destination: custody, AmountDrops: "1",
		}

		_, err := svc.VerifyLockItem(ctx, owner, "c1", item.ID, "HASH2")
		requireErrCode(t, err, errors.VERIFY_AMOUNT_MISMATCH.Code)

		stored, gerr := repo.LockItems().Get(ctx, "c1", item.ID)
		require.NoError(t, gerr)
		require.Equal(t, domain.LockItemStatusFailed, stored.Status)
		require.Equal(t, "VERIFY_AMOUNT_MISMATCH", stored.Error)
		require.Equal(t, "HASH2", stored.TxHash)
	})

	t.Run("unknown hash marks the item failed", func(t *testing.T) {
		svc, repo, _, item, _ := start(t)

		_, err := svc.VerifyLockItem(ctx, owner, "c1", item.ID, "MISSING")
		requireErrCode(t, err, errors.XRPL_TX_NOT_FOUND.Code)

		stored, gerr := repo.LockItems().Get(ctx, "c1", item.ID)
		require.NoError(t, gerr)
		require.Equal(t, domain.LockItemStatusFailed, stored.Status)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc, _, _, _, _ := start(t)
		_, err := svc.VerifyLockItem(ctx, owner, "c1", "not-an-item", "HASH")
		requireErrCode(t, err, errors.NOT_FOUND.Code)
	})
}

func TestExecuteAutoTransfer(t *testing.T) {
	ctx := context.Background()
	owner := Identity{ID: "owner"}

	startDelegated := func(t *testing.T) (*service, ports.RepoManager, *fakeLedger, string) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))
		info, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodDelegated)
		require.NoError(t, err)
		return svc, repo, ledger, info.CustodyAddress
	}

	t.Run("full delegated flow", func(t *testing.T) {
		svc, repo, ledger, custody := startDelegated(t)

		// Owner delegates the source account's regular key to the custody
		// wallet, then asks for verification.
		ledger.accounts["rSource"].RegularKey = custody
		info, err := svc.VerifyRegularKeys(ctx, owner, "c1")
		require.NoError(t, err)
		require.Equal(t, "AUTO_TRANSFER", info.MethodStep)
		require.Equal(t, "VERIFIED", info.RegularKeyStatuses["a1"])

		info, err = svc.ExecuteAutoTransfer(ctx, owner, "c1")
		require.NoError(t, err)
		require.Equal(t, "LOCKED", info.Status)
		require.Equal(t, 4, info.UIStep)
		require.Equal(t, "REGULAR_KEY_CLEARED", info.MethodStep)

		// balance - base reserve - fee, capped below the planned amount.
		require.Len(t, ledger.payments, 1)
		require.Equal(t, "rSource", ledger.payments[0].From)
		require.Equal(t, custody, ledger.payments[0].To)
		require.Equal(t, "8999988", ledger.payments[0].AmountDrops)
		require.Equal(t, []string{"rSource"}, ledger.clearedAccounts)

		c, cerr := repo.Cases().Get(ctx, "c1")
		require.NoError(t, cerr)
		require.Equal(t, domain.CaseStageWaiting, c.Stage)
		require.Equal(t, domain.AssetLockStatusLocked, c.AssetLockStatus)
	})

	t.Run("requires every key verified", func(t *testing.T) {
		svc, _, _, _ := startDelegated(t)
		_, err := svc.ExecuteAutoTransfer(ctx, owner, "c1")
		requireErrCode(t, err, errors.REGULAR_KEY_UNVERIFIED.Code)
	})

	t.Run("insufficient balance aborts before any transfer", func(t *testing.T) {
		svc, _, ledger, custody := startDelegated(t)
		ledger.accounts["rSource"].RegularKey = custody
		_, err := svc.VerifyRegularKeys(ctx, owner, "c1")
		require.NoError(t, err)

		// The live balance dropped below the network reserve since planning.
		ledger.accounts["rSource"].BalanceDrops = "500000"
		_, err = svc.ExecuteAutoTransfer(ctx, owner, "c1")
		requireErrCode(t, err, errors.INSUFFICIENT_BALANCE.Code)
		require.Empty(t, ledger.payments)
	})

	t.Run("manual lock cannot execute", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))
		_, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)

		_, err = svc.ExecuteAutoTransfer(ctx, owner, "c1")
		requireErrCode(t, err, errors.VALIDATION_ERROR.Code)
	})
}

func TestCompleteAssetLock(t *testing.T) {
	ctx := context.Background()
	owner := Identity{ID: "owner"}

	start := func(t *testing.T) (*service, ports.RepoManager, *fakeLedger, LockItemInfo, string) {
		ledger := newFakeLedger()
		ledger.accounts["rSource"] = &ports.AccountInfo{
			Address: "rSource", BalanceDrops: "10000000",
		}
		svc, repo := newTestService(t, ledger)
		seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
		seedAsset(t, repo, testAsset(""))
		info, err := svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
		require.NoError(t, err)
		return svc, repo, ledger, info.Items[0], info.CustodyAddress
	}

	t.Run("all items verified", func(t *testing.T) {
		svc, repo, ledger, item, custody := start(t)
		ledger.txs["HASH1"] = &ports.LedgerTx{
			Hash: "HASH1", Account: "rSource", Destination: custody, AmountDrops: "10000000",
		}
		_, err := svc.VerifyLockItem(ctx, owner, "c1", item.ID, "HASH1")
		require.NoError(t, err)

		info, err := svc.CompleteAssetLock(ctx, owner, "c1")
		require.NoError(t, err)
		require.Equal(t, "LOCKED", info.Status)
		require.Equal(t, 4, info.UIStep)

		c, cerr := repo.Cases().Get(ctx, "c1")
		require.NoError(t, cerr)
		require.Equal(t, domain.AssetLockStatusLocked, c.AssetLockStatus)
	})

	t.Run("pending item blocks completion", func(t *testing.T) {
		svc, _, _, _, _ := start(t)
		_, err := svc.CompleteAssetLock(ctx, owner, "c1")
		requireErrCode(t, err, errors.VALIDATION_ERROR.Code)
	})
}

func TestGetAssetLock(t *testing.T) {
	ctx := context.Background()
	owner := Identity{ID: "owner"}

	ledger := newFakeLedger()
	ledger.accounts["rSource"] = &ports.AccountInfo{Address: "rSource", BalanceDrops: "10000000"}
	svc, repo := newTestService(t, ledger)
	seedCase(t, repo, testCase(domain.CaseStageWaiting, domain.WalletStatusVerified))
	seedAsset(t, repo, testAsset(""))

	_, err := svc.GetAssetLock(ctx, owner, "c1")
	requireErrCode(t, err, errors.NOT_FOUND.Code)

	_, err = svc.StartAssetLock(ctx, owner, "c1", domain.LockMethodManual)
	require.NoError(t, err)

	// Any member can read, strangers cannot.
	info, err := svc.GetAssetLock(ctx, Identity{ID: "h1"}, "c1")
	require.NoError(t, err)
	require.Len(t, info.Items, 1)

	_, err = svc.GetAssetLock(ctx, Identity{ID: "stranger"}, "c1")
	requireErrCode(t, err, errors.FORBIDDEN.Code)
}
