package application

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Service is the asset custody and multisig distribution engine. Every method
// takes the acting identity explicitly; there is no ambient auth or clock.
type Service interface {
	StartAssetLock(
		ctx context.Context, actor Identity, caseID string, method domain.LockMethod,
	) (*AssetLockInfo, error)
	VerifyLockItem(
		ctx context.Context, actor Identity, caseID, itemID, txHash string,
	) (*LockItemInfo, error)
	VerifyRegularKeys(ctx context.Context, actor Identity, caseID string) (*AssetLockInfo, error)
	ExecuteAutoTransfer(ctx context.Context, actor Identity, caseID string) (*AssetLockInfo, error)
	CompleteAssetLock(ctx context.Context, actor Identity, caseID string) (*AssetLockInfo, error)
	GetAssetLock(ctx context.Context, actor Identity, caseID string) (*AssetLockInfo, error)
	PrepareApproval(ctx context.Context, caseID, txJSON, memo string) (*ApprovalInfo, error)
	SubmitSignature(
		ctx context.Context, actor Identity, caseID, signedBlob string,
	) (*SignerListInfo, error)
	GetSignerList(ctx context.Context, actor Identity, caseID string) (*SignerListInfo, error)
}

type service struct {
	repoManager ports.RepoManager
	ledger      ports.LedgerGateway
	cypher      ports.SecretCypher

	systemAccount string
	systemSecret  string

	feePerTx            *big.Int
	baseReserveFallback *big.Int
	incReserveFallback  *big.Int

	now func() time.Time
}

func NewService(
	repoManager ports.RepoManager, ledger ports.LedgerGateway, cypher ports.SecretCypher,
	systemAccount, systemSecret string,
	feePerTxDrops, baseReserveFallbackDrops, incReserveFallbackDrops string,
	now func() time.Time,
) (Service, error) {
	if systemAccount == "" {
		return nil, fmt.Errorf("missing system account address")
	}
	feePerTx, err := ParseDrops(feePerTxDrops)
	if err != nil {
		return nil, fmt.Errorf("invalid fee per tx: %w", err)
	}
	baseReserve, err := ParseDrops(baseReserveFallbackDrops)
	if err != nil {
		return nil, fmt.Errorf("invalid base reserve fallback: %w", err)
	}
	incReserve, err := ParseDrops(incReserveFallbackDrops)
	if err != nil {
		return nil, fmt.Errorf("invalid owner reserve fallback: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repoManager:         repoManager,
		ledger:              ledger,
		cypher:              cypher,
		systemAccount:       systemAccount,
		systemSecret:        systemSecret,
		feePerTx:            feePerTx,
		baseReserveFallback: baseReserve,
		incReserveFallback:  incReserve,
		now:                 now,
	}, nil
}

func (s *service) StartAssetLock(
	ctx context.Context, actor Identity, caseID string, method domain.LockMethod,
) (*AssetLockInfo, error) {
	c, err := s.loadOwnedCase(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	if !c.CanLockAssets() {
		return nil, errors.VALIDATION_ERROR.New(
			"case stage %s does not allow locking assets", c.Stage,
		)
	}
	if c.Stage == domain.CaseStageInProgress {
		if member := c.UnverifiedHeirWallet(); member != nil {
			return nil, errors.WALLET_NOT_VERIFIED.New(
				"heir %s wallet is not verified", member.MemberID,
			).WithMetadata(errors.WalletMetadata{
				MemberID: member.MemberID, Address: member.WalletAddress,
			})
		}
	}

	assets, lerr := s.repoManager.Assets().ListByCase(ctx, caseID)
	if lerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(lerr)
	}
	now := s.now()
	for i := range assets {
		if err := s.syncAsset(ctx, &assets[i], now); err != nil {
			return nil, err
		}
	}

	// The item set is fully regenerated on every start.
	if derr := s.repoManager.LockItems().DeleteByCase(ctx, caseID); derr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(derr)
	}

	wallet, werr := s.ledger.CreateWallet(ctx)
	if werr != nil {
		return nil, errors.XRPL_ERROR.Wrap(werr)
	}
	encryptedSecret, cerr := s.cypher.Encrypt(ctx, []byte(wallet.Secret))
	if cerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(cerr)
	}

	lock := domain.NewAssetLock(caseID, method, wallet.Address, encryptedSecret, now)
	if uerr := s.repoManager.AssetLocks().Upsert(ctx, *lock); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	// Once heirs are already acting, the custody wallet must be put under the
	// multisig quorum right away. A failure here leaves the lock READY so the
	// owner can retry by re-issuing start.
	if c.Stage == domain.CaseStageInProgress {
		if serr := s.setupSignerList(ctx, *c, *wallet); serr != nil {
			return nil, serr
		}
	}

	items, perr := planLockItems(assets, now)
	if perr != nil {
		return nil, errors.VALIDATION_ERROR.Wrap(perr)
	}
	for _, item := range items {
		if uerr := s.repoManager.LockItems().Upsert(ctx, item); uerr != nil {
			return nil, errors.INTERNAL_ERROR.Wrap(uerr)
		}
	}

	return newAssetLockInfo(*lock, items), nil
}

func (s *service) VerifyLockItem(
	ctx context.Context, actor Identity, caseID, itemID, txHash string,
) (*LockItemInfo, error) {
	if txHash == "" {
		return nil, errors.VALIDATION_ERROR.New("missing tx hash")
	}
	if _, err := s.loadOwnedCase(ctx, actor, caseID); err != nil {
		return nil, err
	}
	lock, err := s.loadLock(ctx, caseID)
	if err != nil {
		return nil, err
	}

	item, gerr := s.repoManager.LockItems().Get(ctx, caseID, itemID)
	if gerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(gerr)
	}
	if item == nil {
		return nil, errors.NOT_FOUND.New("lock item %s not found", itemID).
			WithMetadata(errors.CaseMetadata{CaseID: caseID})
	}

	// Re-verifying an already verified item with the same hash is a no-op.
	if item.Status == domain.LockItemStatusVerified && item.TxHash == txHash {
		info := newLockItemInfo(*item)
		return &info, nil
	}

	expected := expectedTransfer{
		From: item.AssetAddress,
		To:   lock.CustodyAddress,
	}
	if item.Token != nil {
		expected.Token = item.Token
	} else {
		expected.AmountDrops = item.PlannedAmount
	}

	if verr := s.verifyTransaction(ctx, txHash, expected); verr != nil {
		// A transient gateway failure is retryable and leaves the item as-is.
		if verr.Code() == errors.XRPL_ERROR.Code {
			return nil, verr
		}
		item.Status = domain.LockItemStatusFailed
		item.TxHash = txHash
		item.Error = verr.CodeName()
		item.UpdatedAt = s.now()
		if uerr := s.repoManager.LockItems().Upsert(ctx, *item); uerr != nil {
			return nil, errors.INTERNAL_ERROR.Wrap(uerr)
		}
		return nil, verr
	}

	item.Status = domain.LockItemStatusVerified
	item.TxHash = txHash
	item.Error = ""
	item.UpdatedAt = s.now()
	if uerr := s.repoManager.LockItems().Upsert(ctx, *item); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	info := newLockItemInfo(*item)
	return &info, nil
}

func (s *service) VerifyRegularKeys(
	ctx context.Context, actor Identity, caseID string,
) (*AssetLockInfo, error) {
	if _, err := s.loadOwnedCase(ctx, actor, caseID); err != nil {
		return nil, err
	}
	lock, err := s.loadLock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if lock.MethodB == nil {
		return nil, errors.VALIDATION_ERROR.New("manual lock has no delegated keys to verify")
	}

	assets, lerr := s.repoManager.Assets().ListByCase(ctx, caseID)
	if lerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(lerr)
	}

	statuses := make(map[string]domain.RegularKeyStatus, len(assets))
	assetIDs := make([]string, 0, len(assets))
	for _, asset := range assets {
		assetIDs = append(assetIDs, asset.ID)
		info, ierr := s.ledger.GetAccountInfo(ctx, asset.Address)
		if ierr != nil {
			log.WithError(ierr).Warnf("failed to fetch account info for asset %s", asset.ID)
			statuses[asset.ID] = domain.RegularKeyStatusError
			continue
		}
		if info.RegularKey == lock.CustodyAddress {
			statuses[asset.ID] = domain.RegularKeyStatusVerified
		} else {
			statuses[asset.ID] = domain.RegularKeyStatusUnverified
		}
	}

	lock.MethodB.RegularKeyStatuses = statuses
	if lock.MethodB.Step == domain.MethodStepRegularKeySet &&
		lock.MethodB.AllKeysVerified(assetIDs) {
		lock.MethodB.Step = domain.MethodStepAutoTransfer
	}
	lock.UpdatedAt = s.now()
	if uerr := s.repoManager.AssetLocks().Upsert(ctx, *lock); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	items, ierr := s.repoManager.LockItems().ListByCase(ctx, caseID)
	if ierr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(ierr)
	}
	return newAssetLockInfo(*lock, items), nil
}

func (s *service) ExecuteAutoTransfer(
	ctx context.Context, actor Identity, caseID string,
) (*AssetLockInfo, error) {
	c, err := s.loadOwnedCase(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	lock, err := s.loadLock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if lock.MethodB == nil {
		return nil, errors.VALIDATION_ERROR.New("automatic transfer requires the delegated-key method")
	}
	if lock.Status == domain.LockStatusLocked {
		return nil, errors.VALIDATION_ERROR.New("assets are already locked")
	}

	assets, lerr := s.repoManager.Assets().ListByCase(ctx, caseID)
	if lerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(lerr)
	}
	assetIDs := make([]string, 0, len(assets))
	assetByID := make(map[string]domain.Asset, len(assets))
	for _, asset := range assets {
		assetIDs = append(assetIDs, asset.ID)
		assetByID[asset.ID] = asset
	}
	if !lock.MethodB.AllKeysVerified(assetIDs) {
		return nil, errors.REGULAR_KEY_UNVERIFIED.New(
			"every source account must delegate its regular key to the custody wallet",
		)
	}

	custodySecret, cerr := s.cypher.Decrypt(ctx, lock.CustodySecret)
	if cerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(cerr)
	}
	secret := string(custodySecret)

	baseReserve, incReserve := s.reserveParams(ctx)

	items, ierr := s.repoManager.LockItems().ListByCase(ctx, caseID)
	if ierr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(ierr)
	}

	// First pass: reject or cap every asset before any transfer happens, so
	// an insufficient balance never leaves a half-moved asset behind.
	pendingByAsset := make(map[string]int)
	for _, item := range items {
		if item.Status != domain.LockItemStatusVerified {
			pendingByAsset[item.AssetID]++
		}
	}
	for assetID, txCount := range pendingByAsset {
		asset := assetByID[assetID]
		info, aerr := s.ledger.GetAccountInfo(ctx, asset.Address)
		if aerr != nil {
			return nil, errors.XRPL_ERROR.Wrap(aerr)
		}
		balance, perr := ParseDrops(info.BalanceDrops)
		if perr != nil {
			return nil, errors.INTERNAL_ERROR.Wrap(perr)
		}
		reserve := new(big.Int)
		if asset.ReserveAmount != "" {
			if reserve, perr = ToMinorUnits(asset.ReserveAmount); perr != nil {
				return nil, errors.VALIDATION_ERROR.Wrap(perr)
			}
		}
		available := AvailableAfterFees(
			balance, reserve, baseReserve, incReserve, s.feePerTx, info.OwnerCount, txCount,
		)
		if available.Sign() <= 0 {
			return nil, errors.INSUFFICIENT_BALANCE.New(
				"asset %s cannot cover reserves and fees", asset.ID,
			).WithMetadata(errors.BalanceMetadata{
				AssetID:  asset.ID,
				Balance:  balance.String(),
				Required: new(big.Int).Sub(balance, available).String(),
			})
		}
		// Fees and reserves are denominated in the native currency, so only
		// the native item is ever capped.
		for i := range items {
			item := &items[i]
			if item.AssetID != assetID || !item.IsNative() ||
				item.Status == domain.LockItemStatusVerified {
				continue
			}
			planned, perr := ParseDrops(item.PlannedAmount)
			if perr != nil {
				return nil, errors.INTERNAL_ERROR.Wrap(perr)
			}
			if planned.Cmp(available) > 0 {
				item.PlannedAmount = available.String()
				item.UpdatedAt = s.now()
				if uerr := s.repoManager.LockItems().Upsert(ctx, *item); uerr != nil {
					return nil, errors.INTERNAL_ERROR.Wrap(uerr)
				}
			}
		}
	}

	// Sequential by design: source account sequence numbers are monotonic, so
	// each transfer must be fully persisted before the next starts.
	for i := range items {
		item := &items[i]
		if item.Status == domain.LockItemStatusVerified {
			continue
		}
		payment := ports.Payment{
			From:   item.AssetAddress,
			To:     lock.CustodyAddress,
			Secret: secret,
		}
		if item.Token != nil {
			payment.Token = &domain.TokenAmount{
				Currency: item.Token.Currency,
				Issuer:   item.Token.Issuer,
				Value:    item.PlannedAmount,
			}
		} else {
			payment.AmountDrops = item.PlannedAmount
		}

		txHash, serr := s.ledger.SendPayment(ctx, payment)
		if serr != nil {
			item.Status = domain.LockItemStatusFailed
			item.Error = serr.Error()
			item.UpdatedAt = s.now()
			if uerr := s.repoManager.LockItems().Upsert(ctx, *item); uerr != nil {
				log.WithError(uerr).Errorf("failed to persist failed lock item %s", item.ID)
			}
			return nil, errors.XRPL_ERROR.Wrap(serr)
		}
		item.Status = domain.LockItemStatusVerified
		item.TxHash = txHash
		item.Error = ""
		item.UpdatedAt = s.now()
		if uerr := s.repoManager.LockItems().Upsert(ctx, *item); uerr != nil {
			return nil, errors.INTERNAL_ERROR.Wrap(uerr)
		}
	}

	lock.MethodB.Step = domain.MethodStepTransferDone
	lock.UpdatedAt = s.now()
	if uerr := s.repoManager.AssetLocks().Upsert(ctx, *lock); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	// Best effort: a source account left with a dangling delegation is
	// harmless once its funds moved, so clearing failures don't fail the lock.
	for _, asset := range assets {
		if cerr := s.ledger.ClearRegularKey(ctx, asset.Address, secret); cerr != nil {
			log.WithError(cerr).Warnf("failed to clear regular key of asset %s", asset.ID)
		}
	}

	lock.MethodB.Step = domain.MethodStepRegularKeyCleared
	lock.Status = domain.LockStatusLocked
	lock.UIStep = 4
	lock.UpdatedAt = s.now()
	if uerr := s.repoManager.AssetLocks().Upsert(ctx, *lock); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	c.AssetLockStatus = domain.AssetLockStatusLocked
	c.Stage = domain.CaseStageWaiting
	c.UpdatedAt = s.now()
	if uerr := s.repoManager.Cases().Upsert(ctx, *c); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	return newAssetLockInfo(*lock, items), nil
}

func (s *service) CompleteAssetLock(
	ctx context.Context, actor Identity, caseID string,
) (*AssetLockInfo, error) {
	c, err := s.loadOwnedCase(ctx, actor, caseID)
	if err != nil {
		return nil, err
	}
	lock, err := s.loadLock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if lock.Method != domain.LockMethodManual {
		return nil, errors.VALIDATION_ERROR.New("delegated-key locks complete via execute")
	}

	items, ierr := s.repoManager.LockItems().ListByCase(ctx, caseID)
	if ierr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(ierr)
	}
	if len(items) == 0 {
		return nil, errors.VALIDATION_ERROR.New("no lock items to complete")
	}
	for _, item := range items {
		if item.Status != domain.LockItemStatusVerified {
			return nil, errors.VALIDATION_ERROR.New(
				"lock item %s is %s, all items must be verified", item.ID, item.Status,
			)
		}
	}

	lock.Status = domain.LockStatusLocked
	lock.UIStep = 4
	lock.UpdatedAt = s.now()
	if uerr := s.repoManager.AssetLocks().Upsert(ctx, *lock); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	c.AssetLockStatus = domain.AssetLockStatusLocked
	c.Stage = domain.CaseStageWaiting
	c.UpdatedAt = s.now()
	if uerr := s.repoManager.Cases().Upsert(ctx, *c); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	return newAssetLockInfo(*lock, items), nil
}

func (s *service) GetAssetLock(
	ctx context.Context, actor Identity, caseID string,
) (*AssetLockInfo, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsMember(actor.ID) {
		return nil, errors.FORBIDDEN.New("only case members can read the asset lock").
			WithMetadata(errors.ActorMetadata{CaseID: caseID, ActorID: actor.ID})
	}
	lock, err := s.loadLock(ctx, caseID)
	if err != nil {
		return nil, err
	}
	items, ierr := s.repoManager.LockItems().ListByCase(ctx, caseID)
	if ierr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(ierr)
	}
	return newAssetLockInfo(*lock, items), nil
}

// syncAsset refreshes the asset's cached balance and token lines from the
// ledger before planning.
func (s *service) syncAsset(
	ctx context.Context, asset *domain.Asset, now time.Time,
) errors.Error {
	info, err := s.ledger.GetAccountInfo(ctx, asset.Address)
	if err != nil {
		return errors.XRPL_ERROR.Wrap(err)
	}
	tokens, err := s.ledger.GetAccountLines(ctx, asset.Address)
	if err != nil {
		return errors.XRPL_ERROR.Wrap(err)
	}

	asset.BalanceDrops = info.BalanceDrops
	asset.OwnerCount = info.OwnerCount
	asset.Tokens = tokens
	asset.SyncedAt = now
	asset.UpdatedAt = now
	if err := s.repoManager.Assets().Upsert(ctx, *asset); err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	return nil
}

func (s *service) reserveParams(ctx context.Context) (*big.Int, *big.Int) {
	params, err := s.ledger.GetReserveParams(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to fetch reserve params, using configured fallbacks")
		return s.baseReserveFallback, s.incReserveFallback
	}
	baseReserve, err := ParseDrops(params.BaseReserveDrops)
	if err != nil {
		log.WithError(err).Warn("malformed base reserve, using configured fallback")
		baseReserve = s.baseReserveFallback
	}
	incReserve, err := ParseDrops(params.IncReserveDrops)
	if err != nil {
		log.WithError(err).Warn("malformed owner reserve, using configured fallback")
		incReserve = s.incReserveFallback
	}
	return baseReserve, incReserve
}

func (s *service) loadCase(ctx context.Context, caseID string) (*domain.Case, errors.Error) {
	c, err := s.repoManager.Cases().Get(ctx, caseID)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if c == nil {
		return nil, errors.NOT_FOUND.New("case %s not found", caseID).
			WithMetadata(errors.CaseMetadata{CaseID: caseID})
	}
	return c, nil
}

func (s *service) loadOwnedCase(
	ctx context.Context, actor Identity, caseID string,
) (*domain.Case, errors.Error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwner(actor.ID) {
		return nil, errors.FORBIDDEN.New("only the case owner can operate the asset lock").
			WithMetadata(errors.ActorMetadata{CaseID: caseID, ActorID: actor.ID})
	}
	return c, nil
}

func (s *service) loadLock(
	ctx context.Context, caseID string,
) (*domain.AssetLock, errors.Error) {
	lock, err := s.repoManager.AssetLocks().Get(ctx, caseID)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	if lock == nil {
		return nil, errors.NOT_FOUND.New("no asset lock started for case %s", caseID).
			WithMetadata(errors.CaseMetadata{CaseID: caseID})
	}
	return lock, nil
}
