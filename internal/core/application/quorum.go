package application

import (
	"context"
	"sort"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// setupSignerList configures the custody wallet's on-ledger multisig: one
// system entry weighted by heir count plus one weight-1 entry per heir. The
// outcome is persisted either way so a later read reflects the failure.
func (s *service) setupSignerList(
	ctx context.Context, c domain.Case, custody ports.Wallet,
) errors.Error {
	heirs := c.Heirs()
	if len(heirs) == 0 {
		return errors.SIGNER_LIST_FAILED.New("case %s has no heirs to sign with", c.ID).
			WithMetadata(errors.SignerListMetadata{CaseID: c.ID, Reason: "no heirs"})
	}

	list := domain.NewSignerList(c.ID, s.systemAccount, heirs, s.now())
	if err := s.ledger.SetSignerList(ctx, custody, list.Entries, list.Quorum); err != nil {
		list.Status = domain.SignerListStatusFailed
		list.Error = err.Error()
		list.UpdatedAt = s.now()
		if uerr := s.repoManager.SignerLists().Upsert(ctx, *list); uerr != nil {
			log.WithError(uerr).Errorf("failed to persist failed signer list for case %s", c.ID)
		}
		return errors.SIGNER_LIST_FAILED.Wrap(err).
			WithMetadata(errors.SignerListMetadata{CaseID: c.ID, Reason: err.Error()})
	}

	list.Status = domain.SignerListStatusSet
	list.UpdatedAt = s.now()
	if uerr := s.repoManager.SignerLists().Upsert(ctx, *list); uerr != nil {
		return errors.INTERNAL_ERROR.Wrap(uerr)
	}
	return nil
}

func (s *service) PrepareApproval(
	ctx context.Context, caseID, txJSON, memo string,
) (*ApprovalInfo, error) {
	if txJSON == "" {
		return nil, errors.VALIDATION_ERROR.New("missing transaction to approve")
	}
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}
	if _, err := s.loadLock(ctx, caseID); err != nil {
		return nil, err
	}

	systemBlob, serr := s.ledger.SignForMultisig(ctx, txJSON, s.systemAccount, s.systemSecret)
	if serr != nil {
		return nil, errors.XRPL_ERROR.Wrap(serr)
	}

	now := s.now()
	approval := domain.Approval{
		CaseID:           caseID,
		TxJSON:           txJSON,
		Memo:             memo,
		SystemSignedBlob: systemBlob,
		Status:           domain.ApprovalStatusPrepared,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if uerr := s.repoManager.Approvals().Upsert(ctx, approval); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}
	return newApprovalInfo(approval), nil
}

func (s *service) SubmitSignature(
	ctx context.Context, actor Identity, caseID, signedBlob string,
) (*SignerListInfo, error) {
	if signedBlob == "" {
		return nil, errors.VALIDATION_ERROR.New("missing signed transaction blob")
	}
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	heir := c.Heir(actor.ID)
	if heir == nil {
		return nil, errors.FORBIDDEN.New("only heirs of the case can sign the distribution").
			WithMetadata(errors.ActorMetadata{CaseID: caseID, ActorID: actor.ID})
	}
	if heir.WalletStatus != domain.WalletStatusVerified {
		return nil, errors.WALLET_NOT_VERIFIED.New(
			"heir %s wallet is not verified", heir.MemberID,
		).WithMetadata(errors.WalletMetadata{
			MemberID: heir.MemberID, Address: heir.WalletAddress,
		})
	}

	list, lerr := s.repoManager.SignerLists().Get(ctx, caseID)
	if lerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(lerr)
	}
	if list == nil || list.Status != domain.SignerListStatusSet {
		return nil, errors.VALIDATION_ERROR.New("signer list is not configured for case %s", caseID)
	}

	blobInfo, derr := s.ledger.DecodeSignedTx(ctx, signedBlob)
	if derr != nil {
		return nil, errors.VALIDATION_ERROR.Wrap(derr)
	}
	if blobInfo.SignerAccount != heir.WalletAddress {
		return nil, errors.VERIFY_FROM_MISMATCH.New("signature is not from the heir's wallet").
			WithMetadata(errors.MismatchMetadata{
				Expected: heir.WalletAddress, Got: blobInfo.SignerAccount,
			})
	}

	approval, aerr := s.repoManager.Approvals().Get(ctx, caseID)
	if aerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(aerr)
	}
	if approval != nil && approval.Memo != "" && !containsMemo(blobInfo.Memos, approval.Memo) {
		return nil, errors.VERIFY_MEMO_MISMATCH.New("signed transaction carries the wrong memo").
			WithMetadata(errors.MismatchMetadata{Expected: approval.Memo})
	}

	// One signature per heir: a re-submission overwrites.
	if list.Signatures == nil {
		list.Signatures = make(map[string]string)
	}
	list.Signatures[heir.MemberID] = signedBlob
	list.UpdatedAt = s.now()
	if uerr := s.repoManager.SignerLists().Upsert(ctx, *list); uerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(uerr)
	}

	requiredCount := domain.RequiredSignatureCount(len(c.Heirs()))
	if len(list.Signatures) >= requiredCount {
		if serr := s.combineAndSubmit(ctx, caseID, *list); serr != nil {
			return nil, serr
		}
	}

	return newSignerListInfo(*list, requiredCount), nil
}

// combineAndSubmit assembles all partial signatures plus the system's base
// signature into one multisigned transaction and submits it. The PREPARED
// check immediately before submitting is what collapses duplicate submissions
// from racing signers.
func (s *service) combineAndSubmit(
	ctx context.Context, caseID string, list domain.SignerList,
) errors.Error {
	approval, err := s.repoManager.Approvals().Get(ctx, caseID)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	if approval == nil || approval.SystemSignedBlob == "" {
		return errors.SYSTEM_SIGNER_MISSING.New(
			"no system-signed approval prepared for case %s", caseID,
		).WithMetadata(errors.CaseMetadata{CaseID: caseID})
	}
	if approval.Status != domain.ApprovalStatusPrepared {
		// Another quorum-crossing submission already went through.
		return nil
	}

	heirIDs := make([]string, 0, len(list.Signatures))
	for heirID := range list.Signatures {
		heirIDs = append(heirIDs, heirID)
	}
	sort.Strings(heirIDs)

	blobs := make([]string, 0, len(heirIDs)+1)
	for _, heirID := range heirIDs {
		blobs = append(blobs, list.Signatures[heirID])
	}
	blobs = append(blobs, approval.SystemSignedBlob)

	txHash, serr := s.ledger.SubmitMultisigned(ctx, approval.TxJSON, blobs)
	if serr != nil {
		return errors.XRPL_ERROR.Wrap(serr)
	}

	approval.Status = domain.ApprovalStatusSubmitted
	approval.SubmittedTxHash = txHash
	approval.UpdatedAt = s.now()
	if uerr := s.repoManager.Approvals().Upsert(ctx, *approval); uerr != nil {
		return errors.INTERNAL_ERROR.Wrap(uerr)
	}
	log.WithField("case_id", caseID).WithField("tx_hash", txHash).
		Info("distribution transaction submitted")
	return nil
}

func (s *service) GetSignerList(
	ctx context.Context, actor Identity, caseID string,
) (*SignerListInfo, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsMember(actor.ID) {
		return nil, errors.FORBIDDEN.New("only case members can read the signer list").
			WithMetadata(errors.ActorMetadata{CaseID: caseID, ActorID: actor.ID})
	}

	requiredCount := domain.RequiredSignatureCount(len(c.Heirs()))
	list, lerr := s.repoManager.SignerLists().Get(ctx, caseID)
	if lerr != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(lerr)
	}
	if list == nil {
		// Singleton sub-resource: an unset signer list reads as NOT_READY.
		return newSignerListInfo(domain.SignerList{
			CaseID: caseID,
			Status: domain.SignerListStatusNotReady,
		}, requiredCount), nil
	}
	return newSignerListInfo(*list, requiredCount), nil
}
