package application

import (
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
)

// Identity is the authenticated actor driving an operation, threaded
// explicitly into every service method.
type Identity struct {
	ID string
}

type LockItemInfo struct {
	ID            string              `json:"id"`
	AssetID       string              `json:"assetId"`
	AssetAddress  string              `json:"assetAddress"`
	Token         *domain.TokenAmount `json:"token,omitempty"`
	PlannedAmount string              `json:"plannedAmount"`
	Status        string              `json:"status"`
	TxHash        string              `json:"txHash,omitempty"`
	Error         string              `json:"error,omitempty"`
}

type AssetLockInfo struct {
	CaseID             string            `json:"caseId"`
	Status             string            `json:"status"`
	Method             string            `json:"method"`
	UIStep             int               `json:"uiStep"`
	MethodStep         string            `json:"methodStep,omitempty"`
	RegularKeyStatuses map[string]string `json:"regularKeyStatuses,omitempty"`
	CustodyAddress     string            `json:"custodyAddress"`
	Items              []LockItemInfo    `json:"items"`
}

type SignerEntryInfo struct {
	Account string `json:"account"`
	Weight  uint32 `json:"weight"`
}

type SignerListInfo struct {
	CaseID         string            `json:"caseId"`
	Status         string            `json:"status"`
	Quorum         uint32            `json:"quorum"`
	Entries        []SignerEntryInfo `json:"entries"`
	SignatureCount int               `json:"signatureCount"`
	RequiredCount  int               `json:"requiredCount"`
	Error          string            `json:"error,omitempty"`
}

type ApprovalInfo struct {
	CaseID          string `json:"caseId"`
	Status          string `json:"status"`
	Memo            string `json:"memo,omitempty"`
	SubmittedTxHash string `json:"submittedTxHash,omitempty"`
}

func newLockItemInfo(item domain.LockItem) LockItemInfo {
	return LockItemInfo{
		ID:            item.ID,
		AssetID:       item.AssetID,
		AssetAddress:  item.AssetAddress,
		Token:         item.Token,
		PlannedAmount: item.PlannedAmount,
		Status:        item.Status.String(),
		TxHash:        item.TxHash,
		Error:         item.Error,
	}
}

func newAssetLockInfo(lock domain.AssetLock, items []domain.LockItem) *AssetLockInfo {
	info := &AssetLockInfo{
		CaseID:         lock.CaseID,
		Status:         lock.Status.String(),
		Method:         lock.Method.String(),
		UIStep:         lock.UIStep,
		CustodyAddress: lock.CustodyAddress,
		Items:          make([]LockItemInfo, 0, len(items)),
	}
	if lock.MethodB != nil {
		info.MethodStep = lock.MethodB.Step.String()
		info.RegularKeyStatuses = make(map[string]string, len(lock.MethodB.RegularKeyStatuses))
		for assetID, status := range lock.MethodB.RegularKeyStatuses {
			info.RegularKeyStatuses[assetID] = status.String()
		}
	}
	for _, item := range items {
		info.Items = append(info.Items, newLockItemInfo(item))
	}
	return info
}

func newSignerListInfo(list domain.SignerList, requiredCount int) *SignerListInfo {
	info := &SignerListInfo{
		CaseID:         list.CaseID,
		Status:         list.Status.String(),
		Quorum:         list.Quorum,
		Entries:        make([]SignerEntryInfo, 0, len(list.Entries)),
		SignatureCount: len(list.Signatures),
		RequiredCount:  requiredCount,
		Error:          list.Error,
	}
	for _, entry := range list.Entries {
		info.Entries = append(info.Entries, SignerEntryInfo{
			Account: entry.Account, Weight: entry.Weight,
		})
	}
	return info
}

func newApprovalInfo(approval domain.Approval) *ApprovalInfo {
	return &ApprovalInfo{
		CaseID:          approval.CaseID,
		Status:          approval.Status.String(),
		Memo:            approval.Memo,
		SubmittedTxHash: approval.SubmittedTxHash,
	}
}
