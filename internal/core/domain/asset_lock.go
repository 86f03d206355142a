package domain

import "time"

type LockMethod uint8

const (
	// LockMethodManual: the owner moves funds himself and submits tx hashes as
	// proof, one per planned item.
	LockMethodManual LockMethod = iota
	// LockMethodDelegated: the owner delegates each source account's regular
	// key to the custody wallet and the system performs the transfers.
	LockMethodDelegated
)

func (m LockMethod) String() string {
	return []string{"A", "B"}[m]
}

type LockStatus uint8

const (
	LockStatusDraft LockStatus = iota
	LockStatusReady
	LockStatusLocked
	LockStatusFailed
)

func (s LockStatus) String() string {
	return []string{"DRAFT", "READY", "LOCKED", "FAILED"}[s]
}

type MethodStep uint8

const (
	MethodStepRegularKeySet MethodStep = iota
	MethodStepAutoTransfer
	MethodStepTransferDone
	MethodStepRegularKeyCleared
)

func (s MethodStep) String() string {
	return []string{
		"REGULAR_KEY_SET", "AUTO_TRANSFER", "TRANSFER_DONE", "REGULAR_KEY_CLEARED",
	}[s]
}

type RegularKeyStatus uint8

const (
	RegularKeyStatusUnverified RegularKeyStatus = iota
	RegularKeyStatusVerified
	RegularKeyStatusError
)

func (s RegularKeyStatus) String() string {
	return []string{"UNVERIFIED", "VERIFIED", "ERROR"}[s]
}

// MethodBState carries the sub-phases that only exist for the delegated-key
// method. A manual lock never has one, so an invalid method/step combination
// is unrepresentable.
type MethodBState struct {
	Step               MethodStep
	RegularKeyStatuses map[string]RegularKeyStatus // asset id -> status
}

func (s MethodBState) AllKeysVerified(assetIDs []string) bool {
	if len(assetIDs) == 0 {
		return false
	}
	for _, id := range assetIDs {
		if s.RegularKeyStatuses[id] != RegularKeyStatusVerified {
			return false
		}
	}
	return true
}

// AssetLock is the singleton lock record of a case, created by start and
// terminal at LOCKED.
type AssetLock struct {
	CaseID         string
	Status         LockStatus
	Method         LockMethod
	UIStep         int
	CustodyAddress string
	// CustodySecret is the custody wallet signing key, always encrypted at
	// rest.
	CustodySecret []byte
	MethodB       *MethodBState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewAssetLock(
	caseID string, method LockMethod, custodyAddress string, custodySecret []byte,
	now time.Time,
) *AssetLock {
	lock := &AssetLock{
		CaseID:         caseID,
		Status:         LockStatusReady,
		Method:         method,
		UIStep:         3,
		CustodyAddress: custodyAddress,
		CustodySecret:  custodySecret,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if method == LockMethodDelegated {
		lock.MethodB = &MethodBState{
			Step:               MethodStepRegularKeySet,
			RegularKeyStatuses: make(map[string]RegularKeyStatus),
		}
	}
	return lock
}

type LockItemStatus uint8

const (
	LockItemStatusPending LockItemStatus = iota
	LockItemStatusVerified
	LockItemStatusFailed
)

func (s LockItemStatus) String() string {
	return []string{"PENDING", "VERIFIED", "FAILED"}[s]
}

// LockItem is one planned transfer into the custody wallet: the native balance
// of an asset, or one of its token balances. The whole item set is regenerated
// on every lock start; afterwards items only move between statuses.
type LockItem struct {
	ID           string
	CaseID       string
	AssetID      string
	AssetAddress string
	// Token is nil for the native-currency item.
	Token *TokenAmount
	// PlannedAmount is a minor-unit integer string for native items and a
	// decimal string for token items.
	PlannedAmount string
	Status        LockItemStatus
	TxHash        string
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (i LockItem) IsNative() bool {
	return i.Token == nil
}
