package domain

import "time"

type CaseStage uint8

const (
	CaseStageDraft CaseStage = iota
	CaseStageWaiting
	CaseStageInProgress
	CaseStageCompleted
)

func (s CaseStage) String() string {
	return []string{"DRAFT", "WAITING", "IN_PROGRESS", "COMPLETED"}[s]
}

type AssetLockStatus uint8

const (
	AssetLockStatusUnlocked AssetLockStatus = iota
	AssetLockStatusLocked
)

func (s AssetLockStatus) String() string {
	return []string{"UNLOCKED", "LOCKED"}[s]
}

type MemberRole uint8

const (
	MemberRoleOwner MemberRole = iota
	MemberRoleHeir
)

func (r MemberRole) String() string {
	return []string{"OWNER", "HEIR"}[r]
}

type WalletStatus uint8

const (
	WalletStatusUnverified WalletStatus = iota
	WalletStatusVerified
)

func (s WalletStatus) String() string {
	return []string{"UNVERIFIED", "VERIFIED"}[s]
}

type CaseMember struct {
	MemberID      string
	Role          MemberRole
	WalletAddress string
	WalletStatus  WalletStatus
}

// Case is the root aggregate of an inheritance case. The custody engine reads
// it for authorization and membership, and updates stage and lock status when
// the asset lock completes.
type Case struct {
	ID              string
	OwnerID         string
	Stage           CaseStage
	AssetLockStatus AssetLockStatus
	Members         []CaseMember
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Case) IsOwner(memberID string) bool {
	return c.OwnerID == memberID
}

func (c Case) IsMember(memberID string) bool {
	if c.OwnerID == memberID {
		return true
	}
	for _, m := range c.Members {
		if m.MemberID == memberID {
			return true
		}
	}
	return false
}

func (c Case) Heirs() []CaseMember {
	heirs := make([]CaseMember, 0, len(c.Members))
	for _, m := range c.Members {
		if m.Role == MemberRoleHeir {
			heirs = append(heirs, m)
		}
	}
	return heirs
}

func (c Case) Heir(memberID string) *CaseMember {
	for _, m := range c.Members {
		if m.Role == MemberRoleHeir && m.MemberID == memberID {
			return &m
		}
	}
	return nil
}

// CanLockAssets reports whether the case stage still allows asset-lock
// operations.
func (c Case) CanLockAssets() bool {
	switch c.Stage {
	case CaseStageDraft, CaseStageWaiting, CaseStageInProgress:
		return true
	default:
		return false
	}
}

// UnverifiedHeirWallet returns the first heir whose wallet ownership has not
// been verified, nil if all heirs are verified.
func (c Case) UnverifiedHeirWallet() *CaseMember {
	for _, m := range c.Members {
		if m.Role != MemberRoleHeir {
			continue
		}
		if m.WalletStatus != WalletStatusVerified {
			return &m
		}
	}
	return nil
}
