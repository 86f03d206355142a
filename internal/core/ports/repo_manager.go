package ports

import "github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"

type RepoManager interface {
	Cases() domain.CaseRepository
	Assets() domain.AssetRepository
	AssetLocks() domain.AssetLockRepository
	LockItems() domain.LockItemRepository
	SignerLists() domain.SignerListRepository
	Approvals() domain.ApprovalRepository
	Close()
}
