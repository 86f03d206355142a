package domain

import "context"

type AssetLockRepository interface {
	// Get returns nil without error when no lock record exists for the case.
	Get(ctx context.Context, caseID string) (*AssetLock, error)
	Upsert(ctx context.Context, lock AssetLock) error
	Close()
}

type LockItemRepository interface {
	Get(ctx context.Context, caseID, itemID string) (*LockItem, error)
	ListByCase(ctx context.Context, caseID string) ([]LockItem, error)
	Upsert(ctx context.Context, item LockItem) error
	DeleteByCase(ctx context.Context, caseID string) error
	Close()
}
