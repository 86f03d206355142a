package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const lockItemStoreDir = "lock_items"

type lockItemRepository struct {
	store *badgerhold.Store
}

func NewLockItemRepository(config ...interface{}) (domain.LockItemRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, lockItemStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock item store: %s", err)
	}

	return &lockItemRepository{store}, nil
}

func (r *lockItemRepository) Get(
	ctx context.Context, caseID, itemID string,
) (*domain.LockItem, error) {
	var item domain.LockItem
	err := r.store.Get(itemID, &item)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lock item: %w", err)
	}
	if item.CaseID != caseID {
		return nil, nil
	}
	return &item, nil
}

func (r *lockItemRepository) ListByCase(
	ctx context.Context, caseID string,
) ([]domain.LockItem, error) {
	var items []domain.LockItem
	if err := r.store.Find(&items, badgerhold.Where("CaseID").Eq(caseID)); err != nil {
		return nil, fmt.Errorf("failed to list lock items: %w", err)
	}
	// Deterministic order: grouped per asset, native before tokens.
	sort.Slice(items, func(i, j int) bool {
		return lockItemLess(items[i], items[j])
	})
	return items, nil
}

func (r *lockItemRepository) Upsert(ctx context.Context, item domain.LockItem) error {
	if err := r.store.Upsert(item.ID, &item); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(item.ID, &item)
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *lockItemRepository) DeleteByCase(ctx context.Context, caseID string) error {
	err := r.store.DeleteMatching(&domain.LockItem{}, badgerhold.Where("CaseID").Eq(caseID))
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete lock items: %w", err)
	}
	return nil
}

func (r *lockItemRepository) Close() {
	// nolint:all
	r.store.Close()
}

func lockItemLess(a, b domain.LockItem) bool {
	if a.AssetID != b.AssetID {
		return a.AssetID < b.AssetID
	}
	if a.IsNative() != b.IsNative() {
		return a.IsNative()
	}
	return a.ID < b.ID
}
