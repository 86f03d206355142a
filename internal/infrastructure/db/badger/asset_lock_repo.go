package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const assetLockStoreDir = "asset_locks"

type assetLockRepository struct {
	store *badgerhold.Store
}

func NewAssetLockRepository(config ...interface{}) (domain.AssetLockRepository, error) {
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
		dir = filepath.Join(baseDir, assetLockStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset lock store: %s", err)
	}

	return &assetLockRepository{store}, nil
}

func (r *assetLockRepository) Get(
	ctx context.Context, caseID string,
) (*domain.AssetLock, error) {
	var lock domain.AssetLock
	err := r.store.Get(caseID, &lock)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset lock: %w", err)
	}
	return &lock, nil
}

func (r *assetLockRepository) Upsert(ctx context.Context, lock domain.AssetLock) error {
	if err := r.store.Upsert(lock.CaseID, &lock); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(lock.CaseID, &lock)
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *assetLockRepository) Close() {
	// nolint:all
	r.store.Close()
}
