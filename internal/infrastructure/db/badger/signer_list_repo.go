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

const signerListStoreDir = "signer_lists"

type signerListRepository struct {
	store *badgerhold.Store
}

func NewSignerListRepository(config ...interface{}) (domain.SignerListRepository, error) {
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
		dir = filepath.Join(baseDir, signerListStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open signer list store: %s", err)
	}

	return &signerListRepository{store}, nil
}

func (r *signerListRepository) Get(
	ctx context.Context, caseID string,
) (*domain.SignerList, error) {
	var list domain.SignerList
	err := r.store.Get(caseID, &list)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signer list: %w", err)
	}
	return &list, nil
}

func (r *signerListRepository) Upsert(ctx context.Context, list domain.SignerList) error {
	if err := r.store.Upsert(list.CaseID, &list); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(list.CaseID, &list)
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *signerListRepository) Close() {
	// nolint:all
	r.store.Close()
}
