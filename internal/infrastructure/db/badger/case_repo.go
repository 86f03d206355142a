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

const caseStoreDir = "cases"

type caseRepository struct {
	store *badgerhold.Store
}

func NewCaseRepository(config ...interface{}) (domain.CaseRepository, error) {
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
		dir = filepath.Join(baseDir, caseStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open case store: %s", err)
	}

	return &caseRepository{store}, nil
}

func (r *caseRepository) Get(ctx context.Context, caseID string) (*domain.Case, error) {
	var c domain.Case
	err := r.store.Get(caseID, &c)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (r *caseRepository) Upsert(ctx context.Context, c domain.Case) error {
	if err := r.store.Upsert(c.ID, &c); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(c.ID, &c)
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *caseRepository) Close() {
	// nolint:all
	r.store.Close()
}
