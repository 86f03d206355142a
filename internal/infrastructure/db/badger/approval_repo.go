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

const approvalStoreDir = "approvals"

type approvalRepository struct {
	store *badgerhold.Store
}

func NewApprovalRepository(config ...interface{}) (domain.ApprovalRepository, error) {
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
		dir = filepath.Join(baseDir, approvalStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open approval store: %s", err)
	}

	return &approvalRepository{store}, nil
}

func (r *approvalRepository) Get(
	ctx context.Context, caseID string,
) (*domain.Approval, error) {
	var approval domain.Approval
	err := r.store.Get(caseID, &approval)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &approval, nil
}

func (r *approvalRepository) Upsert(ctx context.Context, approval domain.Approval) error {
	if err := r.store.Upsert(approval.CaseID, &approval); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			attempts := 1
			for errors.Is(err, badger.ErrConflict) && attempts <= maxRetries {
				time.Sleep(100 * time.Millisecond)
				err = r.store.Upsert(approval.CaseID, &approval)
				attempts++
			}
		}
		return err
	}
	return nil
}

func (r *approvalRepository) Close() {
	// nolint:all
	r.store.Close()
}
