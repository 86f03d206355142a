package db

import (
	"fmt"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	badgerdb "github.com/TheTrueTranslate/kototsute-sub000/internal/infrastructure/db/badger"
)

var (
	caseStoreTypes = map[string]func(...interface{}) (domain.CaseRepository, error){
		"badger": badgerdb.NewCaseRepository,
	}
	assetStoreTypes = map[string]func(...interface{}) (domain.AssetRepository, error){
		"badger": badgerdb.NewAssetRepository,
	}
	assetLockStoreTypes = map[string]func(...interface{}) (domain.AssetLockRepository, error){
		"badger": badgerdb.NewAssetLockRepository,
	}
	lockItemStoreTypes = map[string]func(...interface{}) (domain.LockItemRepository, error){
		"badger": badgerdb.NewLockItemRepository,
	}
	signerListStoreTypes = map[string]func(...interface{}) (domain.SignerListRepository, error){
		"badger": badgerdb.NewSignerListRepository,
	}
	approvalStoreTypes = map[string]func(...interface{}) (domain.ApprovalRepository, error){
		"badger": badgerdb.NewApprovalRepository,
	}
)

type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
}

type service struct {
	caseStore       domain.CaseRepository
	assetStore      domain.AssetRepository
	assetLockStore  domain.AssetLockRepository
	lockItemStore   domain.LockItemRepository
	signerListStore domain.SignerListRepository
	approvalStore   domain.ApprovalRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	caseStoreFactory, ok := caseStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	assetStoreFactory, ok := assetStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	assetLockStoreFactory, ok := assetLockStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	lockItemStoreFactory, ok := lockItemStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	signerListStoreFactory, ok := signerListStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	approvalStoreFactory, ok := approvalStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	caseStore, err := caseStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open case store: %s", err)
	}
	assetStore, err := assetStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %s", err)
	}
	assetLockStore, err := assetLockStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset lock store: %s", err)
	}
	lockItemStore, err := lockItemStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock item store: %s", err)
	}
	signerListStore, err := signerListStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open signer list store: %s", err)
	}
	approvalStore, err := approvalStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open approval store: %s", err)
	}

	return &service{
		caseStore:       caseStore,
		assetStore:      assetStore,
		assetLockStore:  assetLockStore,
		lockItemStore:   lockItemStore,
		signerListStore: signerListStore,
		approvalStore:   approvalStore,
	}, nil
}

func (s *service) Cases() domain.CaseRepository {
	return s.caseStore
}

func (s *service) Assets() domain.AssetRepository {
	return s.assetStore
}

func (s *service) AssetLocks() domain.AssetLockRepository {
	return s.assetLockStore
}

func (s *service) LockItems() domain.LockItemRepository {
	return s.lockItemStore
}

func (s *service) SignerLists() domain.SignerListRepository {
	return s.signerListStore
}

func (s *service) Approvals() domain.ApprovalRepository {
	return s.approvalStore
}

func (s *service) Close() {
	s.caseStore.Close()
	s.assetStore.Close()
	s.assetLockStore.Close()
	s.lockItemStore.Close()
	s.signerListStore.Close()
	s.approvalStore.Close()
}
