package domain

import "context"

type AssetRepository interface {
	Get(ctx context.Context, assetID string) (*Asset, error)
	ListByCase(ctx context.Context, caseID string) ([]Asset, error)
	Upsert(ctx context.Context, asset Asset) error
	Close()
}
