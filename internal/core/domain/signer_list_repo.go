package domain

import "context"

type SignerListRepository interface {
	// Get returns nil without error when no signer list exists for the case.
	Get(ctx context.Context, caseID string) (*SignerList, error)
	Upsert(ctx context.Context, list SignerList) error
	Close()
}
