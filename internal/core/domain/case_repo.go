package domain

import "context"

type CaseRepository interface {
	Get(ctx context.Context, caseID string) (*Case, error)
	Upsert(ctx context.Context, c Case) error
	Close()
}
