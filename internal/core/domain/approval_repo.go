package domain

import "context"

type ApprovalRepository interface {
	// Get returns nil without error when no approval exists for the case.
	Get(ctx context.Context, caseID string) (*Approval, error)
	Upsert(ctx context.Context, approval Approval) error
	Close()
}
