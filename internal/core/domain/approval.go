package domain

import "time"

type ApprovalStatus uint8

const (
	ApprovalStatusPrepared ApprovalStatus = iota
	ApprovalStatusSubmitted
)

func (s ApprovalStatus) String() string {
	return []string{"PREPARED", "SUBMITTED"}[s]
}

// Approval is the distribution-authorizing transaction prepared under the
// custody wallet's multisig authority. It is submitted at most once: the
// PREPARED -> SUBMITTED transition is what collapses racing quorum-crossing
// signature submissions.
type Approval struct {
	CaseID           string
	TxJSON           string
	Memo             string
	SystemSignedBlob string
	Status           ApprovalStatus
	SubmittedTxHash  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
