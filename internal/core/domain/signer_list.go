package domain

import "time"

type SignerListStatus uint8

const (
	SignerListStatusNotReady SignerListStatus = iota
	SignerListStatusSet
	SignerListStatusFailed
)

func (s SignerListStatus) String() string {
	return []string{"NOT_READY", "SET", "FAILED"}[s]
}

type SignerEntry struct {
	Account string
	Weight  uint32
}

// SignerList is the multisig configuration of a case's custody wallet plus the
// partial signatures collected from heirs, keyed by heir identity so that a
// re-submission overwrites instead of duplicating.
type SignerList struct {
	CaseID     string
	Status     SignerListStatus
	Quorum     uint32
	Entries    []SignerEntry
	Signatures map[string]string // heir member id -> signed blob
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QuorumForHeirs returns the on-ledger quorum weight for the given heir count.
// The system entry is weighted heirCount and each heir 1, so the system alone
// can never reach quorum while a bare majority of heirs plus the system can.
func QuorumForHeirs(heirCount int) uint32 {
	return uint32(heirCount + heirCount/2 + 1)
}

// RequiredSignatureCount returns how many heir signatures must be collected
// before the combined transaction is submitted.
func RequiredSignatureCount(heirCount int) int {
	count := heirCount/2 + 1
	if count < 1 {
		count = 1
	}
	return count
}

func NewSignerList(
	caseID, systemAccount string, heirs []CaseMember, now time.Time,
) *SignerList {
	entries := make([]SignerEntry, 0, len(heirs)+1)
	entries = append(entries, SignerEntry{Account: systemAccount, Weight: uint32(len(heirs))})
	for _, heir := range heirs {
		entries = append(entries, SignerEntry{Account: heir.WalletAddress, Weight: 1})
	}
	return &SignerList{
		CaseID:     caseID,
		Status:     SignerListStatusNotReady,
		Quorum:     QuorumForHeirs(len(heirs)),
		Entries:    entries,
		Signatures: make(map[string]string),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
