package domain

import "time"

// TokenAmount identifies an issued-currency amount on the ledger. Value is a
// decimal string, never a float.
type TokenAmount struct {
	Currency string
	Issuer   string
	Value    string
}

func (t TokenAmount) Key() string {
	return t.Currency + ":" + t.Issuer
}

// Asset is an owner-registered ledger address. Reserve settings express the
// portion of the balance the owner keeps out of the inheritance. The balance
// snapshot is refreshed from the ledger every time an asset lock starts.
type Asset struct {
	ID      string
	CaseID  string
	Address string
	Label   string

	// ReserveAmount is the reserved native amount as a decimal string, empty
	// when nothing is reserved.
	ReserveAmount  string
	ReservedTokens []TokenAmount

	// last-synced ledger snapshot
	BalanceDrops string
	OwnerCount   uint32
	Tokens       []TokenAmount
	SyncedAt     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservedToken returns the reserve entry matching the given currency+issuer
// key, nil if the owner reserved nothing for that token.
func (a Asset) ReservedToken(key string) *TokenAmount {
	for _, t := range a.ReservedTokens {
		if t.Key() == key {
			return &t
		}
	}
	return nil
}
