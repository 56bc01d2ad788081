package models

import "time"

// BrokerAccount is a connected broker account as seen by the sync manager.
// Token and TokenExpiresAt are nil when the account must re-authenticate.
type BrokerAccount struct {
	ID             int64
	UserID         string
	Broker         SourceSystem
	AccountNumber  string
	Token          *string
	TokenExpiresAt *time.Time
	LastSyncedAt   *time.Time
}

// HasToken reports whether the account currently holds a usable token.
func (a BrokerAccount) HasToken() bool {
	return a.Token != nil && *a.Token != ""
}
