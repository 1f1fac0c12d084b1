package pledge

import "time"

// Payout is the payout configuration of a project owner: the connected
// processor accounts and a refreshable delegated access token.
type Payout struct {
	ID             int64
	OwnerID        int64
	TestAccountID  string
	LiveAccountID  string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
}

// AccountID returns the connected account for the platform mode.
func (p *Payout) AccountID(testMode bool) string {
	if testMode {
		return p.TestAccountID
	}
	return p.LiveAccountID
}

// HasDestination reports whether a connected account is configured.
func (p *Payout) HasDestination(testMode bool) bool {
	return p != nil && p.ID > 0 && p.AccountID(testMode) != ""
}

// TokenExpired reports whether the access token must be refreshed at now.
func (p *Payout) TokenExpired(now time.Time) bool {
	return p.AccessToken == "" || !now.Before(p.TokenExpiresAt)
}
