package services

import "finledger/internal/core"

// Session identifies the logged-in user. The only way to obtain a usable
// one is AuthService.Authenticate; the zero value is rejected by every
// ledger, budget and report operation.
type Session struct {
	userID   int64
	username string
}

func newSession(u core.User) Session {
	return Session{userID: u.ID, username: u.Username}
}

func (s Session) UserID() int64 {
	return s.userID
}

func (s Session) Username() string {
	return s.username
}

func (s Session) Valid() bool {
	return s.userID > 0
}

func requireSession(s Session) error {
	if !s.Valid() {
		return core.ErrNotAuthenticated
	}
	return nil
}
