package core

import "time"

// Identity represents an account record in the identity store.
//
// The store assigns ID at creation; it never changes afterwards.
type Identity struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TransferToken is the short-lived credential handed to a client after a
// successful wallet authentication. Secret is only ever populated on the
// value returned at creation time.
type TransferToken struct {
	IdentityID string    `json:"identityId"`
	Secret     string    `json:"secret"`
	ExpiresAt  time.Time `json:"-"`
}

// Session represents an active login session
type Session struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identityId"`
	TokenHash  string    `json:"-"` // Never expose in JSON (security!)
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SessionData combines identity and session info
// The model returned to clients
type SessionData struct {
	Identity *Identity `json:"identity"`
	Session  *Session  `json:"session"`
}

type CreateSessionResult struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

type SessionConfig struct {
	MaxAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: 24 * time.Hour,
	}
}
