package domain

// LocalUser is the subject used when authentication is disabled.
const LocalUser = "local"

// User is the authenticated caller. The identity provider is external; only
// the stable subject it issues is kept.
type User struct {
	Subject string `json:"subject"`
	Email   string `json:"email,omitempty"`
}
