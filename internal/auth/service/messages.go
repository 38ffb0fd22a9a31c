package service

import "errors"

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email taken")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

// publicMessages fixes the user-facing wording per failure. Handlers
// return these verbatim so the frontend can show them directly.
var publicMessages = []struct {
	sentinel error
	message  string
}{
	{ErrEmailTaken, "This email is already registered."},
	{ErrInvalidEmail, "Please enter a valid email address."},
	{ErrWeakPassword, "Password must be at least 6 characters."},
	{ErrInvalidCredentials, "Incorrect email or password."},
	{ErrSessionExpired, "Your session has expired. Please sign in again."},
}

// PublicMessage maps a service error to its fixed user-facing message,
// empty when the error has none.
func PublicMessage(err error) string {
	for _, m := range publicMessages {
		if errors.Is(err, m.sentinel) {
			return m.message
		}
	}
	return ""
}
