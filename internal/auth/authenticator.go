// Package auth issues and checks the credentials behind the authentication
// gate: bcrypt password accounts and signed bearer tokens.
package auth

import (
	"context"
	"strings"

	"github.com/phobhub/phobhub/internal/models"
)

// Authenticator creates accounts and verifies logins. Swapping it out
// changes the login method without touching the RPC layer.
type Authenticator interface {
	// Register creates an account. Returns ErrEmailExists when the email is
	// taken and ErrWeakPassword when the credential is rejected.
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate returns the account for valid credentials and
	// ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}

// NormalizeEmail trims and lower-cases an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
