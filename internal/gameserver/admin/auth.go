package admin

import (
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/questd/internal/config"
)

// Accounts verifies admin tokens presented in the Hello packet.
type Accounts struct {
	accounts []config.AdminAccount
}

// NewAccounts creates a token verifier from configured accounts.
func NewAccounts(accounts []config.AdminAccount) *Accounts {
	return &Accounts{accounts: accounts}
}

// Authenticate returns the name and access level of the account owning token.
func (a *Accounts) Authenticate(token string) (string, int32, bool) {
	if token == "" {
		return "", 0, false
	}
	for _, acc := range a.accounts {
		err := bcrypt.CompareHashAndPassword([]byte(acc.TokenHash), []byte(token))
		if err == nil {
			return acc.Name, acc.AccessLevel, true
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.Warn("invalid admin token hash", "account", acc.Name, "error", err)
		}
	}
	return "", 0, false
}
