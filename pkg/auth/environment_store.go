package auth

import (
	"os"
	"time"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
)

// envUsername names the account backed by environment variables
const envUsername = "env"

// EnvironmentStore exposes a session given through SAVEFROMINST_SESSION_ID
// and SAVEFROMINST_CSRF_TOKEN as a read-only account
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment session for "env" or an empty username
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	if username != "" && username != envUsername {
		return nil, ErrCredentialsNotFound
	}

	sessionID := os.Getenv(config.EnvPrefix + "SESSION_ID")
	csrfToken := os.Getenv(config.EnvPrefix + "CSRF_TOKEN")
	if sessionID == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:  envUsername,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		UserAgent: os.Getenv(config.EnvPrefix + "USER_AGENT"),
		// Zero time keeps stored accounts ahead of the environment in listings
		LastModified: time.Time{},
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
