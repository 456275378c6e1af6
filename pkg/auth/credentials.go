package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
)

// Account holds the Instagram session cookies for one login
type Account struct {
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
	Exists(username string) bool
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Manager handles credential storage with fallback mechanisms. Stores are
// tried in order: writes go to the first store that accepts them, reads come
// from the first store that has the account.
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager over the system keyring (when
// available), an encrypted file in the config directory and the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	passphrase, err := ResolvePassphrase(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return NewManagerWithStores(stores...), nil
}

// NewManagerWithStores creates a manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return errors.New("username is required")
	}
	if account.SessionID == "" {
		return errors.New("session ID is required")
	}
	if account.CSRFToken == "" {
		return errors.New("CSRF token is required")
	}

	account.LastModified = time.Now()

	var errs []error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// RetrieveDefault returns the most recently modified account
func (m *Manager) RetrieveDefault() (*Account, error) {
	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}
	return accounts[0], nil
}

// List returns all stored accounts, newest first. When several stores hold
// the same username the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := accountMap[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Username] = account
			}
		}
	}

	result := make([]*Account, 0, len(accountMap))
	for _, account := range accountMap {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].Username < result[j].Username
		}
		return result[i].LastModified.After(result[j].LastModified)
	})

	return result, nil
}

// Delete removes credentials from every store that has them
func (m *Manager) Delete(username string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		}
	}

	if !deleted {
		return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
	}
	return nil
}

// ApplyTo fills the Instagram session in cfg from the stored account named by
// cfg.Instagram.Account, or the default account. Sessions already set in cfg
// (from env or flags) win. It reports whether a stored session was applied.
func (m *Manager) ApplyTo(cfg *config.Config) (bool, error) {
	if cfg.Instagram.SessionID != "" {
		return false, nil
	}

	var (
		account *Account
		err     error
	)
	if cfg.Instagram.Account != "" {
		account, err = m.Retrieve(cfg.Instagram.Account)
	} else {
		account, err = m.RetrieveDefault()
	}
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) && cfg.Instagram.Account == "" {
			return false, nil
		}
		return false, err
	}

	cfg.Instagram.SessionID = account.SessionID
	cfg.Instagram.CSRFToken = account.CSRFToken
	if account.UserAgent != "" {
		cfg.Instagram.UserAgent = account.UserAgent
	}
	return true, nil
}

// ConfigDir returns the per-user configuration directory, creating it if needed
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", config.AppName)
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), config.AppName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, config.AppName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", config.AppName)
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with sensitive data masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Username:     account.Username,
		SessionID:    maskString(account.SessionID),
		CSRFToken:    maskString(account.CSRFToken),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
