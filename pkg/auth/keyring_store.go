package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
)

const (
	keyringPrefix   = "instagram_"
	keyringIndexKey = "accounts"
)

// KeyringStore implements CredentialStore using the system keychain. The
// keychain cannot enumerate entries, so usernames are tracked in an index
// entry alongside the accounts.
type KeyringStore struct {
	service string
	mu      sync.Mutex
}

// NewKeyringStore creates a keyring-backed store, failing when no keyring
// service is reachable
func NewKeyringStore() (*KeyringStore, error) {
	return newKeyringStore(config.AppName)
}

func newKeyringStore(service string) (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(service, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(service, testKey)

	return &KeyringStore{service: service}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(k.service, keyringPrefix+account.Username, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	index := k.loadIndex()
	index[account.Username] = true
	return k.saveIndex(index)
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(k.service, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns every account recorded in the index
func (k *KeyringStore) List() ([]*Account, error) {
	k.mu.Lock()
	index := k.loadIndex()
	k.mu.Unlock()

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	accounts := make([]*Account, 0, len(names))
	for _, name := range names {
		account, err := k.Retrieve(name)
		if err != nil {
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	err := keyring.Delete(k.service, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	index := k.loadIndex()
	delete(index, username)
	return k.saveIndex(index)
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(username string) bool {
	if username == "" {
		return false
	}
	_, err := keyring.Get(k.service, keyringPrefix+username)
	return err == nil
}

func (k *KeyringStore) loadIndex() map[string]bool {
	index := make(map[string]bool)
	data, err := keyring.Get(k.service, keyringIndexKey)
	if err != nil {
		return index
	}

	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return index
	}
	for _, name := range names {
		index[name] = true
	}
	return index
}

func (k *KeyringStore) saveIndex(index map[string]bool) error {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal keyring index: %w", err)
	}
	if err := keyring.Set(k.service, keyringIndexKey, string(data)); err != nil {
		return fmt.Errorf("failed to update keyring index: %w", err)
	}
	return nil
}
