package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
)

const (
	vaultVersion = 2
	saltSize     = 32
	keySize      = 32
	kdfRounds    = 100000
)

// sealedFile is the on-disk envelope. Data is the GCM nonce followed by the
// sealed JSON map of accounts keyed by username.
type sealedFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Data     []byte    `json:"data"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps session cookies in a single AES-GCM sealed file.
// It is the fallback when no system keyring is available.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// NewEncryptedFileStore opens the sealed credential file at path. The file
// is created on the first Store.
func NewEncryptedFileStore(path, passphrase string) (*EncryptedFileStore, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: []byte(passphrase)}, nil
}

func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		accounts[account.Username] = *account
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	accounts, _, err := e.load()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	account, ok := accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.Lock()
	accounts, _, err := e.load()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	list := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, &account)
	}
	return list, nil
}

// Delete removes one account. The file goes away with the last account.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		if _, ok := accounts[username]; !ok {
			return ErrCredentialsNotFound
		}
		delete(accounts, username)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// update applies fn to the stored accounts and writes the result back
func (e *EncryptedFileStore) update(fn func(accounts map[string]Account) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, salt, err := e.load()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}

	if len(accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}
	return e.save(accounts, salt)
}

// load returns the stored accounts and the file's salt. A missing file is an
// empty store with no salt.
func (e *EncryptedFileStore) load() (map[string]Account, []byte, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return make(map[string]Account), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file sealedFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, nil, fmt.Errorf("credentials file is corrupt: %w", err)
	}
	if file.Version != vaultVersion {
		return nil, nil, fmt.Errorf("unsupported credentials file version %d", file.Version)
	}

	aead, err := e.sealer(file.Salt)
	if err != nil {
		return nil, nil, err
	}
	if len(file.Data) < aead.NonceSize() {
		return nil, nil, errors.New("credentials file is truncated")
	}
	nonce, sealed := file.Data[:aead.NonceSize()], file.Data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt credentials (wrong passphrase?): %w", err)
	}

	accounts := make(map[string]Account)
	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return accounts, file.Salt, nil
}

// save seals accounts and replaces the file atomically. A nil salt is
// generated.
func (e *EncryptedFileStore) save(accounts map[string]Account, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	aead, err := e.sealer(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(sealedFile{
		Version:  vaultVersion,
		Salt:     salt,
		Data:     aead.Seal(nonce, nonce, plain, nil),
		Modified: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), e.path)
}

// sealer derives the AES-256-GCM key for salt from the passphrase
func (e *EncryptedFileStore) sealer(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, kdfRounds, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// ResolvePassphrase returns SAVEFROMINST_PASSPHRASE when set. Otherwise it
// reads the passphrase kept in configDir, generating one on first use.
func ResolvePassphrase(configDir string) (string, error) {
	if pass := os.Getenv(config.EnvPrefix + "PASSPHRASE"); pass != "" {
		return pass, nil
	}

	path := filepath.Join(configDir, ".passphrase")
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.URLEncoding.EncodeToString(b)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	if err := os.WriteFile(path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
