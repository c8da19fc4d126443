package persist

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
)

// Credentials holds the third-party AI API key, encrypted at rest in the
// durable store. The in-memory copy has an explicit lifecycle: Load at
// startup, Clear on logout or reset.
type Credentials struct {
	mu     sync.RWMutex
	kv     KV
	secret [32]byte
	apiKey string
	loaded bool
}

// NewCredentials derives the encryption key from a per-installation secret.
func NewCredentials(kv KV, installSecret string) *Credentials {
	return &Credentials{
		kv:     kv,
		secret: sha256.Sum256([]byte(installSecret)),
	}
}

// Load decrypts the stored API key into memory. A missing key is not an
// error; APIKey simply reports absent.
func (c *Credentials) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, found, err := c.kv.Get(KeyAPIKey)
	if err != nil {
		return fmt.Errorf("credentials: load: %w", err)
	}
	c.loaded = true
	if !found || stored == "" {
		c.apiKey = ""
		return nil
	}

	plain, err := c.decrypt(stored)
	if err != nil {
		return fmt.Errorf("credentials: decrypt: %w", err)
	}
	c.apiKey = plain
	return nil
}

// APIKey returns the loaded key. ok is false when no key is configured.
func (c *Credentials) APIKey() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.apiKey != ""
}

// Store encrypts and persists a new API key, replacing the in-memory copy.
func (c *Credentials) Store(apiKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sealed, err := c.encrypt(apiKey)
	if err != nil {
		return fmt.Errorf("credentials: encrypt: %w", err)
	}
	if err := c.kv.Set(KeyAPIKey, sealed); err != nil {
		return fmt.Errorf("credentials: store: %w", err)
	}
	c.apiKey = apiKey
	c.loaded = true
	return nil
}

// Clear wipes the key from memory and from the durable store.
func (c *Credentials) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(KeyAPIKey, ""); err != nil {
		return fmt.Errorf("credentials: clear: %w", err)
	}
	c.apiKey = ""
	return nil
}

func (c *Credentials) encrypt(plain string) (string, error) {
	block, err := aes.NewCipher(c.secret[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Credentials) decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.secret[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
