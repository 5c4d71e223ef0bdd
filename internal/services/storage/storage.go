package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// minPassphraseLen applies when sealing a file
	minPassphraseLen = 8
)

var (
	// ErrLocked is returned when an encrypted file is read before Unlock
	ErrLocked = errors.New("file is encrypted but storage is locked")

	// ErrWrongPassphrase is returned when decryption fails with the unlocked identity
	ErrWrongPassphrase = errors.New("incorrect passphrase")
)

// Storage provides transparent access to plain or age-encrypted dataset files
type Storage struct {
	identity *age.ScryptIdentity
	mu       sync.RWMutex
}

// New creates a locked Storage. Plain files can be read without unlocking.
func New() *Storage {
	return &Storage{}
}

// IsUnlocked returns true once a passphrase has been supplied
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Unlock derives the scrypt identity used to decrypt files.
// The passphrase is checked on the first read of an encrypted file.
func (s *Storage) Unlock(passphrase string) error {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	return nil
}

// Lock clears the key material from memory
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
}

// IsEncrypted reports whether the file at path starts with the age header
func (s *Storage) IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(ageHeader)+1)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return isAgeEncrypted(head[:n]), nil
}

// ReadFile reads and, when needed, decrypts a file
func (s *Storage) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !isAgeEncrypted(data) {
		return data, nil
	}

	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()

	if identity == nil {
		return nil, ErrLocked
	}
	plain, err := decryptData(data, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}
	return plain, nil
}

// Seal encrypts a file in place with the given passphrase.
// Files that are already encrypted are left untouched.
func (s *Storage) Seal(path, passphrase string) error {
	if len(passphrase) < minPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters", minPassphraseLen)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isAgeEncrypted(data) {
		return nil
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	encrypted, err := encryptData(data, recipient)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", filepath.Base(path), err)
	}

	return atomicWrite(path, encrypted, 0644)
}

// Unseal decrypts a file in place using the unlocked identity
func (s *Storage) Unseal(path string) error {
	data, err := s.ReadFile(path)
	if err != nil {
		return err
	}
	return atomicWrite(path, data, 0644)
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}

func encryptData(data []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decryptData(data []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
