package rememberme

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateKey reads the key stored in dir, generating and persisting
// a new one when the file does not exist
func LoadOrCreateKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, KeyFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return GenerateKey(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64", ErrKeyMaterial, path)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrKeyMaterial, path, len(key), keySize)
	}

	return key, nil
}

// GenerateKey writes a fresh random key to dir, replacing any existing one.
// Every cookie issued with the previous key becomes unreadable.
func GenerateKey(dir string) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	enc := base64.StdEncoding.EncodeToString(key)
	if err := atomicWriteFile(filepath.Join(dir, KeyFile), []byte(enc), 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMaterial, err)
	}

	return key, nil
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpPath := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}
