// Package auth issues and verifies the bearer tokens that identify the current user.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrGenerateKey returns the hex-encoded PASETO v4 key stored at keyPath,
// creating it on first run. The file is written to a temp name and renamed so
// a crash never leaves a truncated key behind.
func LoadOrGenerateKey(keyPath string) ([]byte, error) {
	key, err := readKey(keyPath)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, keyBytesSize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}
	if err := writeKey(keyPath, key); err != nil {
		return nil, err
	}
	return key, nil
}

func readKey(keyPath string) ([]byte, error) {
	//#nosec G304 -- key path comes from validated config
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	encoded := strings.TrimSpace(string(raw))
	if len(encoded) != hex.EncodedLen(keyBytesSize) {
		return nil, fmt.Errorf("auth key %s: expected %d hex chars, got %d", keyPath, hex.EncodedLen(keyBytesSize), len(encoded))
	}
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("auth key %s is not valid hex: %w", keyPath, err)
	}
	return key, nil
}

func writeKey(keyPath string, key []byte) error {
	dir := filepath.Dir(keyPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".auth-key-*")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.WriteString(hex.EncodeToString(key)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write auth key: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod auth key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close auth key: %w", err)
	}
	if err := os.Rename(tmp.Name(), keyPath); err != nil {
		return fmt.Errorf("save auth key: %w", err)
	}
	return nil
}
