// Package auth provides password hashing and access tokens for readers.
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

// keyLength is the PASETO v4 local key size in bytes.
const keyLength = 32

// KeyFile is the name of the token key file inside the data directory.
const KeyFile = "auth.key"

// LoadOrGenerateKey returns the token signing key kept hex-encoded in
// <dataPath>/auth.key. The file is created on first start; tokens survive
// restarts only as long as it does.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	path := filepath.Join(dataPath, KeyFile)

	key, err := readKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	key, err = createKey(path)
	if errors.Is(err, fs.ErrExist) {
		// Another server process created it first.
		return readKey(path)
	}
	return key, err
}

func readKey(path string) ([]byte, error) {
	//#nosec G304 -- path is derived from the configured data path
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("auth key %s is not hex: %w", path, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("auth key %s: want %d bytes, got %d", path, keyLength, len(key))
	}
	return key, nil
}

// createKey writes a fresh key to a temp file and links it into place, so
// readers never see a partial key. It fails with fs.ErrExist if the key file
// is already there.
func createKey(path string) ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), KeyFile+".*")
	if err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, writeErr := tmp.WriteString(hex.EncodeToString(key) + "\n")
	if err := errors.Join(writeErr, tmp.Close()); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		return nil, err
	}
	return key, nil
}
