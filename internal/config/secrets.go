package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrSecretNotFound is returned by SecretStore.Lookup for unknown keys.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore is a read-only key/value file of credentials, by default
// .streamlit/secrets.toml. Keys are matched case-insensitively.
type SecretStore struct {
	path string
	v    *viper.Viper
}

// OpenSecretStore reads the secrets file at path. The format follows the
// file extension (toml, yaml, json, env); toml is assumed otherwise.
func OpenSecretStore(path string) (*SecretStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read secrets %s: %w", path, err)
	}
	return &SecretStore{path: path, v: v}, nil
}

// Path returns the file backing the store.
func (s *SecretStore) Path() string {
	return s.path
}

// Lookup returns the resolved value for key.
func (s *SecretStore) Lookup(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !s.v.IsSet(key) {
		return "", fmt.Errorf("%s: %w", key, ErrSecretNotFound)
	}
	return ResolveValue(s.v.GetString(key))
}

// DefaultSecretsPaths lists the locations probed when secrets_file is unset.
func DefaultSecretsPaths() []string {
	paths := []string{filepath.Join(".streamlit", "secrets.toml"), "secrets.toml"}
	if dir, err := configDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "secrets.toml"))
	}
	return paths
}

// openSecrets opens the configured secret store or the first default one
// that exists. A missing or unreadable store is not an error.
func openSecrets(configured string, logger *slog.Logger) *SecretStore {
	candidates := DefaultSecretsPaths()
	if configured != "" {
		candidates = []string{configured}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		store, err := OpenSecretStore(path)
		if err != nil {
			logger.Debug("secret store unavailable", "path", path, "error", err)
			return nil
		}
		logger.Debug("using secret store", "path", store.Path())
		return store
	}
	return nil
}
