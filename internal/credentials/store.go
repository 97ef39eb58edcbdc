// Package credentials persists the user's API keys.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// EnvKeys overrides the stored keys with a comma separated list.
const EnvKeys = "FORMPILOT_API_KEYS"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidKey is returned for keys that cannot be Gemini API keys.
var ErrInvalidKey = errors.New("invalid API key format")

type file struct {
	APIKeys   []string  `json:"apiKeys"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a JSON file of API keys.
type Store struct {
	path   string
	logger *zap.Logger
	getenv func(string) string
}

// NewStore resolves path (a leading ~ is expanded) and returns a store for it.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve credentials path '%s': %w", path, err)
	}
	return &Store{path: expanded, logger: logger.Named("credentials"), getenv: os.Getenv}, nil
}

// Path returns the resolved file path.
func (s *Store) Path() string { return s.path }

// ValidateKey checks the shape of a Gemini key.
func ValidateKey(key string) error {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "AIza") || len(key) <= 20 {
		return ErrInvalidKey
	}
	return nil
}

// Credentials returns the keys to use: the environment override when set,
// otherwise the stored keys. A missing file yields no keys.
func (s *Store) Credentials() ([]string, error) {
	if env := s.getenv(EnvKeys); strings.TrimSpace(env) != "" {
		return splitKeys(env), nil
	}
	return s.Load()
}

// Load reads the stored keys.
func (s *Store) Load() ([]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	return splitKeys(strings.Join(f.APIKeys, ",")), nil
}

// Save replaces the stored keys. The file is written atomically with
// owner-only permissions.
func (s *Store) Save(keys []string) error {
	raw, err := json.MarshalIndent(file{APIKeys: splitKeys(strings.Join(keys, ",")), UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	s.logger.Debug("Credentials saved.", zap.String("path", s.path), zap.Int("keys", len(keys)))
	return nil
}

// Add validates key and appends it unless already stored.
func (s *Store) Add(key string) error {
	key = strings.TrimSpace(key)
	if err := ValidateKey(key); err != nil {
		return err
	}
	keys, err := s.Load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return s.Save(append(keys, key))
}

// Clear removes the credentials file.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Mask hides all but the first and last four characters of key.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func splitKeys(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
