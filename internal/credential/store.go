// Package credential persists the RescueTime API key.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tOgg1/devtime/internal/db"
	"github.com/tOgg1/devtime/internal/models"
)

const (
	// Namespace and Key together form the stored name "rescuetime.apiKey".
	Namespace = "rescuetime"
	Key       = "apiKey"
)

// ErrEmptyKey is returned when asked to store a blank key.
var ErrEmptyKey = errors.New("api key is empty")

// Backend is the key/value storage the store writes through.
type Backend interface {
	Get(ctx context.Context, namespace, key string) (*models.Setting, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

// Store reads and writes the single persisted API key.
type Store struct {
	backend Backend
}

// NewStore creates a Store over backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Get returns the stored key. ok is false when no non-blank key is stored.
func (s *Store) Get(ctx context.Context) (key string, ok bool, err error) {
	setting, err := s.backend.Get(ctx, Namespace, Key)
	if errors.Is(err, db.ErrSettingNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read api key: %w", err)
	}
	key = strings.TrimSpace(setting.Value)
	return key, key != "", nil
}

// Set trims and stores key.
func (s *Store) Set(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.backend.Set(ctx, Namespace, Key, key); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	return nil
}

// Clear forgets the stored key. Clearing an absent key is not an error.
func (s *Store) Clear(ctx context.Context) error {
	err := s.backend.Delete(ctx, Namespace, Key)
	if err != nil && !errors.Is(err, db.ErrSettingNotFound) {
		return fmt.Errorf("failed to clear api key: %w", err)
	}
	return nil
}
