package models

import (
	"strings"
	"time"
)

// Setting is a persisted namespaced key/value pair.
type Setting struct {
	ID        string    `json:"id"`
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QualifiedKey returns "namespace.key".
func (s *Setting) QualifiedKey() string {
	return s.Namespace + "." + s.Key
}

func (s *Setting) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(s.Namespace) == "" {
		validation.AddMessage("namespace", "namespace is required")
	}
	if strings.TrimSpace(s.Key) == "" {
		validation.AddMessage("key", "key is required")
	}
	if s.Value == "" {
		validation.AddMessage("value", "value is required")
	}
	return validation.Err()
}
