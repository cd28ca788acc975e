package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tOgg1/devtime/internal/models"
)

var (
	ErrSettingNotFound = errors.New("setting not found")
)

// SettingRepository persists namespaced key/value settings.
type SettingRepository struct {
	db *DB
}

func NewSettingRepository(db *DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Set stores value under namespace/key, replacing any previous value.
func (r *SettingRepository) Set(ctx context.Context, namespace, key, value string) error {
	entry := &models.Setting{
		Namespace: strings.TrimSpace(namespace),
		Key:       strings.TrimSpace(key),
		Value:     value,
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid setting: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		// UPDATE then INSERT keeps this working on SQLite builds without upsert.
		result, err := tx.ExecContext(ctx, `
			UPDATE settings
			SET value = ?, updated_at = ?
			WHERE namespace = ? AND key = ?
		`, entry.Value, now, entry.Namespace, entry.Key)
		if err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO settings (id, namespace, key, value, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), entry.Namespace, entry.Key, entry.Value, now, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("setting %s was created concurrently: %w", entry.QualifiedKey(), err)
			}
			return fmt.Errorf("failed to insert setting: %w", err)
		}
		return nil
	})
}

// Get returns the setting or ErrSettingNotFound.
func (r *SettingRepository) Get(ctx context.Context, namespace, key string) (*models.Setting, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, namespace, key, value, created_at, updated_at
		FROM settings
		WHERE namespace = ? AND key = ?
	`, strings.TrimSpace(namespace), strings.TrimSpace(key))
	return r.scanSetting(row)
}

// List returns every setting in namespace ordered by key.
func (r *SettingRepository) List(ctx context.Context, namespace string) ([]*models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, namespace, key, value, created_at, updated_at
		FROM settings
		WHERE namespace = ?
		ORDER BY key
	`, strings.TrimSpace(namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Setting, 0)
	for rows.Next() {
		entry, err := r.scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return out, nil
}

// Delete removes the setting; ErrSettingNotFound when it did not exist.
func (r *SettingRepository) Delete(ctx context.Context, namespace, key string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM settings WHERE namespace = ? AND key = ?
	`, strings.TrimSpace(namespace), strings.TrimSpace(key))
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrSettingNotFound
	}
	return nil
}

func (r *SettingRepository) scanSetting(scanner interface{ Scan(...any) error }) (*models.Setting, error) {
	var (
		entry     models.Setting
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&entry.ID, &entry.Namespace, &entry.Key, &entry.Value, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to scan setting: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		entry.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		entry.UpdatedAt = t
	}
	return &entry, nil
}
