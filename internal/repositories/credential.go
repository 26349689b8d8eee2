package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

// CredentialRepository persists credential key/value pairs in the auth_values table.
// It implements spotify.Persister for a single profile.
type CredentialRepository struct {
	db      *sql.DB
	profile string
}

// NewCredentialRepository creates a new [CredentialRepository] scoped to profile.
// An empty profile uses [DefaultProfile].
func NewCredentialRepository(db *sql.DB, profile string) *CredentialRepository {
	if profile == "" {
		profile = DefaultProfile
	}
	return &CredentialRepository{db: db, profile: profile}
}

// Profile returns the namespace this repository reads and writes.
func (r *CredentialRepository) Profile() string {
	return r.profile
}

// Save inserts or replaces the value stored under key.
func (r *CredentialRepository) Save(ctx context.Context, key, value string) error {
	now := time.Now()

	query := `
		INSERT INTO auth_values (id, profile, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, shared.GenerateID(), r.profile, key, value, now, now); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

// Load returns the value stored under key; ok is false when it is absent.
func (r *CredentialRepository) Load(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM auth_values WHERE profile = ? AND key = ?`

	var value string
	err := r.db.QueryRowContext(ctx, query, r.profile, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	return value, true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *CredentialRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM auth_values WHERE profile = ? AND key = ?`

	if _, err := r.db.ExecContext(ctx, query, r.profile, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

// StoredKey describes a persisted entry without exposing its value.
type StoredKey struct {
	Key       string
	UpdatedAt time.Time
}

// Keys lists the keys stored for this profile, ordered by name.
func (r *CredentialRepository) Keys(ctx context.Context) ([]StoredKey, error) {
	query := `
		SELECT key, updated_at
		FROM auth_values
		WHERE profile = ?
		ORDER BY key ASC
	`

	rows, err := r.db.QueryContext(ctx, query, r.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []StoredKey
	for rows.Next() {
		var k StoredKey
		if err := rows.Scan(&k.Key, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return keys, nil
}

// Purge deletes every value for this profile and returns how many rows were removed.
func (r *CredentialRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_values WHERE profile = ?`, r.profile)
	if err != nil {
		return 0, fmt.Errorf("failed to purge profile %s: %w", r.profile, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}
