package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/spotx/internal/shared"
)

// DefaultProfile is the namespace used when none is configured.
const DefaultProfile = "default"

// OpenCredentialRepository opens the SQLite database at path, applies pending migrations and
// returns a repository for profile along with the database handle, which the caller closes.
func OpenCredentialRepository(cfg shared.DatabaseConfig, profile string) (*CredentialRepository, *sql.DB, error) {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, nil, err
	}

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewCredentialRepository(db, profile), db, nil
}
