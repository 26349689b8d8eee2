package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/keychain"
	"github.com/desertthunder/spotx/internal/redisstore"
	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
)

const (
	BackendMemory  = "memory"
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendRedis   = "redis"
)

// storageBackend returns the normalized backend name, defaulting to sqlite.
func (r *Runner) storageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(r.config.Storage.Backend))
	if backend == "" {
		return BackendSQLite
	}
	return backend
}

// openPersister opens the configured credential backend once per run.
func (r *Runner) openPersister(ctx context.Context) (spotify.Persister, error) {
	if r.persister != nil {
		return r.persister, nil
	}

	backend := r.storageBackend()
	r.logger.Debug("opening credential storage", "backend", backend)

	var persister spotify.Persister
	switch backend {
	case BackendMemory:
		persister = spotify.NewMemoryPersister()

	case BackendSQLite:
		repo, db, err := repositories.OpenCredentialRepository(r.config.Database, repositories.DefaultProfile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		r.closers = append(r.closers, db.Close)
		persister = repo

	case BackendKeyring:
		p, err := keychain.New(r.config.Credentials.Spotify.ClientID)
		if err != nil {
			return nil, err
		}
		persister = p

	case BackendRedis:
		client, err := redisstore.Connect(ctx, r.config.Redis)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, client.Close)
		persister = redisstore.New(client, repositories.DefaultProfile, 0)

	default:
		return nil, fmt.Errorf("%w: %q (want memory, sqlite, keyring or redis)", shared.ErrUnsupportedBackend, backend)
	}

	r.persister = persister
	return persister, nil
}
