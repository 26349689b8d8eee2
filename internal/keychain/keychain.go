// Package keychain persists credentials in the operating system's secret store
// (macOS Keychain, Secret Service, Windows Credential Manager).
package keychain

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const servicePrefix = "spotx:"

// Persister stores each credential key as a keyring item under the service
// "spotx:<client id>", so credentials for different applications never collide.
type Persister struct {
	service string
}

// New returns a Persister for clientID.
func New(clientID string) (*Persister, error) {
	if clientID == "" {
		return nil, errors.New("keychain: client id is required")
	}
	return &Persister{service: servicePrefix + clientID}, nil
}

// Service returns the keyring service name items are stored under.
func (p *Persister) Service() string {
	return p.service
}

func (p *Persister) Save(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := keyring.Set(p.service, key, value); err != nil {
		return fmt.Errorf("keychain: save %s: %w", key, err)
	}
	return nil
}

func (p *Persister) Load(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, err := keyring.Get(p.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keychain: load %s: %w", key, err)
	}
	return value, true, nil
}

// Delete removes key. A missing item is not an error.
func (p *Persister) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := keyring.Delete(p.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain: delete %s: %w", key, err)
	}
	return nil
}
