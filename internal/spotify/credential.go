package spotify

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Credential is the outcome of a successful grant: a bearer token plus its lifetime
// and, for user-delegated flows, a refresh token.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// Expired reports whether the credential's lifetime has passed at now.
// A zero ExpiresAt never expires.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// PendingAuthorization is the state held between initiating a redirect flow and
// completing it.
type PendingAuthorization struct {
	State        string
	CodeVerifier string
	CreatedAt    time.Time
}

// credentialFromToken converts a token endpoint response. expires_in is relative to now.
// A response without an access token or a lifetime is rejected.
func credentialFromToken(tok *oauth2.Token, now time.Time) (Credential, error) {
	if tok == nil || tok.AccessToken == "" {
		return Credential{}, newError(KindAuth, "token response did not include an access token", nil)
	}

	cred := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}

	switch {
	case tok.ExpiresIn > 0:
		cred.ExpiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		cred.ExpiresAt = tok.Expiry
	default:
		return Credential{}, newError(KindAuth, "token response did not include expires_in", nil)
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}

	return cred, nil
}

func (c Credential) String() string {
	return fmt.Sprintf("Credential{expires_at=%s, scope=%q, refreshable=%t}",
		c.ExpiresAt.Format(time.RFC3339), c.Scope, c.RefreshToken != "")
}
