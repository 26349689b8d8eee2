package spotify

import "golang.org/x/oauth2"

// NewVerifier returns a PKCE code verifier: 43 characters from the URL-safe alphabet.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// Challenge derives the S256 code challenge for verifier: unpadded base64url of its SHA-256 digest.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
