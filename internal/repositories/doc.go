// Package repositories implements SQLite persistence for credentials.
//
// [CredentialRepository] stores the credential store's key/value pairs in the auth_values table,
// namespaced by profile so several client configurations can share one database file.
// Rows carry a UUID and created/updated timestamps; values are never logged.
//
// The schema is created by the embedded migrations in the shared package; see [OpenCredentialRepository].
package repositories
