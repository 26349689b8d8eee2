// Package spotify implements the credential lifecycle of a Spotify Web API client and the
// dispatcher every authenticated request passes through.
//
// # Grant Flows
//
// A [Flow] obtains a [Credential] under one of three grant kinds:
//   - [AuthorizationCodePKCE]: [Flow.Initiate] returns an authorization URL carrying an S256
//     code challenge; [Flow.Complete] exchanges the callback code with the matching verifier.
//     No client secret is ever sent.
//   - [AuthorizationCodeConfidential]: the same redirect round trip, exchanged with HTTP Basic
//     client authentication.
//   - [ClientCredentials]: [Flow.Authorize] makes a single token request with no user involved.
//
// Redirect completions validate the state parameter before anything else. A callback
// without a pending authorization, without state, or with a state that differs fails
// with CSRFInvalid and no token request is made.
//
// Refresh is explicit ([Flow.Refresh]); nothing here schedules it.
//
// # Credential Store
//
// The [Store] holds at most one credential and one pending authorization behind a
// read/write lock. An optional [Persister] mirrors every write under the same lock;
// [Store.Restore] reloads a previous session.
//
// # Dispatch
//
// [Dispatcher.AuthGet], [Dispatcher.AuthPut] and [Dispatcher.AuthDelete] attach the stored
// bearer token at call time and map non-2xx responses through [Classify]:
//
//	401 -> ReAuthNeeded
//	403 -> Forbidden
//	429 -> RateLimited
//	*   -> HTTPErr(status)
//
// # Error Handling
//
// Every failure is an [*Error]. Match kinds with errors.Is against [ErrAuth],
// [ErrCSRFInvalid], [ErrReAuthNeeded], [ErrForbidden], [ErrRateLimited] and [ErrHTTP],
// or against the matching sentinels in the shared package.
package spotify
