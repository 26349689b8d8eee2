// Package server provides HTTP routing, middleware, and the OAuth callback handler used by
// the redirect authorization flows.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] passes the callback's query parameters to a [Completer], normally a spotify.Flow,
// which verifies the state value and exchanges the code. The outcome arrives on [OAuthHandler.Result].
//
// Requests that fail the state check answer 400 and leave the handler waiting for the genuine
// callback. Every other outcome is final; later callbacks are refused.
//
// # Callback Server
//
// When the user runs spotx auth login, [Listen] starts a temporary server on the configured host and port,
// the handler receives the redirect, and the command shuts the server down once a result arrives.
package server
