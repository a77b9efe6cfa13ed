// Package server runs the local HTTP endpoint that completes the Spotify authorization code flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] is the only middleware the callback server installs.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter (CSRF protection), exchanges the authorization code
// through an [Exchanger] and sends the result through a channel. It only processes one callback.
//
// # Callback Server
//
// `hans auth` starts a [CallbackServer] on the configured host and port, opens the browser at the
// Spotify authorize URL and waits for the redirect. The server shuts down once a result arrives.
package server
