// Package services defines the [MusicService] interface the DJ tooling drives and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] wraps [spotify.Client] from github.com/zmb3/spotify/v2. The client rides on an
// [oauth2] HTTP client whose token source refreshes expired tokens and reports each new token
// through the callback set with [SpotifyService.SetTokenRefreshCallback], so the CLI can keep its
// token cache current. Calls are throttled by a [rate.Limiter].
//
// # Target Playlist
//
// [TargetResolver] decides which playlist receives matched requests. It is shared by the
// drain engine, the dashboard search box and the dj command:
//   - by name: case-insensitive match on the configured name, created (public) when missing
//   - first: the first playlist in the user's listing
//
// # Raw Requests
//
// [APIService] sends arbitrary requests over the authenticated client for poking at endpoints
// the typed service does not model.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : the API rejected the token
//   - [shared.ErrNoActiveDevice] : a player command found no device
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrPlaylistNotFound] : playlist index or target could not be resolved
package services
