// Package session owns the client's authentication state: the current
// credential and the identity it belongs to.
//
// A Store is constructed once at process start over a storage.Storage and
// injected into every consumer. It mirrors each change into durable storage
// under the auth_token and user keys, and broadcasts the new State to
// subscribers synchronously, in subscription order. The store has exactly two
// states, anonymous and authenticated; SetSession with a credential moves it
// to authenticated and ClearSession moves it back.
//
// A stored identity that cannot be decoded is discarded and logged rather
// than surfaced, so a damaged state file never blocks a user from signing in
// again.
package session
