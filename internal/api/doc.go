// Package api is the HTTP layer between scribe and the platform backend.
//
// Gateway is the single place that turns an endpoint path into a full URL and
// dispatches it. It knows nothing about sessions: network failures come back
// as *TransportError, non-2xx responses and undecodable 2xx bodies as
// *StatusError, and nothing is retried.
//
// Pipeline wraps a Gateway and owns credential handling. It attaches
// "Authorization: Token <credential>" to every call except the login and
// registration bootstrap endpoints, expands the {token} path segment the
// backend routes on, and inspects each failure. When a failure means the
// session no longer works (see Classify) it clears the session store and
// publishes an InvalidationEvent before returning the failure to the caller
// unchanged in substance.
//
// # Message extraction
//
// The backend reports errors as a bare string body or as an object carrying
// the text under "detail", "message" or "error". ServerMessage tries those in
// that order; Message falls back to the transport text, which is the HTTP
// status line or the network cause without the request URL.
package api
