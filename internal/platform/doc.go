// Package platform binds the backend's endpoints to typed Go calls.
//
// Each service is a thin request/response mapping over an api.Doer, normally
// the auth Pipeline, so credential attachment and session invalidation apply
// uniformly. Backend routes carry the credential as a path segment; services
// write it as api.TokenPlaceholder and the pipeline fills it in, refusing to
// dispatch when no one is signed in.
//
// AuthService is the only service that writes to the session store: a
// successful login stores the returned identity and credential, a successful
// logout clears them, and a profile update refreshes the stored identity.
package platform
