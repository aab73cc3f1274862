package session

import "errors"

// ErrNotAuthenticated is returned by consumers that need a credential when the
// store holds none.
var ErrNotAuthenticated = errors.New("session: not authenticated")
