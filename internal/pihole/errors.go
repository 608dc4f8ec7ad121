package pihole

import "errors"

// ErrUnauthorized is returned for calls that need an API key when the client
// has none, or when the server rejects the key it was given.
var ErrUnauthorized = errors.New("pi-hole api: authentication required")
