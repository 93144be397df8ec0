// Package credentials defines the durable key-value holder for the access token.
package credentials

import "context"

// AccessTokenKey is the single key the access token lives under.
const AccessTokenKey = "accessToken"

// Store persists opaque credential strings by key.
//
// Retrieve reports ok=false when the key is absent. Deleting an absent key
// is not an error. Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, key, token string) error
	Retrieve(ctx context.Context, key string) (token string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}
