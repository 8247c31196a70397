package port

import "context"

// BrowserStorage is the key/value store owned by one browser session.
type BrowserStorage interface {
	// GetItem returns the stored value and whether the key exists
	GetItem(ctx context.Context, key string) ([]byte, bool, error)

	// SetItem overwrites the value stored under key
	SetItem(ctx context.Context, key string, value []byte) error

	// RemoveItem deletes key; removing an absent key is not an error
	RemoveItem(ctx context.Context, key string) error
}

type StorageProvider interface {
	// Storage returns the namespace for browserID
	Storage(browserID string) BrowserStorage
}
