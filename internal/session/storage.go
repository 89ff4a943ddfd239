// internal/session/storage.go
package session

import "context"

// Storage is the single persisted slot holding the raw credential token.
// An empty string means the slot is vacant. Implementations must be safe
// for concurrent use.
type Storage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Watcher is implemented by storages that can signal external changes to
// the slot (another consumer logging out, for example). The callback fires
// after the change is visible via Load; cancel removes the subscription.
type Watcher interface {
	Watch(fn func()) (cancel func())
}
