package sessions

import "context"

// Repo persists session state between requests and across restarts.
// Keys are namespaced ("<namespace>:<sessionID>") by the Manager.
type Repo interface {
	// Load returns the stored state and true, or false when nothing is stored under key
	Load(ctx context.Context, key string) (State, bool, error)

	// Save creates or replaces the state stored under key
	Save(ctx context.Context, key string, state State) error

	// Delete removes the state stored under key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	Close() error
}
