// Package store persists agent snapshots, agent settings and projects as
// key-value records.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Well-known keys.
const (
	KeyAgentStates   = "agentStates"
	KeyAgentSettings = "agentSystemSettings"
	KeyProjectPrefix = "project:"
	KeyLastProject   = "lastProject"
)

// Store is a string-keyed blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// ProjectKey returns the key a project snapshot is stored under.
func ProjectKey(projectID string) string {
	return KeyProjectPrefix + projectID
}
