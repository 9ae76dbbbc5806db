// Package subjectstore remembers the display names of subjects so they are
// scraped only once.
package subjectstore

import (
	"context"
	"errors"
	"fmt"
)

// Store persists subject id to name mappings. Init must be called before
// any other method.
type Store interface {
	Init(ctx context.Context, locator string) error
	// Insert adds or replaces the name of a subject.
	Insert(ctx context.Context, subjectId, name string) error
	Find(ctx context.Context, subjectId string) (name string, found bool, err error)
	FindAll(ctx context.Context) (map[string]string, error)
	Close() error
}

type Kind string

const (
	KindFile  Kind = "file"
	KindSQL   Kind = "sql"
	KindRedis Kind = "redis"
)

var ErrUnknownKind = errors.New("subjectstore: unknown store kind")

// Open creates a store of the given kind and initializes it with locator.
func Open(ctx context.Context, kind Kind, locator string) (Store, error) {
	var store Store
	switch kind {
	case KindFile:
		store = &File{}
	case KindSQL:
		store = &SQL{}
	case KindRedis:
		store = &Redis{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if err := store.Init(ctx, locator); err != nil {
		return nil, fmt.Errorf("init %s subject store: %w", kind, err)
	}
	return store, nil
}
