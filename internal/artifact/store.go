package artifact

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact not found")

// Store holds exactly one summary artifact. Put replaces it atomically.
type Store interface {
	Put(ctx context.Context, data []byte) error
	Get(ctx context.Context) ([]byte, error)
}
