// Package engine wraps the database engine's point tools behind a small
// interface. The backup core never reimplements dump or restore semantics;
// it only streams bytes to and from these primitives and observes their
// exit status.
package engine

import (
	"context"
	"io"
)

// Engine is the external database collaborator
type Engine interface {
	// Export streams a full logical dump of the database into w
	Export(ctx context.Context, w io.Writer) error

	// Import replays dump statements from r against the database
	Import(ctx context.Context, r io.Reader) error

	// ResetSchema drops and recreates the default schema. Destructive and
	// irreversible without a prior snapshot.
	ResetSchema(ctx context.Context) error

	// DatabaseName returns the logical name of the target database
	DatabaseName() string
}
