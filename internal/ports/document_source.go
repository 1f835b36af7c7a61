package ports

import (
	"context"
	"time"

	"github.com/bft-labs/canvasship/internal/domain"
)

// DocumentSource provides the surface document.
type DocumentSource interface {
	// Load reads the current document once.
	Load(ctx context.Context) (domain.Document, error)

	// Watch calls fn with the current document and then with every changed
	// revision until ctx is cancelled. Calls to fn are sequential.
	Watch(ctx context.Context, fn func(doc domain.Document, at time.Time)) error
}
