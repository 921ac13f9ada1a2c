// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

// SnapshotStore persists financial snapshots per user.
// Implemented by the Supabase adapter (or any other persistence layer).
type SnapshotStore interface {
	GetLatestSnapshot(ctx context.Context, userID string) (*domain.StoredSnapshot, error)
	SaveSnapshot(ctx context.Context, s *domain.StoredSnapshot) (*domain.StoredSnapshot, error)
}

// NarrativeCaller invokes the AI narrative service.
type NarrativeCaller interface {
	Narrate(ctx context.Context, req *domain.NarrativeRequest) (*domain.NarrativeResponse, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
