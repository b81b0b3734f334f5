package backend

import (
	"context"

	"github.com/Atanda1/dca-experiment/internal/data"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// BackendResult contains the data service instance and optional cleanup function
type BackendResult struct {
	Service data.Service
	Cleanup CleanupFunc
}

// Factory creates data backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// REST specific
	RemoteServiceURL    string
	RemoteServiceAPIKey string

	// Memory backend specific
	DemoEmail    string
	DemoPassword string
}

// BackendType represents the type of data backend
type BackendType string

const (
	RESTBackend   BackendType = "rest"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RESTBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
