package backend

import (
	"context"
	"fmt"

	"github.com/Atanda1/dca-experiment/internal/data/memory"
	"github.com/Atanda1/dca-experiment/internal/data/rest"
	"github.com/Atanda1/dca-experiment/internal/log"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRESTBackend(config Config) (*BackendResult, error) {
	client := rest.New(config.RemoteServiceURL, config.RemoteServiceAPIKey)

	f.logger.Info("REST backend initialized", "url", config.RemoteServiceURL)

	return &BackendResult{
		Service: client,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New()
	store.SeedUser(config.DemoEmail, config.DemoPassword)

	f.logger.Info("Memory backend initialized", "demo_email", config.DemoEmail)

	return &BackendResult{
		Service: store,
		Cleanup: nil,
	}, nil
}
