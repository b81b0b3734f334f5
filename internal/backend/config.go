package backend

import (
	"fmt"

	"github.com/Atanda1/dca-experiment/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (valid: %v)", appConfig.DataBackend, GetBackendTypes())
	}

	return Config{
		Type: backendType,

		RemoteServiceURL:    appConfig.RemoteServiceURL,
		RemoteServiceAPIKey: appConfig.RemoteServiceAPIKey,

		// Memory backend ships with a ready-made account for local runs
		DemoEmail:    "demo@example.com",
		DemoPassword: "demo",
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (valid: %v)", c.Type, GetBackendTypes())
	}

	switch c.Type {
	case RESTBackend:
		if c.RemoteServiceURL == "" {
			return fmt.Errorf("remote service URL is required for rest backend")
		}
		if c.RemoteServiceAPIKey == "" {
			return fmt.Errorf("remote service API key is required for rest backend")
		}

	case MemoryBackend:
		if c.DemoEmail == "" || c.DemoPassword == "" {
			return fmt.Errorf("demo credentials are required for memory backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{RESTBackend, MemoryBackend}
}
