package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atanda1/dca-experiment/internal/config"
)

func TestFromAppConfigMapsFields(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "rest",
		RemoteServiceURL:    "https://api.example.com",
		RemoteServiceAPIKey: "key",
	})
	require.NoError(t, err)
	assert.Equal(t, RESTBackend, cfg.Type)
	assert.Equal(t, "https://api.example.com", cfg.RemoteServiceURL)
	assert.NoError(t, cfg.Validate())
}

func TestInvalidBackendTypeListsValidOnes(t *testing.T) {
	_, err := FromAppConfig(&config.Config{DataBackend: "sheets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rest")
	assert.Contains(t, err.Error(), "memory")

	err = Config{Type: BackendType("bogus")}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rest")
	assert.Contains(t, err.Error(), "memory")
}

func TestValidateRequiresRemoteCredentials(t *testing.T) {
	err := Config{Type: RESTBackend}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote service URL")
}
