package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads API keys from STOCKCRAWLER_<PROVIDER>_API_KEY.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Name returns the store name
func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve reads the key for provider from the environment
func (e *EnvironmentStore) Retrieve(provider string) (*Credential, error) {
	key := os.Getenv(envKey(provider))
	if provider == "" || key == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Credential{Provider: provider, APIKey: key, LastModified: time.Now()}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(provider string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment holds a key for provider
func (e *EnvironmentStore) Exists(provider string) bool {
	return provider != "" && os.Getenv(envKey(provider)) != ""
}
