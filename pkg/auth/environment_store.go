package auth

import (
	"os"
	"strings"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// The combined BOORUDL_AUTH form ("login:api_key") wins over the split
// BOORUDL_LOGIN / BOORUDL_API_KEY pair.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(login string) (*Account, error) {
	envLogin, apiKey := credentialsFromEnv()
	if envLogin == "" || apiKey == "" {
		return nil, ErrCredentialsNotFound
	}
	if login != "" && login != envLogin {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Login:        envLogin,
		APIKey:       apiKey,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(login string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(login string) bool {
	envLogin, apiKey := credentialsFromEnv()
	return envLogin != "" && apiKey != ""
}

func credentialsFromEnv() (login, apiKey string) {
	if auth := os.Getenv("BOORUDL_AUTH"); auth != "" {
		if i := strings.IndexByte(auth, ':'); i > 0 {
			return auth[:i], auth[i+1:]
		}
	}
	return os.Getenv("BOORUDL_LOGIN"), os.Getenv("BOORUDL_API_KEY")
}
