package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountUserinfo(t *testing.T) {
	account := &Account{Login: "alice", APIKey: "s3cret"}
	assert.Equal(t, "alice:s3cret", account.Userinfo())
}

func TestManagerStore(t *testing.T) {
	t.Run("stores in first available store", func(t *testing.T) {
		first := NewMockStore()
		second := NewMockStore()
		manager := NewManagerWithStores(first, second)

		err := manager.Store(&Account{Login: "alice", APIKey: "key"})
		require.NoError(t, err)

		assert.True(t, first.Exists("alice"))
		assert.False(t, second.Exists("alice"))
	})

	t.Run("falls back when first store fails", func(t *testing.T) {
		first := NewMockStore()
		first.StoreError = ErrStoreUnavailable
		second := NewMockStore()
		manager := NewManagerWithStores(first, second)

		err := manager.Store(&Account{Login: "alice", APIKey: "key"})
		require.NoError(t, err)

		assert.False(t, first.Exists("alice"))
		assert.True(t, second.Exists("alice"))
	})

	t.Run("requires login and API key", func(t *testing.T) {
		manager := NewManagerWithStores(NewMockStore())

		assert.Error(t, manager.Store(&Account{APIKey: "key"}))
		assert.Error(t, manager.Store(&Account{Login: "alice"}))
	})

	t.Run("stamps last modified", func(t *testing.T) {
		store := NewMockStore()
		manager := NewManagerWithStores(store)

		before := time.Now().Add(-time.Second)
		require.NoError(t, manager.Store(&Account{Login: "alice", APIKey: "key"}))

		account, err := store.Retrieve("alice")
		require.NoError(t, err)
		assert.True(t, account.LastModified.After(before))
	})
}

func TestManagerRetrieve(t *testing.T) {
	t.Run("first store that has the account wins", func(t *testing.T) {
		first := NewMockStore()
		second := NewMockStore()
		require.NoError(t, second.Store(&Account{Login: "alice", APIKey: "from-second"}))
		manager := NewManagerWithStores(first, second)

		account, err := manager.Retrieve("alice")
		require.NoError(t, err)
		assert.Equal(t, "from-second", account.APIKey)
	})

	t.Run("unknown login", func(t *testing.T) {
		manager := NewManagerWithStores(NewMockStore())

		_, err := manager.Retrieve("nobody")
		assert.Error(t, err)
	})
}

func TestManagerRetrieveDefault(t *testing.T) {
	t.Run("environment credentials win", func(t *testing.T) {
		os.Setenv("BOORUDL_AUTH", "envuser:envkey")
		defer os.Unsetenv("BOORUDL_AUTH")

		store := NewMockStore()
		require.NoError(t, store.Store(&Account{Login: "stored", APIKey: "storedkey"}))
		manager := NewManagerWithStores(store, NewEnvironmentStore())

		account, err := manager.RetrieveDefault()
		require.NoError(t, err)
		assert.Equal(t, "envuser", account.Login)
		assert.Equal(t, "envkey", account.APIKey)
	})

	t.Run("falls back to stored account", func(t *testing.T) {
		store := NewMockStore()
		require.NoError(t, store.Store(&Account{Login: "stored", APIKey: "storedkey"}))
		manager := NewManagerWithStores(store, NewEnvironmentStore())

		account, err := manager.RetrieveDefault()
		require.NoError(t, err)
		assert.Equal(t, "stored", account.Login)
	})

	t.Run("nothing stored anywhere", func(t *testing.T) {
		manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())

		_, err := manager.RetrieveDefault()
		assert.Error(t, err)
	})
}

func TestManagerList(t *testing.T) {
	t.Run("deduplicates by most recent modification", func(t *testing.T) {
		older := NewMockStore()
		require.NoError(t, older.Store(&Account{
			Login: "alice", APIKey: "old-key",
			LastModified: time.Now().Add(-time.Hour),
		}))

		newer := NewMockStore()
		require.NoError(t, newer.Store(&Account{
			Login: "alice", APIKey: "new-key",
			LastModified: time.Now(),
		}))

		manager := NewManagerWithStores(older, newer)
		accounts, err := manager.List()
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "new-key", accounts[0].APIKey)
	})

	t.Run("merges accounts across stores", func(t *testing.T) {
		first := NewMockStore()
		require.NoError(t, first.Store(&Account{Login: "alice", APIKey: "a"}))
		second := NewMockStore()
		require.NoError(t, second.Store(&Account{Login: "bob", APIKey: "b"}))

		manager := NewManagerWithStores(first, second)
		accounts, err := manager.List()
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func TestManagerDelete(t *testing.T) {
	t.Run("removes from every store", func(t *testing.T) {
		first := NewMockStore()
		require.NoError(t, first.Store(&Account{Login: "alice", APIKey: "a"}))
		second := NewMockStore()
		require.NoError(t, second.Store(&Account{Login: "alice", APIKey: "a"}))

		manager := NewManagerWithStores(first, second)
		require.NoError(t, manager.Delete("alice"))

		assert.False(t, first.Exists("alice"))
		assert.False(t, second.Exists("alice"))
	})

	t.Run("unknown login", func(t *testing.T) {
		manager := NewManagerWithStores(NewMockStore())
		assert.Error(t, manager.Delete("nobody"))
	})
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Run("combined BOORUDL_AUTH form", func(t *testing.T) {
		os.Setenv("BOORUDL_AUTH", "alice:key:with:colons")
		defer os.Unsetenv("BOORUDL_AUTH")

		account, err := store.Retrieve("")
		require.NoError(t, err)
		assert.Equal(t, "alice", account.Login)
		// Only the first colon separates login from key
		assert.Equal(t, "key:with:colons", account.APIKey)
	})

	t.Run("split variable form", func(t *testing.T) {
		os.Setenv("BOORUDL_LOGIN", "bob")
		os.Setenv("BOORUDL_API_KEY", "bobkey")
		defer func() {
			os.Unsetenv("BOORUDL_LOGIN")
			os.Unsetenv("BOORUDL_API_KEY")
		}()

		account, err := store.Retrieve("bob")
		require.NoError(t, err)
		assert.Equal(t, "bobkey", account.APIKey)
	})

	t.Run("login mismatch", func(t *testing.T) {
		os.Setenv("BOORUDL_AUTH", "alice:key")
		defer os.Unsetenv("BOORUDL_AUTH")

		_, err := store.Retrieve("bob")
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
	})

	t.Run("no environment credentials", func(t *testing.T) {
		_, err := store.Retrieve("")
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
	})

	t.Run("read only", func(t *testing.T) {
		assert.ErrorIs(t, store.Store(&Account{Login: "x", APIKey: "y"}), ErrStoreUnavailable)
		assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
	})
}

func TestEncryptedFileStore(t *testing.T) {
	os.Setenv("BOORUDL_PASSPHRASE", "test-passphrase")
	defer os.Unsetenv("BOORUDL_PASSPHRASE")

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.enc")
		store, err := NewEncryptedFileStore(path)
		require.NoError(t, err)

		account := &Account{Login: "alice", APIKey: "s3cret", LastModified: time.Now()}
		require.NoError(t, store.Store(account))

		got, err := store.Retrieve("alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Login)
		assert.Equal(t, "s3cret", got.APIKey)
	})

	t.Run("file holds no plaintext secrets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.enc")
		store, err := NewEncryptedFileStore(path)
		require.NoError(t, err)

		require.NoError(t, store.Store(&Account{Login: "alice", APIKey: "super-secret-api-key"}))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "super-secret-api-key")
		assert.NotContains(t, string(content), "alice")
	})

	t.Run("survives reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.enc")

		store, err := NewEncryptedFileStore(path)
		require.NoError(t, err)
		require.NoError(t, store.Store(&Account{Login: "alice", APIKey: "s3cret"}))

		reopened, err := NewEncryptedFileStore(path)
		require.NoError(t, err)
		got, err := reopened.Retrieve("alice")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", got.APIKey)
	})

	t.Run("wrong passphrase fails to decrypt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.enc")

		store, err := NewEncryptedFileStore(path)
		require.NoError(t, err)
		require.NoError(t, store.Store(&Account{Login: "alice", APIKey: "s3cret"}))

		os.Setenv("BOORUDL_PASSPHRASE", "different-passphrase")
		defer os.Setenv("BOORUDL_PASSPHRASE", "test-passphrase")

		wrong, err := NewEncryptedFileStore(path)
		require.NoError(t, err)
		_, err = wrong.Retrieve("alice")
		assert.Error(t, err)
	})

	t.Run("delete removes last account and file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.enc")

		store, err := NewEncryptedFileStore(path)
		require.NoError(t, err)
		require.NoError(t, store.Store(&Account{Login: "alice", APIKey: "s3cret"}))

		require.NoError(t, store.Delete("alice"))
		assert.NoFileExists(t, path)
	})

	t.Run("missing file is not found", func(t *testing.T) {
		store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"))
		require.NoError(t, err)

		_, err = store.Retrieve("alice")
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
	})
}

func TestSanitizeAccount(t *testing.T) {
	t.Run("masks long keys", func(t *testing.T) {
		account := &Account{Login: "alice", APIKey: "abcdefghijklmnop"}
		sanitized := SanitizeAccount(account)

		assert.Equal(t, "alice", sanitized.Login)
		assert.Equal(t, "abcd...mnop", sanitized.APIKey)
		// Original is untouched
		assert.Equal(t, "abcdefghijklmnop", account.APIKey)
	})

	t.Run("short keys are fully masked", func(t *testing.T) {
		sanitized := SanitizeAccount(&Account{Login: "alice", APIKey: "short"})
		assert.Equal(t, "********", sanitized.APIKey)
	})

	t.Run("nil account", func(t *testing.T) {
		assert.Nil(t, SanitizeAccount(nil))
	})
}
