package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	// MinCost keeps the suite fast, production uses the library default
	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	t.Run("hash and compare roundtrip", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		require.NotEmpty(t, hash)

		require.NoError(t, hasher.Compare(hash, "correct horse battery staple"))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hash, err := hasher.Hash("right-password")
		require.NoError(t, err)

		require.Error(t, hasher.Compare(hash, "wrong-password"))
	})

	t.Run("hash is not the password", func(t *testing.T) {
		hash, err := hasher.Hash("plain")
		require.NoError(t, err)

		require.NotContains(t, hash, "plain")
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := hasher.Hash("password")
		require.NoError(t, err)
		second, err := hasher.Hash("password")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "bcrypt salts every hash")
	})

	t.Run("long passwords supported", func(t *testing.T) {
		// Over the bcrypt 72 byte limit, handled by the sha256 prehash
		long := strings.Repeat("a", 100)

		hash, err := hasher.Hash(long)
		require.NoError(t, err)

		require.NoError(t, hasher.Compare(hash, long))
		require.Error(t, hasher.Compare(hash, long+"b"), "chars past byte 72 must still matter")
	})

	t.Run("zero cost falls back to default", func(t *testing.T) {
		h := BcryptHasher{}

		hash, err := h.Hash("password")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost)
	})
}
