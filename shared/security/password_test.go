package security

import (
	"strings"
	"sync"
	"testing"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHasher() *Argon2Hasher {
	cfg := argon2.DefaultConfig()
	cfg.TimeCost = 1
	cfg.MemoryCost = 8 * 1024
	cfg.Parallelism = 1
	return NewArgon2Hasher(cfg)
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	hasher := newTestHasher()

	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "unexpected hash prefix: %s", hash)
	assert.NotContains(t, hash, "pw1")

	ok, err := hasher.Verify("pw1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, other := range []string{"pw2", "PW1", "pw1 ", ""} {
		ok, err := hasher.Verify(other, hash)
		require.NoError(t, err)
		assert.False(t, ok, "password %q should not verify", other)
	}
}

func TestArgon2Hasher_SaltsEveryHash(t *testing.T) {
	hasher := newTestHasher()

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2Hasher_EmptyPassword(t *testing.T) {
	_, err := newTestHasher().Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestArgon2Hasher_MalformedHash(t *testing.T) {
	hasher := newTestHasher()

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "garbage", hash: "not-a-hash"},
		{name: "truncated", hash: "$argon2id$v=19$m=8192"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("pw1", tt.hash)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrHashFormat)
		})
	}
}

func TestArgon2Hasher_ConcurrentVerify(t *testing.T) {
	hasher := newTestHasher()
	hash, err := hasher.Hash("concurrent")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := hasher.Verify("concurrent", hash)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestDefaultHasher(t *testing.T) {
	hasher := DefaultHasher()

	hash, err := hasher.Hash("default-params")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := hasher.Verify("default-params", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("other", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
