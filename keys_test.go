package nostr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)
	require.Len(t, sk, 64)
	require.Len(t, pk, 64)
	require.True(t, IsValid32ByteHex(sk))
	require.True(t, IsValid32ByteHex(pk))

	derived, err := GetPublicKey(sk)
	require.NoError(t, err)
	require.Equal(t, pk, derived)
}

func TestValidateKeyPair(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	require.NoError(t, err)

	require.True(t, ValidateKeyPair(sk, pk))

	otherSk, otherPk, err := GenerateKeyPair()
	require.NoError(t, err)
	require.False(t, ValidateKeyPair(sk, otherPk))
	require.False(t, ValidateKeyPair(otherSk, pk))

	// malformed inputs return false, they never panic or error
	require.False(t, ValidateKeyPair("short", pk))
	require.False(t, ValidateKeyPair(sk, "zz"+pk[2:]))
	require.False(t, ValidateKeyPair("", ""))
}

func TestGenerateKeyPairUniqueness(t *testing.T) {
	const n = 100

	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sk, _, err := GenerateKeyPair()
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			seen[sk] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n, "keys must be unique across concurrent generations")
}
