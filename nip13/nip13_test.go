package nip13

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	nostr "github.com/bigbrotr/nostr-tools"
)

func TestDifficulty(t *testing.T) {
	tests := []struct {
		id       string
		expected int
	}{
		{"000000000e9d97a1ab09fc381030b346cdd7a142ad57e6df0b46dc9bef6c7e2d", 36},
		{"00003479309ecdb46b1c04ce129d2709378518588bed6776e60474ebde3159ae", 18},
		{"01a76167d41add96be4959d9e618b7a35f26551d62c43c11e5e64094c6b53c83", 7},
		{"ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", 0},
		{strings.Repeat("0", 64), 256},
		{"not-hex" + strings.Repeat("0", 57), -1},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, Difficulty(test.id), "id: %s", test.id)
	}
}

func TestCheck(t *testing.T) {
	id := "000000000e9d97a1ab09fc381030b346cdd7a142ad57e6df0b46dc9bef6c7e2d"
	require.NoError(t, Check(id, 36))
	require.NoError(t, Check(id, 10))
	require.ErrorIs(t, Check(id, 37), ErrDifficultyTooLow)
}

func TestGenerate(t *testing.T) {
	const difficulty = 8

	evt := &nostr.Event{
		PubKey:    "a48380f4cfcc1ad5378294fcac36439770f9c878dd880ffa94bb74ea54a6f243",
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{{"t", "pow"}},
		Content:   "mined",
	}

	mined := Generate(evt, difficulty, 10*time.Second)
	require.GreaterOrEqual(t, Difficulty(mined.ID), difficulty)
	require.Equal(t, mined.GetID(), mined.ID)

	nonce := mined.Tags.Find("nonce")
	require.NotNil(t, nonce)
	require.Len(t, nonce, 3)
	require.Equal(t, "8", nonce[2], "the nonce tag commits to the target difficulty")

	// the pre-existing tag survives
	require.NotNil(t, mined.Tags.FindWithValue("t", "pow"))
}

func TestGenerateReplacesPriorNonce(t *testing.T) {
	evt := &nostr.Event{
		PubKey:    "a48380f4cfcc1ad5378294fcac36439770f9c878dd880ffa94bb74ea54a6f243",
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{{"nonce", "12345", "20"}},
		Content:   "re-mined",
	}

	mined := Generate(evt, 4, 10*time.Second)

	count := 0
	for range mined.Tags.FindAll("nonce") {
		count++
	}
	require.Equal(t, 1, count, "prior nonce tags must be replaced, not stacked")
	require.Equal(t, "4", mined.Tags.Find("nonce")[2])
}

func TestGenerateTimeout(t *testing.T) {
	evt := &nostr.Event{
		PubKey:    "a48380f4cfcc1ad5378294fcac36439770f9c878dd880ffa94bb74ea54a6f243",
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{{"nonce", "999", "256"}, {"t", "pow"}},
		Content:   "unreachable",
	}

	start := time.Now()
	mined := Generate(evt, 256, time.Second)
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, time.Second)
	require.Less(t, elapsed, 3*time.Second, "the timeout must be honored")

	// fail open: no nonce tag at all, id over the nonce-free tags
	require.Nil(t, mined.Tags.Find("nonce"))
	require.NotNil(t, mined.Tags.FindWithValue("t", "pow"))
	require.Equal(t, mined.GetID(), mined.ID)
}
