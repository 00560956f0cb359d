package nostr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeString(t *testing.T) {
	tests := map[string]string{
		"plain":                      `"plain"`,
		`with "quotes"`:              `"with \"quotes\""`,
		`back\slash`:                `"back\\slash"`,
		"\x00\x01\b\t\n\x1f":         `"\u0000\u0001\b\t\n\u001f"`,
		"\x0c\x0d\x0b\x0e\x11\x1b":   `"\f\r\u000b\u000e\u0011\u001b"`,
		"non-ascii stays: héllo 世界!": `"non-ascii stays: héllo 世界!"`,
	}

	for input, expected := range tests {
		got := string(escapeString(nil, input))
		require.Equal(t, expected, got)

		// everything we emit must be parseable back to the original
		var back string
		require.NoError(t, json.Unmarshal([]byte(got), &back))
		require.Equal(t, input, back)
	}
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "nostr", Sanitize("no\x00str"))
	require.Equal(t, "", Sanitize("\x00\x00"))
	require.Equal(t, 42, Sanitize(42))
	require.Nil(t, Sanitize(nil))

	nested := map[string]any{
		"na\x00me": "da\x00mus",
		"tags":     []any{"o\x00ne", []any{"tw\x00o"}, 7},
	}
	require.Equal(t, map[string]any{
		"name": "damus",
		"tags": []any{"one", []any{"two"}, 7},
	}, Sanitize(nested))

	// the input is left untouched
	require.Equal(t, "da\x00mus", nested["na\x00me"])
}

func TestIsValid32ByteHex(t *testing.T) {
	require.True(t, IsValid32ByteHex("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"))
	require.False(t, IsValid32ByteHex("3BF0C63FCB93463407AF97A5E5EE64FA883D107EF9E558472C4EB9AAAEFA459D"))
	require.False(t, IsValid32ByteHex("abc"))
	require.False(t, IsValid32ByteHex(""))
	require.False(t, IsValid32ByteHex("zzf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"))
}
