package nip19

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodePublicKey(t *testing.T) {
	npub, err := EncodePublicKey("7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e")
	require.NoError(t, err)
	require.Equal(t, "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg", npub)
}

func TestEncodePrivateKey(t *testing.T) {
	nsec, err := EncodePrivateKey("67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa")
	require.NoError(t, err)
	require.Equal(t, "nsec1vl029mgpspedva04g90vltkh6fvh240zqtv9k0t9af8935ke9laqsnlfe5", nsec)
}

func TestDecode(t *testing.T) {
	prefix, data, err := Decode("npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg")
	require.NoError(t, err)
	require.Equal(t, "npub", prefix)
	require.Len(t, data, 32)

	hexStr, err := ToHex("npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg")
	require.NoError(t, err)
	require.Equal(t, "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e", hexStr)

	_, _, err = Decode("npub1notvalidbech32")
	require.Error(t, err)

	_, _, err = Decode("not bech32 at all")
	require.Error(t, err)
}

func TestArbitraryPrefixRoundTrip(t *testing.T) {
	hexStr := "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

	for _, prefix := range []string{"npub", "nsec", "note", "custom"} {
		encoded, err := ToBech32(prefix, hexStr)
		require.NoError(t, err)

		gotPrefix, data, err := Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, prefix, gotPrefix)
		require.Len(t, data, 32)

		back, err := ToHex(encoded)
		require.NoError(t, err)
		require.Equal(t, hexStr, back)
	}

	_, err := ToBech32("npub", "not hex")
	require.Error(t, err)
}

func TestEncodeNote(t *testing.T) {
	note, err := EncodeNote("dc90c95f09947507c1044e8f48bcf6350aa6bff1507dd4acfc755b9239b5c962")
	require.NoError(t, err)
	require.Equal(t, "note", note[:4])

	back, err := ToHex(note)
	require.NoError(t, err)
	require.Equal(t, "dc90c95f09947507c1044e8f48bcf6350aa6bff1507dd4acfc755b9239b5c962", back)
}
