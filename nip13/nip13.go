// Package nip13 implements NIP-13
// See https://github.com/nostr-protocol/nips/blob/master/13.md for details.
package nip13

import (
	"encoding/hex"
	"errors"
	"math/bits"
	"strconv"
	"time"

	nostr "github.com/bigbrotr/nostr-tools"
)

var ErrDifficultyTooLow = errors.New("nip13: insufficient difficulty")

// Difficulty counts the number of leading zero bits in an event ID.
func Difficulty(id string) int {
	var zeros int
	var b [1]byte
	for i := 0; i < 64; i += 2 {
		if id[i:i+2] == "00" {
			zeros += 8
			continue
		}
		if _, err := hex.Decode(b[:], []byte{id[i], id[i+1]}); err != nil {
			return -1
		}
		zeros += bits.LeadingZeros8(b[0])
		break
	}
	return zeros
}

// Check reports whether the event ID demonstrates a sufficient proof of work difficulty.
// Note that Check performs no validation other than counting leading zero bits
// in an event ID. It is up to the callers to verify the event with other methods,
// such as [nostr.Event.CheckSignature].
func Check(id string, minDifficulty int) error {
	if Difficulty(id) < minDifficulty {
		return ErrDifficultyTooLow
	}
	return nil
}

// Generate performs proof of work on the event until either the target
// difficulty is reached or the timeout elapses. Any pre-existing "nonce" tags
// are stripped before the search starts; the nonce counts up from zero.
//
// On success the event carries a single ["nonce", "<n>", "<difficulty>"] tag
// and the matching ID. On timeout the search fails open: the event keeps its
// nonce-free tag set and the ID derived from it, so a half-mined nonce never
// leaks into a published event.
func Generate(event *nostr.Event, targetDifficulty int, timeout time.Duration) *nostr.Event {
	base := make(nostr.Tags, 0, len(event.Tags))
	for _, tag := range event.Tags {
		if len(tag) > 0 && tag[0] == "nonce" {
			continue
		}
		base = append(base, tag)
	}

	tag := nostr.Tag{"nonce", "0", strconv.Itoa(targetDifficulty)}
	event.Tags = append(base[:len(base):len(base)], tag)

	var nonce uint64
	start := time.Now()
	for {
		tag[1] = strconv.FormatUint(nonce, 10)
		if id := event.GetID(); Difficulty(id) >= targetDifficulty {
			event.ID = id
			return event
		}
		nonce++
		// one iteration is a few microseconds, so poll the clock sparsely
		if nonce%10000 == 0 && time.Since(start) > timeout {
			event.Tags = base
			event.ID = event.GetID()
			return event
		}
	}
}
