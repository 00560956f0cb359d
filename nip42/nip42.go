// Package nip42 implements the client authentication handshake.
// See https://github.com/nostr-protocol/nips/blob/master/42.md for details.
package nip42

import (
	"net/url"
	"strings"
	"time"

	nostr "github.com/bigbrotr/nostr-tools"
)

// CreateUnsignedAuthEvent creates an event which should be sent via an "AUTH" command.
// If the authentication succeeds, the user will be authenticated as pubkey.
func CreateUnsignedAuthEvent(challenge, pubkey, relayURL string) nostr.Event {
	return nostr.Event{
		PubKey:    pubkey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindClientAuthentication,
		Tags: nostr.Tags{
			nostr.Tag{"relay", relayURL},
			nostr.Tag{"challenge", challenge},
		},
		Content: "",
	}
}

// ValidateAuthEvent checks whether event is a valid auth event for the given
// challenge and relayURL. The result of the validation is encoded in the ok bool.
func ValidateAuthEvent(event *nostr.Event, challenge string, relayURL string) (pubkey string, ok bool) {
	if ok, _ := event.CheckSignature(); !ok {
		return "", false
	}
	if event.Kind != nostr.KindClientAuthentication {
		return "", false
	}

	now := nostr.Now()
	tolerance := nostr.Timestamp(10 * time.Minute / time.Second)
	if event.CreatedAt.After(now+tolerance) || event.CreatedAt.Before(now-tolerance) {
		return "", false
	}

	if event.Tags.FindWithValue("challenge", challenge) == nil {
		return "", false
	}

	parseURL := func(input string) (*url.URL, error) {
		return url.Parse(
			strings.ToLower(
				strings.TrimSuffix(input, "/"),
			),
		)
	}

	expected, err := parseURL(relayURL)
	if err != nil {
		return "", false
	}

	relayTag := event.Tags.Find("relay")
	if relayTag == nil || len(relayTag) < 2 {
		return "", false
	}
	found, err := parseURL(relayTag[1])
	if err != nil {
		return "", false
	}

	if expected.Scheme != found.Scheme ||
		expected.Host != found.Host ||
		expected.Path != found.Path {
		return "", false
	}

	return event.PubKey, true
}
