// Package nip66 models relay monitoring data: liveness probes and the
// aggregated per-relay metadata record.
// See https://github.com/nostr-protocol/nips/blob/master/66.md for details.
package nip66

import (
	"context"
	"time"

	nostr "github.com/bigbrotr/nostr-tools"
	"github.com/bigbrotr/nostr-tools/nip11"
)

// ProbeResult captures what a single probing pass observed about a relay.
// Round-trip times are in milliseconds and may be present only when the
// corresponding capability was observed.
type ProbeResult struct {
	Openable bool `json:"openable"`
	Readable bool `json:"readable"`
	Writable bool `json:"writable"`

	RTTOpen  *int64 `json:"rtt_open,omitempty"`
	RTTRead  *int64 `json:"rtt_read,omitempty"`
	RTTWrite *int64 `json:"rtt_write,omitempty"`
}

// Validate enforces the shape invariants: an RTT may be present iff its
// capability boolean is true, RTTs are non-negative, and a readable or
// writable relay must also be openable.
func (p ProbeResult) Validate() error {
	checks := []struct {
		name string
		ok   bool
		rtt  *int64
	}{
		{"openable", p.Openable, p.RTTOpen},
		{"readable", p.Readable, p.RTTRead},
		{"writable", p.Writable, p.RTTWrite},
	}
	for _, c := range checks {
		if c.ok != (c.rtt != nil) {
			return &nostr.ValidationError{What: "probe result",
				Reason: c.name + " and its round-trip time must be present together"}
		}
		if c.rtt != nil && *c.rtt < 0 {
			return &nostr.ValidationError{What: "probe result",
				Reason: c.name + " round-trip time is negative"}
		}
	}
	if (p.Readable || p.Writable) && !p.Openable {
		return &nostr.ValidationError{What: "probe result",
			Reason: "a readable or writable relay must be openable"}
	}
	return nil
}

// RelayMetadata aggregates one probing pass over a relay: the probe results
// and the relay's information document, either of which may be absent when
// the corresponding collaborator failed.
type RelayMetadata struct {
	Relay       nostr.Relay                     `json:"relay"`
	GeneratedAt nostr.Timestamp                 `json:"generated_at"`
	Nip11       *nip11.RelayInformationDocument `json:"nip11,omitempty"`
	Nip66       *ProbeResult                    `json:"nip66,omitempty"`
}

// NewRelayMetadata validates and assembles a metadata record. It fails with a
// *ValidationError when the probe block violates its invariants or the
// timestamp is negative.
func NewRelayMetadata(relay nostr.Relay, generatedAt nostr.Timestamp, doc *nip11.RelayInformationDocument, probe *ProbeResult) (*RelayMetadata, error) {
	if generatedAt < 0 {
		return nil, &nostr.ValidationError{What: "relay metadata", Reason: "generated_at is negative"}
	}
	if probe != nil {
		if err := probe.Validate(); err != nil {
			return nil, err
		}
	}

	return &RelayMetadata{
		Relay:       relay,
		GeneratedAt: generatedAt,
		Nip11:       doc,
		Nip66:       probe,
	}, nil
}

// IsHealthy reports whether the relay answered the probe and served at least
// one direction of traffic.
func (m RelayMetadata) IsHealthy() bool {
	return m.Nip66 != nil && m.Nip66.Openable && (m.Nip66.Readable || m.Nip66.Writable)
}

// Probe measures a relay's three round-trips with the given client: connect,
// subscribe-to-EOSE, and publish-to-OK. The write probe signs a short
// ephemeral note with secretKey. Failures are encoded in the result rather
// than returned: an unreachable relay yields an all-false ProbeResult and a
// nil error.
func Probe(ctx context.Context, cl *nostr.Client, secretKey string, publicKey string) *ProbeResult {
	result := &ProbeResult{}

	start := time.Now()
	if err := cl.Connect(ctx); err != nil {
		return result
	}
	result.Openable = true
	result.RTTOpen = millisSince(start)

	start = time.Now()
	if id, err := cl.Subscribe(ctx, nostr.Filter{Limit: 1}); err == nil {
		for env, err := range cl.Listen(ctx) {
			if err != nil {
				break
			}
			switch e := env.(type) {
			case *nostr.EventEnvelope:
				if e.SubscriptionID != nil && *e.SubscriptionID == id {
					result.Readable = true
					result.RTTRead = millisSince(start)
				}
			case *nostr.EOSEEnvelope:
				if string(*e) == id {
					result.Readable = true
					result.RTTRead = millisSince(start)
				}
			}
			if result.Readable {
				break
			}
		}
		cl.Unsubscribe(ctx, id)
	}

	evt := nostr.Event{
		PubKey:    publicKey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   "connectivity check",
	}
	if err := evt.Sign(secretKey); err == nil {
		start = time.Now()
		if ok, err := cl.Publish(ctx, &evt); err == nil && ok {
			result.Writable = true
			result.RTTWrite = millisSince(start)
		}
	}

	return result
}

func millisSince(start time.Time) *int64 {
	ms := time.Since(start).Milliseconds()
	return &ms
}
