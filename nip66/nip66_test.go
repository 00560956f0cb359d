package nip66

import (
	"testing"

	"github.com/stretchr/testify/require"

	nostr "github.com/bigbrotr/nostr-tools"
	"github.com/bigbrotr/nostr-tools/nip11"
)

func rtt(ms int64) *int64 { return &ms }

func TestProbeResultValidate(t *testing.T) {
	tests := []struct {
		name   string
		result ProbeResult
		valid  bool
	}{
		{"all absent", ProbeResult{}, true},
		{"openable only", ProbeResult{Openable: true, RTTOpen: rtt(120)}, true},
		{"fully capable", ProbeResult{
			Openable: true, Readable: true, Writable: true,
			RTTOpen: rtt(120), RTTRead: rtt(340), RTTWrite: rtt(95),
		}, true},
		{"openable without rtt", ProbeResult{Openable: true}, false},
		{"rtt without openable", ProbeResult{RTTOpen: rtt(120)}, false},
		{"readable without rtt", ProbeResult{Openable: true, RTTOpen: rtt(1), Readable: true}, false},
		{"negative rtt", ProbeResult{Openable: true, RTTOpen: rtt(-5)}, false},
		{"readable but not openable", ProbeResult{Readable: true, RTTRead: rtt(10)}, false},
		{"writable but not openable", ProbeResult{Writable: true, RTTWrite: rtt(10)}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.result.Validate()
			if test.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.IsType(t, &nostr.ValidationError{}, err)
			}
		})
	}
}

func TestNewRelayMetadata(t *testing.T) {
	relay, err := nostr.NewRelay("wss://relay.example.com")
	require.NoError(t, err)

	probe := &ProbeResult{Openable: true, Readable: true, RTTOpen: rtt(100), RTTRead: rtt(250)}
	doc := &nip11.RelayInformationDocument{Name: "example relay"}

	md, err := NewRelayMetadata(*relay, nostr.Now(), doc, probe)
	require.NoError(t, err)
	require.Equal(t, "wss://relay.example.com", md.Relay.URL)
	require.True(t, md.IsHealthy())

	// both collaborator blocks are optional
	md, err = NewRelayMetadata(*relay, nostr.Now(), nil, nil)
	require.NoError(t, err)
	require.False(t, md.IsHealthy())

	_, err = NewRelayMetadata(*relay, -1, nil, nil)
	require.Error(t, err)

	_, err = NewRelayMetadata(*relay, nostr.Now(), nil, &ProbeResult{Openable: true})
	require.Error(t, err, "an invalid probe block must be rejected")
}

func TestIsHealthy(t *testing.T) {
	relay, err := nostr.NewRelay("wss://relay.example.com")
	require.NoError(t, err)

	openOnly := &ProbeResult{Openable: true, RTTOpen: rtt(10)}
	md, err := NewRelayMetadata(*relay, nostr.Now(), nil, openOnly)
	require.NoError(t, err)
	require.False(t, md.IsHealthy(), "openable alone is not healthy")

	writable := &ProbeResult{Openable: true, Writable: true, RTTOpen: rtt(10), RTTWrite: rtt(20)}
	md, err = NewRelayMetadata(*relay, nostr.Now(), nil, writable)
	require.NoError(t, err)
	require.True(t, md.IsHealthy())
}
