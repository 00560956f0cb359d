package nostr

import "strings"

// Network tells how a relay is reached.
type Network string

const (
	NetworkClearnet Network = "clearnet"
	NetworkTor      Network = "tor"
)

// Relay is a network endpoint implementing the protocol over a websocket.
// It is immutable after construction; the URL is always in the canonical
// wss:// form produced by FindRelayURLs.
type Relay struct {
	URL     string
	Network Network
}

// NewRelay builds a Relay from any text containing a websocket URL. It fails
// with a *ValidationError when the resolver finds no acceptable URL.
func NewRelay(url string) (*Relay, error) {
	urls := FindRelayURLs(url)
	if len(urls) == 0 {
		return nil, &ValidationError{What: "relay", Reason: "not a valid clearnet or tor websocket URL: " + url}
	}

	canonical := urls[0]

	network := NetworkClearnet
	host := strings.TrimPrefix(canonical, "wss://")
	if i := strings.IndexAny(host, ":/"); i != -1 {
		host = host[:i]
	}
	if strings.HasSuffix(host, ".onion") {
		network = NetworkTor
	}

	return &Relay{URL: canonical, Network: network}, nil
}

func (r Relay) String() string {
	return r.URL
}

// IsTor reports whether the relay is reachable only through an onion-routed
// transport.
func (r Relay) IsTor() bool {
	return r.Network == NetworkTor
}
