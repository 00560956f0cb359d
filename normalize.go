package nostr

import (
	"strings"

	"github.com/ImVexed/fasturl"
)

// NormalizeURL normalizes the url and replaces http://, https:// schemes with
// ws://, wss:// and normalizes the path. Unlike FindRelayURLs this is lenient:
// it is meant for cleaning up URLs that are already known to point at a relay
// (NIP-11 fetches, AUTH relay tags), not for validating untrusted text.
func NormalizeURL(u string) string {
	if u == "" {
		return ""
	}

	u = strings.TrimSpace(u)
	p, err := fasturl.ParseURL(u)
	if err != nil {
		return ""
	}

	// the fabulous case of localhost:1234 that considers "localhost" the protocol and "1234" the host
	if p.Port == "" && len(p.Protocol) > 5 {
		p.Protocol, p.Host, p.Port = "", p.Protocol, p.Host
	}

	if p.Protocol == "" {
		if p.Host == "localhost" || p.Host == "127.0.0.1" {
			p.Protocol = "ws"
		} else {
			p.Protocol = "wss"
		}
	} else if p.Protocol == "https" {
		p.Protocol = "wss"
	} else if p.Protocol == "http" {
		p.Protocol = "ws"
	}

	p.Host = strings.ToLower(p.Host)
	p.Path = strings.TrimRight(p.Path, "/")

	var buf strings.Builder
	buf.Grow(
		len(p.Protocol) + 3 + len(p.Host) + 1 + len(p.Port) + len(p.Path) + 1 + len(p.Query),
	)

	buf.WriteString(p.Protocol)
	buf.WriteString("://")
	buf.WriteString(p.Host)
	if p.Port != "" {
		buf.WriteByte(':')
		buf.WriteString(p.Port)
	}
	buf.WriteString(p.Path)
	if p.Query != "" {
		buf.WriteByte('?')
		buf.WriteString(p.Query)
	}
	return buf.String()
}
