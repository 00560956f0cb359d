package nostr

import (
	"regexp"
	"strconv"
	"strings"
)

// uriPattern is a generic RFC 3986 URI shape: scheme://[userinfo@]host[:port][/path].
// Hosts may be IPv6 literals, IPv4 addresses or registered domain names.
var uriPattern = regexp.MustCompile(
	`(?P<scheme>[a-zA-Z][a-zA-Z0-9+.-]*)://` +
		`(?:[A-Za-z0-9._~!$&'()*+,;=:%-]*@)?` +
		`(?P<host>` +
		`\[(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\]` +
		`|(?P<ipv4>(?:\d{1,3}\.){3}\d{1,3})` +
		`|(?P<domain>(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,})` +
		`)` +
		`(?P<port>:\d+)?` +
		`(?P<path>(?:/[A-Za-z0-9._~!$&'()*+,;=:%-]*)*)`,
)

var onionPattern = regexp.MustCompile(`^([a-z2-7]{16}|[a-z2-7]{56})\.onion$`)

var (
	schemeIdx = uriPattern.SubexpIndex("scheme")
	hostIdx   = uriPattern.SubexpIndex("host")
	domainIdx = uriPattern.SubexpIndex("domain")
	portIdx   = uriPattern.SubexpIndex("port")
	pathIdx   = uriPattern.SubexpIndex("path")
)

// FindRelayURLs scans arbitrary text for websocket relay URLs. Every accepted
// match is rewritten to the canonical wss://host[:port][/path] form with the
// host lowercased and empty or /-only paths collapsed. Onion hosts must match
// the v2/v3 onion address shape and any other domain must end in a known TLD.
// Unparseable text yields an empty list, never an error.
func FindRelayURLs(text string) []string {
	result := make([]string, 0)

	for _, match := range uriPattern.FindAllStringSubmatch(text, -1) {
		scheme := strings.ToLower(match[schemeIdx])
		if scheme != "ws" && scheme != "wss" {
			continue
		}

		if port := match[portIdx]; port != "" {
			n, err := strconv.Atoi(port[1:])
			if err != nil || n > 65535 {
				continue
			}
		}

		if domain := strings.ToLower(match[domainIdx]); domain != "" {
			if strings.HasSuffix(domain, ".onion") {
				if !onionPattern.MatchString(domain) {
					continue
				}
			} else {
				tld := domain[strings.LastIndexByte(domain, '.')+1:]
				if _, ok := tlds[tld]; !ok {
					continue
				}
			}
		}

		path := match[pathIdx]
		if path == "" || path == "/" {
			path = ""
		} else {
			path = "/" + strings.Trim(path, "/")
		}

		url := "wss://" + strings.ToLower(match[hostIdx]) + match[portIdx] + path
		result = append(result, url)
	}

	return result
}

// IsValidRelayURL checks whether the resolver accepts u as a relay URL.
func IsValidRelayURL(u string) bool {
	return len(FindRelayURLs(u)) > 0
}
