// Package nip11 fetches and models the relay information document.
// See https://github.com/nostr-protocol/nips/blob/master/11.md for details.
package nip11

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	nostr "github.com/bigbrotr/nostr-tools"
)

// modeledKeys are the document keys the struct captures; anything else lands
// in ExtraFields.
var modeledKeys = []string{
	"name", "description", "pubkey", "contact", "supported_nips", "software",
	"version", "limitation", "relay_countries", "language_tags", "tags",
	"posting_policy", "payments_url", "fees", "retention", "icon", "banner",
	"privacy_policy", "terms_of_service",
}

// Fetch fetches the NIP-11 metadata for a relay.
//
// It will always return `info` with at least `URL` filled -- even if we can't connect to the
// relay or if it doesn't have a NIP-11 handler -- although in that case it will also return
// an error.
func Fetch(ctx context.Context, u string) (info RelayInformationDocument, err error) {
	// normalize URL to start with http://, https:// or without protocol
	u = nostr.NormalizeURL(u)
	if len(u) < 8 {
		return info, fmt.Errorf("invalid url %s", u)
	}

	info = RelayInformationDocument{
		URL: u,
	}

	if _, ok := ctx.Deadline(); !ok {
		// if no timeout is set, force it to 7 seconds
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 7*time.Second)
		defer cancel()
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", "http"+u[2:], nil)

	// add the NIP-11 headers
	req.Header.Add("Accept", "application/nostr+json")
	req.Header.Add("User-Agent", "github.com/bigbrotr/nostr-tools")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return info, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, fmt.Errorf("failed to read response: %w", err)
	}

	if err := jsoniter.Unmarshal(body, &info); err != nil {
		return info, fmt.Errorf("invalid json: %w", err)
	}

	// a second pass picks up whatever keys the struct doesn't model
	var raw map[string]any
	if err := jsoniter.Unmarshal(body, &raw); err == nil {
		for _, key := range modeledKeys {
			delete(raw, key)
		}
		if len(raw) > 0 {
			info.ExtraFields = raw
		}
	}

	return info, nil
}
