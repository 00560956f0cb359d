package nip11

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSupportedNIP(t *testing.T) {
	info := RelayInformationDocument{}
	info.AddSupportedNIP(12)
	info.AddSupportedNIP(12)
	info.AddSupportedNIP(13)
	info.AddSupportedNIP(1)
	info.AddSupportedNIP(12)
	info.AddSupportedNIP(44)
	info.AddSupportedNIP(2)
	info.AddSupportedNIP(13)
	info.AddSupportedNIP(2)
	info.AddSupportedNIP(13)
	info.AddSupportedNIP(0)
	info.AddSupportedNIP(17)
	info.AddSupportedNIP(19)
	info.AddSupportedNIP(1)
	info.AddSupportedNIP(18)

	assert.Contains(t, info.SupportedNIPs, 0, 1, 2, 12, 13, 17, 18, 19, 44)
}

func TestAddSupportedNIPs(t *testing.T) {
	info := RelayInformationDocument{}
	info.AddSupportedNIPs([]int{0, 1, 2, 12, 13, 17, 18, 19, 44})

	assert.Contains(t, info.SupportedNIPs, 0, 1, 2, 12, 13, 17, 18, 19, 44)
}

func TestFetch(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/nostr+json")
		w.Write([]byte(`{
			"name": "test relay",
			"description": "a relay for tests",
			"pubkey": "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d",
			"supported_nips": [1, 11, 42],
			"software": "testd",
			"version": "0.1.0",
			"privacy_policy": "https://example.com/privacy",
			"terms_of_service": "https://example.com/tos",
			"limitation": {"max_subscriptions": 20, "auth_required": true},
			"custom_thing": {"nested": true}
		}`))
	}))
	defer srv.Close()

	info, err := Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "application/nostr+json", gotAccept)
	assert.Equal(t, "test relay", info.Name)
	assert.Equal(t, "a relay for tests", info.Description)
	assert.Equal(t, "0.1.0", info.Version)
	assert.Equal(t, "https://example.com/privacy", info.PrivacyPolicy)
	assert.Equal(t, "https://example.com/tos", info.TermsOfService)

	require.NotNil(t, info.Limitation)
	assert.Equal(t, 20, info.Limitation.MaxSubscriptions)
	assert.True(t, info.Limitation.AuthRequired)

	// keys the struct doesn't model land in ExtraFields, modeled ones don't
	require.Contains(t, info.ExtraFields, "custom_thing")
	assert.NotContains(t, info.ExtraFields, "name")
	assert.NotContains(t, info.ExtraFields, "limitation")
}

func TestFetchInvalidDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer srv.Close()

	info, err := Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.NotEmpty(t, info.URL, "the URL is filled even on failure")
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := Fetch(context.Background(), "")
	require.Error(t, err)
}
