package nostr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

// startRelayStub runs a real websocket endpoint driven by handler and returns
// a client connected to it through the production Connection.
func startRelayStub(t *testing.T, handler func(ctx context.Context, conn *ws.Conn), opts ...ClientOption) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		handler(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)

	relay := &Relay{URL: "ws" + strings.TrimPrefix(srv.URL, "http"), Network: NetworkClearnet}
	cl := NewClient(relay, opts...)
	require.NoError(t, cl.Connect(context.Background()))
	t.Cleanup(cl.Disconnect)
	return cl
}

// A listening sequence that ends by timeout must leave the websocket usable:
// frames sent afterwards still go out and responses still come back.
func TestClientWebsocketSurvivesListenTimeout(t *testing.T) {
	cl := startRelayStub(t, func(ctx context.Context, conn *ws.Conn) {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			env, err := ParseMessage(data)
			if err != nil {
				continue
			}
			if req, ok := env.(*ReqEnvelope); ok {
				frame, err := EOSEEnvelope(req.SubscriptionID).MarshalJSON()
				if err != nil {
					return
				}
				if err := conn.Write(ctx, ws.MessageText, frame); err != nil {
					return
				}
			}
		}
	}, WithTimeout(250*time.Millisecond))

	// nothing arrives, so the sequence ends when the timeout elapses
	count := 0
	for _, err := range cl.Listen(context.Background()) {
		require.NoError(t, err)
		count++
	}
	require.Zero(t, count)
	require.True(t, cl.IsConnected(), "an elapsed listen timeout must not tear down the connection")

	// the same connection still carries a full subscribe round-trip
	require.NoError(t, cl.SubscribeWithID(context.Background(), "after-timeout", Filter{Kinds: []int{1}, Limit: 1}))

	var got Envelope
	for env, err := range cl.Listen(context.Background()) {
		require.NoError(t, err)
		got = env
		break
	}
	require.NotNil(t, got, "the relay's answer must arrive on the surviving connection")
	require.Equal(t, "EOSE", got.Label())
	require.True(t, cl.IsConnected())
}

// A clean close from the relay flips the client to disconnected.
func TestClientWebsocketRemoteClose(t *testing.T) {
	cl := startRelayStub(t, func(ctx context.Context, conn *ws.Conn) {
		conn.Close(ws.StatusNormalClosure, "shutting down")
	})

	require.Eventually(t, func() bool { return !cl.IsConnected() },
		time.Second, 10*time.Millisecond, "a remote close must mark the client disconnected")
}
