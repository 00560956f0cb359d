package nostr

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"net/url"

	ws "github.com/coder/websocket"
	"golang.org/x/net/proxy"
)

var defaultConnectionOptions = &ws.DialOptions{
	CompressionMode: ws.CompressionContextTakeover,
	HTTPHeader: http.Header{
		textproto.CanonicalMIMEHeaderKey("User-Agent"): {"github.com/bigbrotr/nostr-tools"},
	},
}

// Connection is a single websocket attachment to a relay, reachable either
// directly or through a SOCKS5 proxy.
type Connection struct {
	conn *ws.Conn
}

// NewConnection dials the relay at url. A non-empty socks5ProxyURL routes the
// underlying TCP stream through that proxy, which is how onion relays are
// reached.
func NewConnection(ctx context.Context, url string, socks5ProxyURL string) (*Connection, error) {
	opts := defaultConnectionOptions
	if socks5ProxyURL != "" {
		dialer, err := socks5ContextDialer(socks5ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid socks5 proxy url '%s': %w", socks5ProxyURL, err)
		}
		opts = &ws.DialOptions{
			CompressionMode: defaultConnectionOptions.CompressionMode,
			HTTPHeader:      defaultConnectionOptions.HTTPHeader,
			HTTPClient: &http.Client{
				Transport: &http.Transport{
					DialContext: dialer.DialContext,
				},
			},
		}
	}

	conn, _, err := ws.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	conn.SetReadLimit(33554432) // 32MB

	return &Connection{conn: conn}, nil
}

func socks5ContextDialer(proxyURL string) (proxy.ContextDialer, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}

	d, err := proxy.SOCKS5("tcp", u.Host, auth, &net.Dialer{})
	if err != nil {
		return nil, err
	}

	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support contexts")
	}
	return cd, nil
}

// WriteMessage sends one text frame.
func (c *Connection) WriteMessage(ctx context.Context, data []byte) error {
	if err := c.conn.Write(ctx, ws.MessageText, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// ReadMessage reads the next frame. A clean remote close is reported as
// io.EOF. Cancelling ctx tears the whole websocket down, not just this read,
// so a caller that only wants to stop waiting must not cancel it.
func (c *Connection) ReadMessage(ctx context.Context) ([]byte, error) {
	_, message, err := c.conn.Read(ctx)
	if err != nil {
		switch ws.CloseStatus(err) {
		case ws.StatusNormalClosure, ws.StatusGoingAway:
			return nil, io.EOF
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return message, nil
}

func (c *Connection) Close() error {
	return c.conn.Close(ws.StatusNormalClosure, "")
}
