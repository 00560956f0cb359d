package nostr

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultTimeout bounds dials and how long a listening sequence waits for the
// next frame when the caller doesn't configure one.
const DefaultTimeout = 10 * time.Second

// transport is the duplex text-frame stream the client drives. *Connection
// implements it over a websocket; tests supply in-memory fakes.
type transport interface {
	WriteMessage(ctx context.Context, data []byte) error
	ReadMessage(ctx context.Context) ([]byte, error)
	Close() error
}

// Subscription records what was requested on this connection. Entries survive
// unsubscription (with Active flipped off) until the client disconnects, so
// callers can audit what was asked of the relay.
type Subscription struct {
	ID     string
	Filter Filter
	Active bool
}

// link ties one transport to the goroutine reading it. A fresh link is built
// on every Connect so a stale reader can never touch a newer connection.
type link struct {
	conn   transport
	frames chan []byte
	done   chan struct{}

	mu  sync.Mutex
	err error // terminal read error; io.EOF on a clean remote close
}

func (ln *link) terminalErr() error {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	return ln.err
}

// Client manages one relay connection's lifecycle and multiplexes
// subscriptions over it. A background loop owns all transport reads and hands
// frames out strictly in arrival order. Independent clients are fully
// independent and may run concurrently, but a single client must not be
// consumed by two interleaved Listen/ListenEvents readers at once.
type Client struct {
	Relay *Relay

	timeout        time.Duration
	socks5ProxyURL string

	mu   sync.Mutex
	link *link

	subscriptions *xsync.MapOf[string, *Subscription]

	dial func(ctx context.Context) (transport, error)
}

type ClientOption func(*Client)

// WithTimeout bounds the dial and how long a listening sequence waits for the
// next frame. The timeout is applied while waiting for queued frames, never
// to the transport read itself, so an elapsed wait ends the current sequence
// normally and the connection stays open.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithSOCKS5Proxy routes the websocket through the given SOCKS5 proxy.
// Required for tor relays.
func WithSOCKS5Proxy(url string) ClientOption {
	return func(cl *Client) {
		cl.socks5ProxyURL = url
	}
}

func NewClient(relay *Relay, opts ...ClientOption) *Client {
	cl := &Client{
		Relay:         relay,
		timeout:       DefaultTimeout,
		subscriptions: xsync.NewMapOf[string, *Subscription](),
	}
	cl.dial = cl.dialWebsocket

	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

func (cl *Client) dialWebsocket(ctx context.Context) (transport, error) {
	return NewConnection(ctx, cl.Relay.URL, cl.socks5ProxyURL)
}

// Connect opens the transport and starts the reader loop. It is idempotent:
// connecting an already connected client is a no-op. Connecting to an onion
// relay without a SOCKS5 proxy configured is a configuration error detected
// before any dialing. A failed attempt leaves the client disconnected but
// reusable.
func (cl *Client) Connect(ctx context.Context) error {
	if cl.IsConnected() {
		return nil
	}

	if cl.Relay.IsTor() && cl.socks5ProxyURL == "" {
		return &ConnectionError{Op: "connect", URL: cl.Relay.URL,
			Err: errors.New("a socks5 proxy is required for tor relays")}
	}

	if _, ok := ctx.Deadline(); !ok && cl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cl.timeout)
		defer cancel()
	}

	conn, err := cl.dial(ctx)
	if err != nil {
		return &ConnectionError{Op: "connect", URL: cl.Relay.URL, Err: err}
	}

	ln := &link{conn: conn, frames: make(chan []byte), done: make(chan struct{})}
	cl.mu.Lock()
	cl.link = ln
	cl.mu.Unlock()

	go cl.readFrames(ln)
	return nil
}

// readFrames owns every read on the transport. The context handed to the
// read is never cancelled, because cancelling a websocket read closes the
// whole connection; listen timeouts are applied at the frames receive
// instead. When the transport fails or the remote closes, the link is
// detached so IsConnected reflects the socket's real state, and the frames
// channel is closed to end any in-flight listening sequence.
func (cl *Client) readFrames(ln *link) {
	for {
		message, err := ln.conn.ReadMessage(context.Background())
		if err != nil {
			ln.mu.Lock()
			ln.err = err
			ln.mu.Unlock()
			cl.detach(ln)
			close(ln.frames)
			return
		}

		select {
		case ln.frames <- message:
		case <-ln.done:
			return
		}
	}
}

// detach clears the client's link if ln is still the current one.
func (cl *Client) detach(ln *link) {
	cl.mu.Lock()
	if cl.link == ln {
		cl.link = nil
	}
	cl.mu.Unlock()
}

func (cl *Client) current() *link {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.link
}

// Disconnect closes the transport, stops the reader loop and clears all
// subscription bookkeeping. Disconnecting twice is a no-op.
func (cl *Client) Disconnect() {
	cl.mu.Lock()
	ln := cl.link
	cl.link = nil
	cl.mu.Unlock()

	if ln != nil {
		ln.conn.Close()
		close(ln.done)
	}
	cl.subscriptions.Clear()
}

// IsConnected reports whether the transport is currently open. It flips off
// on Disconnect and when the reader loop observes a remote close or a
// transport failure.
func (cl *Client) IsConnected() bool {
	return cl.current() != nil
}

func (cl *Client) send(ctx context.Context, env Envelope) error {
	ln := cl.current()
	if ln == nil {
		return &ConnectionError{Op: "send", URL: cl.Relay.URL, Err: errors.New("not connected")}
	}

	data, err := env.MarshalJSON()
	if err != nil {
		return err
	}

	DebugLogger.Printf("{%s} sending %s\n", cl.Relay.URL, data)
	if err := ln.conn.WriteMessage(ctx, data); err != nil {
		return &ConnectionError{Op: "send", URL: cl.Relay.URL, Err: err}
	}
	return nil
}

// Subscribe validates and normalizes the filter, sends a REQ frame under a
// fresh subscription id and returns that id.
func (cl *Client) Subscribe(ctx context.Context, filter Filter) (string, error) {
	id := uuid.NewString()
	if err := cl.SubscribeWithID(ctx, id, filter); err != nil {
		return "", err
	}
	return id, nil
}

// SubscribeWithID is Subscribe with a caller-chosen subscription id.
func (cl *Client) SubscribeWithID(ctx context.Context, id string, filter Filter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	filter.Normalize()

	if err := cl.send(ctx, &ReqEnvelope{SubscriptionID: id, Filters: Filters{filter}}); err != nil {
		return err
	}

	cl.subscriptions.Store(id, &Subscription{ID: id, Filter: filter, Active: true})
	return nil
}

// Unsubscribe sends CLOSE for the subscription and marks the local record
// inactive. Unknown ids are a no-op.
func (cl *Client) Unsubscribe(ctx context.Context, id string) error {
	sub, ok := cl.subscriptions.Load(id)
	if !ok {
		return nil
	}

	env := CloseEnvelope(id)
	if err := cl.send(ctx, &env); err != nil {
		return err
	}

	sub.Active = false
	return nil
}

// ActiveSubscriptions returns the ids of subscriptions that were requested
// and not yet closed.
func (cl *Client) ActiveSubscriptions() []string {
	ids := make([]string, 0)
	cl.subscriptions.Range(func(id string, sub *Subscription) bool {
		if sub.Active {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// Publish sends the event and waits for the relay's OK verdict, skipping
// NOTICE frames along the way. If the stream ends without an OK the result is
// false with no error, mirroring relay flakiness rather than raising.
func (cl *Client) Publish(ctx context.Context, evt *Event) (bool, error) {
	return cl.sendAwaitOK(ctx, &EventEnvelope{Event: *evt}, evt.ID)
}

// Authenticate performs the NIP-42 AUTH exchange. The event must be of kind
// 22242; anything else fails with a *ValidationError before any frame is sent.
func (cl *Client) Authenticate(ctx context.Context, evt *Event) (bool, error) {
	if evt.Kind != KindClientAuthentication {
		return false, &ValidationError{What: "auth event", Reason: "kind must be 22242"}
	}
	return cl.sendAwaitOK(ctx, &AuthEnvelope{Event: *evt}, evt.ID)
}

func (cl *Client) sendAwaitOK(ctx context.Context, env Envelope, eventID string) (bool, error) {
	if err := cl.send(ctx, env); err != nil {
		return false, err
	}

	for in, err := range cl.Listen(ctx) {
		if err != nil {
			return false, err
		}
		if ok, match := in.(*OKEnvelope); match && ok.EventID == eventID {
			return ok.OK, nil
		}
	}
	return false, nil
}

// Listen yields decoded frames in arrival order. It is a restartable lazy
// sequence: a malformed text frame is silently skipped, waiting longer than
// the configured timeout for the next frame ends the sequence normally with
// the connection still open, a clean remote close ends it normally, and a
// transport failure yields one *ConnectionError and then ends it.
func (cl *Client) Listen(ctx context.Context) iter.Seq2[Envelope, error] {
	return func(yield func(Envelope, error) bool) {
		ln := cl.current()
		if ln == nil {
			yield(nil, &ConnectionError{Op: "listen", URL: cl.Relay.URL, Err: errors.New("not connected")})
			return
		}

		for {
			var timer *time.Timer
			var timeout <-chan time.Time
			if cl.timeout > 0 {
				timer = time.NewTimer(cl.timeout)
				timeout = timer.C
			}

			select {
			case message, ok := <-ln.frames:
				if timer != nil {
					timer.Stop()
				}
				if !ok {
					if err := ln.terminalErr(); !errors.Is(err, io.EOF) {
						yield(nil, &ConnectionError{Op: "receive", URL: cl.Relay.URL, Err: err})
					}
					return
				}

				env, err := ParseMessage(message)
				if err != nil {
					DebugLogger.Printf("{%s} skipping malformed frame: %s\n", cl.Relay.URL, message)
					continue
				}

				if !yield(env, nil) {
					return
				}

			case <-timeout:
				return

			case <-ln.done:
				if timer != nil {
					timer.Stop()
				}
				return

			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	}
}

// ListenEvents narrows Listen down to validated events for one subscription.
// Payloads that fail Event validation are dropped without surfacing anything;
// the sequence ends when the relay signals EOSE or CLOSED for the
// subscription. NOTICE frames are ignored.
func (cl *Client) ListenEvents(ctx context.Context, subscriptionID string) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for in, err := range cl.Listen(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}

			switch env := in.(type) {
			case *EventEnvelope:
				if env.SubscriptionID == nil || *env.SubscriptionID != subscriptionID {
					continue
				}
				evt := env.Event
				if err := evt.Validate(); err != nil {
					DebugLogger.Printf("{%s} dropping invalid event %s: %v\n", cl.Relay.URL, evt.ID, err)
					continue
				}
				if !yield(&evt, nil) {
					return
				}
			case *EOSEEnvelope:
				if string(*env) == subscriptionID {
					return
				}
			case *ClosedEnvelope:
				if env.SubscriptionID == subscriptionID {
					if sub, ok := cl.subscriptions.Load(subscriptionID); ok {
						sub.Active = false
					}
					return
				}
			}
		}
	}
}
