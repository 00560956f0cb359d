package nostr

import (
	"context"
	"iter"
)

// FetchEvents subscribes with the filter on an already connected client,
// drains events until the relay signals the end of stored events, then closes
// the subscription. It is the one-shot query counterpart of StreamEvents.
func FetchEvents(ctx context.Context, cl *Client, filter Filter) ([]*Event, error) {
	id, err := cl.Subscribe(ctx, filter)
	if err != nil {
		return nil, err
	}

	events := make([]*Event, 0)
	for evt, err := range cl.ListenEvents(ctx, id) {
		if err != nil {
			return events, err
		}
		events = append(events, evt)
	}

	if err := cl.Unsubscribe(ctx, id); err != nil {
		return events, err
	}
	return events, nil
}

// StreamEvents subscribes with the filter and returns the live event sequence
// along with the subscription id, so the caller can Unsubscribe when done.
// The sequence ends on EOSE or CLOSED like ListenEvents does.
func StreamEvents(ctx context.Context, cl *Client, filter Filter) (iter.Seq2[*Event, error], string, error) {
	id, err := cl.Subscribe(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	return cl.ListenEvents(ctx, id), id, nil
}
