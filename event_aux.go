package nostr

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// UnmarshalJSON parses an event object. All seven keys are required; extra
// keys are ignored.
func (evt *Event) UnmarshalJSON(payload []byte) error {
	r := gjson.ParseBytes(payload)
	if !r.IsObject() {
		return fmt.Errorf("event is not an object")
	}

	id := r.Get("id")
	pubkey := r.Get("pubkey")
	createdAt := r.Get("created_at")
	kind := r.Get("kind")
	tags := r.Get("tags")
	content := r.Get("content")
	sig := r.Get("sig")
	for key, field := range map[string]gjson.Result{
		"id": id, "pubkey": pubkey, "created_at": createdAt,
		"kind": kind, "tags": tags, "content": content, "sig": sig,
	} {
		if !field.Exists() {
			return fmt.Errorf("missing '%s' field", key)
		}
	}

	if createdAt.Type != gjson.Number {
		return fmt.Errorf("invalid 'created_at' field")
	}
	if kind.Type != gjson.Number {
		return fmt.Errorf("invalid 'kind' field")
	}

	parsedTags, err := gjsonToTags(tags)
	if err != nil {
		return fmt.Errorf("invalid 'tags' field: %w", err)
	}

	evt.ID = id.Str
	evt.PubKey = pubkey.Str
	evt.CreatedAt = Timestamp(createdAt.Int())
	evt.Kind = int(kind.Int())
	evt.Tags = parsedTags
	evt.Content = content.Str
	evt.Sig = sig.Str
	return nil
}

func gjsonToTags(v gjson.Result) (Tags, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("not an array")
	}

	arr := v.Array()
	tags := make(Tags, len(arr))
	for i, item := range arr {
		if !item.IsArray() {
			return nil, fmt.Errorf("tag %d is not an array", i)
		}
		sub := item.Array()
		tag := make(Tag, len(sub))
		for j, s := range sub {
			if s.Type != gjson.String {
				return nil, fmt.Errorf("tag %d item %d is not a string", i, j)
			}
			tag[j] = s.Str
		}
		tags[i] = tag
	}
	return tags, nil
}

// MarshalJSON returns the JSON byte encoding of the event, as in NIP-01.
func (evt Event) MarshalJSON() ([]byte, error) {
	dst := make([]byte, 0, 256)
	dst = append(dst, `{"id":"`...)
	dst = append(dst, evt.ID...)
	dst = append(dst, `","pubkey":"`...)
	dst = append(dst, evt.PubKey...)
	dst = append(dst, `","created_at":`...)
	dst = strconv.AppendInt(dst, int64(evt.CreatedAt), 10)
	dst = append(dst, `,"kind":`...)
	dst = strconv.AppendInt(dst, int64(evt.Kind), 10)
	dst = append(dst, `,"tags":`...)
	dst = evt.Tags.marshalTo(dst)
	dst = append(dst, `,"content":`...)
	dst = escapeString(dst, evt.Content)
	dst = append(dst, `,"sig":"`...)
	dst = append(dst, evt.Sig...)
	dst = append(dst, `"}`...)
	return dst, nil
}
