package nostr

import (
	"fmt"
	"slices"

	jwriter "github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

// MarshalJSON produces the wire-format filter map suitable for embedding in a
// REQ frame, with tag criteria rendered as "#<letter>" keys.
func (ef Filter) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	first := true
	comma := func() {
		if !first {
			w.RawString(`,`)
		}
		first = false
	}

	w.RawString(`{`)
	if ef.IDs != nil {
		comma()
		w.RawString(`"ids":`)
		writeStringArray(&w, ef.IDs)
	}
	if ef.Kinds != nil {
		comma()
		w.RawString(`"kinds":[`)
		for i, kind := range ef.Kinds {
			if i > 0 {
				w.RawString(`,`)
			}
			w.Int(kind)
		}
		w.RawString(`]`)
	}
	if ef.Authors != nil {
		comma()
		w.RawString(`"authors":`)
		writeStringArray(&w, ef.Authors)
	}
	if ef.Since != nil {
		comma()
		w.RawString(`"since":`)
		w.Int64(int64(*ef.Since))
	}
	if ef.Until != nil {
		comma()
		w.RawString(`"until":`)
		w.Int64(int64(*ef.Until))
	}
	if ef.Limit > 0 {
		comma()
		w.RawString(`"limit":`)
		w.Int(ef.Limit)
	}
	// deterministic tag-key order
	keys := make([]string, 0, len(ef.Tags))
	for key := range ef.Tags {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		comma()
		w.String("#" + key)
		w.RawString(`:`)
		writeStringArray(&w, ef.Tags[key])
	}
	w.RawString(`}`)
	return w.BuildBytes()
}

func writeStringArray(w *jwriter.Writer, items []string) {
	w.RawString(`[`)
	for i, item := range items {
		if i > 0 {
			w.RawString(`,`)
		}
		w.String(item)
	}
	w.RawString(`]`)
}

// UnmarshalJSON parses a filter map. Any "#<letter>" key becomes a tag
// criterion; unknown keys are ignored.
func (ef *Filter) UnmarshalJSON(payload []byte) error {
	r := gjson.ParseBytes(payload)
	if !r.IsObject() {
		return fmt.Errorf("filter is not an object")
	}

	var err error
	r.ForEach(func(key, value gjson.Result) bool {
		switch k := key.Str; k {
		case "ids":
			ef.IDs, err = gjsonToStringList(value)
		case "authors":
			ef.Authors, err = gjsonToStringList(value)
		case "kinds":
			ef.Kinds, err = gjsonToIntList(value)
		case "since":
			ts := Timestamp(value.Int())
			ef.Since = &ts
		case "until":
			ts := Timestamp(value.Int())
			ef.Until = &ts
		case "limit":
			ef.Limit = int(value.Int())
		default:
			if len(k) == 2 && k[0] == '#' {
				var values []string
				if values, err = gjsonToStringList(value); err == nil {
					if ef.Tags == nil {
						ef.Tags = make(TagMap)
					}
					ef.Tags[k[1:]] = values
				}
			}
		}
		if err != nil {
			err = fmt.Errorf("invalid '%s' field: %w", key.Str, err)
			return false
		}
		return true
	})
	return err
}

func gjsonToStringList(v gjson.Result) ([]string, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("not an array")
	}
	arr := v.Array()
	out := make([]string, len(arr))
	for i, item := range arr {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("item %d is not a string", i)
		}
		out[i] = item.Str
	}
	return out, nil
}

func gjsonToIntList(v gjson.Result) ([]int, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("not an array")
	}
	arr := v.Array()
	out := make([]int, len(arr))
	for i, item := range arr {
		if item.Type != gjson.Number {
			return nil, fmt.Errorf("item %d is not a number", i)
		}
		out[i] = int(item.Int())
	}
	return out, nil
}
