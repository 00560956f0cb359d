package nostr

import "strings"

// Sanitize removes NUL bytes from v, recursively for the composite shapes
// generic JSON decoding produces. Strings come back stripped of the NULs that
// text storage backends reject, []any elements and map[string]any keys and
// values are cleaned one by one, and every other type is returned unchanged.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ReplaceAll(val, "\x00", "")
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[strings.ReplaceAll(k, "\x00", "")] = Sanitize(item)
		}
		return out
	}
	return v
}

// Escaping strings for JSON encoding according to RFC8259.
// Also encloses result in quotation marks "".
func escapeString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			// quotation mark
			dst = append(dst, []byte{'\\', '"'}...)
		case c == '\\':
			// reverse solidus
			dst = append(dst, []byte{'\\', '\\'}...)
		case c >= 0x20:
			// default, rest below are control chars
			dst = append(dst, c)
		case c == 0x08:
			dst = append(dst, []byte{'\\', 'b'}...)
		case c < 0x09:
			dst = append(dst, []byte{'\\', 'u', '0', '0', '0', '0' + c}...)
		case c == 0x09:
			dst = append(dst, []byte{'\\', 't'}...)
		case c == 0x0a:
			dst = append(dst, []byte{'\\', 'n'}...)
		case c == 0x0c:
			dst = append(dst, []byte{'\\', 'f'}...)
		case c == 0x0d:
			dst = append(dst, []byte{'\\', 'r'}...)
		case c < 0x10:
			dst = append(dst, []byte{'\\', 'u', '0', '0', '0', 'a' + c - 10}...)
		case c < 0x1a:
			dst = append(dst, []byte{'\\', 'u', '0', '0', '1', '0' + c - 0x10}...)
		case c < 0x20:
			dst = append(dst, []byte{'\\', 'u', '0', '0', '1', 'a' + c - 0x1a}...)
		}
	}
	dst = append(dst, '"')
	return dst
}

// IsValid32ByteHex checks if a string is a valid lowercase 64-character hex string.
func IsValid32ByteHex(thing string) bool {
	return isLowerHex(thing, 64)
}

func isLowerHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
