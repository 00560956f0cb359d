package nostr

import (
	"slices"
	"strings"
)

type Filters []Filter

type Filter struct {
	IDs     []string
	Kinds   []int
	Authors []string
	Tags    TagMap
	Since   *Timestamp
	Until   *Timestamp
	Limit   int
}

type TagMap map[string][]string

// Validate checks the subscription-criteria invariants: ids and authors must
// be 64-character lowercase hex, kinds must be inside the protocol range,
// since must not exceed until, limit must not be negative and tag keys must be
// exactly one alphabetic character.
func (ef Filter) Validate() error {
	for _, id := range ef.IDs {
		if !isLowerHex(id, 64) {
			return &ValidationError{What: "filter", Reason: "ids must be 64-character lowercase hex strings"}
		}
	}
	for _, author := range ef.Authors {
		if !isLowerHex(author, 64) {
			return &ValidationError{What: "filter", Reason: "authors must be 64-character lowercase hex strings"}
		}
	}
	for _, kind := range ef.Kinds {
		if !IsValidKind(kind) {
			return &ValidationError{What: "filter", Reason: "kinds must be between 0 and 65535"}
		}
	}
	if ef.Since != nil && ef.Until != nil && *ef.Since > *ef.Until {
		return &ValidationError{What: "filter", Reason: "since must be less than or equal to until"}
	}
	if ef.Limit < 0 {
		return &ValidationError{What: "filter", Reason: "limit must be a positive integer"}
	}
	for key := range ef.Tags {
		if len(key) != 1 || !isAlpha(key[0]) {
			return &ValidationError{What: "filter", Reason: "tag keys must be single alphabetic characters"}
		}
	}
	return nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Normalize lowercases and de-duplicates the id and author lists (relays give
// no ordering guarantees, so set semantics apply) and collapses empty lists
// and maps to absent.
func (ef *Filter) Normalize() {
	ef.IDs = normalizeHexList(ef.IDs)
	ef.Authors = normalizeHexList(ef.Authors)
	if len(ef.Kinds) == 0 {
		ef.Kinds = nil
	}
	for key, values := range ef.Tags {
		if len(values) == 0 {
			delete(ef.Tags, key)
		}
	}
	if len(ef.Tags) == 0 {
		ef.Tags = nil
	}
}

func normalizeHexList(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.ToLower(item)
		if !slices.Contains(out, item) {
			out = append(out, item)
		}
	}
	return out
}

func (eff Filters) Match(event *Event) bool {
	for _, filter := range eff {
		if filter.Matches(event) {
			return true
		}
	}
	return false
}

// Matches checks if the event satisfies every criterion of the filter.
func (ef Filter) Matches(event *Event) bool {
	if event == nil {
		return false
	}

	if ef.IDs != nil && !slices.Contains(ef.IDs, event.ID) {
		return false
	}

	if ef.Kinds != nil && !slices.Contains(ef.Kinds, event.Kind) {
		return false
	}

	if ef.Authors != nil && !slices.Contains(ef.Authors, event.PubKey) {
		return false
	}

	for key, values := range ef.Tags {
		if !event.Tags.ContainsAny(key, values) {
			return false
		}
	}

	if ef.Since != nil && event.CreatedAt < *ef.Since {
		return false
	}

	if ef.Until != nil && event.CreatedAt > *ef.Until {
		return false
	}

	return true
}

func FilterEqual(a Filter, b Filter) bool {
	if !similar(a.Kinds, b.Kinds) {
		return false
	}

	if !similar(a.IDs, b.IDs) {
		return false
	}

	if !similar(a.Authors, b.Authors) {
		return false
	}

	if len(a.Tags) != len(b.Tags) {
		return false
	}

	for key, av := range a.Tags {
		if bv, ok := b.Tags[key]; !ok || !similar(av, bv) {
			return false
		}
	}

	if !arePointerValuesEqual(a.Since, b.Since) {
		return false
	}

	if !arePointerValuesEqual(a.Until, b.Until) {
		return false
	}

	if a.Limit != b.Limit {
		return false
	}

	return true
}

// similar is an unordered set comparison of two lists.
func similar[E comparable](as, bs []E) bool {
	if len(as) != len(bs) {
		return false
	}

	for _, a := range as {
		if !slices.Contains(bs, a) {
			return false
		}
	}

	return true
}

func arePointerValuesEqual[V comparable](a *V, b *V) bool {
	if a == nil && b == nil {
		return true
	}
	if a != nil && b != nil {
		return *a == *b
	}
	return false
}

func (ef Filter) String() string {
	j, _ := ef.MarshalJSON()
	return string(j)
}
