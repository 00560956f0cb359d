package nostr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterValidate(t *testing.T) {
	since := Timestamp(100)
	until := Timestamp(50)
	id := strings.Repeat("ab", 32)

	tests := []struct {
		name   string
		filter Filter
		valid  bool
	}{
		{"empty", Filter{}, true},
		{"full", Filter{
			IDs:     []string{id},
			Authors: []string{id},
			Kinds:   []int{1, 30023},
			Tags:    TagMap{"e": {"x"}, "P": {"y"}},
			Since:   &until,
			Until:   &since,
			Limit:   10,
		}, true},
		{"uppercase id", Filter{IDs: []string{strings.ToUpper(id)}}, false},
		{"short author", Filter{Authors: []string{"abc"}}, false},
		{"kind out of range", Filter{Kinds: []int{MaxKind + 1}}, false},
		{"negative kind", Filter{Kinds: []int{-1}}, false},
		{"since after until", Filter{Since: &since, Until: &until}, false},
		{"negative limit", Filter{Limit: -1}, false},
		{"long tag key", Filter{Tags: TagMap{"ee": {"x"}}}, false},
		{"numeric tag key", Filter{Tags: TagMap{"1": {"x"}}}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.filter.Validate()
			if test.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.IsType(t, &ValidationError{}, err)
			}
		})
	}
}

func TestFilterNormalize(t *testing.T) {
	id := strings.Repeat("ab", 32)
	f := Filter{
		IDs:     []string{strings.ToUpper(id), id, id},
		Authors: []string{},
		Kinds:   []int{},
		Tags:    TagMap{"e": {}},
	}
	f.Normalize()

	require.Equal(t, []string{id}, f.IDs)
	require.Nil(t, f.Authors)
	require.Nil(t, f.Kinds)
	require.Nil(t, f.Tags)
}

func TestFilterMarshal(t *testing.T) {
	since := Timestamp(1700000000)
	until := Timestamp(1700000100)
	f := Filter{
		IDs:     []string{"aaa"},
		Kinds:   []int{1, 7},
		Authors: []string{"bbb"},
		Tags:    TagMap{"p": {"x"}, "e": {"y", "z"}},
		Since:   &since,
		Until:   &until,
		Limit:   12,
	}

	b, err := f.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t,
		`{"ids":["aaa"],"kinds":[1,7],"authors":["bbb"],"since":1700000000,"until":1700000100,"limit":12,"#e":["y","z"],"#p":["x"]}`,
		string(b))
}

func TestFilterUnmarshal(t *testing.T) {
	raw := `{"ids":["aaa"],"kinds":[1,7],"#e":["y","z"],"since":1700000000,"limit":12,"unknown":"ignored"}`

	var f Filter
	require.NoError(t, f.UnmarshalJSON([]byte(raw)))
	require.Equal(t, []string{"aaa"}, f.IDs)
	require.Equal(t, []int{1, 7}, f.Kinds)
	require.Equal(t, TagMap{"e": {"y", "z"}}, f.Tags)
	require.NotNil(t, f.Since)
	require.Equal(t, Timestamp(1700000000), *f.Since)
	require.Nil(t, f.Until)
	require.Equal(t, 12, f.Limit)

	require.Error(t, f.UnmarshalJSON([]byte(`{"ids":[1]}`)))
	require.Error(t, f.UnmarshalJSON([]byte(`[]`)))
}

func TestFilterMatches(t *testing.T) {
	since := Timestamp(1000)
	until := Timestamp(2000)
	ev := &Event{
		ID:        strings.Repeat("aa", 32),
		PubKey:    strings.Repeat("bb", 32),
		CreatedAt: 1500,
		Kind:      1,
		Tags:      Tags{{"e", "target"}},
	}

	require.True(t, Filter{}.Matches(ev))
	require.True(t, Filter{Kinds: []int{1}}.Matches(ev))
	require.False(t, Filter{Kinds: []int{2}}.Matches(ev))
	require.True(t, Filter{IDs: []string{ev.ID}}.Matches(ev))
	require.False(t, Filter{IDs: []string{strings.Repeat("cc", 32)}}.Matches(ev))
	require.True(t, Filter{Authors: []string{ev.PubKey}}.Matches(ev))
	require.True(t, Filter{Tags: TagMap{"e": {"target", "other"}}}.Matches(ev))
	require.False(t, Filter{Tags: TagMap{"e": {"other"}}}.Matches(ev))
	require.True(t, Filter{Since: &since, Until: &until}.Matches(ev))
	require.False(t, Filter{Until: &since}.Matches(ev))
	require.False(t, Filter{Since: &until}.Matches(ev))
	require.False(t, Filter{}.Matches(nil))

	require.True(t, Filters{{Kinds: []int{2}}, {Kinds: []int{1}}}.Match(ev))
	require.False(t, Filters{{Kinds: []int{2}}}.Match(ev))
}

func TestFilterEqual(t *testing.T) {
	since := Timestamp(10)
	a := Filter{IDs: []string{"x", "y"}, Kinds: []int{1, 2}, Since: &since}
	b := Filter{IDs: []string{"y", "x"}, Kinds: []int{2, 1}, Since: &since}
	require.True(t, FilterEqual(a, b), "list order must not matter")

	c := b
	c.Limit = 5
	require.False(t, FilterEqual(a, c))

	d := b
	d.Since = nil
	require.False(t, FilterEqual(a, d))
}
