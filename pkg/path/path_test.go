package path_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwork-dev/formwork/pkg/path"
)

func TestGet(t *testing.T) {
	root := map[string]any{
		"user": map[string]any{
			"name": "Ada",
			"tags": []any{"a", "b", map[string]any{"deep": true}},
		},
		"count": 3,
	}

	tests := []struct {
		name string
		path string
		want any
		ok   bool
	}{
		{"top level key", "count", 3, true},
		{"nested key", "user.name", "Ada", true},
		{"slice index", "user.tags.1", "b", true},
		{"map inside slice", "user.tags.2.deep", true, true},
		{"whole root", "", root, true},
		{"missing key", "user.email", nil, false},
		{"index out of range", "user.tags.9", nil, false},
		{"key into scalar", "count.x", nil, false},
		{"index into map", "user.0", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := path.Get(root, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_NilIntermediate(t *testing.T) {
	// Reads must stay resilient before initialization completes.
	got, ok := path.Get(nil, "a.b.c")
	assert.False(t, ok)
	assert.Nil(t, got)

	root := map[string]any{"a": nil}
	got, ok = path.Get(root, "a.b")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSet_RoundTrip(t *testing.T) {
	paths := []string{"name", "user.name", "user.tags.0", "a.b.c.d", "list.2.key"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			root := path.Set(map[string]any{}, p, "v")
			got, ok := path.Get(root, p)
			require.True(t, ok)
			assert.Equal(t, "v", got)
		})
	}
}

func TestSet_EmptyPathIsNoOp(t *testing.T) {
	root := map[string]any{"a": 1}
	got := path.Set(root, "", "ignored")
	assert.Equal(t, map[string]any{"a": 1}, got)
}

func TestSet_PreservesRootIdentity(t *testing.T) {
	root := map[string]any{"user": map[string]any{"name": "Ada"}}
	out := path.Set(root, "user.name", "Grace")
	assert.Equal(t, "Grace", root["user"].(map[string]any)["name"])
	// Same identity: writes through one are visible through the other.
	out.(map[string]any)["extra"] = 1
	assert.Equal(t, 1, root["extra"])
}

func TestSet_GrowsSlices(t *testing.T) {
	root := path.Set(map[string]any{}, "items.2", "x")
	items, ok := root.(map[string]any)["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Nil(t, items[0])
	assert.Nil(t, items[1])
	assert.Equal(t, "x", items[2])
}

func TestClone_IsolatesSnapshots(t *testing.T) {
	// After any Set, previously recorded snapshots must remain value-equal
	// to what they were before the call.
	state := map[string]any{
		"user": map[string]any{"tags": []any{"a", "b"}},
	}
	snapshot := path.Clone(state)

	path.Set(state, "user.tags.0", "mutated")
	path.Set(state, "user.new", true)

	want := map[string]any{
		"user": map[string]any{"tags": []any{"a", "b"}},
	}
	assert.True(t, path.Equal(snapshot, want))
}

func TestEqual(t *testing.T) {
	a := map[string]any{"x": []any{1, 2}, "y": map[string]any{"z": "v"}}
	b := map[string]any{"x": []any{1, 2}, "y": map[string]any{"z": "v"}}
	assert.True(t, path.Equal(a, b))

	b["x"].([]any)[1] = 3
	assert.False(t, path.Equal(a, b))
}

func TestDigitSegments(t *testing.T) {
	// Only all-digit segments address slices; mixed segments are map keys.
	root := path.Set(map[string]any{}, "a1b", "key")
	_, isMap := root.(map[string]any)["a1b"]
	assert.True(t, isMap)

	root = path.Set(map[string]any{}, "10", "indexed")
	items, ok := root.([]any)
	require.True(t, ok)
	assert.Equal(t, "indexed", items[10])
}

func TestHugeDigitSegments(t *testing.T) {
	// Digit segments past the int range or the growth cap are not slice
	// indexes. Reads return absent instead of panicking, and writes land
	// as map keys instead of allocating gigabytes of nil elements.
	root := map[string]any{"items": []any{"a"}}

	for _, seg := range []string{
		"18446744073709551615", // wraps negative if accumulated into an int
		"99999999999999999999", // overflows outright
		"1048577",              // one past the growth cap
	} {
		t.Run("get "+seg, func(t *testing.T) {
			assert.NotPanics(t, func() {
				got, ok := path.Get(root, "items."+seg)
				assert.False(t, ok)
				assert.Nil(t, got)
			})
		})
		t.Run("set "+seg, func(t *testing.T) {
			out := path.Set(map[string]any{}, seg, "v")
			m, isMap := out.(map[string]any)
			require.True(t, isMap)
			assert.Equal(t, "v", m[seg])
		})
	}
}
