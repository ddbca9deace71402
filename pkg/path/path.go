// Package path reads and writes values at dotted paths inside nested
// map[string]any / []any trees, the wire-shaped state the Formwork engine
// operates on. A segment consisting only of digits addresses a slice
// index; any other segment addresses a map key.
package path

import (
	"reflect"
	"strconv"
	"strings"
)

// Get walks the path left to right and returns the addressed value.
// The second return is false when traversal hits a nil, absent or
// mistyped intermediate, or an out-of-range index. Reads never fail
// hard: before initialization completes the whole state is nil and
// field reads must stay resilient.
func Get(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		if cur == nil {
			return nil, false
		}
		if idx, ok := index(seg); ok {
			items, ok := cur.([]any)
			if !ok || idx >= len(items) {
				return nil, false
			}
			cur = items[idx]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns value at path and returns the resulting root. An empty path
// returns root unchanged (whole-state replacement goes through SetState,
// not Set). Missing intermediate containers are created: maps for key
// segments, slices grown with nils for index segments. Containers are
// mutated in place, so callers that hold snapshots must clone before
// calling Set.
func Set(root any, path string, value any) any {
	if path == "" {
		return root
	}
	return assign(root, strings.Split(path, "."), value)
}

func assign(node any, segs []string, value any) any {
	seg := segs[0]
	if idx, ok := index(seg); ok {
		items, _ := node.([]any)
		for len(items) <= idx {
			items = append(items, nil)
		}
		if len(segs) == 1 {
			items[idx] = value
		} else {
			items[idx] = assign(items[idx], segs[1:], value)
		}
		return items
	}
	obj, ok := node.(map[string]any)
	if !ok {
		obj = make(map[string]any)
	}
	if len(segs) == 1 {
		obj[seg] = value
	} else {
		obj[seg] = assign(obj[seg], segs[1:], value)
	}
	return obj
}

// Clone deep-copies a value tree. Maps and slices are copied recursively;
// scalars are returned as-is. The engine clones before every in-place Set
// so that recorded history snapshots are never retroactively altered.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports deep value equality between two trees.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// maxIndex bounds the indexes Set is willing to grow a slice to. Reads
// reject anything past the slice end regardless, but writes allocate up
// to the index, so an unbounded parse would let one hostile path segment
// exhaust memory.
const maxIndex = 1 << 20

// index interprets an all-digit segment as a slice index. Segments that
// do not fit an int, or that exceed maxIndex, are not indexes: they fall
// through to map-key handling, so a hostile segment degrades to an
// absent key instead of a panic or runaway allocation.
func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n > maxIndex {
		return 0, false
	}
	return n, true
}
