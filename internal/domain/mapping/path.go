package mapping

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Path resolution
//
// Paths are "/"-delimited. A segment suffixed "[]" maps the rest of the
// path over each element of the list at that point; a segment suffixed
// "()" invokes a zero-arg accessor (model sources only). A missing segment
// resolves to nil - absence is data, not an error.
// ---------------------------------------------------------------------------

// segment is one parsed path step
type segment struct {
	name   string
	isList bool
	isCall bool
}

// parsePath splits a path into segments, recognizing the [] and () suffixes
func parsePath(path string) []segment {
	parts := strings.Split(path, "/")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		seg := segment{name: p}
		switch {
		case strings.HasSuffix(p, "[]"):
			seg.name = strings.TrimSuffix(p, "[]")
			seg.isList = true
		case strings.HasSuffix(p, "()"):
			seg.name = strings.TrimSuffix(p, "()")
			seg.isCall = true
		}
		segs = append(segs, seg)
	}
	return segs
}

// hasListSegment reports whether the path contains a "[]" segment
func hasListSegment(path string) bool {
	for _, seg := range parsePath(path) {
		if seg.isList {
			return true
		}
	}
	return false
}

// resolve walks the segments against the source starting at node.
// A "[]" segment fans out: the remaining path is resolved per element and
// the results are collected into a []any.
func resolve(src Source, node any, segs []segment) (any, error) {
	for i, seg := range segs {
		if node == nil {
			return nil, nil
		}

		var next any
		if seg.isCall {
			v, err := src.Invoke(node, seg.name)
			if err != nil {
				return nil, err
			}
			next = v
		} else {
			v, ok := src.Child(node, seg.name)
			if !ok {
				return nil, nil
			}
			next = v
		}

		if seg.isList {
			elems, ok := src.Elements(next)
			if !ok {
				if next == nil {
					return nil, nil
				}
				// Single occurrence of a repeating group
				elems = []any{next}
			}
			rest := segs[i+1:]
			out := make([]any, 0, len(elems))
			for _, e := range elems {
				v, err := resolve(src, e, rest)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}

		node = next
	}
	return src.Value(node), nil
}

// Resolve walks path against the source and returns the value at its end,
// nil when any step is absent.
func Resolve(src Source, path string) (any, error) {
	return resolve(src, src.Root(), parsePath(path))
}

// ---------------------------------------------------------------------------
// Destination setter
// ---------------------------------------------------------------------------

// setPath writes value into dest at path, creating intermediate maps on
// demand. A "[]" segment with a list value fans the elements out into a
// list of partial maps, index-aligned with any maps already at that key so
// that two rules targeting the same repeating group merge per element.
func setPath(dest map[string]any, path string, value any) {
	setSegments(dest, parsePath(path), value)
}

func setSegments(dest map[string]any, segs []segment, value any) {
	for i, seg := range segs {
		last := i == len(segs)-1
		rest := segs[i+1:]

		if seg.isList && !last {
			items, ok := value.([]any)
			if !ok {
				// Scalar into a repeating path: treat the segment as plain
				dest = descend(dest, seg.name)
				continue
			}
			group, _ := dest[seg.name].([]map[string]any)
			for idx, item := range items {
				if idx < len(group) {
					setSegments(group[idx], rest, item)
				} else {
					m := make(map[string]any)
					setSegments(m, rest, item)
					group = append(group, m)
				}
			}
			dest[seg.name] = group
			return
		}

		if last {
			dest[seg.name] = value
			return
		}

		dest = descend(dest, seg.name)
	}
}

// descend returns the child map at key, creating it when absent or when a
// non-map value occupies the slot
func descend(dest map[string]any, key string) map[string]any {
	if next, ok := dest[key].(map[string]any); ok {
		return next
	}
	next := make(map[string]any)
	dest[key] = next
	return next
}
