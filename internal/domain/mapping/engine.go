package mapping

import (
	"fmt"
	"time"
)

// Options carries the per-tenant context coercion needs
type Options struct {
	// Location is the tenant's time zone for date coercion; nil means UTC
	Location *time.Location
}

// Transform applies the mapping rules to the source and returns the
// resulting nested field bag.
//
// Per rule: the source value is resolved (literal rules short-circuit),
// coerced, and written at the destination path. When the destination path
// contains a "[]" segment and the resolved value is a list, coercion is
// applied element-wise and the elements fan out into a list of partial
// maps, merging index-aligned with elements already produced by earlier
// rules targeting the same repeating group.
//
// A nil coerced value is skipped only when the rule's null behavior is
// NullIgnore; every other nil is written explicitly so loaders can tell
// "never mapped" apart from "explicitly cleared".
func Transform(fields []Field, src Source, opts Options) (map[string]any, error) {
	out := make(map[string]any)

	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q -> %q: %w", f.SourcePath, f.DestinationPath, err)
		}

		var raw any
		if f.IsLiteral() {
			raw = f.Literal
		} else {
			v, err := Resolve(src, f.SourcePath)
			if err != nil {
				return nil, fmt.Errorf("rule %q -> %q: %w", f.SourcePath, f.DestinationPath, err)
			}
			raw = v
		}

		if list, ok := raw.([]any); ok && hasListSegment(f.DestinationPath) {
			coerced := make([]any, len(list))
			for i, item := range list {
				coerced[i] = Coerce(f.Type, item, f.TimeOfDay, opts.Location)
			}
			setPath(out, f.DestinationPath, coerced)
			continue
		}

		value := Coerce(f.Type, raw, f.TimeOfDay, opts.Location)
		if value == nil && f.Nulls == NullIgnore {
			continue
		}
		setPath(out, f.DestinationPath, value)
	}

	return out, nil
}
