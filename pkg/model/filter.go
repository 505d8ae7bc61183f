package model

import (
	"strings"
)

// TagFilter is one predicate of the commit listing filter syntax:
// "key" requires the tag to be present, "key=value" requires an exact
// match. Multiple filters are ANDed.
type TagFilter struct {
	Key      string
	Value    string
	HasValue bool
}

// ParseTagFilters parses the repeated tag query parameters. The value
// part may itself contain '='; only the first one splits.
func ParseTagFilters(exprs []string) ([]TagFilter, error) {
	filters := make([]TagFilter, 0, len(exprs))
	for _, expr := range exprs {
		parts := strings.SplitN(expr, "=", 2)
		if parts[0] == "" {
			return nil, InvalidArgument("invalid tag filter '%s', key must not be empty", expr)
		}
		f := TagFilter{Key: parts[0]}
		if len(parts) == 2 {
			f.Value = parts[1]
			f.HasValue = true
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// Tags extracts the tag map from a commit's properties. Both typed
// and JSON-decoded property maps are accepted.
func Tags(c *Commit) map[string]string {
	if c == nil || c.Properties == nil {
		return nil
	}
	switch tags := c.Properties["tags"].(type) {
	case map[string]string:
		return tags
	case map[string]interface{}:
		out := make(map[string]string, len(tags))
		for k, v := range tags {
			s, ok := v.(string)
			if !ok {
				continue
			}
			out[k] = s
		}
		return out
	default:
		return nil
	}
}

// MatchTags reports whether the commit satisfies every filter.
func MatchTags(c *Commit, filters []TagFilter) bool {
	if len(filters) == 0 {
		return true
	}
	tags := Tags(c)
	for _, f := range filters {
		v, ok := tags[f.Key]
		if !ok {
			return false
		}
		if f.HasValue && v != f.Value {
			return false
		}
	}
	return true
}
