package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// REQUEST CONTEXT EXTRACTION
// =============================================================================
//
// The request context is an open key/value bag supplied by the caller. Only a
// handful of keys are recognized; everything else is carried along for the
// cache fingerprint but otherwise ignored. Values arrive from JSON decoding,
// CLI flags or Go callers, so extraction is type-aware and never panics:
//   - bool / "true" / "1"          -> bool
//   - string / fmt.Stringer        -> string
//   - []string / []interface{}     -> []string

// Recognized context keys.
const (
	ContextHasRecentImages  = "hasRecentImages"
	ContextPreviousCategory = "previousCategory"
	ContextRecentQueries    = "recentQueries"
)

// RequestContext is the typed view of the recognized context keys.
type RequestContext struct {
	HasRecentImages  bool
	PreviousCategory string
	RecentQueries    []string
}

// ParseRequestContext extracts the recognized keys. Unknown keys are ignored.
func ParseRequestContext(raw map[string]interface{}) RequestContext {
	var rc RequestContext
	if raw == nil {
		return rc
	}
	rc.HasRecentImages = ExtractBool(raw[ContextHasRecentImages])
	rc.PreviousCategory = ExtractString(raw[ContextPreviousCategory])
	rc.RecentQueries = ExtractStringSlice(raw[ContextRecentQueries])
	return rc
}

// WithQuery returns a copy whose recent queries end with query.
func (rc RequestContext) WithQuery(query string) RequestContext {
	out := rc
	out.RecentQueries = make([]string, 0, len(rc.RecentQueries)+1)
	out.RecentQueries = append(out.RecentQueries, rc.RecentQueries...)
	if strings.TrimSpace(query) != "" {
		out.RecentQueries = append(out.RecentQueries, query)
	}
	return out
}

// RecentText joins recent queries lower-cased for substring matching.
func (rc RequestContext) RecentText() string {
	return strings.ToLower(strings.Join(rc.RecentQueries, " "))
}

// ExtractString returns a string representation of a context value.
func ExtractString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ExtractBool interprets a context value as a boolean.
func ExtractBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "y":
			return true
		}
		return false
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return false
	}
}

// ExtractStringSlice interprets a context value as a list of strings.
// A single string becomes a one-element list; empty entries are dropped.
func ExtractStringSlice(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range val {
			if s := ExtractString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}
