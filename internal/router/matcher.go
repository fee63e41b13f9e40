package router

import "strings"

// PathMatcher is the interface for path matching.
type PathMatcher interface {
	Match(path string) bool
	Type() string
	Pattern() string
}

// ExactMatcher matches exact paths.
type ExactMatcher struct {
	path string
}

// NewExactMatcher creates a new exact path matcher.
func NewExactMatcher(path string) *ExactMatcher {
	return &ExactMatcher{path: path}
}

// Match checks if the path matches exactly.
func (m *ExactMatcher) Match(path string) bool {
	return path == m.path
}

// Type returns the matcher type.
func (m *ExactMatcher) Type() string {
	return "exact"
}

// Pattern returns the pattern.
func (m *ExactMatcher) Pattern() string {
	return m.path
}

// PrefixMatcher matches a path and everything below it.
type PrefixMatcher struct {
	prefix string
}

// NewPrefixMatcher creates a new prefix path matcher. A trailing slash on
// prefix is ignored.
func NewPrefixMatcher(prefix string) *PrefixMatcher {
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	return &PrefixMatcher{prefix: prefix}
}

// Match checks if the path equals the prefix or continues it at a segment
// boundary, so "/api/user" does not match "/api/username".
func (m *PrefixMatcher) Match(path string) bool {
	if m.prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, m.prefix) {
		return false
	}
	return len(path) == len(m.prefix) || path[len(m.prefix)] == '/'
}

// Type returns the matcher type.
func (m *PrefixMatcher) Type() string {
	return "prefix"
}

// Pattern returns the pattern.
func (m *PrefixMatcher) Pattern() string {
	return m.prefix
}

// NewPathMatcher creates the matcher for a configured route path.
func NewPathMatcher(path string) PathMatcher {
	if prefix, ok := strings.CutSuffix(path, "/**"); ok {
		if prefix == "" {
			prefix = "/"
		}
		return NewPrefixMatcher(prefix)
	}
	return NewExactMatcher(path)
}
