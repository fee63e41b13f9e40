package filter

import "strings"

// ExclusionSet is the list of public paths that bypass every stage.
// Membership is an exact, case-sensitive match on the request path.
type ExclusionSet struct {
	paths []string
	index map[string]struct{}
}

// ParseExclusionSet parses a comma separated path list. Entries are
// trimmed and empty entries dropped; order is preserved.
func ParseExclusionSet(csv string) *ExclusionSet {
	s := &ExclusionSet{index: make(map[string]struct{})}
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := s.index[p]; dup {
			continue
		}
		s.index[p] = struct{}{}
		s.paths = append(s.paths, p)
	}
	return s
}

// IsExcluded reports whether path is public. A nil set excludes nothing.
func (s *ExclusionSet) IsExcluded(path string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[path]
	return ok
}

// Paths returns the excluded paths in configuration order.
func (s *ExclusionSet) Paths() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.paths...)
}

// Len returns the number of excluded paths.
func (s *ExclusionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.paths)
}
