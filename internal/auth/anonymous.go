package auth

import "strings"

// AnonymousSet decides which endpoints skip authentication. Entries are
// exact keys, or prefixes when they end in "*" (e.g. "/grpc.health.v1.Health/*").
type AnonymousSet struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewAnonymousSet builds a set from patterns. The set is read-only.
func NewAnonymousSet(patterns []string) *AnonymousSet {
	s := &AnonymousSet{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			s.prefixes = append(s.prefixes, prefix)
			continue
		}
		s.exact[p] = struct{}{}
	}
	return s
}

// Allows reports whether key is anonymous. A nil set allows nothing.
func (s *AnonymousSet) Allows(key string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.exact[key]; ok {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
