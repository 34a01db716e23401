// ABOUTME: Exclusion filter for ingestion using glob patterns.
// ABOUTME: Records whose type or source matches any pattern are not stored.
package ingest

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Filter excludes records by type or source name.
type Filter struct {
	types   []glob.Glob
	sources []glob.Glob
}

// NewFilter compiles the exclusion patterns.
func NewFilter(excludeTypes, excludeSources []string) (*Filter, error) {
	f := &Filter{}

	for _, pattern := range excludeTypes {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude_types pattern '%s': %w", pattern, err)
		}
		f.types = append(f.types, g)
	}

	for _, pattern := range excludeSources {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude_sources pattern '%s': %w", pattern, err)
		}
		f.sources = append(f.sources, g)
	}

	return f, nil
}

// Excluded reports whether a record with this type and source should be dropped.
func (f *Filter) Excluded(recordType, source string) bool {
	for _, g := range f.types {
		if g.Match(recordType) {
			return true
		}
	}
	for _, g := range f.sources {
		if g.Match(source) {
			return true
		}
	}
	return false
}

// Empty reports whether the filter has no patterns.
func (f *Filter) Empty() bool {
	return len(f.types) == 0 && len(f.sources) == 0
}
