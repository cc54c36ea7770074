package stream

import (
	"strings"

	"github.com/lokhin/coursechat/internal/models"
)

// CitationSet deduplicates and orders the citations emitted during a single
// turn. One instance belongs to exactly one turn; the controller creates a
// fresh set per submission rather than sharing an accumulator.
//
// Entries are keyed by normalized source URL. The first-seen entry wins:
// later bundles never overwrite an already recorded score or text, because
// the first retrieval pass is authoritative.
type CitationSet struct {
	order []models.Citation
	seen  map[string]struct{}
}

// NewCitationSet creates an empty per-turn citation set.
func NewCitationSet() *CitationSet {
	return &CitationSet{
		seen: make(map[string]struct{}),
	}
}

// Add records one bundle. Citations without a usable source URL are excluded.
func (s *CitationSet) Add(citations []models.Citation) {
	for _, c := range citations {
		key := NormalizeSourceURL(c.SourceURL)
		if key == "" {
			continue
		}
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.order = append(s.order, c)
	}
}

// Len returns the number of distinct citations recorded so far.
func (s *CitationSet) Len() int {
	return len(s.order)
}

// Finalize returns the deduplicated citations in first-appearance order, for
// attachment to the completed message.
func (s *CitationSet) Finalize() []models.Citation {
	if len(s.order) == 0 {
		return nil
	}
	out := make([]models.Citation, len(s.order))
	copy(out, s.order)
	return out
}

// NormalizeSourceURL canonicalizes a source URL for dedup: surrounding
// whitespace and the trailing slash are stripped.
func NormalizeSourceURL(u string) string {
	u = strings.TrimSpace(u)
	return strings.TrimSuffix(u, "/")
}
