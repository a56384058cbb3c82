// Package search sequences the grep-then-rank pipeline.
package search

import (
	"github.com/rs/zerolog/log"
	"github.com/seanblong/fuzzgrep/internal/grep"
	"github.com/seanblong/fuzzgrep/internal/pattern"
	"github.com/seanblong/fuzzgrep/internal/rank"
	"github.com/seanblong/fuzzgrep/pkg/models"
)

// Service runs content searches under a fixed root directory.
type Service struct {
	Searcher *grep.Searcher
}

// NewService creates a search service rooted at root. Fails with
// grep.ErrInvalidPath if the root does not exist.
func NewService(root string) (*Service, error) {
	s, err := grep.New(root)
	if err != nil {
		return nil, err
	}
	return &Service{Searcher: s}, nil
}

// GrepSearch runs the literal stage only: a case-insensitive regex scan
// returning up to maxResults matching lines.
func (s *Service) GrepSearch(pat string, maxResults, maxThreads int) ([]models.MatchLine, error) {
	return s.Searcher.Search(pat, maxResults, maxThreads)
}

// FuzzyGrepSearch runs the full pipeline: translate grepPattern into a
// typo-permissive regex, grep with a doubled budget for re-ranking headroom,
// then fuzzy-rank the raw matches against fuzzyQuery.
//
// grepPattern and fuzzyQuery are distinct on purpose; call sites with a
// single user input pass it as both.
func (s *Service) FuzzyGrepSearch(grepPattern, fuzzyQuery string, maxResults, maxThreads int) (models.SearchResult, error) {
	rx := pattern.Translate(grepPattern)
	log.Debug().Str("pattern", rx).Str("query", fuzzyQuery).Msg("fuzzy grep search")

	raw, err := s.Searcher.Search(rx, maxResults*2, maxThreads)
	if err != nil {
		return models.SearchResult{}, err
	}

	if len(raw) == 0 {
		return models.SearchResult{}, nil
	}

	totalGrepped := len(raw)

	// Trivial queries skip fuzzy ranking: raw matches in scan order with
	// neutral scores.
	if len(fuzzyQuery) < 2 {
		count := totalGrepped
		if count > maxResults {
			count = maxResults
		}
		if count < 0 {
			count = 0
		}
		items := raw[:count]
		scores := make([]models.Score, count)
		for i := range scores {
			scores[i] = models.Score{Kind: models.MatchKindContent}
		}
		return models.SearchResult{
			Items:        items,
			Scores:       scores,
			TotalMatched: count,
			TotalGrepped: totalGrepped,
		}, nil
	}

	maxTypos := clamp(len(fuzzyQuery)/4, 2, 6)
	sctx := models.ScoringContext{
		Query:      fuzzyQuery,
		MaxResults: maxResults,
		MaxTypos:   maxTypos,
		MaxThreads: maxThreads,
	}

	items, scores, totalMatched := rank.Rank(raw, sctx)

	return models.SearchResult{
		Items:        items,
		Scores:       scores,
		TotalMatched: totalMatched,
		TotalGrepped: totalGrepped,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
