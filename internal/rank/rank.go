// Package rank re-orders raw grep matches by blending fuzzy similarity with
// bonus heuristics.
package rank

import (
	"sort"
	"strings"
	"unicode"

	"github.com/seanblong/fuzzgrep/internal/fuzzy"
	"github.com/seanblong/fuzzgrep/pkg/models"
)

type scored struct {
	item  models.MatchLine
	score models.Score
}

// Rank fuzzy-scores items against the query and returns the top
// sctx.MaxResults item/score pairs plus the count of candidates that
// survived fuzzy filtering (before truncation).
//
// Candidates are scored on two views: relative path + line content combined,
// and line content alone. A line that outscores its combined view earns a
// bonus, so strong literal line hits are not diluted by long paths.
func Rank(items []models.MatchLine, sctx models.ScoringContext) ([]models.MatchLine, []models.Score, int) {
	if len(items) == 0 {
		return nil, nil, 0
	}

	hasUpper := strings.IndexFunc(sctx.Query, unicode.IsUpper) >= 0
	cfg := fuzzy.Config{
		Prefilter: true,
		MaxTypos:  sctx.MaxTypos,
		Sort:      false,
	}
	if hasUpper {
		// Queries that use case deliberately get rewarded for case-exact hits.
		cfg.Scoring = fuzzy.Scoring{CapitalizationBonus: 8, MatchingCaseBonus: 4}
	}

	combined := make([]string, len(items))
	lineOnly := make([]string, len(items))
	for i, it := range items {
		combined[i] = strings.ToLower(it.RelativePath) + " " + strings.ToLower(it.LineContent)
		lineOnly[i] = strings.ToLower(it.LineContent)
	}

	matches := fuzzy.MatchListParallel(sctx.Query, combined, cfg, sctx.MaxThreads)
	totalMatched := len(matches)

	lineScores := make(map[int]int)
	for _, m := range fuzzy.MatchListParallel(sctx.Query, lineOnly, cfg, sctx.MaxThreads) {
		lineScores[m.Index] = m.Score
	}

	results := make([]scored, 0, len(matches))
	for _, m := range matches {
		item := items[m.Index]

		lineMatchBonus := 0
		if ls, ok := lineScores[m.Index]; ok && ls > m.Score {
			lineMatchBonus = (ls - m.Score) / 4
		}

		// Column is never populated by the searcher today, so this always
		// resolves to the maximum bonus. Kept until column detection lands.
		positionBonus := 0
		switch {
		case item.Column < 10:
			positionBonus = 5
		case item.Column < 30:
			positionBonus = 2
		}

		fileBonus := fileTypeBonus(item.RelativePath)

		total := saturatingAdd(m.Score, lineMatchBonus)
		total = saturatingAdd(total, positionBonus)
		total = saturatingAdd(total, fileBonus)

		results = append(results, scored{
			item: item,
			score: models.Score{
				Total:          total,
				BaseScore:      m.Score,
				LineMatchBonus: lineMatchBonus,
				FileTypeBonus:  fileBonus,
				PositionBonus:  positionBonus,
				ExactMatch:     m.Exact,
				Kind:           models.MatchKindContent,
			},
		})
	}

	// Unstable by design: equal totals keep no particular order.
	sort.Slice(results, func(i, j int) bool { return results[i].score.Total > results[j].score.Total })

	limit := sctx.MaxResults
	if limit < 0 {
		limit = 0
	}
	if len(results) > limit {
		results = results[:limit]
	}

	outItems := make([]models.MatchLine, len(results))
	outScores := make([]models.Score, len(results))
	for i, r := range results {
		outItems[i] = r.item
		outScores[i] = r.score
	}
	return outItems, outScores, totalMatched
}

var sourceExts = map[string]bool{
	".rs": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".go": true, ".java": true, ".c": true, ".cpp": true, ".h": true,
}

var configExts = map[string]bool{
	".toml": true, ".json": true, ".yaml": true, ".yml": true,
}

// fileTypeBonus prefers source files over tests, and tests over config.
// The rules are mutually exclusive: first hit wins.
func fileTypeBonus(path string) int {
	ext := ext(path)
	switch {
	case sourceExts[ext]:
		return 5
	case strings.Contains(path, "test") || strings.Contains(path, "spec"):
		return 2
	case configExts[ext]:
		return 1
	}
	return 0
}

func ext(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i:]
	}
	return ""
}

const maxInt = int(^uint(0) >> 1)

func saturatingAdd(a, b int) int {
	if b > 0 && a > maxInt-b {
		return maxInt
	}
	if b < 0 && a < -maxInt-1-b {
		return -maxInt - 1
	}
	return a + b
}
