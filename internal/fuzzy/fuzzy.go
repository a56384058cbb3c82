// Package fuzzy scores a query against candidate strings, tolerating a
// bounded number of single-character substitutions. Matching is
// case-insensitive; optional scoring bonuses reward case-exact hits.
package fuzzy

import (
	"sort"
	"strings"
	"sync"

	sahilm "github.com/sahilm/fuzzy"
)

// matchUnit is the score contribution of one matched query character.
const matchUnit = 16

// wordStartBonus rewards literal hits at the start of the candidate or right
// after a separator.
const wordStartBonus = 8

// Scoring holds optional bonuses applied on top of the base score.
type Scoring struct {
	// CapitalizationBonus is added when the candidate contains the query
	// with identical capitalization.
	CapitalizationBonus int
	// MatchingCaseBonus is added per case-exact matched character.
	MatchingCaseBonus int
}

// Config controls one matching run.
type Config struct {
	// Prefilter enables a cheap necessary-condition check that discards
	// candidates missing more than MaxTypos query characters entirely.
	Prefilter bool
	// MaxTypos bounds how many substituted characters a candidate may have
	// and still count as a match.
	MaxTypos int
	// Sort orders the returned matches by score descending. When false,
	// matches come back in candidate-index order.
	Sort    bool
	Scoring Scoring
}

// Match is one surviving candidate.
type Match struct {
	Index int
	Score int
	// Exact reports that the candidate literally contains the query
	// (ignoring case).
	Exact bool
}

// MatchList scores query against every candidate in haystack and returns the
// survivors.
func MatchList(query string, haystack []string, cfg Config) []Match {
	return matchRange(query, strings.ToLower(query), haystack, 0, len(haystack), cfg)
}

// MatchListParallel is MatchList with the haystack partitioned across
// max(threads, 1) workers. Candidates are independent, so workers share
// nothing; per-worker results are merged back in index order.
func MatchListParallel(query string, haystack []string, cfg Config, threads int) []Match {
	if threads < 1 {
		threads = 1
	}
	if threads == 1 || len(haystack) < threads*2 {
		return MatchList(query, haystack, cfg)
	}

	queryLower := strings.ToLower(query)
	chunk := (len(haystack) + threads - 1) / threads
	parts := make([][]Match, threads)

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= len(haystack) {
			break
		}
		if hi > len(haystack) {
			hi = len(haystack)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			parts[w] = matchRange(query, queryLower, haystack, lo, hi, cfg)
		}(w, lo, hi)
	}
	wg.Wait()

	var merged []Match
	for _, p := range parts {
		merged = append(merged, p...)
	}
	if cfg.Sort {
		sort.Slice(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	}
	return merged
}

func matchRange(query, queryLower string, haystack []string, lo, hi int, cfg Config) []Match {
	var out []Match
	for i := lo; i < hi; i++ {
		if m, ok := scoreCandidate(query, queryLower, haystack[i], cfg); ok {
			m.Index = i
			out = append(out, m)
		}
	}
	if cfg.Sort {
		sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	}
	return out
}

// scoreCandidate tries three tiers, best first: a literal substring hit, an
// in-order subsequence hit, and a substitution-typo window hit.
func scoreCandidate(query, queryLower, cand string, cfg Config) (Match, bool) {
	if len(queryLower) == 0 {
		return Match{}, false
	}
	candLower := strings.ToLower(cand)

	if cfg.Prefilter && !prefilter(queryLower, candLower, cfg.MaxTypos) {
		return Match{}, false
	}

	if at := strings.Index(candLower, queryLower); at >= 0 {
		score := matchUnit * len(queryLower)
		if wordStart(candLower, at) {
			score += wordStartBonus
		}
		// Offsets into candLower only map back onto cand when lowercasing
		// preserved the byte length; some runes grow when lowered.
		if len(cand) == len(candLower) {
			score += caseBonus(query, cand[at:at+len(queryLower)], cfg.Scoring)
		}
		return Match{Score: score, Exact: true}, true
	}

	if hits := sahilm.Find(queryLower, []string{cand}); len(hits) == 1 {
		score := (matchUnit/2)*len(queryLower) + clampScore(hits[0].Score, -matchUnit, 3*matchUnit)
		if score < matchUnit {
			score = matchUnit
		}
		score += caseBonusAt(query, cand, hits[0].MatchedIndexes, cfg.Scoring)
		return Match{Score: score}, true
	}

	if typos, ok := windowTypos(queryLower, candLower, cfg.MaxTypos); ok {
		score := matchUnit*(len(queryLower)-typos) - 2*typos
		if score < 1 {
			score = 1
		}
		return Match{Score: score}, true
	}

	return Match{}, false
}

// prefilter rejects candidates that are missing more than maxTypos distinct
// query characters. Necessary condition only: survivors may still fail full
// scoring.
func prefilter(queryLower, candLower string, maxTypos int) bool {
	missing := 0
	for _, r := range queryLower {
		if !strings.ContainsRune(candLower, r) {
			missing++
			if missing > maxTypos {
				return false
			}
		}
	}
	return true
}

// windowTypos slides a query-sized window over the candidate and returns the
// minimum number of substituted characters, when it is within maxTypos.
func windowTypos(queryLower, candLower string, maxTypos int) (int, bool) {
	q, c := []byte(queryLower), []byte(candLower)
	if len(c) < len(q) {
		return 0, false
	}
	best := len(q) + 1
	for start := 0; start+len(q) <= len(c); start++ {
		typos := 0
		for i := 0; i < len(q) && typos < best; i++ {
			if q[i] != c[start+i] {
				typos++
			}
		}
		if typos < best {
			best = typos
		}
		if best == 0 {
			break
		}
	}
	if best > maxTypos {
		return 0, false
	}
	return best, true
}

// wordStart reports whether position at begins the candidate or follows a
// separator.
func wordStart(s string, at int) bool {
	if at == 0 {
		return true
	}
	switch s[at-1] {
	case ' ', '/', '\\', '.', '_', '-', ':':
		return true
	}
	return false
}

// caseBonus compares the query against a same-length matched region.
func caseBonus(query, region string, sc Scoring) int {
	if sc.CapitalizationBonus == 0 && sc.MatchingCaseBonus == 0 {
		return 0
	}
	bonus := 0
	if query == region {
		bonus += sc.CapitalizationBonus
	}
	n := len(query)
	if len(region) < n {
		n = len(region)
	}
	for i := 0; i < n; i++ {
		if query[i] == region[i] {
			bonus += sc.MatchingCaseBonus
		}
	}
	return bonus
}

// caseBonusAt scores case-exact hits at the matched candidate positions
// reported by the subsequence matcher.
func caseBonusAt(query, cand string, matched []int, sc Scoring) int {
	if sc.MatchingCaseBonus == 0 || len(matched) == 0 {
		return 0
	}
	bonus := 0
	for i, at := range matched {
		if i < len(query) && at < len(cand) && query[i] == cand[at] {
			bonus += sc.MatchingCaseBonus
		}
	}
	return bonus
}

func clampScore(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
