package models

// MatchKind identifies which search pipeline produced a score, so consumers
// can branch exhaustively on the source of a result.
type MatchKind int

const (
	// MatchKindContent marks results from the line-content search pipeline.
	MatchKindContent MatchKind = iota
	// MatchKindFile is reserved for file-name search results.
	MatchKindFile
)

func (k MatchKind) String() string {
	switch k {
	case MatchKindContent:
		return "content"
	case MatchKindFile:
		return "file"
	default:
		return "unknown"
	}
}

// MatchLine is a single line in a single file that matched the search pattern.
type MatchLine struct {
	Path         string `json:"path"`
	RelativePath string `json:"relative_path"`
	LineNumber   int    `json:"line_number"` // 1-based
	LineContent  string `json:"line_content"`
	Column       int    `json:"column"` // always 0: no per-match column detection yet
}

// Score holds the ranking breakdown for a MatchLine at the same index.
// DistancePenalty and CurrentFilePenalty are always zero here; they exist so
// the record stays field-compatible with other ranking contexts.
type Score struct {
	Total              int       `json:"total"`
	BaseScore          int       `json:"base_score"`
	LineMatchBonus     int       `json:"line_match_bonus"`
	FileTypeBonus      int       `json:"file_type_bonus"`
	PositionBonus      int       `json:"position_bonus"`
	DistancePenalty    int       `json:"distance_penalty"`
	CurrentFilePenalty int       `json:"current_file_penalty"`
	ExactMatch         bool      `json:"exact_match"`
	Kind               MatchKind `json:"kind"`
}

// SearchResult is the envelope returned to callers. Items and Scores are
// index-aligned: len(Items) == len(Scores) <= min(maxResults, TotalMatched).
type SearchResult struct {
	Items        []MatchLine `json:"items"`
	Scores       []Score     `json:"scores"`
	TotalMatched int         `json:"total_matched"` // candidates surviving fuzzy filtering
	TotalGrepped int         `json:"total_grepped"` // raw lines found by the literal search
}

// ScoringContext carries per-call ranking configuration. Immutable for the
// duration of one ranking call.
type ScoringContext struct {
	Query      string
	MaxResults int
	MaxTypos   int
	MaxThreads int
}
