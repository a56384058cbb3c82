package search

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/seanblong/fuzzgrep/internal/grep"
	"github.com/seanblong/fuzzgrep/pkg/models"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewServiceInvalidRoot(t *testing.T) {
	_, err := NewService(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, grep.ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestFuzzyGrepSearchInvalidPattern(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// Short patterns bypass typo translation, so metacharacters reach the
	// compiler escaped and this must NOT fail.
	if _, err := svc.FuzzyGrepSearch("([", "([", 10, 2); err != nil {
		t.Errorf("escaped short pattern should compile, got %v", err)
	}
}

func TestFuzzyGrepSearchNoMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "nothing interesting\n")

	svc, _ := NewService(root)
	res, err := svc.FuzzyGrepSearch("zzqzzq", "zzqzzq", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 0 || len(res.Scores) != 0 || res.TotalMatched != 0 || res.TotalGrepped != 0 {
		t.Errorf("expected empty envelope, got %+v", res)
	}
}

// A typo in the middle of the query still finds both lines, and the source
// file outranks the config file.
func TestFuzzyGrepSearchTypoToleranceAndRanking(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.rs", "fn function_one() {}\n")
	writeFile(t, root, "b.toml", "function = true\n")

	svc, _ := NewService(root)
	res, err := svc.FuzzyGrepSearch("fhn", "fhn", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected both lines, got %+v", res)
	}
	if res.Items[0].RelativePath != "a.rs" {
		t.Errorf("a.rs should rank first via the source-file bonus, got %q", res.Items[0].RelativePath)
	}
	for i, s := range res.Scores {
		if s.ExactMatch {
			t.Errorf("score %d: query is nowhere contained literally, ExactMatch should be false", i)
		}
		if s.Kind != models.MatchKindContent {
			t.Errorf("score %d: Kind = %v", i, s.Kind)
		}
	}
	if res.TotalMatched != 2 || res.TotalGrepped != 2 {
		t.Errorf("totals = %d/%d, want 2/2", res.TotalMatched, res.TotalGrepped)
	}
}

func TestFuzzyGrepSearchEmptyQueryReturnsRawOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "// TODO: one\nx\n// TODO: two\n")

	svc, _ := NewService(root)
	res, err := svc.FuzzyGrepSearch("TODO", "", 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 raw matches, got %d", len(res.Items))
	}
	if res.Items[0].LineNumber != 1 || res.Items[1].LineNumber != 3 {
		t.Errorf("raw matches out of scan order: %+v", res.Items)
	}
	for i, s := range res.Scores {
		if s.Total != 0 || s.BaseScore != 0 || s.ExactMatch {
			t.Errorf("score %d not neutral: %+v", i, s)
		}
	}
	if res.TotalMatched != 2 || res.TotalGrepped != 2 {
		t.Errorf("totals = %d/%d, want 2/2", res.TotalMatched, res.TotalGrepped)
	}
}

func TestFuzzyGrepSearchSingleCharQuerySkipsRanking(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "xylophone\n")

	svc, _ := NewService(root)
	res, err := svc.FuzzyGrepSearch("x", "x", 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.Items))
	}
	if res.Scores[0].Total != 0 {
		t.Errorf("trivial query should keep neutral scores, got %+v", res.Scores[0])
	}
}

func TestFuzzyGrepSearchZeroMaxResults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "needle\n")

	svc, _ := NewService(root)
	res, err := svc.FuzzyGrepSearch("needle", "needle", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 0 || len(res.Scores) != 0 {
		t.Errorf("expected no items with maxResults=0, got %+v", res)
	}
}

func TestFuzzyGrepSearchResultInvariant(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		writeFile(t, root, filepath.Join("pkg", string(rune('a'+i))+".go"),
			"func process() {}\nfunc processAll() {}\n")
	}

	svc, _ := NewService(root)
	res, err := svc.FuzzyGrepSearch("process", "process", 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != len(res.Scores) {
		t.Errorf("items/scores misaligned: %d vs %d", len(res.Items), len(res.Scores))
	}
	if len(res.Items) > 4 {
		t.Errorf("returned %d items, cap is 4", len(res.Items))
	}
	if len(res.Items) > res.TotalMatched {
		t.Errorf("returned more items (%d) than matched (%d)", len(res.Items), res.TotalMatched)
	}
	if res.TotalMatched > res.TotalGrepped {
		t.Errorf("TotalMatched %d > TotalGrepped %d", res.TotalMatched, res.TotalGrepped)
	}
	if res.TotalGrepped > 8 {
		t.Errorf("TotalGrepped %d exceeds doubled budget 8", res.TotalGrepped)
	}
}

func TestFuzzyGrepSearchIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "one.go", "func alpha() {}\n")
	writeFile(t, root, "two.go", "func beta() {}\nfunc alphabet() {}\n")
	writeFile(t, root, "sub/three.go", "var alphaNum = 0\n")

	svc, _ := NewService(root)

	run := func() []string {
		res, err := svc.FuzzyGrepSearch("alpha", "alpha", 10, 4)
		if err != nil {
			t.Fatal(err)
		}
		keys := make([]string, len(res.Items))
		for i, it := range res.Items {
			keys[i] = it.RelativePath
		}
		sort.Strings(keys)
		return keys
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("runs returned different counts: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("runs differ at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestGrepSearchPassthrough(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "literal.target\nliteralXtarget\n")

	svc, _ := NewService(root)
	// GrepSearch takes the pattern as-is: the dot is a regex wildcard here.
	matches, err := svc.GrepSearch("literal.target", 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Errorf("expected regex dot to match both lines, got %d", len(matches))
	}
}
