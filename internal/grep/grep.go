// Package grep performs a concurrent, early-terminating line search across a
// file tree.
package grep

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/karrick/godirwalk"
	gitignore "github.com/monochromegane/go-gitignore"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/fuzzgrep/pkg/models"
)

// ErrInvalidPath is returned when the search root does not exist.
var ErrInvalidPath = errors.New("invalid path")

// errStopWalk halts the walk once enough matches have accumulated.
var errStopWalk = errors.New("stop walk")

// PatternError wraps a regex compilation failure for the translated pattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// FileSystemWalker defines the interface for walking directories
type FileSystemWalker interface {
	Walk(root string, options *godirwalk.Options) error
}

// DefaultFileSystemWalker implements FileSystemWalker using godirwalk
type DefaultFileSystemWalker struct{}

func (d *DefaultFileSystemWalker) Walk(root string, options *godirwalk.Options) error {
	return godirwalk.Walk(root, options)
}

// Searcher scans files under a root directory for lines matching a pattern.
type Searcher struct {
	Root   string
	Walker FileSystemWalker

	ignorer gitignore.IgnoreMatcher
}

// New creates a Searcher rooted at root. The root must exist.
func New(root string) (*Searcher, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, root)
	}

	s := &Searcher{
		Root:   root,
		Walker: &DefaultFileSystemWalker{},
	}

	// Honor a .gitignore at the root if present.
	gi := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gi); err == nil {
		s.ignorer, _ = gitignore.NewGitIgnore(gi)
	}

	return s, nil
}

// Search compiles pattern case-insensitively and scans the tree with
// max(maxThreads, 1) workers, collecting up to maxResults matching lines.
//
// The cap is approximate during the walk: each worker checks the shared count
// once per file before scanning, so the accumulated total can overshoot by up
// to one file's worth of matches. The final truncation makes the returned
// slice exact.
func (s *Searcher) Search(pattern string, maxResults, maxThreads int) ([]models.MatchLine, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	if maxResults < 0 {
		maxResults = 0
	}

	workers := maxThreads
	if workers < 1 {
		workers = 1
	}

	log.Debug().Str("pattern", pattern).Int("workers", workers).Int("max_results", maxResults).Msg("starting grep search")

	workChan := make(chan string, workers*2)

	var mu sync.Mutex
	var results []models.MatchLine
	var stop atomic.Bool

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workChan {
				mu.Lock()
				full := len(results) >= maxResults
				mu.Unlock()
				if full {
					stop.Store(true)
					continue
				}

				hits := s.scanFile(path, re)
				if len(hits) == 0 {
					continue
				}
				mu.Lock()
				results = append(results, hits...)
				mu.Unlock()
			}
		}()
	}

	walkErr := s.Walker.Walk(s.Root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if stop.Load() {
				return errStopWalk
			}
			if de != nil && de.IsDir() {
				if path != s.Root && s.skipDir(path, de.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.skipFile(path) {
				return nil
			}
			workChan <- path
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			// Callback errors are routed through here too; the stop
			// sentinel must end the walk rather than skip the node.
			if errors.Is(err, errStopWalk) {
				return godirwalk.Halt
			}
			// Unreadable entries contribute no matches.
			return godirwalk.SkipNode
		},
	})

	close(workChan)
	wg.Wait()

	if errors.Is(walkErr, errStopWalk) {
		walkErr = nil
	}
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", s.Root, walkErr)
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	log.Debug().Int("matches", len(results)).Msg("grep search completed")
	return results, nil
}

// scanFile runs a line-oriented scan of one file. Unreadable or binary files
// yield no matches.
func (s *Searcher) scanFile(path string, re *regexp.Regexp) []models.MatchLine {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	// Binary sniff: a NUL byte in the first 512 bytes disqualifies the file.
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		return nil
	}
	if bytes.IndexByte(head[:n], 0) >= 0 {
		return nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil
	}

	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		rel = path
	}

	var hits []models.MatchLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}
		hits = append(hits, models.MatchLine{
			Path:         path,
			RelativePath: rel,
			LineNumber:   lineNum,
			LineContent:  line,
			Column:       0, // no per-match column detection
		})
	}
	// Scanner errors (e.g. over-long lines) truncate the file's matches
	// rather than failing the search.
	return hits
}

// skipDir filters version-control metadata, dependency and build output
// directories, and anything the root .gitignore excludes.
func (s *Searcher) skipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "target", "build", "dist", "out", "obj", "venv", "__pycache__", "coverage":
		return true
	}
	if s.ignorer != nil && s.ignorer.Match(path, true) {
		return true
	}
	return false
}

func (s *Searcher) skipFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".pdf", ".webp", ".zip", ".exe", ".dll", ".so", ".a", ".ico", ".woff", ".woff2", ".ttf":
		return true
	}
	if s.ignorer != nil && s.ignorer.Match(path, false) {
		return true
	}
	return false
}
