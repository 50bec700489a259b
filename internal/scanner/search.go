package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/analyzer"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/matcher"
)

// ErrInvalidEncoding is the cause attached to files that are not valid UTF-8
var ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")

// match is one matcher hit inside a single file
type match struct {
	endpoint endpoint.Descriptor
	line     int
}

// fileResult holds the outcome of scanning one file
type fileResult struct {
	matches []match
	err     error
}

// ScanProject discovers the files under root and tests every line of every
// file against every matcher in set. Files are read in parallel but merged
// in discovery order, so the result is identical to a sequential scan.
// Unreadable files become warnings; only an unreadable root or a cancelled
// context returns an error.
func (s *Scanner) ScanProject(ctx context.Context, root string, set matcher.Set) (analyzer.ProjectScan, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return analyzer.ProjectScan{}, fmt.Errorf("invalid path: %w", err)
	}

	scan := analyzer.ProjectScan{
		Name:    filepath.Base(absRoot),
		Root:    root,
		Matches: make(analyzer.MatchMap),
	}

	files, warnings, err := s.Discover(root)
	if err != nil {
		return scan, fmt.Errorf("failed to scan directory %s: %w", root, err)
	}
	scan.Warnings = warnings
	scan.Files = len(files)
	scan.Languages = make(map[string]int)
	for _, f := range files {
		scan.Languages[string(f.Language)]++
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found, err := scanFile(f.Path, set)
			results[i] = fileResult{matches: found, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return scan, err
	}

	for i, f := range files {
		r := results[i]
		if r.err != nil {
			scan.Warnings = append(scan.Warnings, analyzer.FileReadError{Path: f.Path, Err: r.err})
			continue
		}
		for _, m := range r.matches {
			scan.Matches.Add(m.endpoint, analyzer.Occurrence{
				File:    f.Path,
				Line:    m.line,
				Project: scan.Name,
			})
		}
	}

	return scan, nil
}

// scanFile reads a file as UTF-8 and returns every (endpoint, line) hit in
// line order, then set order within a line
func scanFile(path string, set matcher.Set) ([]match, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	var found []match
	forEachLine(string(content), func(n int, line string) {
		set.MatchLine(line, func(d endpoint.Descriptor) {
			found = append(found, match{endpoint: d, line: n})
		})
	})
	return found, nil
}

// forEachLine calls fn for every physical line of text with its 1-based
// number. "\n", "\r\n" and a lone "\r" all end a line; terminators are not
// passed to fn and a trailing terminator does not start an extra line.
func forEachLine(text string, fn func(n int, line string)) {
	n := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			n++
			fn(n, text[start:i])
			start = i + 1
		case '\r':
			n++
			fn(n, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		n++
		fn(n, text[start:])
	}
}
