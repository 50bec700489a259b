package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/analyzer"
)

// Language represents a client-side source language
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageVue        Language = "vue"
	LanguageDart       Language = "dart"
	LanguageOther      Language = "other"
)

// DefaultExtensions is the allow-list of client source extensions
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".vue", ".dart"}

// DependencyDirs are skipped when SkipDependencies is enabled
var DependencyDirs = []string{
	"node_modules",
	".git",
	"build",
	"dist",
	"out",
	".next",
	".nuxt",
	".cache",
	".dart_tool",
	"coverage",
}

// FileInfo contains information about a file to be scanned
type FileInfo struct {
	Path     string
	Language Language
}

// Scanner handles file discovery and line matching
type Scanner struct {
	extensions   []string        // Allowed file name suffixes
	excludeDirs  map[string]bool // Directory names not descended into
	excludePaths []string        // Root-relative paths not descended into (e.g. "src/generated")
	excludeGlobs []string
	includeGlobs []string
	workers      int
}

// NewScanner creates a scanner for the default client extensions. No
// directories are excluded unless configured.
func NewScanner() *Scanner {
	s := &Scanner{
		excludeDirs: make(map[string]bool),
		workers:     runtime.NumCPU(),
	}
	s.AddExtensions(DefaultExtensions)
	return s
}

// AddExtensions extends the allow-list. A leading dot is added if missing.
func (s *Scanner) AddExtensions(exts []string) {
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !s.hasExtension(ext) {
			s.extensions = append(s.extensions, ext)
		}
	}
}

// Extensions returns the current allow-list
func (s *Scanner) Extensions() []string {
	return append([]string(nil), s.extensions...)
}

func (s *Scanner) hasExtension(ext string) bool {
	for _, e := range s.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// SetExcludeGlobs sets glob patterns to exclude
func (s *Scanner) SetExcludeGlobs(globs []string) {
	s.excludeGlobs = globs
}

// SetIncludeGlobs sets glob patterns to include (overrides excludes)
func (s *Scanner) SetIncludeGlobs(globs []string) {
	s.includeGlobs = globs
}

// SkipDependencies excludes the usual dependency and build output folders
func (s *Scanner) SkipDependencies() {
	s.AddExcludeDirs(DependencyDirs)
}

// AddExcludeDirs adds directories that are not descended into.
// Can be directory names (e.g., "node_modules") or paths (e.g., "src/generated")
func (s *Scanner) AddExcludeDirs(dirs []string) {
	for _, dir := range dirs {
		if strings.Contains(dir, "/") || strings.Contains(dir, "\\") {
			s.excludePaths = append(s.excludePaths, dir)
		} else {
			s.excludeDirs[dir] = true
		}
	}
}

// SetWorkers sets how many files of one project are scanned in parallel.
// Values below 1 mean one worker per CPU.
func (s *Scanner) SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	s.workers = n
}

// detectLanguage determines the language from the file name. The allow-list
// is case-sensitive; the language label is informational only.
func detectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".ts", ".tsx":
		return LanguageTypeScript
	case ".vue":
		return LanguageVue
	case ".dart":
		return LanguageDart
	default:
		return LanguageOther
	}
}

// isAllowed checks the file name against the extension allow-list
func (s *Scanner) isAllowed(name string) bool {
	for _, ext := range s.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// matchesGlob checks if a path matches any of the glob patterns
func matchesGlob(path string, globs []string) bool {
	for _, glob := range globs {
		matched, _ := filepath.Match(glob, filepath.Base(path))
		if matched {
			return true
		}
		// Also try matching against full path
		matched, _ = filepath.Match(glob, path)
		if matched {
			return true
		}
	}
	return false
}

// shouldInclude checks if a file should be included based on include/exclude globs
func (s *Scanner) shouldInclude(path string) bool {
	if len(s.includeGlobs) > 0 {
		return matchesGlob(path, s.includeGlobs)
	}
	if len(s.excludeGlobs) > 0 {
		return !matchesGlob(path, s.excludeGlobs)
	}
	return true
}

// isExcludedPath checks if a directory is one of the root-relative exclusions
func (s *Scanner) isExcludedPath(root, dir string) bool {
	if len(s.excludePaths) == 0 {
		return false
	}

	relPath, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	for _, excludePath := range s.excludePaths {
		excludePath = strings.TrimSuffix(filepath.ToSlash(excludePath), "/*")
		excludePath = strings.TrimSuffix(excludePath, "/")
		if relPath == excludePath {
			return true
		}
	}
	return false
}

// Discover recursively walks root and returns the files to scan in lexical
// walk order. Directories that cannot be listed are reported as warnings
// and skipped; an unreadable root is an error.
//
// Returned paths are root exactly as given joined with the path below it, so
// "./web" yields "./web/src/a.js". A root that is a symlink to a directory
// is followed.
func (s *Scanner) Discover(root string) ([]FileInfo, []analyzer.FileReadError, error) {
	var files []FileInfo
	var warnings []analyzer.FileReadError

	// WalkDir uses Lstat on its root; a trailing separator makes the
	// lookup resolve a symlinked root.
	walkRoot := root
	if !strings.HasSuffix(walkRoot, string(os.PathSeparator)) {
		walkRoot += string(os.PathSeparator)
	}

	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		isRoot := path == walkRoot
		display := rebase(root, walkRoot, path)

		if err != nil {
			if isRoot {
				return err
			}
			warnings = append(warnings, analyzer.FileReadError{Path: display, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !isRoot && (s.excludeDirs[d.Name()] || s.isExcludedPath(walkRoot, path)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.isAllowed(d.Name()) {
			return nil
		}
		if !s.shouldInclude(display) {
			return nil
		}

		files = append(files, FileInfo{
			Path:     display,
			Language: detectLanguage(display),
		})
		return nil
	})

	return files, warnings, err
}

// rebase maps a path produced by walking walkRoot back onto root as supplied
func rebase(root, walkRoot, path string) string {
	rel, err := filepath.Rel(walkRoot, path)
	if err != nil || rel == "." {
		return root
	}
	if strings.HasSuffix(root, string(os.PathSeparator)) {
		return root + rel
	}
	return root + string(os.PathSeparator) + rel
}
