package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/analyzer"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/config"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/matcher"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/scanner"
)

// ErrInvalidProjectRoot is wrapped by ProjectRootError
var ErrInvalidProjectRoot = errors.New("invalid project root")

// ProjectRootError is returned when a project root does not exist, is not a
// directory or cannot be listed. It is raised before any scanning starts.
type ProjectRootError struct {
	Root string
	Err  error
}

func (e *ProjectRootError) Error() string {
	return fmt.Sprintf("%v %s: %v", ErrInvalidProjectRoot, e.Root, e.Err)
}

func (e *ProjectRootError) Unwrap() []error {
	return []error{ErrInvalidProjectRoot, e.Err}
}

// Result is the outcome of one run over every project root
type Result struct {
	Endpoints []endpoint.Descriptor
	Matches   analyzer.MatchMap
	Projects  []analyzer.ProjectScan
	Warnings  []analyzer.FileReadError
	Matchers  matcher.Set
	Cache     *matcher.Cache
}

// Report builds the used/unused report for the result. cfg may be nil.
func (r *Result) Report(cfg *config.Config) analyzer.Report {
	report := analyzer.Analyze(r.Endpoints, r.Matches, cfg)
	report.Warnings = r.Warnings
	return report
}

// Hooks receive progress while a run is in flight. Any hook may be nil.
type Hooks struct {
	BeforeProject func(root string)
	AfterProject  func(scan analyzer.ProjectScan)
}

// Checker scans project roots for references to a set of endpoints
type Checker struct {
	scanner *scanner.Scanner
	hooks   Hooks
}

// New creates a checker that walks projects with s
func New(s *scanner.Scanner) *Checker {
	return &Checker{scanner: s}
}

// SetHooks installs progress callbacks
func (c *Checker) SetHooks(h Hooks) {
	c.hooks = h
}

// Run validates every root, compiles one matcher per unique endpoint and
// scans the roots one after another, merging their matches in root order.
// The matcher cache lives only for the duration of the call.
func (c *Checker) Run(ctx context.Context, endpoints []endpoint.Descriptor, roots []string) (*Result, error) {
	if len(roots) == 0 {
		return nil, errors.New("no project directories given")
	}
	for _, root := range roots {
		if err := ValidateRoot(root); err != nil {
			return nil, err
		}
	}

	cache, err := matcher.NewCache(len(endpoints))
	if err != nil {
		return nil, err
	}
	set, err := matcher.CompileAll(endpoints, cache)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Endpoints: endpoints,
		Matchers:  set,
		Cache:     cache,
	}

	for _, root := range roots {
		if c.hooks.BeforeProject != nil {
			c.hooks.BeforeProject(root)
		}

		scan, err := c.scanner.ScanProject(ctx, root, set)
		if err != nil {
			return nil, err
		}

		result.Projects = append(result.Projects, scan)
		result.Warnings = append(result.Warnings, scan.Warnings...)

		if c.hooks.AfterProject != nil {
			c.hooks.AfterProject(scan)
		}
	}

	result.Matches = analyzer.Aggregate(result.Projects)
	return result, nil
}

// ValidateRoot checks that root is an existing, listable directory
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &ProjectRootError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return &ProjectRootError{Root: root, Err: errors.New("not a directory")}
	}

	dir, err := os.Open(root)
	if err != nil {
		return &ProjectRootError{Root: root, Err: err}
	}
	defer dir.Close()

	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return &ProjectRootError{Root: root, Err: err}
	}
	return nil
}
