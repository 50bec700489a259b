package analyzer

import (
	"fmt"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
)

// Occurrence is one place in client code where an endpoint matcher fired
type Occurrence struct {
	File    string // Walk path of the file (project root joined with the relative path)
	Line    int    // 1-based physical line number
	Project string // Base name of the project root the file was found under
}

// String returns "file:line"
func (o Occurrence) String() string {
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// MatchMap links each referenced endpoint to its occurrences. Endpoints with
// no occurrences have no entry.
type MatchMap map[endpoint.Descriptor][]Occurrence

// Add records an occurrence for an endpoint
func (m MatchMap) Add(d endpoint.Descriptor, o Occurrence) {
	m[d] = append(m[d], o)
}

// FileReadError is a non-fatal warning for a file or directory that could
// not be opened, listed or decoded during a scan
type FileReadError struct {
	Path string
	Err  error
}

func (e FileReadError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.Path, e.Err)
}

func (e FileReadError) Unwrap() error {
	return e.Err
}

// ProjectScan is the result of scanning a single project root
type ProjectScan struct {
	Name      string          // Base name of the root, used as Occurrence.Project
	Root      string          // Root as supplied
	Files     int             // Number of files matched against endpoints
	Languages map[string]int  // Files per language label
	Matches   MatchMap        // Partial match map for this project
	Warnings  []FileReadError // Files skipped during the scan
}

// Status tells whether an endpoint is referenced by any scanned project
type Status string

const (
	StatusAll    Status = "all"
	StatusUsed   Status = "used"
	StatusUnused Status = "unused"
)

// Row is one line of the usage report
type Row struct {
	Endpoint    string
	Method      string
	Status      Status
	Occurrences []Occurrence
	Files       string // "file:line" tokens joined with "; "
	Projects    string // Sorted unique project names joined with ", "
	Ignored     bool   // Unused is expected (configured in ignores.endpoints)
}

// Report is the full used/unused report, one row per loaded descriptor
type Report struct {
	Rows     []Row
	Total    int
	Used     int
	Unused   int
	Ignored  int // Unused rows whose endpoint is configured as ignored
	Warnings []FileReadError
}
