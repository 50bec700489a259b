package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/analyzer"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// CSVHeader is the header row of the exported report
var CSVHeader = []string{"Endpoint", "Method", "Status", "Files", "Projects"}

// ColorSupported reports whether f is a terminal that accepts ANSI escapes
func ColorSupported(f *os.File) bool {
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	// On Windows virtual terminal processing has to be switched on first
	return enableANSI(f)
}

// Options controls the human and JSON views. Filtering never applies to the
// CSV export.
type Options struct {
	Color  bool
	Status analyzer.Status
	Search string
}

// Formatter renders a report to a writer
type Formatter struct {
	w    io.Writer
	opts Options
}

// NewFormatter creates a formatter writing to w
func NewFormatter(w io.Writer, opts Options) *Formatter {
	return &Formatter{w: w, opts: opts}
}

func (f *Formatter) color(code string) string {
	if f.opts.Color {
		return code
	}
	return ""
}

// CountsLine summarises the report as shown above the table
func CountsLine(report analyzer.Report) string {
	line := fmt.Sprintf("All: %d | Used: %d | Unused: %d", report.Total, report.Used, report.Unused)
	if report.Ignored > 0 {
		line += fmt.Sprintf(" | Ignored: %d", report.Ignored)
	}
	return line
}

// Table writes the filtered report as an aligned table
func (f *Formatter) Table(report analyzer.Report) error {
	fmt.Fprintf(f.w, "%s%s%s\n\n", f.color(colorBold), CountsLine(report), f.color(colorReset))

	rows := analyzer.Filter(report.Rows, f.opts.Status, f.opts.Search)
	if len(rows) == 0 {
		fmt.Fprintf(f.w, "%sNo endpoints match the current filter.%s\n", f.color(colorGray), f.color(colorReset))
		return nil
	}

	// Color codes are zero-width on screen but not to tabwriter, so every
	// cell in a column gets the same wrapping to keep alignment.
	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDPOINT\tMETHOD\tSTATUS\tPROJECTS\tFILES")
	for _, row := range rows {
		method := row.Method
		if method == "" {
			method = "-"
		}

		statusColor := colorGreen
		status := string(row.Status)
		if row.Status == analyzer.StatusUnused {
			statusColor = colorRed
			if row.Ignored {
				statusColor = colorGray
				status += " (ignored)"
			}
		}

		fmt.Fprintf(tw, "%s%s%s\t%s\t%s%s%s\t%s\t%s%s%s\n",
			f.color(colorCyan), row.Endpoint, f.color(colorReset),
			method,
			f.color(statusColor), status, f.color(colorReset),
			dash(row.Projects),
			f.color(colorYellow), dash(row.Files), f.color(colorReset))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(f.w, "\n%s%sNote:%s %d file(s) could not be read and were skipped\n",
			f.color(colorGray), f.color(colorBold), f.color(colorReset), len(report.Warnings))
	}
	if report.Ignored > 0 {
		fmt.Fprintf(f.w, "%s%sNote:%s %d unused endpoint(s) were ignored (configured in .apiusage.config)\n",
			f.color(colorGray), f.color(colorBold), f.color(colorReset), report.Ignored)
	}
	if !analyzer.HasIssues(report) {
		fmt.Fprintf(f.w, "\n%s%s✓ Every endpoint is referenced by at least one project.%s\n",
			f.color(colorGreen), f.color(colorBold), f.color(colorReset))
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// JSONOutput represents the JSON output format
type JSONOutput struct {
	Counts    JSONCounts     `json:"counts"`
	Endpoints []JSONEndpoint `json:"endpoints"`
	Warnings  []JSONWarning  `json:"warnings"`
}

// JSONCounts mirrors the counts line
type JSONCounts struct {
	All     int `json:"all"`
	Used    int `json:"used"`
	Unused  int `json:"unused"`
	Ignored int `json:"ignored"`
}

// JSONEndpoint is one report row
type JSONEndpoint struct {
	Endpoint    string           `json:"endpoint"`
	Method      string           `json:"method"`
	Status      analyzer.Status  `json:"status"`
	Ignored     bool             `json:"ignored,omitempty"`
	Projects    []string         `json:"projects"`
	Occurrences []JSONOccurrence `json:"occurrences"`
}

// JSONOccurrence is one matching line
type JSONOccurrence struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Project string `json:"project"`
}

// JSONWarning is a file skipped during the scan
type JSONWarning struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// JSON writes the filtered report as an indented JSON document. Counts
// always describe the full report.
func (f *Formatter) JSON(report analyzer.Report) error {
	out := JSONOutput{
		Counts: JSONCounts{
			All:     report.Total,
			Used:    report.Used,
			Unused:  report.Unused,
			Ignored: report.Ignored,
		},
		Endpoints: []JSONEndpoint{},
		Warnings:  []JSONWarning{},
	}

	for _, row := range analyzer.Filter(report.Rows, f.opts.Status, f.opts.Search) {
		e := JSONEndpoint{
			Endpoint:    row.Endpoint,
			Method:      row.Method,
			Status:      row.Status,
			Ignored:     row.Ignored,
			Projects:    []string{},
			Occurrences: make([]JSONOccurrence, 0, len(row.Occurrences)),
		}
		if row.Projects != "" {
			e.Projects = strings.Split(row.Projects, ", ")
		}
		for _, o := range row.Occurrences {
			e.Occurrences = append(e.Occurrences, JSONOccurrence{File: o.File, Line: o.Line, Project: o.Project})
		}
		out.Endpoints = append(out.Endpoints, e)
	}

	for _, w := range report.Warnings {
		out.Warnings = append(out.Warnings, JSONWarning{Path: w.Path, Error: w.Err.Error()})
	}

	encoder := json.NewEncoder(f.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// WriteCSV writes the full report, one row per loaded descriptor, with CRLF
// line endings and minimal quoting
func WriteCSV(w io.Writer, report analyzer.Report) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range report.Rows {
		record := []string{row.Endpoint, row.Method, string(row.Status), row.Files, row.Projects}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the full report to path, replacing any existing file
func WriteCSVFile(path string, report analyzer.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(file, report); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// FormatError formats an error message
func FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err)
}
