package analyzer

import (
	"sort"
	"strings"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/config"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
)

// Aggregate merges per-project match maps into one. Each endpoint's
// occurrences are concatenated in the order the projects are given; nothing
// is deduplicated, so a file shared by two roots is recorded once per root.
func Aggregate(scans []ProjectScan) MatchMap {
	merged := make(MatchMap)
	for _, scan := range scans {
		Merge(merged, scan.Matches)
	}
	return merged
}

// Merge appends every occurrence list in src to the matching list in dst
func Merge(dst, src MatchMap) {
	for d, occurrences := range src {
		if len(occurrences) == 0 {
			continue
		}
		dst[d] = append(dst[d], occurrences...)
	}
}

// Analyze builds the report: one row per descriptor, in input order,
// duplicates included. cfg may be nil.
func Analyze(descriptors []endpoint.Descriptor, matches MatchMap, cfg *config.Config) Report {
	report := Report{
		Rows:  make([]Row, 0, len(descriptors)),
		Total: len(descriptors),
	}

	for _, d := range descriptors {
		row := Row{
			Endpoint: d.Path,
			Method:   d.Method,
			Status:   StatusUnused,
		}

		if occurrences := matches[d]; len(occurrences) > 0 {
			row.Status = StatusUsed
			row.Occurrences = occurrences
			row.Files = joinLocations(occurrences)
			row.Projects = joinProjects(occurrences)
			report.Used++
		} else {
			report.Unused++
			if cfg != nil && cfg.ShouldIgnoreEndpoint(d.Path) {
				row.Ignored = true
				report.Ignored++
			}
		}

		report.Rows = append(report.Rows, row)
	}

	return report
}

func joinLocations(occurrences []Occurrence) string {
	locations := make([]string, len(occurrences))
	for i, o := range occurrences {
		locations[i] = o.String()
	}
	return strings.Join(locations, "; ")
}

func joinProjects(occurrences []Occurrence) string {
	seen := make(map[string]bool)
	var projects []string
	for _, o := range occurrences {
		if !seen[o.Project] {
			seen[o.Project] = true
			projects = append(projects, o.Project)
		}
	}
	sort.Strings(projects)
	return strings.Join(projects, ", ")
}

// Filter selects rows for display. status is "", "all", "used" or "unused";
// search is a case-insensitive substring of the endpoint path.
func Filter(rows []Row, status Status, search string) []Row {
	search = strings.ToLower(search)

	var filtered []Row
	for _, row := range rows {
		if status != "" && status != StatusAll && row.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(row.Endpoint), search) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// HasIssues reports whether any unused endpoint is not configured as ignored
func HasIssues(report Report) bool {
	return report.Unused > report.Ignored
}
