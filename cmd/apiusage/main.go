package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/analyzer"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/checker"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/config"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/output"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/scanner"
)

// Version is set at build time via -ldflags
var Version = "dev"

// DefaultCSVPath is where the full report is exported unless --csv says otherwise
const DefaultCSVPath = "endpoint_usage.csv"

// errUnusedEndpoints makes the process exit with 1 under --fail-on-unused
var errUnusedEndpoints = errors.New("unused endpoints found")

// scanOptions holds the flags of the scan command
type scanOptions struct {
	specPath     string
	format       string
	projectsFile string
	csvPath      string
	configPath   string
	jsonOutput   bool
	silent       bool
	debug        bool
	noHeader     bool
	noColor      bool
	skipDeps     bool
	failOnUnused bool
	status       string
	search       string
	workers      int
	extensions   []string
	includeGlobs []string
	excludeGlobs []string
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "apiusage",
		Short:         "Find which API endpoints are referenced by client code",
		Long:          "A CLI tool that loads an API surface (OpenAPI document or endpoint list) and reports which endpoints are referenced in client project source trees.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newInitConfigCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "Print the version number of apiusage",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	})
	return rootCmd
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	scanCmd := &cobra.Command{
		Use:   "scan [project-dir...]",
		Short: "Scan client projects for endpoint references",
		Long:  "Load endpoints from an OpenAPI document or a plain list and search every project directory for lines referencing them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args)
		},
	}

	flags := scanCmd.Flags()
	flags.StringVarP(&opts.specPath, "spec", "s", "", "OpenAPI document (JSON/YAML) or endpoint list, '-' for stdin")
	flags.StringVar(&opts.format, "format", "auto", "Spec format: auto, json, yaml or text")
	flags.StringVar(&opts.projectsFile, "projects-file", "", "File listing project directories, one per line")
	flags.StringVar(&opts.csvPath, "csv", DefaultCSVPath, "Write the full report as CSV to this path (empty to disable)")
	flags.StringVar(&opts.configPath, "config", config.FileName, "Config file")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output results in JSON format")
	flags.BoolVar(&opts.silent, "silent", false, "Silent mode (exit code only)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.noHeader, "no-header", false, "Skip printing the header")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&opts.skipDeps, "skip-deps", false, "Skip dependency and build folders (node_modules, build, dist, ...)")
	flags.BoolVar(&opts.failOnUnused, "fail-on-unused", false, "Exit with code 1 when an endpoint is not referenced")
	flags.StringVar(&opts.status, "status", string(analyzer.StatusAll), "Show only all, used or unused endpoints")
	flags.StringVar(&opts.search, "search", "", "Show only endpoints containing this text (case-insensitive)")
	flags.IntVar(&opts.workers, "workers", 0, "Files scanned in parallel per project (0 = config or one per CPU)")
	flags.StringSliceVar(&opts.extensions, "ext", []string{}, "Extra file extensions to scan")
	flags.StringSliceVar(&opts.includeGlobs, "include", []string{}, "Glob patterns to include")
	flags.StringSliceVar(&opts.excludeGlobs, "exclude", []string{}, "Glob patterns to exclude")
	_ = scanCmd.MarkFlagRequired("spec")

	return scanCmd
}

func runScan(cmd *cobra.Command, opts *scanOptions, args []string) error {
	stdout := cmd.OutOrStdout()
	logw := cmd.ErrOrStderr()
	if opts.silent {
		logw = io.Discard
	}

	format, err := endpoint.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	status, err := parseStatus(opts.status)
	if err != nil {
		return err
	}

	roots := append([]string{}, args...)
	if opts.projectsFile != "" {
		listed, err := readProjectsFile(opts.projectsFile)
		if err != nil {
			return err
		}
		roots = append(roots, listed...)
	}
	if len(roots) == 0 {
		return errors.New("no project directories given (pass them as arguments or with --projects-file)")
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	fileScanner := scanner.NewScanner()
	fileScanner.AddExtensions(cfg.Extensions)
	fileScanner.AddExtensions(opts.extensions)
	if len(cfg.Ignores.Folders) > 0 {
		fileScanner.AddExcludeDirs(cfg.Ignores.Folders)
	}
	if opts.skipDeps {
		fileScanner.SkipDependencies()
	}
	if len(opts.includeGlobs) > 0 {
		fileScanner.SetIncludeGlobs(opts.includeGlobs)
	}
	if len(opts.excludeGlobs) > 0 {
		fileScanner.SetExcludeGlobs(opts.excludeGlobs)
	}
	workers := cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	fileScanner.SetWorkers(workers)

	if !opts.noHeader && !opts.jsonOutput && !opts.silent {
		printHeader(stdout)
	}

	endpoints, err := loadEndpoints(cmd.InOrStdin(), opts.specPath, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(logw, "Loaded %d endpoints.\n", len(endpoints))
	if opts.debug {
		fmt.Fprintf(logw, "[DEBUG] Extensions: %s\n", strings.Join(fileScanner.Extensions(), " "))
	}

	c := checker.New(fileScanner)
	c.SetHooks(checker.Hooks{
		BeforeProject: func(root string) {
			fmt.Fprintf(logw, "Scanning %s...\n", root)
		},
		AfterProject: func(scan analyzer.ProjectScan) {
			fmt.Fprintf(logw, "%s\n", reportFileCounts(scan))
			for _, w := range scan.Warnings {
				fmt.Fprintf(logw, "Warning: %v\n", w)
			}
		},
	})

	result, err := c.Run(cmd.Context(), endpoints, roots)
	if err != nil {
		return err
	}

	if opts.debug {
		for _, e := range result.Matchers {
			fmt.Fprintf(logw, "[DEBUG] %s -> %s\n", e.Endpoint, e.Matcher)
		}
		hits, misses := result.Cache.Stats()
		fmt.Fprintf(logw, "[DEBUG] Matcher cache: %d compiled, %d hits, %d misses\n", result.Cache.Len(), hits, misses)
	}

	report := result.Report(cfg)

	if opts.csvPath != "" {
		if err := output.WriteCSVFile(opts.csvPath, report); err != nil {
			return err
		}
		fmt.Fprintf(logw, "Report written to %s\n", opts.csvPath)
	}

	if !opts.silent {
		formatter := output.NewFormatter(stdout, output.Options{
			Color:  !opts.noColor && isColorTerminal(stdout),
			Status: status,
			Search: opts.search,
		})
		if opts.jsonOutput {
			err = formatter.JSON(report)
		} else {
			err = formatter.Table(report)
		}
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
	}

	if opts.failOnUnused && analyzer.HasIssues(report) {
		return errUnusedEndpoints
	}
	return nil
}

func parseStatus(s string) (analyzer.Status, error) {
	switch status := analyzer.Status(strings.ToLower(strings.TrimSpace(s))); status {
	case "", analyzer.StatusAll, analyzer.StatusUsed, analyzer.StatusUnused:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status %q (supported: all, used, unused)", s)
	}
}

// loadEndpoints reads the API document from a file, or from in when path is "-"
func loadEndpoints(in io.Reader, path string, format endpoint.Format) ([]endpoint.Descriptor, error) {
	if path == "-" {
		return endpoint.Load("stdin", in, format)
	}
	return endpoint.LoadFile(path, format)
}

// readProjectsFile returns the non-blank lines of path, trimmed
func readProjectsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects file: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var roots []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			roots = append(roots, line)
		}
	}
	return roots, nil
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && output.ColorSupported(f)
}

// reportFileCounts generates a formatted report string of file counts by language
func reportFileCounts(scan analyzer.ProjectScan) string {
	langCounts := make(map[string]int, len(scan.Languages))
	for lang, count := range scan.Languages {
		langCounts[lang] = count
	}

	var reportParts []string
	langOrder := []string{"javascript", "typescript", "vue", "dart", "other"}
	for _, lang := range langOrder {
		if count, ok := langCounts[lang]; ok && count > 0 {
			// Use short names for display
			shortName := lang
			switch lang {
			case "javascript":
				shortName = "js"
			case "typescript":
				shortName = "ts"
			}
			reportParts = append(reportParts, fmt.Sprintf("%s: %d", shortName, count))
		}
	}

	if len(reportParts) > 0 {
		return fmt.Sprintf("Found %d files (%s)", scan.Files, strings.Join(reportParts, ", "))
	}
	return fmt.Sprintf("Found %d files to scan", scan.Files)
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a " + config.FileName + " file in the current directory",
		Long:  "Creates a " + config.FileName + " file with default configuration in the current directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.FileName); err == nil {
				return fmt.Errorf("%s already exists in the current directory", config.FileName)
			}
			if err := os.WriteFile(config.FileName, []byte(config.DefaultContent), 0644); err != nil {
				return fmt.Errorf("failed to create %s: %w", config.FileName, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s in the current directory\n", config.FileName)
			return nil
		},
	}
}

func printHeader(w io.Writer) {
	header := `    _   ___ ___   _   _ ___   _   ___ ___
   /_\ | _ \_ _| | | | / __| /_\ / __| __|
  / _ \|  _/| |  | |_| \__ \/ _ \ (_ | _|
 /_/ \_\_| |___|  \___/|___/_/ \_\___|___|

`
	fmt.Fprint(w, header)
	fmt.Fprintf(w, "Version: %s\n\n", Version)
}

// execute runs the command tree with args and returns the process exit code
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUnusedEndpoints) {
			fmt.Fprint(stderr, output.FormatError(err))
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
