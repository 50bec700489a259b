package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/analyzer"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/endpoint"
	"github.com/Solvytix/API-Endpoint-Usage-Checker/internal/matcher"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func compile(t *testing.T, descriptors ...endpoint.Descriptor) matcher.Set {
	t.Helper()
	cache, err := matcher.NewCache(len(descriptors))
	require.NoError(t, err)
	set, err := matcher.CompileAll(descriptors, cache)
	require.NoError(t, err)
	return set
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path     string
		expected Language
	}{
		{"api.js", LanguageJavaScript},
		{"App.jsx", LanguageJavaScript},
		{"api.ts", LanguageTypeScript},
		{"Page.tsx", LanguageTypeScript},
		{"Home.vue", LanguageVue},
		{"client.dart", LanguageDart},
		{"Component.svelte", LanguageOther},
		{"README", LanguageOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := detectLanguage(tt.path)
			if result != tt.expected {
				t.Errorf("detectLanguage(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestScanner_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, filepath.Join(tmpDir, "src", "api.js"), "fetch('/a')")
	writeFile(t, filepath.Join(tmpDir, "src", "App.tsx"), "")
	writeFile(t, filepath.Join(tmpDir, "lib", "client.dart"), "")
	writeFile(t, filepath.Join(tmpDir, "src", "Home.vue"), "")
	writeFile(t, filepath.Join(tmpDir, "node_modules", "lib", "index.js"), "")
	writeFile(t, filepath.Join(tmpDir, "src", "server.go"), "")
	writeFile(t, filepath.Join(tmpDir, "src", "notes.txt"), "")
	writeFile(t, filepath.Join(tmpDir, "src", "LEGACY.JS"), "")

	s := NewScanner()
	files, warnings, err := s.Discover(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Every file under the root is visited unless exclusions are configured
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(tmpDir, f.Path)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{
		"lib/client.dart",
		"node_modules/lib/index.js",
		"src/App.tsx",
		"src/Home.vue",
		"src/api.js",
	}, rel)
}

func TestScanner_SkipDependencies(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "src", "api.js"), "")
	writeFile(t, filepath.Join(tmpDir, "node_modules", "lib", "index.js"), "")
	writeFile(t, filepath.Join(tmpDir, "build", "bundle.js"), "")

	s := NewScanner()
	s.SkipDependencies()
	files, _, err := s.Discover(tmpDir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(tmpDir, "src", "api.js"), files[0].Path)
}

func TestScanner_ExcludePathsAndGlobs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "src", "api.js"), "")
	writeFile(t, filepath.Join(tmpDir, "src", "api.test.js"), "")
	writeFile(t, filepath.Join(tmpDir, "src", "generated", "client.ts"), "")
	writeFile(t, filepath.Join(tmpDir, "generated", "keep.ts"), "")

	s := NewScanner()
	s.AddExcludeDirs([]string{"src/generated"})
	s.SetExcludeGlobs([]string{"*.test.js"})

	files, _, err := s.Discover(tmpDir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	assert.ElementsMatch(t, []string{"api.js", "keep.ts"}, names)
}

func TestScanner_IncludeGlobs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.ts"), "")
	writeFile(t, filepath.Join(tmpDir, "b.js"), "")

	s := NewScanner()
	s.SetIncludeGlobs([]string{"*.ts"})
	files, _, err := s.Discover(tmpDir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, LanguageTypeScript, files[0].Language)
}

func TestScanner_AddExtensions(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "App.svelte"), "")
	writeFile(t, filepath.Join(tmpDir, "main.kt"), "")

	s := NewScanner()
	s.AddExtensions([]string{"svelte", ".SVELTE", " "})
	assert.Equal(t, append(append([]string{}, DefaultExtensions...), ".svelte"), s.Extensions())

	files, _, err := s.Discover(tmpDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, LanguageOther, files[0].Language)
}

func TestScanner_DiscoverMissingRoot(t *testing.T) {
	_, _, err := NewScanner().Discover(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScanner_DiscoverSymlinkedRoot(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real")
	writeFile(t, filepath.Join(target, "src", "api.js"), "")
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, warnings, err := NewScanner().Discover(link)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(link, "src", "api.js"), files[0].Path)
}

func TestScanner_DiscoverKeepsRootAsGiven(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, filepath.Join("web", "src", "a.js"), "")
	sep := string(os.PathSeparator)

	tests := []struct {
		root     string
		expected string
	}{
		{"." + sep + "web", "." + sep + "web" + sep + "src" + sep + "a.js"},
		{"web" + sep, "web" + sep + "src" + sep + "a.js"},
		{"web", "web" + sep + "src" + sep + "a.js"},
	}

	for _, tt := range tests {
		t.Run(tt.root, func(t *testing.T) {
			files, _, err := NewScanner().Discover(tt.root)
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, tt.expected, files[0].Path)
		})
	}
}

func TestForEachLine(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"empty", "", nil},
		{"single no newline", "a", []string{"a"}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"lone cr", "a\rb", []string{"a", "b"}},
		{"blank lines", "\n\nx", []string{"", "", "x"}},
		{"mixed", "a\r\r\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			next := 1
			forEachLine(tt.text, func(n int, line string) {
				assert.Equal(t, next, n)
				next++
				got = append(got, line)
			})
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScanProject_RecordsOccurrences(t *testing.T) {
	root := filepath.Join(t.TempDir(), "web-app")
	writeFile(t, filepath.Join(root, "src", "users.js"), `import api from './api'

export const getUser = (id) => api.get('/users/' + id)
export const getUser2 = (id) => fetch(`+"`/users/${id}`"+`)
export const ping = () => fetch('/health')
`)
	writeFile(t, filepath.Join(root, "src", "status.ts"), "const url = '/health/'\r\nGET /health\r\n")

	users := endpoint.Descriptor{Path: "/users/{id}", Method: "GET"}
	usersAny := endpoint.Descriptor{Path: "/users/:id"}
	health := endpoint.Descriptor{Path: "/health"}
	orders := endpoint.Descriptor{Path: "/orders"}
	set := compile(t, users, usersAny, health, orders)

	s := NewScanner()
	s.SetWorkers(2)
	scan, err := s.ScanProject(context.Background(), root, set)
	require.NoError(t, err)

	assert.Equal(t, "web-app", scan.Name)
	assert.Equal(t, 2, scan.Files)
	assert.Equal(t, map[string]int{"javascript": 1, "typescript": 1}, scan.Languages)
	assert.Empty(t, scan.Warnings)

	usersFile := filepath.Join(root, "src", "users.js")
	statusFile := filepath.Join(root, "src", "status.ts")

	// The concatenation on line 3 still matches: the parameter wildcard
	// swallows the rest of the line. One line can match several descriptors.
	wantUsers := []analyzer.Occurrence{
		{File: usersFile, Line: 3, Project: "web-app"},
		{File: usersFile, Line: 4, Project: "web-app"},
	}
	assert.Equal(t, wantUsers, scan.Matches[users])
	assert.Equal(t, wantUsers, scan.Matches[usersAny])

	assert.Equal(t, []analyzer.Occurrence{{File: statusFile, Line: 2, Project: "web-app"}}, scan.Matches[health])

	_, ok := scan.Matches[orders]
	assert.False(t, ok, "unused endpoints have no entry")
}

func TestScanProject_InvalidEncodingIsAWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.js"), "fetch('/ping?verbose=1')\n")
	writeFile(t, filepath.Join(root, "bad.js"), "fetch('/ping?verbose=1')\n\xff\xfe\xfd\n")

	ping := endpoint.Descriptor{Path: "/ping"}
	scan, err := NewScanner().ScanProject(context.Background(), root, compile(t, ping))
	require.NoError(t, err)

	assert.Equal(t, []analyzer.Occurrence{{File: filepath.Join(root, "good.js"), Line: 1, Project: filepath.Base(root)}}, scan.Matches[ping])

	require.Len(t, scan.Warnings, 1)
	assert.Equal(t, filepath.Join(root, "bad.js"), scan.Warnings[0].Path)
	assert.True(t, errors.Is(scan.Warnings[0], ErrInvalidEncoding))
}

func TestScanProject_EmptyRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "fetch('/ping')")

	scan, err := NewScanner().ScanProject(context.Background(), root, compile(t, endpoint.Descriptor{Path: "/ping"}))
	require.NoError(t, err)
	assert.Zero(t, scan.Files)
	assert.Empty(t, scan.Matches)
}

func TestScanProject_OrderIndependentOfWorkers(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		writeFile(t, filepath.Join(root, name, "api.ts"), "get('/items/1')\nget('/items/2')\n")
	}
	items := endpoint.Descriptor{Path: "/items/{id}"}
	set := compile(t, items)

	sequential := NewScanner()
	sequential.SetWorkers(1)
	want, err := sequential.ScanProject(context.Background(), root, set)
	require.NoError(t, err)
	require.Len(t, want.Matches[items], 16)

	parallel := NewScanner()
	parallel.SetWorkers(8)
	got, err := parallel.ScanProject(context.Background(), root, set)
	require.NoError(t, err)

	assert.Equal(t, want.Matches, got.Matches)
}

func TestScanProject_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.js"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner().ScanProject(ctx, root, compile(t, endpoint.Descriptor{Path: "/x"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanProject_SymlinkedRoot(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "real")
	writeFile(t, filepath.Join(target, "api.ts"), "get('/items/7')\n")
	link := filepath.Join(tmpDir, "web-app")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	items := endpoint.Descriptor{Path: "/items/{id}"}
	scan, err := NewScanner().ScanProject(context.Background(), link, compile(t, items))
	require.NoError(t, err)

	assert.Equal(t, "web-app", scan.Name)
	assert.Equal(t, 1, scan.Files)
	assert.Equal(t, []analyzer.Occurrence{{File: filepath.Join(link, "api.ts"), Line: 1, Project: "web-app"}}, scan.Matches[items])
}
