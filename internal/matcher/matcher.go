package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// segmentPattern matches exactly one path segment
const segmentPattern = `[^/]+`

// suffixPattern tolerates a trailing slash and a query string at the end of
// the reference. There is no leading anchor: the template may appear
// anywhere inside a line.
const suffixPattern = `/?(\?.*)?$`

// rootPattern is used for templates that are nothing but slashes
const rootPattern = `/(\?.*)?$`

var (
	// placeholders as they look after regexp.QuoteMeta: ':' is left alone,
	// braces are escaped
	colonParam = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)
	braceParam = regexp.MustCompile(`\\\{[A-Za-z_][A-Za-z0-9_]*\\\}`)

	// the same placeholders in a raw template
	rawParam = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*|\{[A-Za-z_][A-Za-z0-9_]*\}`)
)

// Matcher tests source lines for references to one endpoint path template
type Matcher struct {
	template string
	re       *regexp.Regexp

	// literal is the longest lower-cased ASCII run every match must
	// contain. Empty when no safe pre-check exists.
	literal string
}

// Compile converts a path template such as "/users/{id}" or "/users/:id"
// into a case-insensitive matcher
func Compile(template string) (*Matcher, error) {
	expr := Pattern(template)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern for %q: %w", template, err)
	}
	return &Matcher{
		template: template,
		re:       re,
		literal:  requiredLiteral(template),
	}, nil
}

// MustCompile is like Compile but panics if the pattern cannot be compiled
func MustCompile(template string) *Matcher {
	m, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return m
}

// Pattern returns the regular expression source a template compiles to
func Pattern(template string) string {
	pattern := regexp.QuoteMeta(template)
	pattern = colonParam.ReplaceAllLiteralString(pattern, segmentPattern)
	pattern = braceParam.ReplaceAllLiteralString(pattern, segmentPattern)

	pattern = strings.TrimRight(pattern, "/")
	if pattern == "" {
		return "(?i)" + rootPattern
	}
	return "(?i)" + pattern + suffixPattern
}

// Match reports whether line references the endpoint
func (m *Matcher) Match(line string) bool {
	return m.match(newLine(line))
}

func (m *Matcher) match(l scanLine) bool {
	if m.literal != "" && l.ascii && !strings.Contains(l.lower, m.literal) {
		return false
	}
	return m.re.MatchString(l.text)
}

// scanLine carries the per-line inputs of the literal pre-check so a set of
// matchers computes them once
type scanLine struct {
	text  string
	lower string // only set for ASCII lines
	ascii bool
}

func newLine(text string) scanLine {
	l := scanLine{text: text, ascii: isASCII(text)}
	if l.ascii {
		l.lower = strings.ToLower(text)
	}
	return l
}

// Template returns the path template the matcher was compiled from
func (m *Matcher) Template() string {
	return m.template
}

// String returns the compiled regular expression
func (m *Matcher) String() string {
	return m.re.String()
}

// requiredLiteral picks the longest literal piece of the template between
// placeholders. Case folding in (?i) covers a few non-ASCII runes that fold
// onto ASCII letters, so the pre-check is only kept for ASCII literals and
// only applied to ASCII lines.
func requiredLiteral(template string) string {
	trimmed := strings.TrimRight(template, "/")
	longest := ""
	for _, piece := range rawParam.Split(trimmed, -1) {
		if len(piece) > len(longest) {
			longest = piece
		}
	}
	if !isASCII(longest) {
		return ""
	}
	return strings.ToLower(longest)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
