package parser

import (
	"regexp"
	"strings"
)

// MatchKind tags the outcome of matching one line.
type MatchKind int

const (
	// NoMatch means the line fits none of the grammars.
	NoMatch MatchKind = iota
	// InfoMatch is an informational line; it only updates correlation state.
	InfoMatch
	// ResultMatch is a PASS/FAIL result line.
	ResultMatch
)

func (k MatchKind) String() string {
	switch k {
	case InfoMatch:
		return "info"
	case ResultMatch:
		return "result"
	default:
		return "none"
	}
}

// Match is the tagged result of classifying a line. Fields holds only the
// columns the matching grammar produced; use reconcile to get a Record.
type Match struct {
	Kind    MatchKind
	Grammar string
	Fields  Fields
}

// Grammar names, in priority order.
const (
	GrammarInfo      = "info"
	GrammarDecorated = "decorated"
	GrammarBracketed = "bracketed"
	GrammarSimple    = "simple"
)

// tsPrefix is the optional "[<timestamp>] " prefix shared by the bracketed
// grammars. The timestamp is opaque and not validated.
const tsPrefix = `^(?:\[(?P<timestamp>[^\[\]]+)\]\s+)?`

// token is a test case identifier: no whitespace, brackets, pipes or colons.
const token = `[^\s\[\]|:]+`

// grammar is one pattern→extractor pair.
type grammar struct {
	name    string
	kind    MatchKind
	pattern *regexp.Regexp
}

// grammars are tried in order; the first match wins. Order matters because
// the shapes overlap.
var grammars = []grammar{
	{
		name: GrammarInfo,
		kind: InfoMatch,
		pattern: regexp.MustCompile(tsPrefix +
			`\[INFO\]\s+Running test:\s+(?P<test_case>` + token + `)\s+\[type=(?P<test_type>[^\]]*)\]\s*$`),
	},
	{
		name: GrammarDecorated,
		kind: ResultMatch,
		pattern: regexp.MustCompile(tsPrefix +
			`▶\s*Result:\s*(?P<test_case>` + token + `)\s*\|\s*(?P<status>PASS|FAIL)\s*\|\s*Module:\s*(?P<module>[^|]*?)` +
			`(?:\s*\|\s*Type:\s*(?P<test_type>[^|]*?))?` +
			`(?:\s*\|\s*Error:\s*(?P<error>.*?))?\s*$`),
	},
	{
		name: GrammarBracketed,
		kind: ResultMatch,
		pattern: regexp.MustCompile(tsPrefix +
			`\[RESULT\]\s+(?P<test_case>` + token + `)\s+\[(?P<module>[^\]]*)\]\s+(?P<status>PASS|FAIL)` +
			`(?:\s+\[type=(?P<test_type>[^\]]*)\])?` +
			`(?:\s+-\s*(?P<error>.*?))?\s*$`),
	},
	{
		name: GrammarSimple,
		kind: ResultMatch,
		pattern: regexp.MustCompile(`^(?P<test_case>` + token + `):\s*(?P<status>PASS|FAIL)` +
			`(?:\s+-\s*(?P<error>.*?))?\s*$`),
	},
}

// Grammars returns the grammar names in priority order.
func Grammars() []string {
	names := make([]string, len(grammars))
	for i, g := range grammars {
		names[i] = g.name
	}
	return names
}

// Classify matches a single raw line against the grammars. The line is
// trimmed first; blank lines never match.
func Classify(line string) Match {
	line = strings.TrimSpace(line)
	if line == "" {
		return Match{Kind: NoMatch}
	}

	for _, g := range grammars {
		m := g.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return Match{
			Kind:    g.kind,
			Grammar: g.name,
			Fields:  extract(g.pattern, m),
		}
	}
	return Match{Kind: NoMatch}
}

// extract maps named groups to fields. Optional groups that did not
// participate are left absent, except error which is normalized to empty.
func extract(re *regexp.Regexp, m []string) Fields {
	fields := make(Fields)
	idx := re.SubexpIndex
	for _, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		i := idx(name)
		if i < 0 || i >= len(m) {
			continue
		}
		v := strings.TrimSpace(m[i])
		if v == "" && name != ColumnError {
			continue
		}
		fields[name] = v
	}
	return fields
}
