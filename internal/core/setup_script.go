package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"poetry-migrate/internal/types"
)

var setupCallRE = regexp.MustCompile(`\bsetup\s*\(`)

// setupStringKeys are the setup() keyword arguments read as plain strings.
var setupStringKeys = map[string]func(*types.SetupMetadata, string){
	"name":            func(m *types.SetupMetadata, v string) { m.Name = v },
	"version":         func(m *types.SetupMetadata, v string) { m.Version = v },
	"description":     func(m *types.SetupMetadata, v string) { m.Description = v },
	"author":          func(m *types.SetupMetadata, v string) { m.Author = v },
	"author_email":    func(m *types.SetupMetadata, v string) { m.AuthorEmail = v },
	"url":             func(m *types.SetupMetadata, v string) { m.URL = v },
	"license":         func(m *types.SetupMetadata, v string) { m.License = v },
	"python_requires": func(m *types.SetupMetadata, v string) { m.PythonRequires = v },
}

// SetupScriptParser recovers literal keyword arguments from the setup()
// call of a setup.py file without executing it.
type SetupScriptParser struct{}

func NewSetupScriptParser() SetupScriptParser {
	return SetupScriptParser{}
}

// Parse scans source for the first setup( call. Keyword arguments whose
// values are not literals are reported as warnings and left empty.
func (p SetupScriptParser) Parse(file string, source string) (types.SetupMetadata, []types.Warning) {
	meta := types.SetupMetadata{}
	loc := setupCallRE.FindStringIndex(source)
	if loc == nil {
		return meta, []types.Warning{{
			Kind:    types.WarningKindMetadata,
			File:    file,
			Message: "no setup() call found",
		}}
	}
	lx := newPyLexer(source[loc[1]:])
	var warnings []types.Warning
	warn := func(key string, reason string) {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarningKindMetadata,
			File:    file,
			Message: fmt.Sprintf("setup(%s=...) %s", key, reason),
		})
	}

	for {
		tok := lx.next()
		if tok.kind == pyEOF || tok.text == ")" {
			break
		}
		if tok.text == "," {
			continue
		}
		if tok.kind != pyName || lx.peek().text != "=" {
			lx.skipArgument()
			continue
		}
		key := tok.text
		lx.next()
		mark := lx.save()
		value, ok := lx.literal()
		if !ok {
			lx.restore(mark)
			lx.skipArgument()
			if isSetupKey(key) {
				warn(key, "is not a literal and was skipped")
			}
			continue
		}
		switch {
		case setupStringKeys[key] != nil:
			if s, ok := value.(string); ok {
				setupStringKeys[key](&meta, s)
			} else {
				warn(key, "is not a string")
			}
		case key == "install_requires":
			if list, ok := stringList(value); ok {
				meta.InstallRequires = list
			} else {
				warn(key, "is not a list of strings")
			}
		case key == "extras_require":
			extras, ok := stringListMap(value)
			if !ok {
				warn(key, "is not a mapping of lists")
				continue
			}
			meta.ExtrasRequire = extras
		case key == "entry_points":
			scripts, ok := consoleScripts(value)
			if !ok {
				warn(key, "has an unsupported shape")
				continue
			}
			meta.ConsoleScripts = scripts
		}
	}
	return meta, warnings
}

func isSetupKey(key string) bool {
	if _, ok := setupStringKeys[key]; ok {
		return true
	}
	switch key {
	case "install_requires", "extras_require", "entry_points":
		return true
	}
	return false
}

func stringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return []string{v}, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func stringListMap(value any) (map[string][]string, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string][]string, len(m))
	for key, item := range m {
		list, ok := stringList(item)
		if !ok {
			return nil, false
		}
		out[key] = list
	}
	return out, true
}

// consoleScripts accepts both the dict form and the INI string form of
// entry_points.
func consoleScripts(value any) (map[string]string, bool) {
	var entries []string
	switch v := value.(type) {
	case map[string]any:
		raw, ok := v["console_scripts"]
		if !ok {
			return nil, true
		}
		list, ok := stringList(raw)
		if !ok {
			return nil, false
		}
		entries = list
	case string:
		section := ""
		for _, line := range strings.Split(v, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
				section = strings.TrimSpace(line[1 : len(line)-1])
				continue
			}
			if section == "console_scripts" && line != "" {
				entries = append(entries, line)
			}
		}
	default:
		return nil, false
	}
	if len(entries) == 0 {
		return nil, true
	}
	scripts := map[string]string{}
	for _, entry := range entries {
		name, target, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		target = strings.TrimSpace(target)
		if name == "" || target == "" {
			continue
		}
		scripts[name] = target
	}
	return scripts, true
}

type pyTokenKind int

const (
	pyEOF pyTokenKind = iota
	pyName
	pyString
	pyNumber
	pyPunct
)

type pyToken struct {
	kind pyTokenKind
	text string
	// literal is set for strings that contain no interpolation.
	literal bool
}

// pyLexer tokenizes just enough Python to read literal expressions.
type pyLexer struct {
	src    string
	pos    int
	peeked *pyToken
}

func newPyLexer(src string) *pyLexer {
	return &pyLexer{src: src}
}

type pyMark struct {
	pos    int
	peeked *pyToken
}

func (l *pyLexer) save() pyMark {
	return pyMark{pos: l.pos, peeked: l.peeked}
}

func (l *pyLexer) restore(m pyMark) {
	l.pos = m.pos
	l.peeked = m.peeked
}

func (l *pyLexer) peek() pyToken {
	if l.peeked == nil {
		tok := l.scan()
		l.peeked = &tok
	}
	return *l.peeked
}

func (l *pyLexer) next() pyToken {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	return l.scan()
}

func (l *pyLexer) scan() pyToken {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\\':
			l.pos++
		default:
			return l.scanToken()
		}
	}
	return pyToken{kind: pyEOF}
}

func (l *pyLexer) scanToken() pyToken {
	start := l.pos
	c := l.src[l.pos]
	if isIdentStart(c) {
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		word := l.src[start:l.pos]
		if l.pos < len(l.src) && (l.src[l.pos] == '"' || l.src[l.pos] == '\'') && isStringPrefix(word) {
			return l.scanString(strings.ToLower(word))
		}
		return pyToken{kind: pyName, text: word}
	}
	if c == '"' || c == '\'' {
		return l.scanString("")
	}
	if c >= '0' && c <= '9' {
		for l.pos < len(l.src) && (isIdentPart(l.src[l.pos]) || l.src[l.pos] == '.') {
			l.pos++
		}
		return pyToken{kind: pyNumber, text: l.src[start:l.pos]}
	}
	l.pos++
	if l.pos < len(l.src) && c == '*' && l.src[l.pos] == '*' {
		l.pos++
		return pyToken{kind: pyPunct, text: "**"}
	}
	return pyToken{kind: pyPunct, text: string(c)}
}

func (l *pyLexer) scanString(prefix string) pyToken {
	raw := strings.Contains(prefix, "r")
	formatted := strings.Contains(prefix, "f")
	quote := l.src[l.pos : l.pos+1]
	if strings.HasPrefix(l.src[l.pos:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	l.pos += len(quote)
	var b strings.Builder
	for l.pos < len(l.src) {
		if strings.HasPrefix(l.src[l.pos:], quote) {
			l.pos += len(quote)
			break
		}
		c := l.src[l.pos]
		if c == '\\' && !raw && l.pos+1 < len(l.src) {
			b.WriteByte(unescape(l.src[l.pos+1]))
			l.pos += 2
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	text := b.String()
	return pyToken{kind: pyString, text: text, literal: !formatted || !strings.Contains(text, "{")}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	default:
		return c
	}
}

// literal parses a Python literal expression: strings (with implicit
// concatenation), lists, tuples and dicts with string keys.
func (l *pyLexer) literal() (any, bool) {
	tok := l.peek()
	switch {
	case tok.kind == pyString:
		var b strings.Builder
		for l.peek().kind == pyString {
			s := l.next()
			if !s.literal {
				return nil, false
			}
			b.WriteString(s.text)
		}
		return b.String(), l.atValueEnd()
	case tok.text == "[" || tok.text == "(":
		l.next()
		closing := "]"
		if tok.text == "(" {
			closing = ")"
		}
		var items []any
		for {
			if l.peek().text == closing {
				l.next()
				break
			}
			item, ok := l.literal()
			if !ok {
				return nil, false
			}
			items = append(items, item)
			if l.peek().text == "," {
				l.next()
			}
		}
		if tok.text == "(" && len(items) == 1 {
			if s, ok := items[0].(string); ok {
				return s, l.atValueEnd()
			}
		}
		return items, l.atValueEnd()
	case tok.text == "{":
		l.next()
		out := map[string]any{}
		for {
			if l.peek().text == "}" {
				l.next()
				break
			}
			key, ok := l.literal()
			if !ok {
				return nil, false
			}
			ks, ok := key.(string)
			if !ok || l.next().text != ":" {
				return nil, false
			}
			value, ok := l.literal()
			if !ok {
				return nil, false
			}
			out[ks] = value
			if l.peek().text == "," {
				l.next()
			}
		}
		return out, l.atValueEnd()
	}
	return nil, false
}

// atValueEnd reports whether the literal just read is a complete value,
// i.e. not the left operand of an expression such as "a" + b.
func (l *pyLexer) atValueEnd() bool {
	switch l.peek().text {
	case ",", ")", "]", "}", ":":
		return true
	}
	return l.peek().kind == pyEOF
}

// skipArgument advances to the comma or closing parenthesis that ends the
// current argument, honoring nesting.
func (l *pyLexer) skipArgument() {
	depth := 0
	for {
		tok := l.peek()
		if tok.kind == pyEOF {
			return
		}
		switch tok.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth == 0 {
				return
			}
			depth--
		case ",":
			if depth == 0 {
				return
			}
		}
		l.next()
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "u", "b", "f", "rb", "br", "fr", "rf":
		return true
	}
	return false
}

// SortedScriptNames returns the console script names in order.
func SortedScriptNames(scripts map[string]string) []string {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
