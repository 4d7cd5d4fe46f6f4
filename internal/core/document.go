package core

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	burntsushi "github.com/BurntSushi/toml"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"poetry-migrate/internal/types"
)

// TargetManifestName is the file the migration writes.
const TargetManifestName = "pyproject.toml"

// managedPoetryKeys are the [tool.poetry] keys regenerated on every run.
// Keys naming owned sub-tables are dropped from the table body because
// they are always emitted as their own tables.
var managedPoetryKeys = map[string]struct{}{
	"name":             {},
	"version":          {},
	"description":      {},
	"authors":          {},
	"license":          {},
	"readme":           {},
	"repository":       {},
	"packages":         {},
	"dependencies":     {},
	"dev-dependencies": {},
	"group":            {},
	"scripts":          {},
	"source":           {},
}

// Merge folds fragment into the existing target manifest old. Owned tables
// are regenerated; every other table is copied through unchanged and in
// its original order. Merge is pure and deterministic: merging the same
// fragment twice yields the same bytes.
func Merge(old []byte, fragment types.Fragment) ([]byte, error) {
	text := string(old)
	if err := validateDocument(text); err != nil {
		return nil, writeError(err)
	}
	segments, err := splitSegments(text)
	if err != nil {
		return nil, writeError(err)
	}

	carried := map[string]any{}
	kept := segments[:0]
	for _, seg := range segments {
		switch {
		case seg.array:
		case keyEquals(seg.key, "tool", "poetry"):
			values, err := poetryTableKeys(seg.text)
			if err != nil {
				return nil, writeError(err)
			}
			mergeValues(carried, values)
		case !isOwnedTable(seg.key):
			rest, values, stripped, err := stripOwnedKeys(seg)
			if err != nil {
				return nil, writeError(err)
			}
			if stripped {
				mergeValues(carried, values)
				if isBlank(rest, seg.key != nil) {
					continue
				}
				seg.text = rest
			}
		}
		kept = append(kept, seg)
	}
	segments = kept
	owned, err := renderOwned(fragment, carried)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	placed := false
	afterOwned := false
	for _, seg := range segments {
		if isOwnedTable(seg.key) {
			if !placed {
				ensureBlankLine(&b)
				b.WriteString(seg.lead)
				b.WriteString(owned)
				placed = true
				afterOwned = true
			}
			continue
		}
		if afterOwned {
			ensureBlankLine(&b)
			afterOwned = false
		}
		b.WriteString(seg.lead)
		b.WriteString(seg.text)
	}
	if !placed {
		ensureBlankLine(&b)
		b.WriteString(owned)
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	if err := validateDocument(out); err != nil {
		return nil, writeError(fmt.Errorf("merged document is not valid TOML: %w", err))
	}
	return []byte(out), nil
}

func validateDocument(text string) error {
	var doc map[string]any
	_, err := burntsushi.Decode(text, &doc)
	return err
}

func writeError(err error) *types.WriteError {
	return &types.WriteError{Path: TargetManifestName, Err: err}
}

func ensureBlankLine(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	s := b.String()
	if !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
		s += "\n"
	}
	if !strings.HasSuffix(s, "\n\n") {
		b.WriteString("\n")
	}
}

// isOwnedTable reports whether the table at key is regenerated by the
// migration. Sub-tables of owned dependency tables count as owned.
func isOwnedTable(key []string) bool {
	switch {
	case len(key) == 0:
		return false
	case key[0] == "build-system":
		return true
	case len(key) < 2 || key[0] != "tool" || key[1] != "poetry":
		return false
	case len(key) == 2:
		return true
	}
	switch key[2] {
	case "dependencies", "dev-dependencies", "scripts", "source":
		return true
	case "group":
		return len(key) >= 5 && key[4] == "dependencies"
	}
	return false
}

func keyEquals(key []string, parts ...string) bool {
	if len(key) != len(parts) {
		return false
	}
	for i := range key {
		if key[i] != parts[i] {
			return false
		}
	}
	return true
}

// poetryTableKeys decodes a standalone [tool.poetry] segment and returns
// its keys with their values.
func poetryTableKeys(segment string) (map[string]any, error) {
	var doc map[string]any
	if _, err := burntsushi.Decode(segment, &doc); err != nil {
		return nil, err
	}
	tool, _ := doc["tool"].(map[string]any)
	poetry, _ := tool["poetry"].(map[string]any)
	out := map[string]any{}
	for key, value := range poetry {
		out[key] = value
	}
	return out, nil
}

// stripOwnedKeys removes the statements of an unmanaged segment that
// define values inside an owned table through dotted keys, such as a root
// level tool.poetry.name or poetry.name below [tool]. It returns the
// remaining text, the removed [tool.poetry] values and whether any
// statement was removed.
func stripOwnedKeys(seg segment) (string, map[string]any, bool, error) {
	lines := strings.SplitAfter(seg.text, "\n")
	start := 0
	if seg.key != nil && len(lines) > 0 {
		start = 1
	}
	var kept strings.Builder
	for _, line := range lines[:start] {
		kept.WriteString(line)
	}
	values := map[string]any{}
	stripped := false
	for i := start; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			kept.WriteString(lines[i])
			i++
			continue
		}
		var stmt strings.Builder
		state := lexState{}
		for i < len(lines) {
			stmt.WriteString(lines[i])
			state.scan(lines[i])
			i++
			if !state.mlBasic && !state.mlLiteral && state.depth == 0 {
				break
			}
		}
		key, rest, err := parseDottedKey(trimmed)
		if err != nil || !strings.HasPrefix(rest, "=") {
			kept.WriteString(stmt.String())
			continue
		}
		full := append(append([]string(nil), seg.key...), key...)
		if !definesOwned(len(seg.key), full) {
			kept.WriteString(stmt.String())
			continue
		}
		var doc map[string]any
		if _, err := burntsushi.Decode(stmt.String(), &doc); err != nil {
			return "", nil, false, err
		}
		for k := len(seg.key) - 1; k >= 0; k-- {
			doc = map[string]any{seg.key[k]: doc}
		}
		tool, _ := doc["tool"].(map[string]any)
		if poetry, ok := tool["poetry"].(map[string]any); ok {
			mergeValues(values, poetry)
		}
		stripped = true
	}
	return kept.String(), values, stripped, nil
}

// definesOwned reports whether a dotted key, written inside a table whose
// key has tableDepth parts, reaches into an owned table.
func definesOwned(tableDepth int, full []string) bool {
	for n := tableDepth + 1; n <= len(full); n++ {
		if isOwnedTable(full[:n]) {
			return true
		}
	}
	return false
}

// isBlank reports whether text holds nothing but whitespace, ignoring the
// header line of a keyed segment.
func isBlank(text string, hasHeader bool) bool {
	if hasHeader {
		_, text, _ = strings.Cut(text, "\n")
	}
	return strings.TrimSpace(text) == ""
}

func mergeValues(dst map[string]any, src map[string]any) {
	for key, value := range src {
		if sub, ok := value.(map[string]any); ok {
			if existing, ok := dst[key].(map[string]any); ok {
				mergeValues(existing, sub)
				continue
			}
		}
		dst[key] = value
	}
}

type dependencyTable struct {
	Version string   `toml:"version,omitempty"`
	Extras  []string `toml:"extras,omitempty"`
	Markers string   `toml:"markers,omitempty"`
	Source  string   `toml:"source,omitempty"`
	Path    string   `toml:"path,omitempty"`
	Develop bool     `toml:"develop,omitempty"`
	Git     string   `toml:"git,omitempty"`
	Rev     string   `toml:"rev,omitempty"`
	URL     string   `toml:"url,omitempty"`
}

type packageTable struct {
	Include string `toml:"include"`
	From    string `toml:"from,omitempty"`
}

type keyValue struct {
	key   string
	value any
}

func renderOwned(fragment types.Fragment, existing map[string]any) (string, error) {
	var tables []string
	add := func(header string, entries []keyValue) error {
		var b strings.Builder
		b.WriteString(header)
		b.WriteString("\n")
		for _, entry := range entries {
			line, err := encodeKeyValue(entry.key, entry.value)
			if err != nil {
				return err
			}
			b.WriteString(line)
		}
		tables = append(tables, b.String())
		return nil
	}

	if err := add("[tool.poetry]", poetryEntries(fragment.Poetry, existing)); err != nil {
		return "", err
	}

	main := types.TargetGroup{Name: types.GroupMain}
	var groups []types.TargetGroup
	for _, group := range fragment.Groups {
		if group.Name == types.GroupMain {
			main = group
			continue
		}
		groups = append(groups, group)
	}
	python := fragment.Python
	if python == "" {
		python = defaultPythonConstraint
	}
	mainEntries := append([]keyValue{{key: "python", value: python}}, dependencyEntries(main.Dependencies)...)
	if err := add("[tool.poetry.dependencies]", mainEntries); err != nil {
		return "", err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	for _, group := range groups {
		if len(group.Dependencies) == 0 {
			continue
		}
		header := fmt.Sprintf("[tool.poetry.group.%s.dependencies]", quoteKey(group.Name))
		if err := add(header, dependencyEntries(group.Dependencies)); err != nil {
			return "", err
		}
	}

	if len(fragment.Scripts) > 0 {
		var entries []keyValue
		for _, name := range SortedScriptNames(fragment.Scripts) {
			entries = append(entries, keyValue{key: name, value: fragment.Scripts[name]})
		}
		if err := add("[tool.poetry.scripts]", entries); err != nil {
			return "", err
		}
	}

	sourcesSorted := append([]types.Source(nil), fragment.Sources...)
	sort.SliceStable(sourcesSorted, func(i, j int) bool {
		return sourcesSorted[i].Name < sourcesSorted[j].Name
	})
	for _, source := range sourcesSorted {
		entries := []keyValue{{key: "name", value: source.Name}, {key: "url", value: source.URL}}
		if source.Priority != "" {
			entries = append(entries, keyValue{key: "priority", value: source.Priority})
		}
		if err := add("[[tool.poetry.source]]", entries); err != nil {
			return "", err
		}
	}

	build := fragment.BuildSystem
	if build.BuildBackend == "" {
		build = types.BuildSystem{Requires: []string{poetryCoreRequirement}, BuildBackend: poetryBuildBackend}
	}
	if err := add("[build-system]", []keyValue{
		{key: "requires", value: build.Requires},
		{key: "build-backend", value: build.BuildBackend},
	}); err != nil {
		return "", err
	}
	return strings.Join(tables, "\n"), nil
}

// poetryEntries lists the [tool.poetry] keys: managed keys first in a fixed
// order, then keys carried over from the existing table sorted by name.
// A managed key left empty by the translation keeps its existing value.
func poetryEntries(meta types.PoetryMetadata, existing map[string]any) []keyValue {
	var entries []keyValue
	emitted := map[string]struct{}{}
	put := func(key string, value any, empty bool) {
		emitted[key] = struct{}{}
		if !empty {
			entries = append(entries, keyValue{key: key, value: value})
			return
		}
		if old, ok := existing[key]; ok {
			entries = append(entries, keyValue{key: key, value: old})
		}
	}
	put("name", meta.Name, meta.Name == "")
	put("version", meta.Version, meta.Version == "")
	put("description", meta.Description, meta.Description == "")
	if _, ok := existing["authors"]; !ok && len(meta.Authors) == 0 {
		put("authors", []string{}, false)
	} else {
		put("authors", meta.Authors, len(meta.Authors) == 0)
	}
	put("license", meta.License, meta.License == "")
	put("readme", meta.Readme, meta.Readme == "")
	put("repository", meta.Repository, meta.Repository == "")
	packages := make([]packageTable, 0, len(meta.Packages))
	for _, pkg := range meta.Packages {
		packages = append(packages, packageTable{Include: pkg.Include, From: pkg.From})
	}
	put("packages", packages, len(packages) == 0)

	var rest []string
	for key := range existing {
		if _, ok := emitted[key]; ok {
			continue
		}
		if _, ok := managedPoetryKeys[key]; ok {
			continue
		}
		rest = append(rest, key)
	}
	sort.Strings(rest)
	for _, key := range rest {
		entries = append(entries, keyValue{key: key, value: existing[key]})
	}
	return entries
}

func dependencyEntries(deps []types.TargetDependency) []keyValue {
	sorted := append([]types.TargetDependency(nil), deps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	entries := make([]keyValue, 0, len(sorted))
	for _, dep := range sorted {
		entries = append(entries, keyValue{key: dep.Name, value: dependencyValue(dep)})
	}
	return entries
}

// dependencyValue uses the short string form when only a constraint is
// set, and an inline table otherwise.
func dependencyValue(dep types.TargetDependency) any {
	table := dependencyTable{
		Version: dep.Constraint,
		Extras:  dep.Extras,
		Markers: dep.Markers,
		Source:  dep.Source,
		Path:    dep.Path,
		Develop: dep.Develop,
		Git:     dep.Git,
		Rev:     dep.Rev,
		URL:     dep.URL,
	}
	if table.Path != "" || table.Git != "" || table.URL != "" {
		table.Version = ""
	}
	plain := len(table.Extras) == 0 && table.Markers == "" && table.Source == "" &&
		table.Path == "" && table.Git == "" && table.URL == ""
	if !plain {
		return table
	}
	if table.Version == "" {
		return wildcardConstraint
	}
	return table.Version
}

func encodeKeyValue(key string, value any) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetTablesInline(true)
	enc.SetArraysMultiline(false)
	if err := enc.Encode(map[string]any{key: value}); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("encode %s", key)).
			WithCause(err)
	}
	line := strings.TrimRight(buf.String(), "\n")
	return line + "\n", nil
}

func quoteKey(key string) string {
	if key == "" {
		return `""`
	}
	for _, c := range key {
		if !(c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return strconv.Quote(key)
		}
	}
	return key
}

// segment is one top-level table of a TOML document: the comment lines
// directly above its header (lead), then the header and body (text). The
// first segment of a document has no key and holds the root keys.
type segment struct {
	key   []string
	array bool
	lead  string
	text  string
}

type tomlLine struct {
	text    string
	header  []string
	array   bool
	comment bool
}

// splitSegments cuts doc at its table headers. Headers are recognized only
// outside multi-line strings and arrays.
func splitSegments(doc string) ([]segment, error) {
	lines, err := scanLines(doc)
	if err != nil {
		return nil, err
	}
	var segments []segment
	current := segment{}
	var body []tomlLine
	flush := func() {
		var b strings.Builder
		for _, line := range body {
			b.WriteString(line.text)
		}
		current.text = b.String()
		if current.key != nil || current.lead != "" || current.text != "" {
			segments = append(segments, current)
		}
	}
	for _, line := range lines {
		if line.header == nil {
			body = append(body, line)
			continue
		}
		k := len(body)
		for k > 0 && body[k-1].comment {
			k--
		}
		var lead strings.Builder
		for _, l := range body[k:] {
			lead.WriteString(l.text)
		}
		body = body[:k]
		flush()
		current = segment{key: line.header, array: line.array, lead: lead.String()}
		body = []tomlLine{line}
	}
	flush()
	return segments, nil
}

type lexState struct {
	mlBasic   bool
	mlLiteral bool
	depth     int
}

func scanLines(doc string) ([]tomlLine, error) {
	raw := strings.SplitAfter(doc, "\n")
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	state := lexState{}
	lines := make([]tomlLine, 0, len(raw))
	for i, text := range raw {
		line := tomlLine{text: text}
		if !state.mlBasic && !state.mlLiteral && state.depth == 0 {
			trimmed := strings.TrimSpace(text)
			switch {
			case strings.HasPrefix(trimmed, "#"):
				line.comment = true
			case strings.HasPrefix(trimmed, "["):
				key, array, err := parseHeader(trimmed)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", i+1, err)
				}
				line.header = key
				line.array = array
				lines = append(lines, line)
				continue
			}
		}
		state.scan(text)
		lines = append(lines, line)
	}
	return lines, nil
}

func (st *lexState) scan(s string) {
	i := 0
	for i < len(s) {
		if st.mlBasic {
			idx := indexUnescaped(s[i:], `"""`)
			if idx < 0 {
				return
			}
			i += idx + 3
			st.mlBasic = false
			continue
		}
		if st.mlLiteral {
			idx := strings.Index(s[i:], "'''")
			if idx < 0 {
				return
			}
			i += idx + 3
			st.mlLiteral = false
			continue
		}
		switch c := s[i]; c {
		case '#':
			return
		case '"':
			if strings.HasPrefix(s[i:], `"""`) {
				st.mlBasic = true
				i += 3
				continue
			}
			i = skipBasicString(s, i+1)
		case '\'':
			if strings.HasPrefix(s[i:], "'''") {
				st.mlLiteral = true
				i += 3
				continue
			}
			j := strings.IndexByte(s[i+1:], '\'')
			if j < 0 {
				return
			}
			i += j + 2
		case '[', '{':
			st.depth++
			i++
		case ']', '}':
			if st.depth > 0 {
				st.depth--
			}
			i++
		default:
			i++
		}
	}
}

func indexUnescaped(s string, needle string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], needle) {
			return i
		}
	}
	return -1
}

func skipBasicString(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return len(s)
}

func parseHeader(trimmed string) ([]string, bool, error) {
	array := strings.HasPrefix(trimmed, "[[")
	closing := "]"
	body := trimmed[1:]
	if array {
		closing = "]]"
		body = trimmed[2:]
	}
	key, rest, err := parseDottedKey(body)
	if err != nil {
		return nil, false, err
	}
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, closing) {
		return nil, false, fmt.Errorf("unterminated table header %q", trimmed)
	}
	after := strings.TrimSpace(rest[len(closing):])
	if after != "" && !strings.HasPrefix(after, "#") {
		return nil, false, fmt.Errorf("unexpected text after table header %q", trimmed)
	}
	return key, array, nil
}

func parseDottedKey(s string) ([]string, string, error) {
	var parts []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return nil, "", fmt.Errorf("empty key")
		}
		var part string
		switch s[0] {
		case '"':
			end := skipBasicString(s, 1)
			if end > len(s) || s[end-1] != '"' {
				return nil, "", fmt.Errorf("unterminated quoted key")
			}
			unquoted, err := strconv.Unquote(s[:end])
			if err != nil {
				unquoted = s[1 : end-1]
			}
			part, s = unquoted, s[end:]
		case '\'':
			end := strings.IndexByte(s[1:], '\'')
			if end < 0 {
				return nil, "", fmt.Errorf("unterminated literal key")
			}
			part, s = s[1:end+1], s[end+2:]
		default:
			end := 0
			for end < len(s) && isBareKeyChar(s[end]) {
				end++
			}
			if end == 0 {
				return nil, "", fmt.Errorf("invalid key %q", s)
			}
			part, s = s[:end], s[end:]
		}
		parts = append(parts, part)
		s = strings.TrimLeft(s, " \t")
		if !strings.HasPrefix(s, ".") {
			return parts, s, nil
		}
		s = s[1:]
	}
}

func isBareKeyChar(c byte) bool {
	return c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
