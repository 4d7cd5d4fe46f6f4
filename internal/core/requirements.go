package core

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"poetry-migrate/internal/shared"
	"poetry-migrate/internal/types"
)

// RequirementLineKind tells which grammar rule a logical requirements line
// matched.
type RequirementLineKind int

const (
	LineRequirement RequirementLineKind = iota
	LineIndex
	LineInclude
	LineUnsupported
)

// RequirementLine is one logical line of a requirements file after
// continuation joining and comment stripping.
type RequirementLine struct {
	Kind       RequirementLineKind
	Dependency types.Dependency
	Index      string
	Include    string
	Origin     types.Origin
	Text       string
	Reason     string
	Warnings   []types.Warning
}

var (
	requirementNameRE = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)
	hashOptionRE      = regexp.MustCompile(`\s*--hash[=\s]\S+`)
	commentRE         = regexp.MustCompile(`(^|\s+)#.*$`)
)

var indexOptions = map[string]struct{}{
	"-i":                {},
	"--index-url":       {},
	"--extra-index-url": {},
}

var includeOptions = map[string]struct{}{
	"-r":            {},
	"--requirement": {},
}

var editableOptions = map[string]struct{}{
	"-e":         {},
	"--editable": {},
}

// perRequirementSource lists the trailing options that bind a single
// requirement to a package index.
var perRequirementSource = map[string]struct{}{
	"--index-url": {},
	"-i":          {},
	"--source":    {},
}

type RequirementParser struct{}

func NewRequirementParser() RequirementParser {
	return RequirementParser{}
}

// ParseFile splits content into logical lines and parses each one. Lines
// that match no rule are returned as ParseErrors; parsing always continues.
func (p RequirementParser) ParseFile(file string, content string) ([]RequirementLine, []types.ParseError) {
	var lines []RequirementLine
	var errs []types.ParseError
	for _, logical := range logicalLines(content) {
		origin := types.Origin{File: file, Line: logical.number}
		line, err := p.ParseLine(logical.text, origin)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		if line == nil {
			continue
		}
		lines = append(lines, *line)
	}
	return lines, errs
}

// ParseLine parses a single logical line. A nil line with a nil error
// means the line carried nothing (blank or comment only).
func (p RequirementParser) ParseLine(text string, origin types.Origin) (*RequirementLine, *types.ParseError) {
	cleaned := stripComment(text)
	cleaned = hashOptionRE.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, nil
	}
	line := &RequirementLine{Origin: origin, Text: cleaned}

	if strings.HasPrefix(cleaned, "-") {
		option, value := splitOption(cleaned)
		switch {
		case inSet(includeOptions, option):
			if value == "" {
				return nil, parseError(origin, cleaned, "include without a file name")
			}
			line.Kind = LineInclude
			line.Include = value
			return line, nil
		case inSet(indexOptions, option):
			if value == "" {
				return nil, parseError(origin, cleaned, "index option without a URL")
			}
			line.Kind = LineIndex
			line.Index = value
			return line, nil
		case inSet(editableOptions, option):
			if value == "" {
				return nil, parseError(origin, cleaned, "editable option without a target")
			}
			dep, err := parseDirectReference(value, origin)
			if err != nil {
				return nil, err
			}
			dep.Editable = true
			line.Kind = LineRequirement
			line.Dependency = dep
			return line, nil
		default:
			line.Kind = LineUnsupported
			line.Reason = fmt.Sprintf("pip option %s is not translated", option)
			return line, nil
		}
	}

	body, options := splitTrailingOptions(cleaned)
	dep, err := ParseRequirement(body, origin)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(options); i++ {
		name, value := options[i], ""
		if idx := strings.Index(name, "="); idx != -1 {
			name, value = name[:idx], name[idx+1:]
		} else if i+1 < len(options) && !strings.HasPrefix(options[i+1], "-") {
			value = options[i+1]
			i++
		}
		if inSet(perRequirementSource, name) && value != "" {
			dep.Source = value
			continue
		}
		line.Warnings = append(line.Warnings, types.Warning{
			Kind:    types.WarningKindUnsupported,
			Package: dep.Name,
			File:    origin.File,
			Line:    origin.Line,
			Message: fmt.Sprintf("option %s ignored", name),
		})
	}
	line.Kind = LineRequirement
	line.Dependency = dep
	return line, nil
}

// ParseRequirement parses a PEP 508 style requirement or a direct
// reference (local path, VCS URL).
func ParseRequirement(text string, origin types.Origin) (types.Dependency, *types.ParseError) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Dependency{}, parseError(origin, text, "empty requirement")
	}
	if looksLikeDirectReference(text) {
		return parseDirectReference(text, origin)
	}
	match := requirementNameRE.FindString(text)
	if match == "" {
		return types.Dependency{}, parseError(origin, text, "no package name")
	}
	dep := types.Dependency{
		Name:   shared.NormalizePipName(match),
		Kind:   types.DependencyKindRegistry,
		Origin: origin,
	}
	rest := strings.TrimSpace(text[len(match):])

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end == -1 {
			return types.Dependency{}, parseError(origin, text, "unterminated extras")
		}
		dep.Extras = parseExtras(rest[1:end])
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "@") {
		ref := strings.TrimSpace(rest[1:])
		if idx := strings.Index(ref, " ;"); idx != -1 {
			dep.Marker = strings.TrimSpace(ref[idx+2:])
			ref = strings.TrimSpace(ref[:idx])
		}
		if ref == "" {
			return types.Dependency{}, parseError(origin, text, "direct reference without URL")
		}
		applyReference(&dep, ref)
		return dep, nil
	}

	spec := rest
	if idx := strings.Index(rest, ";"); idx != -1 {
		spec = strings.TrimSpace(rest[:idx])
		dep.Marker = strings.TrimSpace(rest[idx+1:])
		if dep.Marker == "" {
			return types.Dependency{}, parseError(origin, text, "empty environment marker")
		}
	}
	if spec != "" && !strings.ContainsAny(spec[:1], "<>=!~(") {
		return types.Dependency{}, parseError(origin, text, "unexpected text after package name")
	}
	dep.RawSpecifier = strings.Join(strings.Fields(spec), "")
	if specs, err := ParseSpecifierSet(spec); err == nil {
		dep.Specifiers = specs
	}
	return dep, nil
}

func parseDirectReference(ref string, origin types.Origin) (types.Dependency, *types.ParseError) {
	dep := types.Dependency{Origin: origin}
	main, fragment, _ := strings.Cut(ref, "#")
	egg := ""
	if fragment != "" {
		values, err := url.ParseQuery(fragment)
		if err == nil {
			egg = values.Get("egg")
		}
	}
	if egg != "" {
		name := egg
		if idx := strings.Index(name, "["); idx != -1 && strings.HasSuffix(name, "]") {
			dep.Extras = parseExtras(name[idx+1 : len(name)-1])
			name = name[:idx]
		}
		dep.Name = shared.NormalizePipName(name)
	}
	if !strings.Contains(main, "://") && strings.HasSuffix(main, "]") {
		if idx := strings.LastIndex(main, "["); idx != -1 {
			dep.Extras = parseExtras(main[idx+1 : len(main)-1])
			main = main[:idx]
		}
	}
	applyReference(&dep, main)
	if dep.Kind == "" {
		return types.Dependency{}, parseError(origin, ref, "unsupported direct reference")
	}
	if dep.Name == "" && dep.Kind == types.DependencyKindPath {
		if IsSelfReference(dep) {
			dep.Name = SelfReferenceName
		} else {
			base := path.Base(strings.TrimRight(strings.ReplaceAll(dep.Path, "\\", "/"), "/"))
			if base != "." && base != "/" && base != ".." {
				dep.Name = shared.NormalizePipName(base)
			}
		}
	}
	if dep.Name == "" {
		return types.Dependency{}, parseError(origin, ref, "direct reference without #egg= name")
	}
	return dep, nil
}

// applyReference fills the location fields of dep from a URL or path.
func applyReference(dep *types.Dependency, ref string) {
	switch {
	case strings.HasPrefix(ref, "git+"):
		dep.Kind = types.DependencyKindVCS
		dep.VCSURL, dep.VCSRef = splitVCSRef(strings.TrimPrefix(ref, "git+"))
	case strings.HasPrefix(ref, "hg+"), strings.HasPrefix(ref, "svn+"), strings.HasPrefix(ref, "bzr+"):
		dep.Kind = ""
	case strings.HasPrefix(ref, "file://"):
		dep.Kind = types.DependencyKindPath
		dep.Path = strings.TrimPrefix(ref, "file://")
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		dep.Kind = types.DependencyKindURL
		dep.URL = ref
	default:
		dep.Kind = types.DependencyKindPath
		dep.Path = ref
	}
}

// splitVCSRef separates "https://host/repo.git@v1.0" into URL and ref. An
// "@" in the authority part (ssh user) is not a ref separator.
func splitVCSRef(raw string) (string, string) {
	schemeEnd := strings.Index(raw, "://")
	pathStart := 0
	if schemeEnd != -1 {
		slash := strings.Index(raw[schemeEnd+3:], "/")
		if slash == -1 {
			return raw, ""
		}
		pathStart = schemeEnd + 3 + slash
	}
	at := strings.LastIndex(raw[pathStart:], "@")
	if at == -1 {
		return raw, ""
	}
	at += pathStart
	return raw[:at], raw[at+1:]
}

// SelfReferenceName names a requirement that points at the project being
// migrated ("-e ." or ".[dev]").
const SelfReferenceName = "."

// IsSelfReference reports whether dep is a local path to the project root.
func IsSelfReference(dep types.Dependency) bool {
	if dep.Kind != types.DependencyKindPath {
		return false
	}
	return dep.Path == "." || dep.Path == "./"
}

func looksLikeDirectReference(text string) bool {
	for _, prefix := range []string{"./", "../", "/", "~/", ".[", "git+", "hg+", "svn+", "bzr+", "file://", "http://", "https://"} {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return text == "."
}

func parseExtras(raw string) []string {
	var extras []string
	for _, extra := range strings.Split(raw, ",") {
		extras = append(extras, strings.ToLower(strings.TrimSpace(extra)))
	}
	return shared.UniqueSorted(extras)
}

// splitTrailingOptions cuts per-requirement options (" --index-url x")
// from the requirement body.
func splitTrailingOptions(line string) (string, []string) {
	idx := strings.Index(line, " -")
	for idx != -1 {
		rest := line[idx+1:]
		if strings.HasPrefix(rest, "--") || strings.HasPrefix(rest, "-i ") {
			return strings.TrimSpace(line[:idx]), strings.Fields(rest)
		}
		next := strings.Index(line[idx+2:], " -")
		if next == -1 {
			break
		}
		idx = idx + 2 + next
	}
	return line, nil
}

func splitOption(line string) (string, string) {
	if idx := strings.IndexAny(line, " \t="); idx != -1 {
		return line[:idx], strings.TrimSpace(strings.TrimLeft(line[idx:], " \t="))
	}
	return line, ""
}

func stripComment(line string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return ""
	}
	return commentRE.ReplaceAllString(line, "")
}

type logicalLine struct {
	number int
	text   string
}

// logicalLines joins backslash continuations and keeps the number of the
// first physical line.
func logicalLines(content string) []logicalLine {
	var out []logicalLine
	var current strings.Builder
	start := 0
	for i, raw := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if current.Len() == 0 {
			start = i + 1
		}
		trimmed := strings.TrimRight(raw, " \t")
		if strings.HasSuffix(trimmed, "\\") {
			current.WriteString(strings.TrimSuffix(trimmed, "\\"))
			current.WriteString(" ")
			continue
		}
		current.WriteString(trimmed)
		out = append(out, logicalLine{number: start, text: current.String()})
		current.Reset()
	}
	if current.Len() > 0 {
		out = append(out, logicalLine{number: start, text: current.String()})
	}
	return out
}

func parseError(origin types.Origin, text string, reason string) *types.ParseError {
	return &types.ParseError{Origin: origin, Text: text, Reason: reason}
}

func inSet(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
