package types

type Warning struct {
	Kind    WarningKind `yaml:"kind"`
	Package string      `yaml:"package,omitempty"`
	File    string      `yaml:"file,omitempty"`
	Line    int         `yaml:"line,omitempty"`
	Message string      `yaml:"message"`
}

type UnsupportedRecord struct {
	File   string `yaml:"file"`
	Line   int    `yaml:"line"`
	Text   string `yaml:"text"`
	Reason string `yaml:"reason"`
}

type ParseErrorRecord struct {
	File   string `yaml:"file"`
	Line   int    `yaml:"line"`
	Text   string `yaml:"text"`
	Reason string `yaml:"reason"`
}

// Summary accumulates every non-fatal issue of a migration run. It is
// returned from the top-level call even when the run aborts.
type Summary struct {
	RunID       string              `yaml:"run_id"`
	Project     string              `yaml:"project"`
	Warnings    []Warning           `yaml:"warnings,omitempty"`
	ParseErrors []ParseErrorRecord  `yaml:"parse_errors,omitempty"`
	Unsupported []UnsupportedRecord `yaml:"unsupported,omitempty"`
	Written     string              `yaml:"written,omitempty"`
	Steps       []string            `yaml:"steps,omitempty"`
	Removed     []string            `yaml:"removed,omitempty"`
	Failure     string              `yaml:"failure,omitempty"`
}

func (s *Summary) AddWarnings(warnings ...Warning) {
	s.Warnings = append(s.Warnings, warnings...)
}

func (s *Summary) AddParseErrors(errs ...ParseError) {
	for _, err := range errs {
		s.ParseErrors = append(s.ParseErrors, ParseErrorRecord{
			File:   err.Origin.File,
			Line:   err.Origin.Line,
			Text:   err.Text,
			Reason: err.Reason,
		})
	}
}

func (s *Summary) AddUnsupported(entries ...UnsupportedEntry) {
	for _, entry := range entries {
		s.Unsupported = append(s.Unsupported, UnsupportedRecord{
			File:   entry.Origin.File,
			Line:   entry.Origin.Line,
			Text:   entry.Text,
			Reason: entry.Reason,
		})
	}
}

func (s Summary) IssueCount() int {
	return len(s.Warnings) + len(s.ParseErrors) + len(s.Unsupported)
}
