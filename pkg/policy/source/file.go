package source

import (
	"mercator-hq/hermes/pkg/policy/rules"
)

// FileSource loads rule sets from a YAML file on disk.
type FileSource struct {
	// Path is the rule file path.
	Path string

	// KnownConditions is the condition vocabulary rules are validated
	// against, normally engine.Conditions().
	KnownConditions []string
}

// NewFileSource creates a file-backed rule source.
func NewFileSource(path string, knownConditions []string) *FileSource {
	return &FileSource{
		Path:            path,
		KnownConditions: knownConditions,
	}
}

// Load reads and validates the rule file.
func (s *FileSource) Load() (*rules.RuleSet, error) {
	return rules.LoadFile(s.Path, s.KnownConditions)
}
