package rules

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the intermediate structure for parsing a YAML rule file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Parse parses YAML bytes into a validated rule set. sourcePath is used
// for error reporting only.
func Parse(data []byte, sourcePath string, knownConditions []string) (*RuleSet, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ParseError{FilePath: sourcePath, Cause: err}
	}
	return NewRuleSet(file.Rules, knownConditions)
}

// LoadFile reads and parses a YAML rule file into a validated rule set.
func LoadFile(path string, knownConditions []string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Cause: err}
	}
	return Parse(data, path, knownConditions)
}
