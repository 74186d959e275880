package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/hermes/pkg/policy/engine"
	"mercator-hq/hermes/pkg/policy/rules"
)

var validateFlags struct {
	file   string
	dir    string
	format string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Work with rule files",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate rule files",
	Long: `Validate rule files for syntax and semantic errors.

The validate command parses rule files and checks:
  - YAML syntax
  - Required fields (name, effect, action, condition)
  - Effect values (allow, deny)
  - Condition names against the built-in predicates
  - Duplicate rule names

Examples:
  # Validate a single file
  hermes rules validate --file rules.yaml

  # Validate a directory
  hermes rules validate --dir rules/

  # JSON output for CI
  hermes rules validate --file rules.yaml --format json`,
	RunE: validateRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.file, "file", "f", "", "rule file to validate")
	validateCmd.Flags().StringVarP(&validateFlags.dir, "dir", "d", "", "directory of rule files")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// fileResult is the validation outcome for one rule file.
type fileResult struct {
	File   string      `json:"file"`
	Valid  bool        `json:"valid"`
	Rules  int         `json:"rules"`
	Errors []fileIssue `json:"errors,omitempty"`
}

type fileIssue struct {
	Rule    string `json:"rule,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func validateRules(cmd *cobra.Command, args []string) error {
	if validateFlags.file == "" && validateFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if validateFlags.file != "" {
		files = append(files, validateFlags.file)
	}
	if validateFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(validateFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	known := engine.NewPredicates(nil).Names()

	results := make([]fileResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateRuleFile(file, known))
	}

	if validateFlags.format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		printResults(results)
	}

	for _, r := range results {
		if !r.Valid {
			return fmt.Errorf("rules validate: validation failed")
		}
	}
	return nil
}

func validateRuleFile(path string, knownConditions []string) fileResult {
	result := fileResult{File: path, Valid: true}

	set, err := rules.LoadFile(path, knownConditions)
	if err != nil {
		result.Valid = false

		var verrs rules.ValidationErrors
		if errors.As(err, &verrs) {
			for _, ve := range verrs {
				result.Errors = append(result.Errors, fileIssue{
					Rule:    ve.RuleName,
					Field:   ve.Field,
					Message: ve.Message,
				})
			}
		} else {
			result.Errors = append(result.Errors, fileIssue{Message: err.Error()})
		}
		return result
	}

	result.Rules = set.Len()
	return result
}

func printResults(results []fileResult) {
	totalErrors := 0
	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)

		if result.Valid {
			fmt.Printf("✓ %d rule(s), all conditions known\n", result.Rules)
		}
		for _, issue := range result.Errors {
			fmt.Printf("✗ Error: %s", issue.Message)
			if issue.Rule != "" {
				fmt.Printf(" [rule %s", issue.Rule)
				if issue.Field != "" {
					fmt.Printf(", field %s", issue.Field)
				}
				fmt.Print("]")
			}
			fmt.Println()
			totalErrors++
		}
		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d file(s), %d error(s)\n", len(results), totalErrors)
}
