// Package config defines the Hermes configuration structure and loading.
//
// Configuration is read from a YAML file, defaults are applied for any
// unset fields, and environment variables with the HERMES_ prefix override
// file values (e.g. HERMES_REASONER_API_KEY). The final configuration is
// validated before use; all validation errors are collected and reported
// together.
package config
