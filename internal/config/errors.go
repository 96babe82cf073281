package config

import (
	"fmt"
	"strings"
)

// Error types reported in ConfigurationError.ErrorType.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
	ErrorTypeUnknown    = "unknown_provider"
)

// ConfigurationError describes a problem with one configuration file or
// entry.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	Entry       string   `json:"entry,omitempty"` // provider entry or field the error refers to
	ErrorType   string   `json:"errorType"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	if ce.Entry != "" {
		return fmt.Sprintf("%s [%s]: %s", ce.FilePath, ce.Entry, ce.Message)
	}
	return fmt.Sprintf("%s: %s", ce.FilePath, ce.Message)
}

// DetailedError returns the error with its suggestions, one per line.
func (ce ConfigurationError) DetailedError() string {
	parts := []string{ce.Error()}
	for _, s := range ce.Suggestions {
		parts = append(parts, "  - "+s)
	}
	return strings.Join(parts, "\n")
}

// ConfigurationErrorCollection gathers the non-fatal problems found while
// loading provider registrations.
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

// Error implements the error interface for the collection
func (cec *ConfigurationErrorCollection) Error() string {
	switch len(cec.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return cec.Errors[0].Error()
	}
	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return cec != nil && len(cec.Errors) > 0
}

// Count returns the number of errors in the collection
func (cec *ConfigurationErrorCollection) Count() int {
	if cec == nil {
		return 0
	}
	return len(cec.Errors)
}

// Add adds a new error to the collection
func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// Merge appends every error of other.
func (cec *ConfigurationErrorCollection) Merge(other *ConfigurationErrorCollection) {
	if other == nil {
		return
	}
	cec.Errors = append(cec.Errors, other.Errors...)
}

// GetDetailedReport returns a detailed report of all errors
func (cec *ConfigurationErrorCollection) GetDetailedReport() string {
	if !cec.HasErrors() {
		return "No configuration errors to report"
	}
	parts := []string{fmt.Sprintf("Configuration problems (%d):", len(cec.Errors))}
	for _, err := range cec.Errors {
		parts = append(parts, err.DetailedError())
	}
	return strings.Join(parts, "\n")
}

// NewConfigurationErrorCollection creates a new empty error collection
func NewConfigurationErrorCollection() *ConfigurationErrorCollection {
	return &ConfigurationErrorCollection{Errors: make([]ConfigurationError, 0)}
}
