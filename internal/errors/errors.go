package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all load-time failure modes
type ErrorCode string

const (
	// RulesUnreadable indicates the rule document could not be read
	RulesUnreadable ErrorCode = "RULES_UNREADABLE"
	// RulesInvalid indicates a malformed rule document or rule record
	RulesInvalid ErrorCode = "RULES_INVALID"
	// DuplicateRuleID indicates two rules share an ID
	DuplicateRuleID ErrorCode = "DUPLICATE_RULE_ID"
	// UnknownDependency indicates depends_on names an ID that is not loaded
	UnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"
	// DependencyCycle indicates a cycle in the depends_on graph
	DependencyCycle ErrorCode = "DEPENDENCY_CYCLE"
	// UnknownHandler indicates a builtin rule names a handler that does not exist
	UnknownHandler ErrorCode = "UNKNOWN_HANDLER"
	// InvalidPattern indicates a rule pattern failed to compile
	InvalidPattern ErrorCode = "INVALID_PATTERN"
	// RootInaccessible indicates the project root cannot be walked
	RootInaccessible ErrorCode = "ROOT_INACCESSIBLE"
	// ConfigInvalid indicates the configuration file is malformed
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// HistoryUnavailable indicates the scan history database could not be used
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description"`
}

// AuditError represents a load-time error with code, message, and suggestions
type AuditError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new AuditError with the default suggested fixes for its code
func New(code ErrorCode, message string, cause error) *AuditError {
	return &AuditError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new AuditError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *AuditError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *AuditError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AuditError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AuditError) WithDetails(details interface{}) *AuditError {
	e.Details = details
	return e
}

// Is reports whether err is an AuditError carrying code.
func Is(err error, code ErrorCode) bool {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the code of the first AuditError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RulesUnreadable: {
		{Command: "docaudit rules list", Description: "Check that the rules file exists and is readable"},
	},
	RulesInvalid: {
		{Description: "Every rule needs id, description and type plus the fields its type requires"},
	},
	DuplicateRuleID: {
		{Description: "Give each rule a unique numeric id"},
	},
	UnknownDependency: {
		{Command: "docaudit rules list", Description: "List loaded rule ids and fix the depends_on entry"},
	},
	DependencyCycle: {
		{Command: "docaudit rules order", Description: "Remove one depends_on edge from the cycle"},
	},
	UnknownHandler: {
		{Command: "docaudit rules list --handlers", Description: "List the available builtin handlers"},
	},
	ConfigInvalid: {
		{Command: "docaudit config show", Description: "Inspect the effective configuration"},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
