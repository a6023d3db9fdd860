/*
 * Copyright (c) 2026 The FinchDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package errors provides structured error handling for FinchDB.

The errors package implements a structured error system with:
  - Error categories (Syntax, Storage, Validation, Execution)
  - Error codes for programmatic handling
  - Source positions (line and column) for parse errors
  - User-friendly error messages with optional hints
  - Error wrapping for root cause analysis

Error Categories:
  - SyntaxError: Lexing and SQL parsing errors
  - StorageError: Page and pager I/O failures
  - ValidationError: Input validation failures
  - ExecutionError: Failures outside parsing and storage
*/
package errors

import (
	"fmt"
)

// ErrorCode represents a unique error identifier.
type ErrorCode int

const (
	// Syntax errors (1000-1999)
	ErrCodeSyntax               ErrorCode = 1000
	ErrCodeUnexpectedToken      ErrorCode = 1001
	ErrCodeIncompleteExpression ErrorCode = 1002
	ErrCodeUnmatchedParen       ErrorCode = 1003
	ErrCodeMalformedExpression  ErrorCode = 1004
	ErrCodeEmptyExpression      ErrorCode = 1005
	ErrCodeUnclosedString       ErrorCode = 1006
	ErrCodeInvalidLiteral       ErrorCode = 1007
	ErrCodeMissingKeyword       ErrorCode = 1008

	// Execution errors (2000-2999)
	ErrCodeExecution    ErrorCode = 2000
	ErrCodeNotSupported ErrorCode = 2001

	// Storage errors (5000-5999)
	ErrCodeStorage      ErrorCode = 5000
	ErrCodePageFull     ErrorCode = 5001
	ErrCodePageCorrupt  ErrorCode = 5002
	ErrCodeIOError      ErrorCode = 5003
	ErrCodeTupleTooBig  ErrorCode = 5004
	ErrCodeSlotNotFound ErrorCode = 5005

	// Validation errors (6000-6999)
	ErrCodeValidation   ErrorCode = 6000
	ErrCodeInvalidValue ErrorCode = 6001
)

// Category represents the error category.
type Category string

const (
	CategorySyntax     Category = "SYNTAX"
	CategoryExecution  Category = "EXECUTION"
	CategoryStorage    Category = "STORAGE"
	CategoryValidation Category = "VALIDATION"
)

// FinchError represents a structured error in FinchDB.
type FinchError struct {
	Code     ErrorCode
	Category Category
	Message  string
	Detail   string
	Hint     string
	Line     int // 1-based source line, 0 when not positional
	Column   int // 1-based source column, 0 when not positional
	Cause    error
}

// Error implements the error interface.
func (e *FinchError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s - %s", msg, e.Detail)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s - at line %d, col %d", msg, e.Line, e.Column)
	}
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.Category, msg)
}

// Unwrap returns the underlying cause.
func (e *FinchError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly error message.
func (e *FinchError) UserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d, col %d", e.Line, e.Column)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHINT: %s", e.Hint)
	}
	return msg
}

// WithDetail adds detail to the error.
func (e *FinchError) WithDetail(detail string) *FinchError {
	e.Detail = detail
	return e
}

// WithHint adds a hint to the error.
func (e *FinchError) WithHint(hint string) *FinchError {
	e.Hint = hint
	return e
}

// WithCause adds a cause to the error.
func (e *FinchError) WithCause(cause error) *FinchError {
	e.Cause = cause
	return e
}

// At records the source position (1-based) of the offending token.
func (e *FinchError) At(line, column int) *FinchError {
	e.Line = line
	e.Column = column
	return e
}

// ============================================================================
// Syntax Error Constructors
// ============================================================================

// NewSyntaxError creates a new syntax error.
func NewSyntaxError(message string) *FinchError {
	return &FinchError{
		Code:     ErrCodeSyntax,
		Category: CategorySyntax,
		Message:  message,
	}
}

// UnexpectedToken reports a token that no grammar rule admits at the
// current position.
func UnexpectedToken(expected, got string) *FinchError {
	return &FinchError{
		Code:     ErrCodeUnexpectedToken,
		Category: CategorySyntax,
		Message:  fmt.Sprintf("unexpected token: expected %s, found %q", expected, got),
		Hint:     "Check your SQL syntax",
	}
}

// IncompleteExpression reports a predicate that was opened but never
// completed, such as IS without NULL or a comparison with no right operand.
func IncompleteExpression(detail string) *FinchError {
	return &FinchError{
		Code:     ErrCodeIncompleteExpression,
		Category: CategorySyntax,
		Message:  "incomplete expression",
		Detail:   detail,
	}
}

// UnmatchedParen reports unbalanced parenthesis nesting.
func UnmatchedParen(detail string) *FinchError {
	return &FinchError{
		Code:     ErrCodeUnmatchedParen,
		Category: CategorySyntax,
		Message:  "unmatched parenthesis",
		Detail:   detail,
	}
}

// MalformedExpression reports adjacent predicates with no connecting
// logical operator.
func MalformedExpression() *FinchError {
	return &FinchError{
		Code:     ErrCodeMalformedExpression,
		Category: CategorySyntax,
		Message:  "malformed expression",
		Detail:   "conditions are not connected by AND or OR",
	}
}

// EmptyExpression reports a WHERE clause with no tokens.
func EmptyExpression() *FinchError {
	return &FinchError{
		Code:     ErrCodeEmptyExpression,
		Category: CategorySyntax,
		Message:  "empty expression",
		Detail:   "WHERE requires at least one condition",
	}
}

// UnclosedString reports a string literal with no closing quote.
func UnclosedString() *FinchError {
	return &FinchError{
		Code:     ErrCodeUnclosedString,
		Category: CategorySyntax,
		Message:  "unterminated string literal",
		Hint:     "Close the string with a single quote",
	}
}

// InvalidLiteral reports a literal that could not be scanned.
func InvalidLiteral(literal string) *FinchError {
	return &FinchError{
		Code:     ErrCodeInvalidLiteral,
		Category: CategorySyntax,
		Message:  fmt.Sprintf("invalid literal: %q", literal),
	}
}

// MissingKeyword reports a required keyword that is absent.
func MissingKeyword(keyword string) *FinchError {
	return &FinchError{
		Code:     ErrCodeMissingKeyword,
		Category: CategorySyntax,
		Message:  fmt.Sprintf("missing keyword: %s", keyword),
		Hint:     fmt.Sprintf("Add the '%s' keyword to your statement", keyword),
	}
}

// ============================================================================
// Execution Error Constructors
// ============================================================================

// NewExecutionError creates a new execution error.
func NewExecutionError(message string) *FinchError {
	return &FinchError{
		Code:     ErrCodeExecution,
		Category: CategoryExecution,
		Message:  message,
	}
}

// NotSupported reports a statement the engine does not implement.
func NotSupported(what string) *FinchError {
	return &FinchError{
		Code:     ErrCodeNotSupported,
		Category: CategoryExecution,
		Message:  fmt.Sprintf("%s is not supported", what),
	}
}

// ============================================================================
// Storage Error Constructors
// ============================================================================

// NewStorageError creates a new storage error.
func NewStorageError(message string) *FinchError {
	return &FinchError{
		Code:     ErrCodeStorage,
		Category: CategoryStorage,
		Message:  message,
	}
}

// PageFull reports a page without room for a tuple.
func PageFull(need, free int) *FinchError {
	return &FinchError{
		Code:     ErrCodePageFull,
		Category: CategoryStorage,
		Message:  "page full",
		Detail:   fmt.Sprintf("need %d bytes, %d free", need, free),
	}
}

// PageCorrupt reports a page that failed structural validation.
func PageCorrupt(detail string) *FinchError {
	return &FinchError{
		Code:     ErrCodePageCorrupt,
		Category: CategoryStorage,
		Message:  "page corrupt",
		Detail:   detail,
	}
}

// IOError wraps a file system failure.
func IOError(op string, cause error) *FinchError {
	return &FinchError{
		Code:     ErrCodeIOError,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("I/O failure during %s", op),
		Cause:    cause,
	}
}

// TupleTooBig reports a tuple that can never fit in a page.
func TupleTooBig(size, max int) *FinchError {
	return &FinchError{
		Code:     ErrCodeTupleTooBig,
		Category: CategoryStorage,
		Message:  "tuple too big",
		Detail:   fmt.Sprintf("%d bytes, page data region holds %d", size, max),
	}
}

// SlotNotFound reports a read of an unused or out-of-range slot.
func SlotNotFound(slot int) *FinchError {
	return &FinchError{
		Code:     ErrCodeSlotNotFound,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("slot %d not in use", slot),
	}
}

// ============================================================================
// Validation Error Constructors
// ============================================================================

// NewValidationError creates a new validation error.
func NewValidationError(message string) *FinchError {
	return &FinchError{
		Code:     ErrCodeValidation,
		Category: CategoryValidation,
		Message:  message,
	}
}

// InvalidValue reports a value that fails validation.
func InvalidValue(field, reason string) *FinchError {
	return &FinchError{
		Code:     ErrCodeInvalidValue,
		Category: CategoryValidation,
		Message:  fmt.Sprintf("invalid value for %s", field),
		Detail:   reason,
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// IsSyntaxError checks if an error is a syntax error.
func IsSyntaxError(err error) bool {
	if e, ok := err.(*FinchError); ok {
		return e.Category == CategorySyntax
	}
	return false
}

// IsStorageError checks if an error is a storage error.
func IsStorageError(err error) bool {
	if e, ok := err.(*FinchError); ok {
		return e.Category == CategoryStorage
	}
	return false
}

// GetCode returns the error code if it's a FinchError, or 0 otherwise.
func GetCode(err error) ErrorCode {
	if e, ok := err.(*FinchError); ok {
		return e.Code
	}
	return 0
}

// FormatError formats an error for user display.
func FormatError(err error) string {
	if e, ok := err.(*FinchError); ok {
		return e.UserMessage()
	}
	return fmt.Sprintf("ERROR: %v", err)
}
