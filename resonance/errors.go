package resonance

import (
	"errors"

	"github.com/RyanBlaney/sonido-resonance/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-resonance/algorithms/temporal"
	"github.com/RyanBlaney/sonido-resonance/source"
)

// ErrorCode classifies analysis failures
type ErrorCode string

// Error codes
const (
	CodeSourceUnavailable    ErrorCode = "SOURCE_UNAVAILABLE"
	CodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	CodeInvalidRange         ErrorCode = "INVALID_RANGE"
	CodeRefinementUndefined  ErrorCode = "REFINEMENT_UNDEFINED"
	CodeNonPositiveAmplitude ErrorCode = "NON_POSITIVE_AMPLITUDE"
	CodeDegenerateFit        ErrorCode = "DEGENERATE_FIT"
)

// AnalysisError represents analysis-related errors
type AnalysisError struct {
	Code    ErrorCode `json:"code"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AnalysisError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is matches any AnalysisError carrying the same code, so the sentinels
// below work with errors.Is.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrSourceUnavailable    = &AnalysisError{Code: CodeSourceUnavailable, Message: "source unavailable"}
	ErrInvalidConfiguration = &AnalysisError{Code: CodeInvalidConfiguration, Message: "invalid configuration"}
	ErrInvalidRange         = &AnalysisError{Code: CodeInvalidRange, Message: "invalid range"}
	ErrRefinementUndefined  = &AnalysisError{Code: CodeRefinementUndefined, Message: "refinement undefined"}
	ErrNonPositiveAmplitude = &AnalysisError{Code: CodeNonPositiveAmplitude, Message: "non-positive amplitude"}
	ErrDegenerateFit        = &AnalysisError{Code: CodeDegenerateFit, Message: "degenerate fit"}
)

// NewAnalysisError creates a new analysis error
func NewAnalysisError(code ErrorCode, op, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// codeOf maps an error from the algorithm packages onto an ErrorCode.
// Unknown errors are reported as fallback.
func codeOf(err error, fallback ErrorCode) ErrorCode {
	var ae *AnalysisError
	switch {
	case errors.As(err, &ae):
		return ae.Code
	case errors.Is(err, source.ErrUnavailable):
		return CodeSourceUnavailable
	case errors.Is(err, harmonic.ErrRefinementUndefined):
		return CodeRefinementUndefined
	case errors.Is(err, temporal.ErrNonPositiveAmplitude):
		return CodeNonPositiveAmplitude
	case errors.Is(err, temporal.ErrDegenerateFit):
		return CodeDegenerateFit
	default:
		return fallback
	}
}

// Diagnostic is a non-fatal condition met while producing a result
type Diagnostic struct {
	Code    ErrorCode      `json:"code" yaml:"code"`
	Message string         `json:"message" yaml:"message"`
	Fields  map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func diagnosticFrom(err error, fallback ErrorCode, fields map[string]any) Diagnostic {
	return Diagnostic{
		Code:    codeOf(err, fallback),
		Message: err.Error(),
		Fields:  fields,
	}
}
