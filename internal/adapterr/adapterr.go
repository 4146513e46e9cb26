// Package adapterr defines the closed set of error kinds the evaluator,
// serializer and pipeline can raise (spec §7). It follows the teacher's
// category+wrapped-error pattern: one concrete type, a Kind enum, and a
// constructor per kind so call sites read as `adapterr.NewUnknownType(tag)`
// rather than ad-hoc fmt.Errorf calls scattered through the codebase.
package adapterr

import "fmt"

// Kind identifies which of the spec's named failure modes occurred.
type Kind string

const (
	ConfigNotFound            Kind = "ConfigNotFound"
	UnknownType               Kind = "UnknownType"
	MissingInput              Kind = "MissingInput"
	DuplicateField            Kind = "DuplicateField"
	EnumMiss                  Kind = "EnumMiss"
	InvalidFormatTag          Kind = "InvalidFormatTag"
	PredicateOperatorAmbiguous Kind = "PredicateOperatorAmbiguous"
	PipelineNameExists        Kind = "PipelineNameExists"
	PipelineArgumentExists    Kind = "PipelineArgumentExists"
)

// Error is the single error type produced by this module. Message carries
// the offending field name / type tag per spec §7 ("a single error message
// including the offending field name / type tag").
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewConfigNotFound(path string) *Error {
	return newf(ConfigNotFound, "config file not found: %s", path)
}

func NewUnknownType(tag string) *Error {
	return newf(UnknownType, "no handler registered for type %q", tag)
}

func NewMissingInput(key string) *Error {
	return newf(MissingInput, "required external input %q not found", key)
}

func NewDuplicateField(category, name string) *Error {
	return newf(DuplicateField, "duplicate serializer field for category %q, name %q", category, name)
}

func NewEnumMiss(value any, mappings map[string]any) *Error {
	return newf(EnumMiss, "value %v not found in mappings %v", value, mappings)
}

func NewInvalidFormatTag(tag string) *Error {
	return newf(InvalidFormatTag, "invalid format_as tag %q", tag)
}

func NewPredicateOperatorAmbiguous(field string, ops []string) *Error {
	return newf(PredicateOperatorAmbiguous, "field %q: expected exactly one operator key, found %v", field, ops)
}

func NewPipelineNameExists(name string) *Error {
	return newf(PipelineNameExists, "pipeline item with name %q already exists", name)
}

func NewPipelineArgumentExists(item, arg string) *Error {
	return newf(PipelineArgumentExists, "argument %q already exists in pipeline item %q", arg, item)
}
