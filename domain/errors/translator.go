package errors

import (
	stdErrors "errors"
	"fmt"
)

// ConvertFunc maps a script-raised failure (its message and the raised
// value, if any) into a host-level error or response representation.
type ConvertFunc func(message string, raised any) error

// Translator maps classified invocation failures into host-level errors.
// Script-raised failures go through the host-supplied converter; engine
// faults (parse errors, nil calls, interpreter type errors) default to an
// internal-error classification unless ConvertFaults is set.
type Translator struct {
	convert       ConvertFunc
	convertFaults bool
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithFaultConversion opts interpreter faults into the converter as well.
// Most hosts should leave this off and surface faults as internal errors.
func WithFaultConversion() TranslatorOption {
	return func(t *Translator) {
		t.convertFaults = true
	}
}

// NewTranslator creates a Translator around the host's converter.
func NewTranslator(convert ConvertFunc, opts ...TranslatorOption) *Translator {
	t := &Translator{convert: convert}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// InternalError wraps failures the host did not opt to convert.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal scripting error: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Translate converts an invocation failure for host consumption. A
// script-raised RuntimeError is passed to the converter; everything else
// becomes an InternalError, unless fault conversion is enabled.
func (t *Translator) Translate(err error) error {
	if err == nil {
		return nil
	}

	var rt *RuntimeError
	if stdErrors.As(err, &rt) {
		if rt.Raised || t.convertFaults {
			return t.convert(rt.Message, rt.RaisedValue)
		}
	}
	return &InternalError{Err: err}
}
