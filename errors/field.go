package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches a message field name to err, so that validation of escrow,
// ledger and signature messages can report every invalid field at once
// (see Append). Nested fields use dot notation, for example Patch.Owner.
// A nil err results in nil.
func Field(name string, err error, desc string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		desc = fmt.Sprintf(desc, args...)
	}
	return &FieldError{Name: name, Desc: desc, Err: err}
}

// AppendField appends the field error built from err to errs. Nothing is
// appended when err is nil, which makes it convenient for chaining Validate
// calls:
//
//   errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
//   errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

// FieldError is a validation failure of a single message or model field.
type FieldError struct {
	Name string
	Desc string
	Err  error
}

func (e *FieldError) Error() string {
	if e.Desc == "" {
		return fmt.Sprintf("field %q: %s", e.Name, e.Err)
	}
	return fmt.Sprintf("field %q: %s: %s", e.Name, e.Desc, e.Err)
}

// Cause returns the wrapped error, so that Is tests see through the field.
func (e *FieldError) Cause() error {
	return e.Err
}

// FieldErrors returns all errors reported for the named field. Grouped
// errors created by Append are searched recursively.
func FieldErrors(err error, name string) []error {
	var found []error
	for !isNilErr(err) {
		switch e := err.(type) {
		case *FieldError:
			if e.Name == name {
				return append(found, e)
			}
		case unpacker:
			for _, child := range e.Unpack() {
				found = append(found, FieldErrors(child, name)...)
			}
			return found
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return found
}
