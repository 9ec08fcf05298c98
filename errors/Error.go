package errors

import (
	"errors"
	"fmt"
	reflect "reflect"
	"strings"
)

// Error is the typed error carried across every service boundary. Errors
// compare by code: Is matches when two errors share a code, regardless of
// message, so predefined sentinels like ErrTxInvalid work with errors.Is.
type Error struct {
	code       ERR
	message    string
	wrappedErr error
	data       ErrDataI
}

type Interface interface {
	Error() string
	Is(target error) bool
	As(target interface{}) bool
	Unwrap() error

	Code() ERR
	Message() string
	WrappedErr() error
	Data() ErrDataI
}

func (e *Error) Error() string {
	// predefined sentinels are compared while nil-wrapped, tolerate it
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Error: %s (error code: %d), Message: %v", e.code, e.code, e.message)

	if e.wrappedErr != nil {
		fmt.Fprintf(&b, ", Wrapped err: %v", e.wrappedErr)
	}

	if e.data != nil {
		fmt.Fprintf(&b, ", Data: %s", e.data.Error())
	}

	return b.String()
}

// Is reports whether target shares a code with e or with anything e wraps.
// A non-typed target falls back to substring matching on the rendered text.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}

	te, ok := target.(*Error)
	if !ok {
		return strings.Contains(e.Error(), target.Error())
	}

	if e.code == te.code {
		return true
	}

	if we, ok := e.wrappedErr.(*Error); ok {
		return we.Is(target)
	}

	return false
}

func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}

	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}

	// a typed data payload can satisfy the target too
	if e.data != nil {
		if data, ok := e.data.(error); ok {
			return errors.As(data, target)
		}
	}

	if e.wrappedErr != nil {
		// a typed nil inside the interface would send errors.As into a panic
		if reflect.ValueOf(e.wrappedErr).Kind() == reflect.Ptr && reflect.ValueOf(e.wrappedErr).IsNil() {
			return false
		}

		return errors.As(e.wrappedErr, target)
	}

	if unwrapped := errors.Unwrap(e); unwrapped != nil {
		return errors.As(unwrapped, target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

// Accessors tolerate nil receivers so predefined errors can be inspected
// without guarding every call site.

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Data() ErrDataI {
	if e == nil {
		return nil
	}

	return e.data
}

func (e *Error) SetData(key string, value interface{}) {
	if e.data == nil {
		e.data = &ErrData{}
	}

	var data *ErrData
	if errors.As(e.data, &data) {
		data.SetData(key, value)
	}
}

func (e *Error) GetData(key string) interface{} {
	if e.data == nil {
		return nil
	}

	return e.data.GetData(key)
}

// splitWrapped peels a trailing error off the params list, the calling
// convention every constructor shares: the last argument may be a cause.
func splitWrapped(params []interface{}) (*Error, []interface{}) {
	if len(params) == 0 {
		return nil, params
	}

	switch err := params[len(params)-1].(type) {
	case *Error:
		return err, params[:len(params)-1]
	case error:
		return &Error{message: err.Error()}, params[:len(params)-1]
	}

	return nil, params
}

// New builds a typed error. message is a format string for the remaining
// params once a trailing cause has been peeled off.
func New(code ERR, message string, params ...interface{}) *Error {
	wErr, params := splitWrapped(params)

	if len(params) > 0 {
		message = fmt.Errorf(message, params...).Error()
	}

	if _, ok := ERR_name[int32(code)]; !ok {
		message = "invalid error code"
	}

	return &Error{
		code:       code,
		message:    message,
		wrappedErr: wrappedOrNil(wErr),
	}
}

// wrappedOrNil keeps a nil *Error out of the error interface, where it
// would compare non-nil.
func wrappedOrNil(err *Error) error {
	if err == nil {
		return nil
	}

	return err
}

// Join flattens the non-nil errors into one message. The result carries no
// codes; use New with a cause when Is matching must survive.
func Join(errs ...error) error {
	var messages []string

	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return errors.New(strings.Join(messages, ", "))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

// AsData walks the wrap chain looking for a typed data payload matching
// target.
func AsData(err error, target interface{}) bool {
	if castedErr, ok := err.(*Error); ok {
		if errors.As(castedErr.data, target) {
			return true
		}

		if castedErr.wrappedErr != nil {
			return AsData(castedErr.wrappedErr, target)
		}
	}

	return false
}

func As(err error, target any) bool {
	if castedErr, ok := err.(*Error); ok {
		if castedErr.As(target) {
			return true
		}

		if castedErr.wrappedErr != nil {
			return errors.As(castedErr.wrappedErr, target)
		}
	}

	return errors.As(err, target)
}
