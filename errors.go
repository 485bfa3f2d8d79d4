package chartgpu

import (
	"errors"
	"fmt"
)

// Sentinel errors for the eight failure classes. Every error returned by
// this module (and every error event crossing the worker bridge) wraps
// exactly one of these, so callers can classify with errors.Is.
var (
	// ErrGraphicsInit is returned when no adapter, device, or surface can
	// be obtained during initialization.
	ErrGraphicsInit = errors.New("chartgpu: graphics init failed")

	// ErrDeviceLost is returned once the GPU device is lost. The condition
	// is terminal for the chart instance; subsequent operations keep
	// returning ErrDeviceLost.
	ErrDeviceLost = errors.New("chartgpu: device lost")

	// ErrRender is returned for a validation or submission failure confined
	// to a single frame. The frame is dropped; the chart stays usable.
	ErrRender = errors.New("chartgpu: render error")

	// ErrData is returned for invalid series indices, stride/count
	// mismatches, and non-finite point values.
	ErrData = errors.New("chartgpu: data error")

	// ErrInvalidArgument is returned for out-of-range zoom bounds,
	// non-integer indices, and unknown chart ids.
	ErrInvalidArgument = errors.New("chartgpu: invalid argument")

	// ErrDisposed is returned by any operation on a disposed instance.
	ErrDisposed = errors.New("chartgpu: disposed")

	// ErrTimeout is returned when a correlated request is not answered
	// within its deadline.
	ErrTimeout = errors.New("chartgpu: timeout")

	// ErrCommunication is returned for transport failures on the worker
	// bridge.
	ErrCommunication = errors.New("chartgpu: communication error")
)

// ErrorCode identifies a failure class on the wire. Codes are stable
// strings so they survive serialization in error events.
type ErrorCode string

// Error codes, one per sentinel.
const (
	CodeGraphicsInitFailed ErrorCode = "GraphicsInitFailed"
	CodeDeviceLost         ErrorCode = "DeviceLost"
	CodeRenderError        ErrorCode = "RenderError"
	CodeDataError          ErrorCode = "DataError"
	CodeInvalidArgument    ErrorCode = "InvalidArgument"
	CodeDisposed           ErrorCode = "Disposed"
	CodeTimeout            ErrorCode = "Timeout"
	CodeCommunicationError ErrorCode = "CommunicationError"
)

// sentinelFor maps each code onto its sentinel.
func sentinelFor(code ErrorCode) error {
	switch code {
	case CodeGraphicsInitFailed:
		return ErrGraphicsInit
	case CodeDeviceLost:
		return ErrDeviceLost
	case CodeRenderError:
		return ErrRender
	case CodeDataError:
		return ErrData
	case CodeInvalidArgument:
		return ErrInvalidArgument
	case CodeDisposed:
		return ErrDisposed
	case CodeTimeout:
		return ErrTimeout
	case CodeCommunicationError:
		return ErrCommunication
	default:
		return nil
	}
}

// Error is a classified chart error. Op names the operation that failed
// ("appendData", "render", "init", ...) so error events carry an operation
// tag across the bridge.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Op != "":
		return fmt.Sprintf("chartgpu: %s: %s: %s", e.Op, e.Code, e.Message)
	case e.Op != "":
		return fmt.Sprintf("chartgpu: %s: %s", e.Op, e.Code)
	case e.Message != "":
		return fmt.Sprintf("chartgpu: %s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("chartgpu: %s", e.Code)
	}
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinelFor(e.Code)
}

// Is reports whether target matches this error's class. It lets
// errors.Is(err, ErrDeviceLost) succeed even when the chain carries only
// the code.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Code)
}

// NewError builds a classified error. The message may be empty; cause may
// be nil.
func NewError(code ErrorCode, op, message string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: cause}
}

// CodeOf classifies err into an ErrorCode. Unrecognized errors map to
// CodeRenderError when they occur inside a frame and CodeCommunicationError
// on the bridge; callers that know better should construct *Error directly.
// CodeOf returns "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrGraphicsInit):
		return CodeGraphicsInitFailed
	case errors.Is(err, ErrDeviceLost):
		return CodeDeviceLost
	case errors.Is(err, ErrRender):
		return CodeRenderError
	case errors.Is(err, ErrData):
		return CodeDataError
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrDisposed):
		return CodeDisposed
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrCommunication):
		return CodeCommunicationError
	default:
		return CodeRenderError
	}
}
