package core

import "fmt"

// ErrorCode classifies the client-facing failure kinds.
type ErrorCode int

const (
	// ErrConfigMissing indicates no config file was found at either
	// candidate location (CWD or next to the executable).
	ErrConfigMissing ErrorCode = iota + 1

	// ErrTlsMaterialMissing indicates a configured cert/key/ca path could
	// not be resolved.
	ErrTlsMaterialMissing

	// ErrLocalPathInvalid indicates a push source does not exist, is not a
	// regular file (push) or not a directory (image push), or an
	// image-push root is empty.
	ErrLocalPathInvalid

	// ErrRemoteRejected indicates the server returned an error on push,
	// lock, push_finish, or similar; Message carries the server's text.
	ErrRemoteRejected

	// ErrTransport indicates an underlying RPC failure, surfaced unchanged.
	ErrTransport

	// ErrUnpullableRemote indicates get_file_info returned no BLAKE3 digest.
	ErrUnpullableRemote

	// ErrSavePathConflict indicates the local save target exists and
	// overwrite=false.
	ErrSavePathConflict

	// ErrHashMismatch indicates the post-download digest disagreed with the
	// remote's; the partial file is deleted before this error is returned.
	ErrHashMismatch

	// ErrUnknownKey indicates a Write-Handle Registry miss. Never
	// propagated past the inbound callback; logged and swallowed there.
	ErrUnknownKey
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrConfigMissing:
		return "ConfigMissing"
	case ErrTlsMaterialMissing:
		return "TlsMaterialMissing"
	case ErrLocalPathInvalid:
		return "LocalPathInvalid"
	case ErrRemoteRejected:
		return "RemoteRejected"
	case ErrTransport:
		return "Transport"
	case ErrUnpullableRemote:
		return "UnpullableRemote"
	case ErrSavePathConflict:
		return "SavePathConflict"
	case ErrHashMismatch:
		return "HashMismatch"
	case ErrUnknownKey:
		return "UnknownKey"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the client's error type: a classifying code, a message, and an
// optional wrapped cause (e.g. a transport or I/O error).
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

func NewConfigMissingError(path string) *Error {
	return newError(ErrConfigMissing, fmt.Sprintf("no configuration file found at %s", path), nil)
}

func NewTlsMaterialMissingError(field, path string) *Error {
	return newError(ErrTlsMaterialMissing, fmt.Sprintf("tls %s not resolvable: %s", field, path), nil)
}

func NewLocalPathInvalidError(path, reason string) *Error {
	return newError(ErrLocalPathInvalid, fmt.Sprintf("%s: %s", path, reason), nil)
}

func NewRemoteRejectedError(msg string) *Error {
	return newError(ErrRemoteRejected, msg, nil)
}

func NewTransportError(cause error) *Error {
	return newError(ErrTransport, "rpc transport failure", cause)
}

func NewUnpullableRemoteError(path string) *Error {
	return newError(ErrUnpullableRemote, fmt.Sprintf("%s: server returned no blake3 digest", path), nil)
}

func NewSavePathConflictError(path string) *Error {
	return newError(ErrSavePathConflict, fmt.Sprintf("save path already exists: %s", path), nil)
}

// NewHashMismatchError carries both digests so the caller can report what
// was expected and what was actually received.
func NewHashMismatchError(path, want, got string) *Error {
	return newError(ErrHashMismatch, fmt.Sprintf("%s: expected blake3 %s, got %s", path, want, got), nil)
}

func NewUnknownKeyError(key TransferKey) *Error {
	return newError(ErrUnknownKey, fmt.Sprintf("unknown transfer key %d", uint64(key)), nil)
}
