// Package errno defines the error taxonomy shared by the trader packages.
package errno

import "errors"

// Errno is a coded error. Packages wrap one of the sentinel values below with
// fmt.Errorf("...: %w", errno.ErrX) so callers can classify failures with
// errors.Is.
type Errno struct {
	Code    int
	Message string
}

func (e *Errno) Error() string {
	return e.Message
}

// Decode maps any error to a code and message. Unclassified errors are
// reported as internal errors carrying their own message.
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}
	var typed *Errno
	if errors.As(err, &typed) {
		return typed.Code, err.Error()
	}
	return ErrInternal.Code, err.Error()
}

// Recoverable reports whether the caller may retry the same operation with
// different input, e.g. re-prompting for a password.
func Recoverable(err error) bool {
	return errors.Is(err, ErrDecryption) || errors.Is(err, ErrBadRequest)
}

var (
	OK          = &Errno{Code: 0, Message: "success"}
	ErrInternal = &Errno{Code: 10001, Message: "internal error"}
)

// Request and configuration errors.
var (
	ErrBadRequest   = &Errno{Code: 20001, Message: "bad request"}
	ErrConfig       = &Errno{Code: 20002, Message: "configuration error"}
	ErrUnauthorized = &Errno{Code: 20003, Message: "unauthorized"}
)

// Key custody errors.
var (
	ErrDecryption = &Errno{Code: 30001, Message: "decryption failed"}
	ErrNoSecret   = &Errno{Code: 30002, Message: "no stored secret"}
	ErrLocked     = &Errno{Code: 30003, Message: "wallet locked"}
	ErrSigning    = &Errno{Code: 30004, Message: "signing failed"}
)

// Chain interaction errors.
var (
	ErrCodec       = &Errno{Code: 40001, Message: "contract codec error"}
	ErrZeroReserve = &Errno{Code: 40002, Message: "zero reserve"}
	ErrTransport   = &Errno{Code: 40003, Message: "transport error"}
)
