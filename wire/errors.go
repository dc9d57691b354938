package wire

import "errors"

var (
	ErrTruncated      = errors.New("wire: truncated input")
	ErrLengthMismatch = errors.New("wire: length exceeds prefix capacity or remaining input")
	ErrInvalidBool    = errors.New("wire: invalid bool byte")
	ErrInvalidString  = errors.New("wire: invalid utf-8 in string")
	ErrBadWidth       = errors.New("wire: unsupported integer width")
	ErrOverflow       = errors.New("wire: value does not fit integer width")
)
