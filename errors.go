package strictwire

import "errors"

var (
	ErrUnknownTag     = errors.New("strictwire: unknown variant tag")
	ErrTrailingBytes  = errors.New("strictwire: trailing bytes after value")
	ErrTypeMismatch   = errors.New("strictwire: value does not match plan type")
	ErrUnknownVariant = errors.New("strictwire: unknown variant name")
	ErrCaptureTag     = errors.New("strictwire: capture entry tag must be odd and undeclared")
)
