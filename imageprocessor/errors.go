package imageprocessor

import "fmt"

// UnsupportedFormatError is returned when a file extension is not in the
// recognized set. The file is skipped.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: %s", e.Ext, e.Path)
}

// DecodeError is returned when a recognized file cannot be decoded, for
// example corrupt or truncated data. The file is skipped.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}
