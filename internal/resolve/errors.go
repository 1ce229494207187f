package resolve

import "fmt"

// FileAccessError reports that a file referenced through an extends
// field could not be opened. This is fatal and aborts the whole
// resolution: a broken file reference is a configuration mistake the
// caller must fix.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("reading extends file %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}
