// ABOUTME: Error types returned by the export document reader.
// ABOUTME: FormatError aborts a run; ElementError covers one malformed element.
package exportxml

import "fmt"

// FormatError reports that the export as a whole is unusable: the document
// could not be found, opened, or has no root element.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("export format %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ElementError reports a single malformed element. The reader recovers at the
// next entry element, so these are counted rather than treated as fatal.
type ElementError struct {
	Offset int64
	Tag    string
	Err    error
}

func (e *ElementError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("malformed element at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed <%s> at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}
