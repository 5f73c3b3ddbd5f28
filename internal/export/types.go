// Package export renders project status reports and prints them to PDF.
package export

import "errors"

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are
// unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
