package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported statement file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatOFX   Format = "ofx"
	FormatQFX   Format = "qfx"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
	FormatTXT   Format = "txt"
	FormatMT940 Format = "mt940"
	FormatXLS   Format = "xls"
	FormatXLSX  Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// ErrUnsupportedFormat is returned for file extensions outside the
// supported set.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// formatByExtension is the closed extension lookup table. Extensions not
// listed here are rejected explicitly, never silently defaulted.
var formatByExtension = map[string]Format{
	".csv":   FormatCSV,
	".ofx":   FormatOFX,
	".qfx":   FormatQFX,
	".json":  FormatJSON,
	".xml":   FormatXML,
	".txt":   FormatTXT,
	".mt940": FormatMT940,
	".xls":   FormatXLS,
	".xlsx":  FormatXLSX,
	".pdf":   FormatPDF,
}

// DetectFormat maps a filename to its statement format by lowercase
// extension.
func DetectFormat(fileName string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, fileName)
	}

	format, ok := formatByExtension[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Queued reports whether the format is parsed on the background queue
// instead of inline. Only PDF parsing is expensive enough to defer.
func (f Format) Queued() bool {
	return f == FormatPDF
}

func (f Format) String() string {
	return string(f)
}
