package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when a column holds no non-missing values to reduce.
	ErrNoData = errors.New("no data")

	// ErrTableShape is wrapped when columns disagree on length or names repeat.
	ErrTableShape = errors.New("invalid table shape")
)

// MissingColumnError reports a required column that the table does not have.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("data must contain %q column", e.Column)
}

// ColumnTypeError reports a column whose kind cannot serve the requested analysis.
type ColumnTypeError struct {
	Column string
	Want   Kind
	Got    Kind
}

func (e *ColumnTypeError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Got, e.Want)
}

// UnsupportedFormatError is returned by the loader for unrecognized file extensions.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for %s: use CSV, TSV, XLSX or Arrow", e.Ext, e.Path)
}

// IsMissingColumn reports whether err is, or wraps, a MissingColumnError.
func IsMissingColumn(err error) bool {
	var mc *MissingColumnError
	return errors.As(err, &mc)
}
