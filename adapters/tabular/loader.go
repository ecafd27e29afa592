package tabular

import (
	"context"
	"path/filepath"
	"strings"

	"subsetlens/domain/dataset"
	"subsetlens/internal"
	"subsetlens/internal/errors"
)

// Loader turns CSV and Excel files into datasets
type Loader struct {
	Sheet  string
	Logger *internal.Logger
}

// NewLoader creates a loader reading the given Excel sheet, or the first one
// when sheet is empty
func NewLoader(sheet string, logger *internal.Logger) *Loader {
	return &Loader{Sheet: sheet, Logger: logger}
}

// Load reads the file at path and parses it into a dataset named after the
// file
func (l *Loader) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := NewDataReader(path, l.Sheet, l.Logger).ReadTable()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds, err := dataset.FromTable(name, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return ds, nil
}
