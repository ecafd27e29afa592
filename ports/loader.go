package ports

import (
	"context"

	"subsetlens/domain/dataset"
)

// DatasetLoader reads a dataset from an external source. Parsing and
// validation happen behind this port; the engine only sees finished datasets.
type DatasetLoader interface {
	Load(ctx context.Context, source string) (*dataset.Dataset, error)
}
