package ports

import (
	"context"

	"gosigma/domain/spc"
)

// SeriesReader loads named numeric series from an external source such as a CSV or XLSX
// file or a JSON document
type SeriesReader interface {
	ReadSeries(ctx context.Context, source string) ([]spc.Series, error)
}
