// Package jsonseries extracts numeric series from JSON documents using gjson paths.
package jsonseries

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gosigma/domain/spc"
	"gosigma/internal"
	"gosigma/internal/errors"

	"github.com/tidwall/gjson"
)

// Config selects where in the document the measurements live
type Config struct {
	// DataPath is a gjson path to the data; empty or "." means the document root
	DataPath string `json:"data_path"`
	// Fields restricts record-array documents to these keys, in this order
	Fields []string `json:"fields"`
	// Name labels a bare numeric array; defaults to "values"
	Name string `json:"name"`
}

// Reader implements ports.SeriesReader over JSON files
type Reader struct {
	config Config
	logger *internal.Logger
}

// NewReader creates a JSON series reader
func NewReader(config Config, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{config: config, logger: logger.WithComponent("JSONSeries")}
}

// ReadSeries loads a JSON file and extracts its series
func (r *Reader) ReadSeries(ctx context.Context, source string) ([]spc.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(source)
	if err != nil {
		return nil, errors.Wrapf(errors.InvalidInput(err.Error()), "failed to read %s", source)
	}
	return r.Extract(body)
}

// Extract pulls series out of a JSON body. Three shapes are understood at the data path:
//
//	[1.2, 1.3, ...]                       one series
//	{"a": [1, 2], "b": [3, 4]}            one series per numeric array member
//	[{"a": 1, "b": 3}, {"a": 2, "b": 4}]  one series per numeric field across records
func (r *Reader) Extract(body []byte) ([]spc.Series, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.InvalidInput("body is not valid JSON")
	}
	path := r.config.DataPath
	if path == "" {
		path = "."
	}
	var data gjson.Result
	if path == "." {
		data = gjson.ParseBytes(body)
	} else {
		data = gjson.GetBytes(body, path)
	}
	if !data.Exists() {
		return nil, errors.InvalidInput(fmt.Sprintf("data path '%s' not found", path))
	}

	var series []spc.Series
	switch {
	case data.IsArray() && isNumericArray(data):
		name := r.config.Name
		if name == "" {
			name = "values"
		}
		series = []spc.Series{{Name: name, Values: numbers(data)}}
	case data.IsArray():
		series = r.fromRecords(data)
	case data.IsObject():
		series = r.fromColumns(data)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("data path '%s' is not an array or object", path))
	}

	if len(series) == 0 {
		return nil, errors.InvalidInput("no numeric series found")
	}
	r.logger.Debug("Extracted %d series from %d bytes", len(series), len(body))
	return series, nil
}

func (r *Reader) fromRecords(data gjson.Result) []spc.Series {
	fields := r.config.Fields
	if len(fields) == 0 {
		seen := make(map[string]bool)
		data.ForEach(func(_, record gjson.Result) bool {
			record.ForEach(func(key, value gjson.Result) bool {
				if value.Type == gjson.Number && !seen[key.String()] {
					seen[key.String()] = true
					fields = append(fields, key.String())
				}
				return true
			})
			return true
		})
	}

	var series []spc.Series
	for _, field := range fields {
		values := make([]float64, 0)
		for _, v := range data.Get("#." + gjson.Escape(field)).Array() {
			if v.Type == gjson.Number {
				values = append(values, v.Float())
			}
		}
		if len(values) > 0 {
			series = append(series, spc.Series{Name: field, Values: values})
		}
	}
	return series
}

func (r *Reader) fromColumns(data gjson.Result) []spc.Series {
	columns := make(map[string][]float64)
	var names []string
	data.ForEach(func(key, value gjson.Result) bool {
		if value.IsArray() && isNumericArray(value) {
			columns[key.String()] = numbers(value)
			names = append(names, key.String())
		}
		return true
	})
	if len(r.config.Fields) > 0 {
		names = r.config.Fields
	} else {
		sort.Strings(names)
	}

	var series []spc.Series
	for _, name := range names {
		if values, ok := columns[name]; ok {
			series = append(series, spc.Series{Name: name, Values: values})
		}
	}
	return series
}

func isNumericArray(arr gjson.Result) bool {
	items := arr.Array()
	if len(items) == 0 {
		return false
	}
	for _, v := range items {
		if v.Type != gjson.Number {
			return false
		}
	}
	return true
}

func numbers(arr gjson.Result) []float64 {
	items := arr.Array()
	out := make([]float64, len(items))
	for i, v := range items {
		out[i] = v.Float()
	}
	return out
}
