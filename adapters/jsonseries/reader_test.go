package jsonseries

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gosigma/internal"
	"gosigma/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReader(cfg Config) *Reader {
	return NewReader(cfg, internal.NewLogger(internal.LogLevelError))
}

func TestExtractShapes(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		body   string
		series map[string][]float64
		order  []string
	}{
		{
			name:   "bare array",
			body:   `[1, 2.5, 3]`,
			series: map[string][]float64{"values": {1, 2.5, 3}},
			order:  []string{"values"},
		},
		{
			name:   "named bare array under path",
			cfg:    Config{DataPath: "line.diameter", Name: "diameter"},
			body:   `{"line": {"diameter": [10.1, 9.9]}}`,
			series: map[string][]float64{"diameter": {10.1, 9.9}},
			order:  []string{"diameter"},
		},
		{
			name:   "column object",
			body:   `{"b": [3, 4], "a": [1, 2], "label": "x", "mixed": [1, "two"]}`,
			series: map[string][]float64{"a": {1, 2}, "b": {3, 4}},
			order:  []string{"a", "b"},
		},
		{
			name: "record array",
			cfg:  Config{DataPath: "data"},
			body: `{"data": [{"id": "p1", "w": 1.5, "h": 7}, {"id": "p2", "w": 2.5}, {"id": "p3", "w": 3.5, "h": 9}]}`,
			series: map[string][]float64{
				"w": {1.5, 2.5, 3.5},
				"h": {7, 9},
			},
			order: []string{"w", "h"},
		},
		{
			name:   "record array with field selection",
			cfg:    Config{DataPath: "data", Fields: []string{"h"}},
			body:   `{"data": [{"w": 1, "h": 7}, {"w": 2, "h": 8}]}`,
			series: map[string][]float64{"h": {7, 8}},
			order:  []string{"h"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := newReader(tt.cfg).Extract([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, series, len(tt.order))
			for i, s := range series {
				assert.Equal(t, tt.order[i], s.Name)
				assert.Equal(t, tt.series[s.Name], s.Values)
			}
		})
	}
}

func TestExtractErrors(t *testing.T) {
	bodies := map[string]struct {
		cfg  Config
		body string
	}{
		"invalid json":    {body: `{"a": [1, 2`},
		"missing path":    {cfg: Config{DataPath: "nope"}, body: `{"a": [1]}`},
		"scalar":          {cfg: Config{DataPath: "a"}, body: `{"a": 3}`},
		"nothing numeric": {body: `{"a": ["x", "y"]}`},
	}
	for name, tc := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := newReader(tc.cfg).Extract([]byte(tc.body))
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestReadSeriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"torque": [5, 6, 7]}`), 0o644))

	series, err := newReader(Config{}).ReadSeries(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, []float64{5, 6, 7}, series[0].Values)

	_, err = newReader(Config{}).ReadSeries(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
