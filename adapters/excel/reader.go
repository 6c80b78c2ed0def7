package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gosigma/domain/spc"
	"gosigma/internal"
	"gosigma/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader reads measurement columns from Excel and CSV files
type DataReader struct {
	config ReaderConfig
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{config: config, logger: logger.WithComponent("DataReader")}
}

// ReadSeries loads every numeric column of the file as a named series
func (r *DataReader) ReadSeries(ctx context.Context, source string) ([]spc.Series, error) {
	rows, err := r.ReadRows(ctx, source)
	if err != nil {
		return nil, err
	}
	return r.columnsToSeries(rows)
}

// ReadRows returns the raw cell grid of a .csv or .xlsx file, header row first
func (r *DataReader) ReadRows(ctx context.Context, source string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileType := fileTypeOf(source)
	r.logger.Debug("Starting to read %s file: %s", fileType, source)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(fileType), source))
	}

	var rows [][]string
	var err error
	start := time.Now()
	switch fileType {
	case "csv":
		rows, err = r.readCSV(source)
	case "xlsx":
		rows, err = r.readExcel(source)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", filepath.Ext(source)))
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", source, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s must have at least a header row and one data row", source))
	}
	return rows, nil
}

func (r *DataReader) readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open Excel file")
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(errors.InvalidInput(err.Error()), "failed to read sheet %s", sheet)
	}
	return rows, nil
}

func (r *DataReader) readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open CSV file")
	}
	defer file.Close()
	return ParseCSV(file)
}

// ParseCSV reads a CSV stream into a cell grid; rows may have differing widths
func ParseCSV(in io.Reader) ([][]string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to read CSV")
	}
	return rows, nil
}

// columnsToSeries keeps columns whose non-blank cells all parse as numbers. Blank cells
// are skipped, so ragged columns shorten rather than fail.
func (r *DataReader) columnsToSeries(rows [][]string) ([]spc.Series, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	var series []spc.Series
	for j, name := range headers {
		values, ok := numericColumn(rows[1:], j)
		if !ok {
			r.logger.Debug("Skipping non-numeric column %q", name)
			continue
		}
		if len(values) == 0 {
			continue
		}
		series = append(series, spc.Series{Name: name, Values: values})
	}

	if len(r.config.Columns) > 0 {
		byName := make(map[string]spc.Series, len(series))
		for _, s := range series {
			byName[s.Name] = s
		}
		selected := make([]spc.Series, 0, len(r.config.Columns))
		for _, name := range r.config.Columns {
			s, ok := byName[name]
			if !ok {
				return nil, errors.InvalidInput(fmt.Sprintf("column %q is missing or not numeric", name))
			}
			selected = append(selected, s)
		}
		series = selected
	}

	if len(series) == 0 {
		return nil, errors.InvalidInput("no numeric columns found")
	}
	r.logger.Info("Loaded %d numeric series from %d data rows", len(series), len(rows)-1)
	return series, nil
}

func numericColumn(rows [][]string, j int) ([]float64, bool) {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if j >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[j])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

func fileTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}
