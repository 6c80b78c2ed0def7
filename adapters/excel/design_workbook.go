package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gosigma/domain/doe"
	"gosigma/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	designSheet = "Design"
	metaSheet   = "Meta"
	runHeader   = "Run"
)

// WriteDesign renders a design matrix as a run sheet with an empty response column for
// operators to fill in, plus a metadata sheet describing the design
func WriteDesign(w io.Writer, design *doe.DesignMatrix, responseName string) error {
	if design == nil {
		return errors.InvalidInput("design is nil")
	}
	if responseName == "" {
		responseName = "Response"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", designSheet); err != nil {
		return errors.Wrap(err, "failed to name design sheet")
	}

	header := make([]interface{}, 0, len(design.Factors)+2)
	header = append(header, runHeader)
	for _, name := range design.Factors {
		header = append(header, name)
	}
	header = append(header, responseName)
	if err := f.SetSheetRow(designSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for r, run := range design.Runs {
		row := make([]interface{}, 0, len(run)+1)
		row = append(row, r+1)
		for _, v := range run {
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return errors.Wrap(err, "failed to address run row")
		}
		if err := f.SetSheetRow(designSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write run %d", r+1)
		}
	}

	if _, err := f.NewSheet(metaSheet); err != nil {
		return errors.Wrap(err, "failed to create metadata sheet")
	}
	meta := [][]interface{}{
		{"type", string(design.Type)},
		{"coded", strconv.FormatBool(design.Coded)},
		{"resolution", design.Resolution},
		{"runs", design.RunCount()},
	}
	for i, row := range meta {
		if err := f.SetSheetRow(metaSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return errors.Wrap(err, "failed to write metadata")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// ReadDesign parses a workbook produced by WriteDesign once its response column has been
// filled in. It returns the design and the response values in run order.
func ReadDesign(in io.Reader) (*doe.DesignMatrix, []float64, string, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, nil, "", errors.Wrap(errors.InvalidInput(err.Error()), "failed to open design workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(designSheet)
	if err != nil {
		return nil, nil, "", errors.Wrap(errors.InvalidInput(err.Error()), "failed to read design sheet")
	}
	if len(rows) < 2 || len(rows[0]) < 3 {
		return nil, nil, "", errors.InvalidInput("design sheet needs a header with Run, at least one factor and a response column")
	}

	header := rows[0]
	factors := make([]string, 0, len(header)-2)
	for _, h := range header[1 : len(header)-1] {
		factors = append(factors, strings.TrimSpace(h))
	}
	responseName := strings.TrimSpace(header[len(header)-1])

	design := &doe.DesignMatrix{Factors: factors}
	response := make([]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < len(header) || strings.TrimSpace(row[len(header)-1]) == "" {
			return nil, nil, "", errors.InvalidInput(fmt.Sprintf("run %d has no %s value", i+1, responseName))
		}
		run := make([]float64, len(factors))
		for j := range factors {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil {
				return nil, nil, "", errors.InvalidInput(fmt.Sprintf("run %d: %s is not numeric", i+1, factors[j]))
			}
			run[j] = v
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(row[len(header)-1]), 64)
		if err != nil {
			return nil, nil, "", errors.InvalidInput(fmt.Sprintf("run %d: %s is not numeric", i+1, responseName))
		}
		design.Runs = append(design.Runs, run)
		response = append(response, y)
	}

	if metaRows, err := f.GetRows(metaSheet); err == nil {
		for _, row := range metaRows {
			if len(row) < 2 {
				continue
			}
			switch row[0] {
			case "type":
				design.Type = doe.DesignType(row[1])
			case "coded":
				design.Coded, _ = strconv.ParseBool(row[1])
			case "resolution":
				design.Resolution = row[1]
			}
		}
	} else {
		design.Coded = looksCoded(design.Runs)
	}
	return design, response, responseName, nil
}

// looksCoded reports whether every value is -1, 0 or +1
func looksCoded(runs [][]float64) bool {
	for _, run := range runs {
		for _, v := range run {
			if v != -1 && v != 0 && v != 1 {
				return false
			}
		}
	}
	return true
}
