package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-covid-reports/internal/logger"
	"github.com/deploymenttheory/go-covid-reports/internal/storage"
)

// FileExtension is the suffix of the files picked up by LoadAll
const FileExtension = ".csv"

const byteOrderMark = "\ufeff"

// LoadAll reads every report file in dir, see Load
func LoadAll(dir string) (*Table, error) {
	return Load(storage.New(dir))
}

// Load reads every .csv file of store in file name order, stamps each row
// with the date parsed from its file name and concatenates the rows.
// Row order within a file is preserved. A file whose name does not
// follow DateLayout fails the whole load.
func Load(store storage.Storage) (*Table, error) {
	names, err := store.List(FileExtension)
	if err != nil {
		return nil, err
	}

	table := &Table{}
	known := make(map[string]bool)

	for _, name := range names {
		date, err := DateFromFileName(name)
		if err != nil {
			return nil, &ParseError{File: name, Err: err}
		}

		header, records, err := readReport(store.Path(name), name, date)
		if err != nil {
			return nil, err
		}

		for _, column := range header {
			if !known[column] {
				known[column] = true
				table.Columns = append(table.Columns, column)
			}
		}
		table.Records = append(table.Records, records...)

		logger.Debugf("Loaded %d rows from %s", len(records), name)
	}

	logger.Infof("Loaded %d rows from %d report files", table.Len(), len(names))
	return table, nil
}

// DateFromFileName parses the part of name before the first dot with
// DateLayout, e.g. 03-22-2020.csv
func DateFromFileName(name string) (time.Time, error) {
	prefix, _, _ := strings.Cut(name, ".")
	date, err := time.Parse(DateLayout, prefix)
	if err != nil {
		return time.Time{}, fmt.Errorf("file name does not match %s: %w", DateLayout, err)
	}
	return date, nil
}

func readReport(path, name string, date time.Time) ([]string, []Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &ParseError{File: name, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("no header row")
		}
		return nil, nil, &ParseError{File: name, Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], byteOrderMark))
	}

	regionIdx := indexOf(header, ColumnRegion)
	if regionIdx < 0 {
		regionIdx = indexOf(header, ColumnRegionLegacy)
	}
	confirmedIdx := indexOf(header, ColumnConfirmed)

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &ParseError{File: name, Err: err}
		}
		line, _ := reader.FieldPos(0)

		record := Record{
			Date:   date,
			Source: name,
			Fields: make(map[string]string, len(header)),
		}
		for i, column := range header {
			if i < len(row) {
				record.Fields[column] = row[i]
			}
		}
		if regionIdx >= 0 && regionIdx < len(row) {
			record.Region = strings.TrimSpace(row[regionIdx])
		}
		if confirmedIdx >= 0 && confirmedIdx < len(row) {
			record.Confirmed, err = parseCount(row[confirmedIdx])
			if err != nil {
				return nil, nil, &ParseError{File: name, Line: line, Err: err}
			}
		}

		records = append(records, record)
	}

	return header, records, nil
}

// parseCount reads a case count. Empty cells count as zero and some
// reports carry counts as decimals.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s value %q", ColumnConfirmed, s)
	}
	return int64(math.Round(f)), nil
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
