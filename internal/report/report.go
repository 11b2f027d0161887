// Package report loads JHU CSSE daily report files and derives the
// regional series shown on the dashboard.
package report

import (
	"fmt"
	"time"
)

// DateLayout is the month-day-year pattern of report file names
const DateLayout = "01-02-2006"

// Column names used by the daily reports. Files published before
// 2020-03-22 use the slash spelling of the region column.
const (
	ColumnRegion       = "Country_Region"
	ColumnRegionLegacy = "Country/Region"
	ColumnConfirmed    = "Confirmed"
)

// CombinedLabel is the region name of the synthetic total series
const CombinedLabel = "Total Europe"

// EUCountries are the member states as spelled in the daily reports.
// Czechia replaced Czech Republic in later files, so both are listed.
var EUCountries = []string{
	"Austria", "Belgium", "Bulgaria", "Croatia", "Cyprus", "Czech Republic",
	"Czechia", "Denmark", "Estonia", "Finland", "France", "Germany", "Greece",
	"Hungary", "Ireland", "Italy", "Latvia", "Lithuania", "Luxembourg", "Malta",
	"Netherlands", "Poland", "Portugal", "Romania", "Slovakia", "Slovenia",
	"Spain", "Sweden",
}

// Record is one row of a daily report
type Record struct {
	Date      time.Time
	Region    string
	Confirmed int64
	Source    string
	Fields    map[string]string
}

// Table is the concatenation of all loaded report rows
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Records)
}

// Aggregate is the confirmed count of one region, or of the combined
// total, on one date
type Aggregate struct {
	Date      time.Time
	Region    string
	Month     int
	Year      int
	Confirmed int64
}

// ParseError reports a report file that cannot be loaded
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
