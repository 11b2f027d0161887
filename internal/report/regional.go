package report

import (
	"sort"
	"time"
)

type regionKey struct {
	date   time.Time
	region string
}

// PrepareRegionalView keeps the rows whose region is in regions and sums
// Confirmed per (date, region). For every date with at least one matched
// row a CombinedLabel row carrying the sum over all matched regions is
// appended after the per-region rows. Per-region rows are ordered by date
// then region, combined rows by date.
func PrepareRegionalView(table *Table, regions []string) []Aggregate {
	if table == nil {
		return nil
	}

	wanted := make(map[string]bool, len(regions))
	for _, r := range regions {
		wanted[r] = true
	}

	perRegion := make(map[regionKey]int64)
	perDate := make(map[time.Time]int64)
	for _, record := range table.Records {
		if !wanted[record.Region] {
			continue
		}
		perRegion[regionKey{date: record.Date, region: record.Region}] += record.Confirmed
		perDate[record.Date] += record.Confirmed
	}

	keys := make([]regionKey, 0, len(perRegion))
	for k := range perRegion {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].region < keys[j].region
	})

	dates := make([]time.Time, 0, len(perDate))
	for d := range perDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	view := make([]Aggregate, 0, len(keys)+len(dates))
	for _, k := range keys {
		view = append(view, newAggregate(k.date, k.region, perRegion[k]))
	}
	for _, d := range dates {
		view = append(view, newAggregate(d, CombinedLabel, perDate[d]))
	}
	return view
}

func newAggregate(date time.Time, region string, confirmed int64) Aggregate {
	return Aggregate{
		Date:      date,
		Region:    region,
		Month:     int(date.Month()),
		Year:      date.Year(),
		Confirmed: confirmed,
	}
}
