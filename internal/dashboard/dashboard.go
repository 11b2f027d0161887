package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/deploymenttheory/go-covid-reports/internal/logger"
	"github.com/deploymenttheory/go-covid-reports/internal/report"
)

const (
	// DefaultOutputFile is written in the working directory
	DefaultOutputFile = "covid_chart.html"

	// AllYears is the year selector value that disables year filtering
	AllYears = "All"

	yearParam   = "Year"
	regionParam = "region"

	title  = "COVID-19 confirmed cases in the European Union"
	width  = 800
	height = 500
)

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="https://cdn.jsdelivr.net/npm/vega@5"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-lite@5"></script>
  <script src="https://cdn.jsdelivr.net/npm/vega-embed@6"></script>
</head>
<body>
  <div id="vis"></div>
  <script type="text/javascript">
    vegaEmbed("#vis", {{.Spec}}).catch(console.error);
  </script>
</body>
</html>
`))

// Build creates the line chart of confirmed cases over time, one series
// per region. A select input filters by year (default AllYears) and
// clicking a legend entry isolates that region.
func Build(view []report.Aggregate) *Chart {
	values := make([]Point, 0, len(view))
	years := make(map[int]bool)
	for _, a := range view {
		values = append(values, Point{
			Date:      a.Date.Format("2006-01-02"),
			Region:    a.Region,
			Month:     a.Month,
			Year:      a.Year,
			YearLabel: strconv.Itoa(a.Year),
			Confirmed: a.Confirmed,
		})
		years[a.Year] = true
	}

	return &Chart{
		Schema: schemaURL,
		Title:  title,
		Width:  width,
		Height: height,
		Data:   Data{Values: values},
		Mark:   Mark{Type: "line", Opacity: 0.8},
		Encoding: Encoding{
			X:     Channel{Field: "Date", Type: "temporal", Title: "Date"},
			Y:     Channel{Field: "Confirmed", Type: "quantitative", Title: "Confirmed cases"},
			Color: Channel{Field: "Region", Type: "nominal"},
			Tooltip: []Channel{
				{Field: "Region", Type: "nominal"},
				{Field: "Date", Type: "temporal"},
				{Field: "Confirmed", Type: "quantitative"},
			},
		},
		Params: []Param{
			{
				Name:  yearParam,
				Value: AllYears,
				Bind:  InputBinding{Input: "select", Options: YearOptions(years), Name: "Year"},
			},
			{
				Name:   regionParam,
				Select: &Selection{Type: "point", Fields: []string{"Region"}},
				Bind:   "legend",
			},
		},
		Transform: []Transform{
			{Filter: fmt.Sprintf("%s == '%s' || datum.YearLabel == %s", yearParam, AllYears, yearParam)},
			{Filter: ParamPredicate{Param: regionParam}},
		},
	}
}

// YearOptions returns AllYears followed by the years in ascending order
func YearOptions(years map[int]bool) []string {
	sorted := make([]int, 0, len(years))
	for y := range years {
		sorted = append(sorted, y)
	}
	sort.Ints(sorted)

	options := make([]string, 0, len(sorted)+1)
	options = append(options, AllYears)
	for _, y := range sorted {
		options = append(options, strconv.Itoa(y))
	}
	return options
}

// WriteHTML writes a standalone page rendering the chart with vega-embed
func (c *Chart) WriteHTML(w io.Writer) error {
	spec, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}

	return page.Execute(w, struct {
		Title string
		Spec  template.JS
	}{
		Title: c.Title,
		Spec:  template.JS(spec),
	})
}

// Render builds the chart for view and saves it as an HTML page at path
func Render(view []report.Aggregate, path string) (*Chart, error) {
	chart := Build(view)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart file: %w", err)
	}

	if err := chart.WriteHTML(file); err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close chart file: %w", err)
	}

	logger.Infof("Chart with %d points saved to %s", len(chart.Data.Values), path)
	return chart, nil
}
