package dashboard

// Vega-Lite v5 subset used by the dashboard

const schemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Chart is a single-view Vega-Lite specification
type Chart struct {
	Schema    string      `json:"$schema"`
	Title     string      `json:"title"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Data      Data        `json:"data"`
	Mark      Mark        `json:"mark"`
	Encoding  Encoding    `json:"encoding"`
	Params    []Param     `json:"params"`
	Transform []Transform `json:"transform"`
}

// Data holds inline rows
type Data struct {
	Values []Point `json:"values"`
}

// Point is one row of the plotted data
type Point struct {
	Date      string `json:"Date"`
	Region    string `json:"Region"`
	Month     int    `json:"Month"`
	Year      int    `json:"Year"`
	YearLabel string `json:"YearLabel"`
	Confirmed int64  `json:"Confirmed"`
}

type Mark struct {
	Type    string  `json:"type"`
	Opacity float64 `json:"opacity,omitempty"`
}

type Encoding struct {
	X       Channel   `json:"x"`
	Y       Channel   `json:"y"`
	Color   Channel   `json:"color"`
	Tooltip []Channel `json:"tooltip,omitempty"`
}

type Channel struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// Param is either a variable parameter (Value, Bind) or a selection
// parameter (Select, Bind)
type Param struct {
	Name   string      `json:"name"`
	Value  interface{} `json:"value,omitempty"`
	Select *Selection  `json:"select,omitempty"`
	Bind   interface{} `json:"bind,omitempty"`
}

// InputBinding binds a parameter to an HTML input element
type InputBinding struct {
	Input   string   `json:"input"`
	Options []string `json:"options,omitempty"`
	Name    string   `json:"name,omitempty"`
}

type Selection struct {
	Type   string   `json:"type"`
	Fields []string `json:"fields"`
}

// Transform is a filter transform; Filter is an expression string or a
// ParamPredicate
type Transform struct {
	Filter interface{} `json:"filter"`
}

type ParamPredicate struct {
	Param string `json:"param"`
}
